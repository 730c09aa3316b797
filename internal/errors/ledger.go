package errors

import "net/http"

// Ledger rule violations. Each code is stable and safe to show to API clients.
const (
	ErrCodeInvoiceNotPayable                   = "invoice_not_payable"
	ErrCodeAmountExceedsRemaining              = "amount_exceeds_remaining"
	ErrCodeInvoiceAlreadyPaid                  = "invoice_already_paid"
	ErrCodeInvoiceAlreadyCancelled             = "invoice_already_cancelled"
	ErrCodeInvoiceAlreadyFullyPaid             = "invoice_already_fully_paid"
	ErrCodeInvoiceHasPayments                  = "invoice_has_payments"
	ErrCodeInvoiceNotCancellable               = "invoice_not_cancellable"
	ErrCodePaymentMethodInactiveOrNotOwned     = "payment_method_inactive_or_not_owned"
	ErrCodePaymentNotRefundable                = "payment_not_refundable"
	ErrCodeRefundExceedsRefundable             = "refund_exceeds_refundable"
	ErrCodeFullRefundRequiresUnrefundedPayment = "full_refund_requires_unrefunded_payment"
	ErrCodeRefundNotCancellable                = "refund_not_cancellable"
	ErrCodeInvalidTransition                   = "invalid_transition"
	ErrCodeAggregateOnHold                     = "aggregate_on_hold"
	ErrCodeLedgerCorrupted                     = "ledger_corrupted"
)

var (
	ErrInvoiceNotPayable                   = new(ErrCodeInvoiceNotPayable, "invoice is not payable")
	ErrAmountExceedsRemaining              = new(ErrCodeAmountExceedsRemaining, "amount exceeds the invoice remaining amount")
	ErrInvoiceAlreadyPaid                  = new(ErrCodeInvoiceAlreadyPaid, "invoice is already paid")
	ErrInvoiceAlreadyCancelled             = new(ErrCodeInvoiceAlreadyCancelled, "invoice is already cancelled")
	ErrInvoiceAlreadyFullyPaid             = new(ErrCodeInvoiceAlreadyFullyPaid, "invoice has nothing left to pay")
	ErrInvoiceHasPayments                  = new(ErrCodeInvoiceHasPayments, "invoice has completed payments")
	ErrInvoiceNotCancellable               = new(ErrCodeInvoiceNotCancellable, "invoice can not be cancelled")
	ErrPaymentMethodInactiveOrNotOwned     = new(ErrCodePaymentMethodInactiveOrNotOwned, "payment method is inactive or not owned by the payer")
	ErrPaymentNotRefundable                = new(ErrCodePaymentNotRefundable, "payment is not refundable")
	ErrRefundExceedsRefundable             = new(ErrCodeRefundExceedsRefundable, "refund exceeds the payment refundable amount")
	ErrFullRefundRequiresUnrefundedPayment = new(ErrCodeFullRefundRequiresUnrefundedPayment, "full refund requires a payment without prior refunds")
	ErrRefundNotCancellable                = new(ErrCodeRefundNotCancellable, "refund can not be cancelled")
	ErrInvalidTransition                   = new(ErrCodeInvalidTransition, "invalid status transition")
	ErrAggregateOnHold                     = new(ErrCodeAggregateOnHold, "aggregate is on reconciliation hold")
	ErrLedgerCorrupted                     = new(ErrCodeLedgerCorrupted, "ledger invariant violated")
)

var ledgerRegistry = []registered{
	{ErrInvoiceNotPayable, http.StatusUnprocessableEntity},
	{ErrAmountExceedsRemaining, http.StatusUnprocessableEntity},
	{ErrInvoiceAlreadyPaid, http.StatusConflict},
	{ErrInvoiceAlreadyCancelled, http.StatusConflict},
	{ErrInvoiceAlreadyFullyPaid, http.StatusConflict},
	{ErrInvoiceHasPayments, http.StatusConflict},
	{ErrInvoiceNotCancellable, http.StatusConflict},
	{ErrPaymentMethodInactiveOrNotOwned, http.StatusUnprocessableEntity},
	{ErrPaymentNotRefundable, http.StatusUnprocessableEntity},
	{ErrRefundExceedsRefundable, http.StatusUnprocessableEntity},
	{ErrFullRefundRequiresUnrefundedPayment, http.StatusUnprocessableEntity},
	{ErrRefundNotCancellable, http.StatusConflict},
	{ErrInvalidTransition, http.StatusConflict},
	{ErrAggregateOnHold, http.StatusLocked},
	{ErrLedgerCorrupted, http.StatusInternalServerError},
}

// IsLedgerRule reports whether err is a precondition or invariant rejection
// raised by one of the ledger state machines.
func IsLedgerRule(err error) bool {
	for _, entry := range ledgerRegistry {
		if entry.sentinel == ErrLedgerCorrupted {
			continue
		}
		if Is(err, entry.sentinel) {
			return true
		}
	}
	return false
}

// IsLedgerCorrupted checks if an error signals a broken ledger invariant
func IsLedgerCorrupted(err error) bool {
	return Is(err, ErrLedgerCorrupted)
}

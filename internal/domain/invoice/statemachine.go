package invoice

import (
	"time"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

// The transitions below never mutate their input. They return a modified
// clone which the caller persists through Repository.Update.

// AdmitPayment checks whether amount can be paid against inv given the
// remaining amount observed under the invoice row lock.
func AdmitPayment(inv *Invoice, remaining, amount decimal.Decimal) error {
	if err := CheckWritable(inv); err != nil {
		return err
	}

	switch inv.InvoiceStatus {
	case types.InvoiceStatusCancelled, types.InvoiceStatusArchived:
		return ierr.NewError("invoice is not payable").
			WithHintf("Invoice %s is %s and can not accept payments", inv.InvoiceNumber, inv.InvoiceStatus).
			WithReportableDetails(map[string]any{
				"invoice_id":     inv.ID,
				"invoice_status": inv.InvoiceStatus,
			}).
			Mark(ierr.ErrInvoiceNotPayable)
	case types.InvoiceStatusPaid:
		return alreadyFullyPaid(inv, remaining)
	}

	if !remaining.IsPositive() {
		return alreadyFullyPaid(inv, remaining)
	}

	if !amount.IsPositive() {
		return ierr.NewError("payment amount must be positive").
			WithHint("Payment amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}

	if amount.GreaterThan(remaining) {
		return ierr.NewError("payment amount exceeds remaining amount").
			WithHintf("Payment of %s exceeds the remaining %s on invoice %s",
				amount.StringFixed(types.MoneyPrecision),
				remaining.StringFixed(types.MoneyPrecision),
				inv.InvoiceNumber).
			WithReportableDetails(map[string]any{
				"invoice_id":       inv.ID,
				"amount":           amount.String(),
				"remaining_amount": remaining.String(),
			}).
			Mark(ierr.ErrAmountExceedsRemaining)
	}

	return nil
}

// ApplyRemaining settles the invoice when the remaining amount observed after
// a completed payment reached zero. changed is false when nothing moved.
func ApplyRemaining(inv *Invoice, remaining decimal.Decimal, now time.Time) (next *Invoice, changed bool) {
	next = inv.Clone()
	if !inv.InvoiceStatus.IsUnpaid() || remaining.IsPositive() {
		return next, false
	}
	next.InvoiceStatus = types.InvoiceStatusPaid
	next.PaidDate = &now
	return next, true
}

// Cancel moves an unpaid invoice to cancelled. An invoice that already
// received money can not be cancelled.
func Cancel(inv *Invoice, reason *string, hasCompletedPayments bool, now time.Time) (*Invoice, error) {
	if err := CheckWritable(inv); err != nil {
		return nil, err
	}

	switch inv.InvoiceStatus {
	case types.InvoiceStatusPaid:
		return nil, ierr.NewError("invoice is already paid").
			WithHintf("Invoice %s is already paid and can not be cancelled", inv.InvoiceNumber).
			Mark(ierr.ErrInvoiceAlreadyPaid)
	case types.InvoiceStatusCancelled:
		return nil, ierr.NewError("invoice is already cancelled").
			WithHintf("Invoice %s is already cancelled", inv.InvoiceNumber).
			Mark(ierr.ErrInvoiceAlreadyCancelled)
	case types.InvoiceStatusArchived:
		return nil, ierr.NewError("invoice is archived").
			WithHintf("Invoice %s is archived and can not be cancelled", inv.InvoiceNumber).
			Mark(ierr.ErrInvoiceNotCancellable)
	}

	if hasCompletedPayments {
		return nil, ierr.NewError("invoice has completed payments").
			WithHintf("Invoice %s is partially paid and can not be cancelled", inv.InvoiceNumber).
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrInvoiceHasPayments)
	}

	next := inv.Clone()
	next.InvoiceStatus = types.InvoiceStatusCancelled
	next.CancelledAt = &now
	next.CancellationReason = cloneString(reason)
	return next, nil
}

// MarkPaid is the administrative override that settles an invoice regardless
// of its remaining amount. It is a no-op on an invoice that is already paid.
func MarkPaid(inv *Invoice, now time.Time) (next *Invoice, changed bool, err error) {
	if err := CheckWritable(inv); err != nil {
		return nil, false, err
	}

	switch inv.InvoiceStatus {
	case types.InvoiceStatusCancelled:
		return nil, false, ierr.NewError("invoice is already cancelled").
			WithHintf("Invoice %s is cancelled and can not be marked as paid", inv.InvoiceNumber).
			Mark(ierr.ErrInvoiceAlreadyCancelled)
	case types.InvoiceStatusArchived:
		return nil, false, ierr.NewError("invoice is archived").
			WithHintf("Invoice %s is archived and can not be marked as paid", inv.InvoiceNumber).
			Mark(ierr.ErrInvoiceNotPayable)
	case types.InvoiceStatusPaid:
		return inv.Clone(), false, nil
	}

	next = inv.Clone()
	next.InvoiceStatus = types.InvoiceStatusPaid
	next.PaidDate = &now
	return next, true, nil
}

// MarkOverdue flags a pending invoice whose due date has passed
func MarkOverdue(inv *Invoice, now time.Time) (*Invoice, error) {
	if err := CheckWritable(inv); err != nil {
		return nil, err
	}

	if inv.InvoiceStatus != types.InvoiceStatusPending {
		return nil, invalidTransition(inv, types.InvoiceStatusOverdue)
	}
	if !inv.DueDate.Before(now) {
		return nil, ierr.NewError("invoice is not past due").
			WithHintf("Invoice %s is not due until %s", inv.InvoiceNumber, inv.DueDate.Format(time.DateOnly)).
			Mark(ierr.ErrInvalidTransition)
	}

	next := inv.Clone()
	next.InvoiceStatus = types.InvoiceStatusOverdue
	return next, nil
}

// Archive retires a paid invoice
func Archive(inv *Invoice, now time.Time) (*Invoice, error) {
	if err := CheckWritable(inv); err != nil {
		return nil, err
	}

	if inv.InvoiceStatus != types.InvoiceStatusPaid {
		return nil, invalidTransition(inv, types.InvoiceStatusArchived)
	}

	next := inv.Clone()
	next.InvoiceStatus = types.InvoiceStatusArchived
	next.ArchivedAt = &now
	return next, nil
}

// CanDelete reports whether the invoice may be soft deleted
func CanDelete(inv *Invoice, hasCompletedPayments bool) error {
	if err := CheckWritable(inv); err != nil {
		return err
	}
	if !inv.InvoiceStatus.IsUnpaid() {
		return ierr.NewError("only unpaid invoices can be deleted").
			WithHintf("Invoice %s is %s and can not be deleted", inv.InvoiceNumber, inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	if hasCompletedPayments {
		return ierr.NewError("invoice has completed payments").
			WithHintf("Invoice %s has payments and can not be deleted", inv.InvoiceNumber).
			Mark(ierr.ErrInvoiceHasPayments)
	}
	return nil
}

// CheckWritable rejects writes to an invoice under a reconciliation hold
func CheckWritable(inv *Invoice) error {
	if inv.IsOnHold() {
		return ierr.NewError("invoice is on reconciliation hold").
			WithHintf("Invoice %s is on hold pending manual reconciliation", inv.InvoiceNumber).
			WithReportableDetails(map[string]any{
				"invoice_id":  inv.ID,
				"hold_reason": *inv.HoldReason,
			}).
			Mark(ierr.ErrAggregateOnHold)
	}
	return nil
}

func alreadyFullyPaid(inv *Invoice, remaining decimal.Decimal) error {
	return ierr.NewError("invoice is already fully paid").
		WithHintf("Invoice %s has no remaining amount to pay", inv.InvoiceNumber).
		WithReportableDetails(map[string]any{
			"invoice_id":       inv.ID,
			"remaining_amount": remaining.String(),
		}).
		Mark(ierr.ErrInvoiceAlreadyFullyPaid)
}

func invalidTransition(inv *Invoice, to types.InvoiceStatus) error {
	return ierr.NewError("invalid invoice transition").
		WithHintf("Invoice %s can not move from %s to %s", inv.InvoiceNumber, inv.InvoiceStatus, to).
		WithReportableDetails(map[string]any{
			"invoice_id": inv.ID,
			"from":       inv.InvoiceStatus,
			"to":         to,
		}).
		Mark(ierr.ErrInvalidTransition)
}

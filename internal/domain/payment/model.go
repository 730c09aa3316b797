package payment

import (
	"time"

	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

// Payment represents money moved from a payer towards one invoice
type Payment struct {
	// ID is the surrogate key assigned by the store
	ID int64 `db:"id" json:"id"`
	// PaymentReference is the unique business reference, e.g. PAY-x7Kq2mB9a
	PaymentReference string `db:"payment_reference" json:"payment_reference"`
	// InvoiceID is the invoice this payment settles
	InvoiceID int64 `db:"invoice_id" json:"invoice_id"`
	// PayerID is the user paying
	PayerID int64 `db:"payer_id" json:"payer_id"`
	// PaymentMethodID identifies the payer's stored payment method
	PaymentMethodID string `db:"payment_method_id" json:"payment_method_id"`
	// Amount is the admitted amount. For full payments it is the invoice
	// remaining amount at admission, never the client supplied value.
	Amount decimal.Decimal `db:"amount" json:"amount"`
	// Currency is copied from the invoice
	Currency string `db:"currency" json:"currency"`
	// PaymentStatus is the stored lifecycle status
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"payment_status"`
	// PaymentType is full or partial
	PaymentType types.PaymentType `db:"payment_type" json:"payment_type"`
	// Gateway is the name of the gateway that processed the payment
	Gateway string `db:"gateway" json:"gateway"`
	// GatewayTransactionID is the gateway correlation id, set once processing starts
	GatewayTransactionID *string `db:"gateway_transaction_id" json:"gateway_transaction_id,omitempty"`
	// IdempotencyKey is sent to the gateway so a retried attempt never charges twice
	IdempotencyKey string `db:"idempotency_key" json:"idempotency_key"`
	// ErrorMessage explains a failed payment
	ErrorMessage *string `db:"error_message" json:"error_message,omitempty"`
	// ProcessedAt is when the payment completed
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	// FailedAt is when the payment failed
	FailedAt *time.Time `db:"failed_at" json:"failed_at,omitempty"`
	// Notes is free text supplied by the payer
	Notes *string `db:"notes" json:"notes,omitempty"`
	// HoldReason is set when a broken refund invariant was detected on this payment
	HoldReason *string    `db:"hold_reason" json:"hold_reason,omitempty"`
	HeldAt     *time.Time `db:"held_at" json:"held_at,omitempty"`
	// Version is bumped on every update and used for compare-and-swap
	Version int64 `db:"version" json:"version"`

	types.BaseModel
}

// IsOnHold reports whether a reconciliation hold blocks writes
func (p *Payment) IsOnHold() bool {
	return p.HoldReason != nil
}

// IsCompleted reports whether the payment counts towards its invoice
func (p *Payment) IsCompleted() bool {
	return p.PaymentStatus == types.PaymentStatusCompleted
}

// DisplayStatus returns the status shown to API clients. A completed payment
// with nothing left to refund is shown as refunded.
func (p *Payment) DisplayStatus(refundable decimal.Decimal) types.PaymentStatus {
	if p.IsCompleted() && !refundable.IsPositive() {
		return types.PaymentStatusRefunded
	}
	return p.PaymentStatus
}

// Clone returns a deep copy so snapshots handed out never alias store state
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	c.GatewayTransactionID = cloneString(p.GatewayTransactionID)
	c.ErrorMessage = cloneString(p.ErrorMessage)
	c.Notes = cloneString(p.Notes)
	c.HoldReason = cloneString(p.HoldReason)
	c.ProcessedAt = cloneTime(p.ProcessedAt)
	c.FailedAt = cloneTime(p.FailedAt)
	c.HeldAt = cloneTime(p.HeldAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

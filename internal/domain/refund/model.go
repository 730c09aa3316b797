package refund

import (
	"time"

	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

// Refund returns part or all of a completed payment to its payer
type Refund struct {
	ID              int64  `db:"id" json:"id"`
	RefundReference string `db:"refund_reference" json:"refund_reference"`
	PaymentID       int64  `db:"payment_id" json:"payment_id"`
	// InvoiceID is denormalised from the payment for listing
	InvoiceID int64 `db:"invoice_id" json:"invoice_id"`
	// BeneficiaryID is the payer of the refunded payment
	BeneficiaryID int64 `db:"beneficiary_id" json:"beneficiary_id"`
	// AdminID is the administrator who issued the refund
	AdminID         int64              `db:"admin_id" json:"admin_id"`
	Amount          decimal.Decimal    `db:"amount" json:"amount"`
	Currency        string             `db:"currency" json:"currency"`
	RefundStatus    types.RefundStatus `db:"refund_status" json:"refund_status"`
	RefundType      types.RefundType   `db:"refund_type" json:"refund_type"`
	Reason          *string            `db:"reason" json:"reason,omitempty"`
	Notes           *string            `db:"notes" json:"notes,omitempty"`
	GatewayRefundID *string            `db:"gateway_refund_id" json:"gateway_refund_id,omitempty"`
	IdempotencyKey  string             `db:"idempotency_key" json:"idempotency_key"`
	ErrorMessage    *string            `db:"error_message" json:"error_message,omitempty"`
	ProcessedAt     *time.Time         `db:"processed_at" json:"processed_at,omitempty"`
	FailedAt        *time.Time         `db:"failed_at" json:"failed_at,omitempty"`
	CancelledAt     *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
	Version         int64              `db:"version" json:"version"`

	types.BaseModel
}

// IsCompleted reports whether the refund counts against its payment
func (r *Refund) IsCompleted() bool {
	return r.RefundStatus == types.RefundStatusCompleted
}

// Clone returns a deep copy so snapshots handed out never alias store state
func (r *Refund) Clone() *Refund {
	if r == nil {
		return nil
	}
	c := *r
	c.Reason = cloneString(r.Reason)
	c.Notes = cloneString(r.Notes)
	c.GatewayRefundID = cloneString(r.GatewayRefundID)
	c.ErrorMessage = cloneString(r.ErrorMessage)
	c.ProcessedAt = cloneTime(r.ProcessedAt)
	c.FailedAt = cloneTime(r.FailedAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
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

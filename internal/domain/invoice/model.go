package invoice

import (
	"time"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is the parent ledger aggregate for payments. Its status is only
// changed through the transition functions in this package.
type Invoice struct {
	// ID is the surrogate key assigned by the store
	ID int64 `db:"id" json:"id"`
	// InvoiceNumber is the human readable unique number, e.g. INV-202610-00042
	InvoiceNumber string `db:"invoice_number" json:"invoice_number"`
	// OwnerID is the customer the invoice is billed to
	OwnerID int64 `db:"owner_id" json:"owner_id"`
	// ProviderID is the service provider issuing the invoice
	ProviderID int64 `db:"provider_id" json:"provider_id"`
	// Amount is the pre-tax amount
	Amount decimal.Decimal `db:"amount" json:"amount"`
	// TaxAmount is the tax charged on top of Amount
	TaxAmount decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	// TotalAmount is Amount plus TaxAmount, frozen at creation
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	// Currency is a three-letter ISO code in lower case
	Currency string `db:"currency" json:"currency"`
	// InvoiceStatus is the ledger status
	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	IssueDate     time.Time           `db:"issue_date" json:"issue_date"`
	DueDate       time.Time           `db:"due_date" json:"due_date"`
	PaidDate      *time.Time          `db:"paid_date" json:"paid_date,omitempty"`
	CancelledAt   *time.Time          `db:"cancelled_at" json:"cancelled_at,omitempty"`
	// CancellationReason is the optional free text given on cancel
	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	ArchivedAt         *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	Notes              *string    `db:"notes" json:"notes,omitempty"`
	// HoldReason is set when a broken invariant was detected on this invoice.
	// A held invoice accepts no further writes until the hold is cleared.
	HoldReason *string    `db:"hold_reason" json:"hold_reason,omitempty"`
	HeldAt     *time.Time `db:"held_at" json:"held_at,omitempty"`
	// Version is bumped on every update and used for compare-and-swap
	Version int64 `db:"version" json:"version"`

	types.BaseModel
}

// IsOnHold reports whether a reconciliation hold blocks writes
func (i *Invoice) IsOnHold() bool {
	return i.HoldReason != nil
}

// Clone returns a deep copy so snapshots handed out never alias store state
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	c := *i
	c.PaidDate = cloneTime(i.PaidDate)
	c.CancelledAt = cloneTime(i.CancelledAt)
	c.ArchivedAt = cloneTime(i.ArchivedAt)
	c.HeldAt = cloneTime(i.HeldAt)
	c.CancellationReason = cloneString(i.CancellationReason)
	c.Notes = cloneString(i.Notes)
	c.HoldReason = cloneString(i.HoldReason)
	return &c
}

// Validate checks the fields a new invoice must carry
func (i *Invoice) Validate() error {
	if i.OwnerID <= 0 {
		return ierr.NewError("owner_id is required").
			WithHint("Owner is required").
			Mark(ierr.ErrValidation)
	}
	if i.ProviderID <= 0 {
		return ierr.NewError("provider_id is required").
			WithHint("Provider is required").
			Mark(ierr.ErrValidation)
	}
	if i.Amount.IsNegative() || i.TaxAmount.IsNegative() {
		return ierr.NewError("invoice amounts must not be negative").
			WithHint("Amount and tax amount must not be negative").
			WithReportableDetails(map[string]any{
				"amount":     i.Amount.String(),
				"tax_amount": i.TaxAmount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	if !types.HasMoneyPrecision(i.Amount) || !types.HasMoneyPrecision(i.TaxAmount) {
		return ierr.NewError("invoice amounts have too many decimals").
			WithHint("Amounts can have at most two decimal places").
			Mark(ierr.ErrValidation)
	}
	if !i.TotalAmount.Equal(i.Amount.Add(i.TaxAmount)) {
		return ierr.NewError("total_amount must equal amount plus tax_amount").
			WithHint("Invoice total does not match its amount and tax").
			Mark(ierr.ErrValidation)
	}
	if !i.TotalAmount.IsPositive() {
		return ierr.NewError("invoice total must be positive").
			WithHint("Invoice total must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if len(i.Currency) != 3 {
		return ierr.NewError("invalid currency").
			WithHint("Currency must be a three-letter ISO code").
			Mark(ierr.ErrValidation)
	}
	if i.DueDate.IsZero() {
		return ierr.NewError("due_date is required").
			WithHint("Due date is required").
			Mark(ierr.ErrValidation)
	}
	if i.DueDate.Before(i.IssueDate.Truncate(24 * time.Hour)) {
		return ierr.NewError("due_date before issue_date").
			WithHint("Due date can not be before the issue date").
			Mark(ierr.ErrValidation)
	}
	return nil
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

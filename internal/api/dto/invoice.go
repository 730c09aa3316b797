package dto

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/ledger"
	"github.com/flexprice/ledger/internal/types"
	"github.com/flexprice/ledger/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest represents the request to issue a new invoice
type CreateInvoiceRequest struct {
	OwnerID    int64           `json:"owner_id" validate:"required,gt=0"`
	ProviderID int64           `json:"provider_id" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount" validate:"money" swaggertype:"string"`
	TaxAmount  decimal.Decimal `json:"tax_amount" validate:"money" swaggertype:"string"`
	// Currency defaults to the configured ledger currency
	Currency  string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	IssueDate *time.Time `json:"issue_date,omitempty"`
	DueDate   time.Time  `json:"due_date" validate:"required"`
	Notes     *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r *CreateInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToInvoice builds a pending invoice. The number is allocated by the caller
// inside the creating transaction.
func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context, defaultCurrency string, now time.Time) *invoice.Invoice {
	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	issueDate := now
	if r.IssueDate != nil {
		issueDate = r.IssueDate.UTC()
	}

	return &invoice.Invoice{
		OwnerID:       r.OwnerID,
		ProviderID:    r.ProviderID,
		Amount:        r.Amount,
		TaxAmount:     r.TaxAmount,
		TotalAmount:   ledger.TotalAmount(r.Amount, r.TaxAmount),
		Currency:      strings.ToLower(currency),
		InvoiceStatus: types.InvoiceStatusPending,
		IssueDate:     issueDate,
		DueDate:       r.DueDate.UTC(),
		Notes:         r.Notes,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
}

// CancelInvoiceRequest carries the optional cancellation reason
type CancelInvoiceRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

func (r *CancelInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// InvoiceResponse is an invoice with its derived amounts
type InvoiceResponse struct {
	*invoice.Invoice

	// AmountPaid is the sum of completed payments
	AmountPaid decimal.Decimal `json:"amount_paid" swaggertype:"string"`
	// RemainingAmount is what is still owed, never below zero
	RemainingAmount decimal.Decimal `json:"remaining_amount" swaggertype:"string"`
}

// NewInvoiceResponse builds the response from a snapshot and the derived amounts
func NewInvoiceResponse(inv *invoice.Invoice, amountPaid, remaining decimal.Decimal) *InvoiceResponse {
	return &InvoiceResponse{
		Invoice:         inv,
		AmountPaid:      amountPaid,
		RemainingAmount: remaining,
	}
}

// ListInvoicesResponse represents the paginated invoice list
type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]

// OverdueSweepResponse reports what an overdue sweep changed
type OverdueSweepResponse struct {
	Scanned int      `json:"scanned"`
	Marked  []string `json:"marked"`
	Failed  []string `json:"failed,omitempty"`
}

// OverdueSweepRequest lets the caller evaluate due dates at a fixed instant
type OverdueSweepRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

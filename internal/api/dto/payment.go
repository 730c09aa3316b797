package dto

import (
	"github.com/flexprice/ledger/internal/domain/payment"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/flexprice/ledger/internal/validator"
	"github.com/shopspring/decimal"
)

// SubmitPaymentRequest represents a payer's payment against an invoice
type SubmitPaymentRequest struct {
	InvoiceID       int64  `json:"invoice_id" validate:"required,gt=0"`
	PayerID         int64  `json:"payer_id" validate:"required,gt=0"`
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
	// Amount is ignored for full payments, which always take the remaining amount
	Amount      decimal.Decimal   `json:"amount" swaggertype:"string"`
	PaymentType types.PaymentType `json:"payment_type" validate:"required"`
	Notes       *string           `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r *SubmitPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.PaymentType.Validate(); err != nil {
		return err
	}
	if r.PaymentType == types.PaymentTypePartial && !r.Amount.IsPositive() {
		return ierr.NewError("partial payment amount must be positive").
			WithHint("Enter an amount greater than zero").
			WithReportableDetails(map[string]any{
				"amount": r.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentResponse is a payment with its derived amounts
type PaymentResponse struct {
	*payment.Payment

	// RefundedAmount is the sum of completed refunds
	RefundedAmount decimal.Decimal `json:"refunded_amount" swaggertype:"string"`
	// RefundableAmount is what can still be refunded
	RefundableAmount decimal.Decimal `json:"refundable_amount" swaggertype:"string"`
	// DisplayStatus is the stored status, or refunded once nothing is left to refund
	DisplayStatus types.PaymentStatus `json:"display_status"`
}

// NewPaymentResponse builds the response from a snapshot and the derived amounts
func NewPaymentResponse(p *payment.Payment, refunded, refundable decimal.Decimal) *PaymentResponse {
	return &PaymentResponse{
		Payment:          p,
		RefundedAmount:   refunded,
		RefundableAmount: refundable,
		DisplayStatus:    p.DisplayStatus(refundable),
	}
}

// SubmitPaymentResponse returns the payment together with its invoice as
// observed when the payment committed
type SubmitPaymentResponse struct {
	Payment *PaymentResponse `json:"payment"`
	Invoice *InvoiceResponse `json:"invoice"`
}

// ListPaymentsResponse represents the paginated payment list
type ListPaymentsResponse = types.ListResponse[*PaymentResponse]

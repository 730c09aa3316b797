package dto

import (
	"github.com/flexprice/ledger/internal/domain/refund"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/flexprice/ledger/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CreateRefundRequest represents an administrator's refund of a payment
type CreateRefundRequest struct {
	PaymentID int64 `json:"payment_id" validate:"required,gt=0"`
	AdminID   int64 `json:"admin_id" validate:"required,gt=0"`
	// Amount may be omitted for a full refund, in which case the payment amount is used
	Amount     decimal.Decimal  `json:"amount" swaggertype:"string"`
	RefundType types.RefundType `json:"refund_type" validate:"required"`
	Reason     *string          `json:"reason,omitempty" validate:"omitempty,max=1000"`
	Notes      *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	// Process sends the refund to the gateway right away. When false the
	// refund stays pending until ProcessRefund.
	Process *bool `json:"process,omitempty"`
}

func (r *CreateRefundRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.RefundType.Validate(); err != nil {
		return err
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("refund amount must not be negative").
			WithHint("Enter an amount greater than zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ShouldProcess defaults to processing immediately
func (r *CreateRefundRequest) ShouldProcess() bool {
	return lo.FromPtrOr(r.Process, true)
}

// RefundResponse is a refund together with the payment it returns money from
type RefundResponse struct {
	*refund.Refund

	Payment *PaymentResponse `json:"payment,omitempty"`
}

func NewRefundResponse(r *refund.Refund, p *PaymentResponse) *RefundResponse {
	return &RefundResponse{
		Refund:  r,
		Payment: p,
	}
}

// ListRefundsResponse represents the paginated refund list
type ListRefundsResponse = types.ListResponse[*RefundResponse]

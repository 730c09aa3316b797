package refund

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/domain/payment"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

// CreateParams carries what the administrator asked for
type CreateParams struct {
	AdminID         int64
	RequestedAmount decimal.Decimal
	RefundType      types.RefundType
	Reason          *string
	Notes           *string
	IdempotencyKey  string
}

// Create admits a new pending refund against p. refundable must have been
// computed under the payment row lock.
func Create(ctx context.Context, p *payment.Payment, refundable decimal.Decimal, params CreateParams) (*Refund, error) {
	if err := params.RefundType.Validate(); err != nil {
		return nil, err
	}
	if !types.HasMoneyPrecision(params.RequestedAmount) {
		return nil, ierr.NewError("refund amount has too many decimals").
			WithHint("Amounts can have at most two decimal places").
			Mark(ierr.ErrValidation)
	}

	if err := Admit(p, refundable, params.RequestedAmount, params.RefundType); err != nil {
		return nil, err
	}

	return &Refund{
		RefundReference: types.GenerateReference(types.REFERENCE_PREFIX_REFUND),
		PaymentID:       p.ID,
		InvoiceID:       p.InvoiceID,
		BeneficiaryID:   p.PayerID,
		AdminID:         params.AdminID,
		Amount:          params.RequestedAmount,
		Currency:        p.Currency,
		RefundStatus:    types.RefundStatusPending,
		RefundType:      params.RefundType,
		Reason:          params.Reason,
		Notes:           params.Notes,
		IdempotencyKey:  params.IdempotencyKey,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}, nil
}

// Admit checks a refund amount against the payment's refundable amount. It
// runs at creation and again when a pending refund is processed later.
func Admit(p *payment.Payment, refundable, amount decimal.Decimal, refundType types.RefundType) error {
	if err := payment.CheckWritable(p); err != nil {
		return err
	}

	if !p.IsCompleted() || !refundable.IsPositive() {
		return ierr.NewError("payment is not refundable").
			WithHintf("Payment %s has nothing left to refund", p.PaymentReference).
			WithReportableDetails(map[string]any{
				"payment_id":        p.ID,
				"payment_status":    p.PaymentStatus,
				"refundable_amount": refundable.String(),
			}).
			Mark(ierr.ErrPaymentNotRefundable)
	}

	if refundType == types.RefundTypeFull {
		if !refundable.Equal(p.Amount) {
			return ierr.NewError("full refund requires an unrefunded payment").
				WithHintf("Payment %s already has refunds, issue a partial refund instead", p.PaymentReference).
				WithReportableDetails(map[string]any{
					"payment_id":        p.ID,
					"amount":            p.Amount.String(),
					"refundable_amount": refundable.String(),
				}).
				Mark(ierr.ErrFullRefundRequiresUnrefundedPayment)
		}
		if !amount.Equal(p.Amount) {
			return ierr.NewError("full refund amount must equal the payment amount").
				WithHintf("A full refund must be for exactly %s", p.Amount.StringFixed(types.MoneyPrecision)).
				WithReportableDetails(map[string]any{
					"payment_id": p.ID,
					"amount":     amount.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		return nil
	}

	if !amount.IsPositive() {
		return ierr.NewError("refund amount must be positive").
			WithHint("Refund amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}

	if amount.GreaterThan(refundable) {
		return ierr.NewError("refund amount exceeds refundable amount").
			WithHintf("Refund of %s exceeds the refundable %s on payment %s",
				amount.StringFixed(types.MoneyPrecision),
				refundable.StringFixed(types.MoneyPrecision),
				p.PaymentReference).
			WithReportableDetails(map[string]any{
				"payment_id":        p.ID,
				"amount":            amount.String(),
				"refundable_amount": refundable.String(),
			}).
			Mark(ierr.ErrRefundExceedsRefundable)
	}

	return nil
}

// Process moves a pending refund to processing
func Process(r *Refund, gatewayRefundID string) (*Refund, error) {
	if err := transition(r, types.RefundStatusPending, types.RefundStatusProcessing); err != nil {
		return nil, err
	}
	next := r.Clone()
	next.RefundStatus = types.RefundStatusProcessing
	if gatewayRefundID != "" {
		next.GatewayRefundID = &gatewayRefundID
	}
	return next, nil
}

// Complete settles a processing refund. The invoice is left untouched.
func Complete(r *Refund, now time.Time) (*Refund, error) {
	if err := transition(r, types.RefundStatusProcessing, types.RefundStatusCompleted); err != nil {
		return nil, err
	}
	next := r.Clone()
	next.RefundStatus = types.RefundStatusCompleted
	next.ProcessedAt = &now
	return next, nil
}

// Fail marks a processing refund as failed
func Fail(r *Refund, errorMessage string, now time.Time) (*Refund, error) {
	if err := transition(r, types.RefundStatusProcessing, types.RefundStatusFailed); err != nil {
		return nil, err
	}
	next := r.Clone()
	next.RefundStatus = types.RefundStatusFailed
	next.ErrorMessage = &errorMessage
	next.FailedAt = &now
	return next, nil
}

// Cancel withdraws a pending refund. No money has moved.
func Cancel(r *Refund, now time.Time) (*Refund, error) {
	if r.RefundStatus != types.RefundStatusPending {
		return nil, ierr.NewError("refund can not be cancelled").
			WithHintf("Refund %s is %s, only pending refunds can be cancelled", r.RefundReference, r.RefundStatus).
			WithReportableDetails(map[string]any{
				"refund_id":     r.ID,
				"refund_status": r.RefundStatus,
			}).
			Mark(ierr.ErrRefundNotCancellable)
	}
	next := r.Clone()
	next.RefundStatus = types.RefundStatusCancelled
	next.CancelledAt = &now
	return next, nil
}

func transition(r *Refund, from, to types.RefundStatus) error {
	if r.RefundStatus == from {
		return nil
	}
	return ierr.NewError("invalid refund transition").
		WithHintf("Refund %s can not move from %s to %s", r.RefundReference, r.RefundStatus, to).
		WithReportableDetails(map[string]any{
			"refund_id": r.ID,
			"from":      r.RefundStatus,
			"to":        to,
		}).
		Mark(ierr.ErrInvalidTransition)
}

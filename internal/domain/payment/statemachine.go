package payment

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/domain/invoice"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
)

// CreateParams carries what a payer asked for
type CreateParams struct {
	PayerID         int64
	PaymentMethodID string
	RequestedAmount decimal.Decimal
	PaymentType     types.PaymentType
	Gateway         string
	IdempotencyKey  string
	Notes           *string
}

// ResolveAmount returns the amount a payment will be admitted with. A full
// payment always takes the remaining amount whatever the client sent.
func ResolveAmount(remaining, requested decimal.Decimal, paymentType types.PaymentType) decimal.Decimal {
	if paymentType == types.PaymentTypeFull {
		return remaining
	}
	return requested
}

// Create admits a new pending payment against inv. remaining must have been
// computed under the invoice row lock.
func Create(ctx context.Context, inv *invoice.Invoice, remaining decimal.Decimal, params CreateParams) (*Payment, error) {
	if err := params.PaymentType.Validate(); err != nil {
		return nil, err
	}
	if params.PaymentType == types.PaymentTypePartial && !types.HasMoneyPrecision(params.RequestedAmount) {
		return nil, ierr.NewError("payment amount has too many decimals").
			WithHint("Amounts can have at most two decimal places").
			Mark(ierr.ErrValidation)
	}

	amount := ResolveAmount(remaining, params.RequestedAmount, params.PaymentType)
	if err := invoice.AdmitPayment(inv, remaining, amount); err != nil {
		return nil, err
	}

	return &Payment{
		PaymentReference: types.GenerateReference(types.REFERENCE_PREFIX_PAYMENT),
		InvoiceID:        inv.ID,
		PayerID:          params.PayerID,
		PaymentMethodID:  params.PaymentMethodID,
		Amount:           amount,
		Currency:         inv.Currency,
		PaymentStatus:    types.PaymentStatusPending,
		PaymentType:      params.PaymentType,
		Gateway:          params.Gateway,
		IdempotencyKey:   params.IdempotencyKey,
		Notes:            params.Notes,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}, nil
}

// Process moves a pending payment to processing and attaches the gateway
// correlation id
func Process(p *Payment, gatewayTransactionID string) (*Payment, error) {
	if err := transition(p, types.PaymentStatusPending, types.PaymentStatusProcessing); err != nil {
		return nil, err
	}
	next := p.Clone()
	next.PaymentStatus = types.PaymentStatusProcessing
	if gatewayTransactionID != "" {
		next.GatewayTransactionID = &gatewayTransactionID
	}
	return next, nil
}

// Complete settles a processing payment
func Complete(p *Payment, now time.Time) (*Payment, error) {
	if err := transition(p, types.PaymentStatusProcessing, types.PaymentStatusCompleted); err != nil {
		return nil, err
	}
	next := p.Clone()
	next.PaymentStatus = types.PaymentStatusCompleted
	next.ProcessedAt = &now
	return next, nil
}

// Fail marks a processing payment as failed. Nothing is committed against the invoice.
func Fail(p *Payment, errorMessage string, now time.Time) (*Payment, error) {
	if err := transition(p, types.PaymentStatusProcessing, types.PaymentStatusFailed); err != nil {
		return nil, err
	}
	next := p.Clone()
	next.PaymentStatus = types.PaymentStatusFailed
	next.ErrorMessage = &errorMessage
	next.FailedAt = &now
	return next, nil
}

// CheckWritable rejects writes to a payment under a reconciliation hold
func CheckWritable(p *Payment) error {
	if p.IsOnHold() {
		return ierr.NewError("payment is on reconciliation hold").
			WithHintf("Payment %s is on hold pending manual reconciliation", p.PaymentReference).
			WithReportableDetails(map[string]any{
				"payment_id":  p.ID,
				"hold_reason": *p.HoldReason,
			}).
			Mark(ierr.ErrAggregateOnHold)
	}
	return nil
}

// CanDelete reports whether the payment may be soft deleted
func CanDelete(p *Payment) error {
	if err := CheckWritable(p); err != nil {
		return err
	}
	if p.PaymentStatus == types.PaymentStatusPending || p.PaymentStatus == types.PaymentStatusFailed {
		return nil
	}
	return ierr.NewError("payment can not be deleted").
		WithHintf("Payment %s is %s, only pending or failed payments can be deleted", p.PaymentReference, p.PaymentStatus).
		WithReportableDetails(map[string]any{
			"payment_id":     p.ID,
			"payment_status": p.PaymentStatus,
		}).
		Mark(ierr.ErrInvalidOperation)
}

// CheckMethod rejects payment methods that are inactive or belong to someone else
func CheckMethod(ownerID int64, active bool, payerID int64, methodID string) error {
	if active && ownerID == payerID {
		return nil
	}
	return ierr.NewError("payment method is inactive or not owned by the payer").
		WithHint("The selected payment method can not be used").
		WithReportableDetails(map[string]any{
			"payment_method_id": methodID,
			"payer_id":          payerID,
		}).
		Mark(ierr.ErrPaymentMethodInactiveOrNotOwned)
}

func transition(p *Payment, from, to types.PaymentStatus) error {
	if p.PaymentStatus == from {
		return nil
	}
	return ierr.NewError("invalid payment transition").
		WithHintf("Payment %s can not move from %s to %s", p.PaymentReference, p.PaymentStatus, to).
		WithReportableDetails(map[string]any{
			"payment_id": p.ID,
			"from":       p.PaymentStatus,
			"to":         to,
		}).
		Mark(ierr.ErrInvalidTransition)
}

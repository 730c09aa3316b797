package service

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/domain/ledger"
	"github.com/flexprice/ledger/internal/domain/payment"
	"github.com/flexprice/ledger/internal/domain/refund"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/idempotency"
	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/types"
)

// RefundService defines the interface for refund operations
type RefundService interface {
	// CreateRefund admits a refund against a completed payment. Unless the
	// request opts out it is processed through the gateway right away.
	CreateRefund(ctx context.Context, req dto.CreateRefundRequest) (*dto.RefundResponse, error)
	// ProcessRefund sends a pending refund to the gateway after re-checking
	// it against the payment's current refundable amount
	ProcessRefund(ctx context.Context, id int64) (*dto.RefundResponse, error)
	CancelRefund(ctx context.Context, id int64) (*dto.RefundResponse, error)
	GetRefund(ctx context.Context, id int64) (*dto.RefundResponse, error)
	ListRefunds(ctx context.Context, filter *types.RefundFilter) (*dto.ListRefundsResponse, error)
}

type refundService struct {
	ServiceParams
	idempGen *idempotency.Generator
}

func NewRefundService(params ServiceParams) RefundService {
	return &refundService{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
	}
}

func (s *refundService) CreateRefund(ctx context.Context, req dto.CreateRefundRequest) (*dto.RefundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	nonce := requestNonce(ctx)

	var resp *dto.RefundResponse
	err := s.atomically(ctx, "create_refund", func(ctx context.Context, u *unit) error {
		p, refunds, err := s.lockPayment(ctx, req.PaymentID)
		if err != nil {
			return err
		}
		refundable := ledger.RefundableAmount(p, refunds)

		amount := req.Amount
		if req.RefundType == types.RefundTypeFull && amount.IsZero() {
			amount = p.Amount
		}
		idempotencyKey := s.idempGen.GenerateKey(idempotency.ScopeRefund, map[string]interface{}{
			"payment_id":  req.PaymentID,
			"admin_id":    req.AdminID,
			"refund_type": req.RefundType,
			"amount":      amount.String(),
			"nonce":       nonce,
		})

		r, err := refund.Create(ctx, p, refundable, refund.CreateParams{
			AdminID:         req.AdminID,
			RequestedAmount: amount,
			RefundType:      req.RefundType,
			Reason:          req.Reason,
			Notes:           req.Notes,
			IdempotencyKey:  idempotencyKey,
		})
		if err != nil {
			return err
		}
		if err := s.RefundRepo.Create(ctx, r); err != nil {
			return err
		}

		if !req.ShouldProcess() {
			resp = dto.NewRefundResponse(r, newPaymentResponse(p, refunds))
			return nil
		}
		resp, err = s.process(ctx, u, p, refunds, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("refund created",
		"refund_id", resp.ID,
		"refund_reference", resp.RefundReference,
		"refund_status", resp.RefundStatus,
		"amount", resp.Amount.String(),
		"payment_id", resp.PaymentID,
	)
	return resp, nil
}

func (s *refundService) ProcessRefund(ctx context.Context, id int64) (*dto.RefundResponse, error) {
	var resp *dto.RefundResponse
	err := s.atomically(ctx, "process_refund", func(ctx context.Context, u *unit) error {
		r, err := s.RefundRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		p, refunds, err := s.lockPayment(ctx, r.PaymentID)
		if err != nil {
			return err
		}
		// lock the refund too so a concurrent cancel can not race the gateway call
		r, err = s.RefundRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r.RefundStatus != types.RefundStatusPending {
			_, err := refund.Process(r, "")
			return err
		}

		refundable := ledger.RefundableAmount(p, refunds)
		if err := refund.Admit(p, refundable, r.Amount, r.RefundType); err != nil {
			return err
		}

		resp, err = s.process(ctx, u, p, refunds, r)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("refund processed",
		"refund_id", resp.ID,
		"refund_reference", resp.RefundReference,
		"refund_status", resp.RefundStatus,
	)
	return resp, nil
}

// process sends an admitted pending refund to the gateway and records the
// outcome. refunds must be the payment's refunds read under its row lock.
func (s *refundService) process(ctx context.Context, u *unit, p *payment.Payment, refunds []*refund.Refund, r *refund.Refund) (*dto.RefundResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, p.InvoiceID)
	if err != nil {
		return nil, err
	}

	txnID := ""
	if p.GatewayTransactionID != nil {
		txnID = *p.GatewayTransactionID
	}

	gwCtx, cancel := s.gatewayContext(ctx)
	defer cancel()
	result, gwErr := s.Gateway.Refund(gwCtx, &gateway.RefundRequest{
		RefundReference: r.RefundReference,
		TransactionID:   txnID,
		Amount:          r.Amount,
		Currency:        r.Currency,
		IdempotencyKey:  r.IdempotencyKey,
	})

	gatewayRefundID := ""
	if gwErr == nil {
		gatewayRefundID = result.GatewayRefundID
	}
	next, err := refund.Process(r, gatewayRefundID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	eventName := types.EventPaymentRefunded
	if gwErr != nil {
		s.Logger.WithContext(ctx).Warnw("refund rejected by gateway",
			"refund_reference", r.RefundReference,
			"gateway", s.Gateway.Name(),
			"error", gwErr,
		)
		next, err = refund.Fail(next, gatewayMessage(gwErr), now)
		eventName = types.EventRefundFailed
	} else {
		next, err = refund.Complete(next, now)
	}
	if err != nil {
		return nil, err
	}
	next.Touch(ctx, now)
	if err := s.RefundRepo.Update(ctx, next); err != nil {
		return nil, err
	}

	all := append(withoutRefund(refunds, next.ID), next)
	paymentResp := newPaymentResponse(p, all)
	resp := dto.NewRefundResponse(next, paymentResp)

	payments, err := s.PaymentRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	snapshot := &dto.EventSnapshot{
		Invoice: newInvoiceResponse(inv, payments),
		Payment: paymentResp,
		Refund:  resp,
	}
	if err := u.emit(ctx, eventName, inv, snapshot); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *refundService) CancelRefund(ctx context.Context, id int64) (*dto.RefundResponse, error) {
	var resp *dto.RefundResponse
	err := s.atomically(ctx, "cancel_refund", func(ctx context.Context, u *unit) error {
		r, err := s.RefundRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		next, err := refund.Cancel(r, now)
		if err != nil {
			return err
		}
		next.Touch(ctx, now)
		if err := s.RefundRepo.Update(ctx, next); err != nil {
			return err
		}

		p, err := s.PaymentRepo.Get(ctx, next.PaymentID)
		if err != nil {
			return err
		}
		paymentResp, err := s.loadPayment(ctx, p)
		if err != nil {
			return err
		}
		inv, err := s.InvoiceRepo.Get(ctx, p.InvoiceID)
		if err != nil {
			return err
		}

		resp = dto.NewRefundResponse(next, paymentResp)
		return u.emit(ctx, types.EventRefundCancelled, inv, &dto.EventSnapshot{
			Payment: paymentResp,
			Refund:  resp,
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("refund cancelled",
		"refund_id", resp.ID,
		"refund_reference", resp.RefundReference,
	)
	return resp, nil
}

func (s *refundService) GetRefund(ctx context.Context, id int64) (resp *dto.RefundResponse, err error) {
	defer s.recoverInvariant(ctx, &err)

	r, err := s.RefundRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.PaymentRepo.Get(ctx, r.PaymentID)
	if err != nil {
		return nil, err
	}
	paymentResp, err := s.loadPayment(ctx, p)
	if err != nil {
		return nil, err
	}
	return dto.NewRefundResponse(r, paymentResp), nil
}

func (s *refundService) ListRefunds(ctx context.Context, filter *types.RefundFilter) (*dto.ListRefundsResponse, error) {
	if filter == nil {
		filter = types.NewRefundFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	refunds, err := s.RefundRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.RefundRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.RefundResponse, 0, len(refunds))
	for _, r := range refunds {
		items = append(items, dto.NewRefundResponse(r, nil))
	}

	list := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &list, nil
}

// lockPayment takes the payment row lock and loads its refunds. Held payments
// and payments of an archived invoice are refused.
func (s *ServiceParams) lockPayment(ctx context.Context, id int64) (*payment.Payment, []*refund.Refund, error) {
	p, err := s.PaymentRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := payment.CheckWritable(p); err != nil {
		return nil, nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, p.InvoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv.InvoiceStatus == types.InvoiceStatusArchived {
		return nil, nil, ierr.NewError("invoice is archived").
			WithHintf("Payment %s belongs to archived invoice %s and can not be refunded", p.PaymentReference, inv.InvoiceNumber).
			WithReportableDetails(map[string]any{
				"payment_id": p.ID,
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrPaymentNotRefundable)
	}

	refunds, err := s.RefundRepo.ListByPayment(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, refunds, nil
}

func withoutRefund(refunds []*refund.Refund, id int64) []*refund.Refund {
	out := make([]*refund.Refund, 0, len(refunds))
	for _, r := range refunds {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

package service

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/ledger"
	"github.com/flexprice/ledger/internal/domain/payment"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/idempotency"
	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/types"
)

// PaymentService defines the interface for payment operations
type PaymentService interface {
	// SubmitPayment admits a payment against an invoice and runs it through
	// the gateway. A gateway decline is not an error: the payment is returned
	// as failed and the invoice is left as it was.
	SubmitPayment(ctx context.Context, req dto.SubmitPaymentRequest) (*dto.SubmitPaymentResponse, error)
	GetPayment(ctx context.Context, id int64) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error)
	DeletePayment(ctx context.Context, id int64) error
}

type paymentService struct {
	ServiceParams
	idempGen *idempotency.Generator
}

// NewPaymentService creates a new payment service
func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
	}
}

func (s *paymentService) SubmitPayment(ctx context.Context, req dto.SubmitPaymentRequest) (*dto.SubmitPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkPaymentMethod(ctx, req.PayerID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	nonce := requestNonce(ctx)

	var resp *dto.SubmitPaymentResponse
	err := s.atomically(ctx, "submit_payment", func(ctx context.Context, u *unit) error {
		inv, payments, err := s.lockInvoice(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		remaining := ledger.RemainingAmount(inv, payments)

		// keyed on the amount actually charged: a full payment retried after
		// the remaining amount moved is a different charge
		amount := req.Amount
		if req.PaymentType == types.PaymentTypeFull {
			amount = remaining
		}
		idempotencyKey := s.idempGen.GenerateKey(idempotency.ScopePayment, map[string]interface{}{
			"invoice_id":        req.InvoiceID,
			"payer_id":          req.PayerID,
			"payment_method_id": req.PaymentMethodID,
			"payment_type":      req.PaymentType,
			"amount":            amount.String(),
			"nonce":             nonce,
		})

		p, err := payment.Create(ctx, inv, remaining, payment.CreateParams{
			PayerID:         req.PayerID,
			PaymentMethodID: req.PaymentMethodID,
			RequestedAmount: req.Amount,
			PaymentType:     req.PaymentType,
			Gateway:         s.Gateway.Name(),
			IdempotencyKey:  idempotencyKey,
			Notes:           req.Notes,
		})
		if err != nil {
			return err
		}
		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			return err
		}

		p, err = s.charge(ctx, inv, p)
		if err != nil {
			return err
		}
		payments = append(payments, p)

		if !p.IsCompleted() {
			resp = &dto.SubmitPaymentResponse{
				Payment: newPaymentResponse(p, nil),
				Invoice: newInvoiceResponse(inv, payments),
			}
			return u.emit(ctx, types.EventPaymentFailed, inv, &dto.EventSnapshot{
				Invoice: resp.Invoice,
				Payment: resp.Payment,
			})
		}

		next, settled := invoice.ApplyRemaining(inv, ledger.RemainingAmount(inv, payments), *p.ProcessedAt)
		if settled {
			next.Touch(ctx, *p.ProcessedAt)
			if err := s.InvoiceRepo.Update(ctx, next); err != nil {
				return err
			}
		}

		resp = &dto.SubmitPaymentResponse{
			Payment: newPaymentResponse(p, nil),
			Invoice: newInvoiceResponse(next, payments),
		}
		snapshot := &dto.EventSnapshot{Invoice: resp.Invoice, Payment: resp.Payment}
		if err := u.emit(ctx, types.EventPaymentCompleted, next, snapshot); err != nil {
			return err
		}
		if settled {
			return u.emit(ctx, types.EventInvoicePaid, next, snapshot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("payment submitted",
		"payment_id", resp.Payment.ID,
		"payment_reference", resp.Payment.PaymentReference,
		"payment_status", resp.Payment.PaymentStatus,
		"amount", resp.Payment.Amount.String(),
		"invoice_id", resp.Invoice.ID,
		"invoice_status", resp.Invoice.InvoiceStatus,
		"remaining_amount", resp.Invoice.RemainingAmount.String(),
	)
	return resp, nil
}

// charge authorizes and captures p. A gateway rejection is committed as a
// failed payment; only store errors are returned.
func (s *paymentService) charge(ctx context.Context, inv *invoice.Invoice, p *payment.Payment) (*payment.Payment, error) {
	gwCtx, cancel := s.gatewayContext(ctx)
	defer cancel()

	auth, gwErr := s.Gateway.Authorize(gwCtx, &gateway.AuthorizeRequest{
		PaymentReference: p.PaymentReference,
		InvoiceNumber:    inv.InvoiceNumber,
		PayerID:          p.PayerID,
		PaymentMethodID:  p.PaymentMethodID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		IdempotencyKey:   p.IdempotencyKey,
	})

	txnID := ""
	if gwErr == nil {
		txnID = auth.TransactionID
	}
	next, err := payment.Process(p, txnID)
	if err != nil {
		return nil, err
	}
	if err := s.PaymentRepo.Update(ctx, next); err != nil {
		return nil, err
	}

	if gwErr == nil {
		gwErr = s.Gateway.Capture(gwCtx, &gateway.CaptureRequest{
			TransactionID:  txnID,
			Amount:         p.Amount,
			IdempotencyKey: p.IdempotencyKey,
		})
	}

	now := time.Now().UTC()
	if gwErr != nil {
		s.Logger.WithContext(ctx).Warnw("payment rejected by gateway",
			"payment_reference", p.PaymentReference,
			"gateway", s.Gateway.Name(),
			"error", gwErr,
		)
		next, err = payment.Fail(next, gatewayMessage(gwErr), now)
	} else {
		next, err = payment.Complete(next, now)
	}
	if err != nil {
		return nil, err
	}
	next.Touch(ctx, now)
	if err := s.PaymentRepo.Update(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// checkPaymentMethod rejects methods that are unknown, inactive or owned by someone else
func (s *paymentService) checkPaymentMethod(ctx context.Context, payerID int64, methodID string) error {
	pm, err := s.PaymentMethodRepo.Get(ctx, methodID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return payment.CheckMethod(0, false, payerID, methodID)
		}
		return err
	}
	return payment.CheckMethod(pm.OwnerID, pm.IsActive, payerID, methodID)
}

func (s *paymentService) GetPayment(ctx context.Context, id int64) (resp *dto.PaymentResponse, err error) {
	defer s.recoverInvariant(ctx, &err)

	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.loadPayment(ctx, p)
}

func (s *paymentService) ListPayments(ctx context.Context, filter *types.PaymentFilter) (resp *dto.ListPaymentsResponse, err error) {
	defer s.recoverInvariant(ctx, &err)

	if filter == nil {
		filter = types.NewPaymentFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.PaymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		item, err := s.loadPayment(ctx, p)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	list := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &list, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, id int64) error {
	return s.atomically(ctx, "delete_payment", func(ctx context.Context, u *unit) error {
		p, err := s.PaymentRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		// payments are admitted under the invoice lock, so deletes take it too
		if _, err := s.InvoiceRepo.GetForUpdate(ctx, p.InvoiceID); err != nil {
			return err
		}
		p, err = s.PaymentRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := payment.CanDelete(p); err != nil {
			return err
		}
		p.Touch(ctx, time.Now().UTC())
		return s.PaymentRepo.Delete(ctx, p)
	})
}

// gatewayMessage extracts the display hint of a gateway error when present
func gatewayMessage(err error) string {
	if hint := ierr.DisplayMessage(err); hint != "" {
		return hint
	}
	return err.Error()
}

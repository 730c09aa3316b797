package service

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/payment"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultOverdueBatch = 500
	overdueSweepWorkers = 8
)

// InvoiceService defines the interface for invoice operations
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id int64) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	DeleteInvoice(ctx context.Context, id int64) error

	CancelInvoice(ctx context.Context, id int64, req dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error)
	// MarkInvoicePaid is an administrative override that settles the invoice
	// whatever its remaining amount
	MarkInvoicePaid(ctx context.Context, id int64) (*dto.InvoiceResponse, error)
	MarkInvoiceOverdue(ctx context.Context, id int64) (*dto.InvoiceResponse, error)
	ArchiveInvoice(ctx context.Context, id int64) (*dto.InvoiceResponse, error)

	// MarkOverdueInvoices flags every pending invoice whose due date passed before now
	MarkOverdueInvoices(ctx context.Context, now time.Time) (*dto.OverdueSweepResponse, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	draft := req.ToInvoice(ctx, s.Config.Ledger.Currency, now)
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var resp *dto.InvoiceResponse
	err := s.atomically(ctx, "create_invoice", func(ctx context.Context, u *unit) error {
		inv := draft.Clone()

		number, err := s.InvoiceRepo.GetNextInvoiceNumber(ctx)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number

		if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
			return err
		}

		resp = newInvoiceResponse(inv, nil)
		return u.emit(ctx, types.EventInvoiceCreated, inv, &dto.EventSnapshot{Invoice: resp})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("created invoice",
		"invoice_id", resp.ID,
		"invoice_number", resp.InvoiceNumber,
		"total_amount", resp.TotalAmount.String(),
	)
	return resp, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id int64) (resp *dto.InvoiceResponse, err error) {
	defer s.recoverInvariant(ctx, &err)

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.loadInvoice(ctx, inv)
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (resp *dto.ListInvoicesResponse, err error) {
	defer s.recoverInvariant(ctx, &err)

	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		item, err := s.loadInvoice(ctx, inv)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	list := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &list, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id int64) error {
	return s.atomically(ctx, "delete_invoice", func(ctx context.Context, u *unit) error {
		inv, payments, err := s.lockInvoice(ctx, id)
		if err != nil {
			return err
		}
		if err := invoice.CanDelete(inv, hasCompletedPayments(payments)); err != nil {
			return err
		}
		inv.Touch(ctx, time.Now().UTC())
		return s.InvoiceRepo.Delete(ctx, inv)
	})
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id int64, req dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *dto.InvoiceResponse
	err := s.atomically(ctx, "cancel_invoice", func(ctx context.Context, u *unit) error {
		inv, payments, err := s.lockInvoice(ctx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		next, err := invoice.Cancel(inv, req.Reason, hasCompletedPayments(payments), now)
		if err != nil {
			return err
		}
		next.Touch(ctx, now)
		if err := s.InvoiceRepo.Update(ctx, next); err != nil {
			return err
		}

		resp = newInvoiceResponse(next, payments)
		return u.emit(ctx, types.EventInvoiceCancelled, next, &dto.EventSnapshot{Invoice: resp})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("cancelled invoice",
		"invoice_id", resp.ID,
		"invoice_number", resp.InvoiceNumber,
	)
	return resp, nil
}

func (s *invoiceService) MarkInvoicePaid(ctx context.Context, id int64) (*dto.InvoiceResponse, error) {
	var resp *dto.InvoiceResponse
	var changed bool
	err := s.atomically(ctx, "mark_invoice_paid", func(ctx context.Context, u *unit) error {
		inv, payments, err := s.lockInvoice(ctx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var next *invoice.Invoice
		next, changed, err = invoice.MarkPaid(inv, now)
		if err != nil {
			return err
		}
		if !changed {
			resp = newInvoiceResponse(next, payments)
			return nil
		}

		next.Touch(ctx, now)
		if err := s.InvoiceRepo.Update(ctx, next); err != nil {
			return err
		}

		resp = newInvoiceResponse(next, payments)
		return u.emit(ctx, types.EventInvoicePaid, next, &dto.EventSnapshot{Invoice: resp, Override: true})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.Logger.WithContext(ctx).Warnw("invoice settled by administrative override",
			"override", true,
			"invoice_id", resp.ID,
			"invoice_number", resp.InvoiceNumber,
			"remaining_amount", resp.RemainingAmount.String(),
		)
	}
	return resp, nil
}

func (s *invoiceService) MarkInvoiceOverdue(ctx context.Context, id int64) (*dto.InvoiceResponse, error) {
	return s.transition(ctx, "mark_invoice_overdue", id, time.Now().UTC(), types.EventInvoiceOverdue, invoice.MarkOverdue)
}

func (s *invoiceService) ArchiveInvoice(ctx context.Context, id int64) (*dto.InvoiceResponse, error) {
	return s.transition(ctx, "archive_invoice", id, time.Now().UTC(), types.EventInvoiceArchived, invoice.Archive)
}

// transition applies a single-aggregate status change that needs nothing but
// the invoice itself. now is the instant the change is evaluated at.
func (s *invoiceService) transition(
	ctx context.Context,
	op string,
	id int64,
	now time.Time,
	eventName string,
	apply func(inv *invoice.Invoice, now time.Time) (*invoice.Invoice, error),
) (*dto.InvoiceResponse, error) {
	var resp *dto.InvoiceResponse
	err := s.atomically(ctx, op, func(ctx context.Context, u *unit) error {
		inv, payments, err := s.lockInvoice(ctx, id)
		if err != nil {
			return err
		}

		next, err := apply(inv, now)
		if err != nil {
			return err
		}
		next.Touch(ctx, time.Now().UTC())
		if err := s.InvoiceRepo.Update(ctx, next); err != nil {
			return err
		}

		resp = newInvoiceResponse(next, payments)
		return u.emit(ctx, eventName, next, &dto.EventSnapshot{Invoice: resp})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("invoice transitioned",
		"operation", op,
		"invoice_id", resp.ID,
		"invoice_status", resp.InvoiceStatus,
	)
	return resp, nil
}

func (s *invoiceService) MarkOverdueInvoices(ctx context.Context, now time.Time) (*dto.OverdueSweepResponse, error) {
	batch := s.Config.Ledger.OverdueBatchMax
	if batch <= 0 {
		batch = defaultOverdueBatch
	}

	filter := types.NewInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusPending}
	filter.DueBefore = lo.ToPtr(now)
	filter.Limit = lo.ToPtr(lo.Min([]int{batch, types.FILTER_MAX_LIMIT}))
	filter.Order = lo.ToPtr(types.OrderAsc)

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.OverdueSweepResponse{
		Scanned: len(invoices),
		Marked:  make([]string, 0, len(invoices)),
	}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(overdueSweepWorkers)
	for _, inv := range invoices {
		p.Go(func() {
			_, err := s.transition(ctx, "mark_invoice_overdue", inv.ID, now, types.EventInvoiceOverdue, invoice.MarkOverdue)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				resp.Marked = append(resp.Marked, inv.InvoiceNumber)
			case ierr.IsLedgerRule(err):
				// paid, cancelled or held since it was listed
				s.Logger.WithContext(ctx).Debugw("skipped invoice in overdue sweep",
					"invoice_id", inv.ID,
					"error", err,
				)
			default:
				resp.Failed = append(resp.Failed, inv.InvoiceNumber)
				s.Logger.WithContext(ctx).Errorw("failed to mark invoice overdue",
					"invoice_id", inv.ID,
					"error", err,
				)
			}
		})
	}
	p.Wait()

	s.Logger.WithContext(ctx).Infow("overdue sweep finished",
		"scanned", resp.Scanned,
		"marked", len(resp.Marked),
		"failed", len(resp.Failed),
	)
	return resp, nil
}

// lockInvoice takes the invoice row lock and loads its payments. A held
// invoice is refused. It must run inside a ledger transaction.
func (s *ServiceParams) lockInvoice(ctx context.Context, id int64) (*invoice.Invoice, []*payment.Payment, error) {
	inv, err := s.InvoiceRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := invoice.CheckWritable(inv); err != nil {
		return nil, nil, err
	}
	payments, err := s.PaymentRepo.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, nil, err
	}
	return inv, payments, nil
}

func hasCompletedPayments(payments []*payment.Payment) bool {
	return lo.SomeBy(payments, func(p *payment.Payment) bool { return p.IsCompleted() })
}

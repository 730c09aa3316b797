package memory

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/domain/payment"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
)

type paymentRow struct{ *payment.Payment }

func (r paymentRow) id() int64          { return r.ID }
func (r paymentRow) setID(id int64)     { r.ID = id }
func (r paymentRow) version() int64     { return r.Version }
func (r paymentRow) setVersion(v int64) { r.Version = v }
func (r paymentRow) live() bool         { return r.Status == types.StatusPublished }
func (r paymentRow) clone() paymentRow  { return paymentRow{r.Payment.Clone()} }

type paymentRepository struct {
	s *Store
}

// Payments returns the payment repository backed by the store
func (s *Store) Payments() payment.Repository {
	return &paymentRepository{s: s}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.invoices.get(x, p.InvoiceID); !ok {
		return ierr.NewError("invoice does not exist").
			WithHint("Referenced record does not exist").
			WithReportableDetails(map[string]any{"invoice_id": p.InvoiceID}).
			Mark(ierr.ErrValidation)
	}
	for _, existing := range r.s.payments.all(x) {
		if existing.PaymentReference == p.PaymentReference {
			return ierr.NewError("payment reference already exists").
				WithHint("A record with the same reference already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	r.s.payments.insert(x, paymentRow{p})
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id int64) (*payment.Payment, error) {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.payments.get(x, id)
	if !ok {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment %d was not found", id).
			WithReportableDetails(map[string]any{"payment": id}).
			Mark(ierr.ErrNotFound)
	}
	return row.Payment, nil
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	if err := r.s.lock(ctx, r.s.payments.key(id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, row := range r.s.payments.all(x) {
		if row.PaymentReference == reference && row.live() {
			return row.Payment, nil
		}
	}
	return nil, ierr.NewError("payment not found").
		WithHintf("Payment %s was not found", reference).
		WithReportableDetails(map[string]any{"payment": reference}).
		Mark(ierr.ErrNotFound)
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.payments.update(x, paymentRow{p})
}

func (r *paymentRepository) Delete(ctx context.Context, p *payment.Payment) error {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := p.Clone()
	deleted.Status = types.StatusDeleted
	if err := r.s.payments.update(x, paymentRow{deleted}); err != nil {
		return err
	}
	p.Status = types.StatusDeleted
	p.Version = deleted.Version
	return nil
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*payment.Payment, error) {
	filter := types.NewPaymentFilter()
	filter.InvoiceID = &invoiceID
	return r.filter(ctx, filter), nil
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	return page(r.filter(ctx, filter), filter.QueryFilter), nil
}

func (r *paymentRepository) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	return len(r.filter(ctx, filter)), nil
}

func (r *paymentRepository) filter(ctx context.Context, filter *types.PaymentFilter) []*payment.Payment {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*payment.Payment
	for _, row := range r.s.payments.all(x) {
		p := row.Payment
		if p.Status != filter.GetStatus() {
			continue
		}
		if filter.InvoiceID != nil && p.InvoiceID != *filter.InvoiceID {
			continue
		}
		if filter.PayerID != nil && p.PayerID != *filter.PayerID {
			continue
		}
		if len(filter.PaymentStatus) > 0 && !lo.Contains(filter.PaymentStatus, p.PaymentStatus) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *paymentRepository) PlaceHold(_ context.Context, id int64, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.payments.rows[id]
	if !ok {
		return ierr.NewError("payment not found").
			WithHintf("Payment %d was not found", id).
			Mark(ierr.ErrNotFound)
	}
	if row.IsOnHold() {
		return nil
	}
	now := time.Now().UTC()
	row.HoldReason = &reason
	row.HeldAt = &now
	row.Version++

	r.s.logger.Warnw("payment placed on reconciliation hold", "payment_id", id, "reason", reason)
	return nil
}

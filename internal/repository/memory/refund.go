package memory

import (
	"context"

	"github.com/flexprice/ledger/internal/domain/refund"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
)

type refundRow struct{ *refund.Refund }

func (r refundRow) id() int64          { return r.ID }
func (r refundRow) setID(id int64)     { r.ID = id }
func (r refundRow) version() int64     { return r.Version }
func (r refundRow) setVersion(v int64) { r.Version = v }
func (r refundRow) live() bool         { return r.Status == types.StatusPublished }
func (r refundRow) clone() refundRow   { return refundRow{r.Refund.Clone()} }

type refundRepository struct {
	s *Store
}

// Refunds returns the refund repository backed by the store
func (s *Store) Refunds() refund.Repository {
	return &refundRepository{s: s}
}

func (r *refundRepository) Create(ctx context.Context, rf *refund.Refund) error {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.payments.get(x, rf.PaymentID); !ok {
		return ierr.NewError("payment does not exist").
			WithHint("Referenced record does not exist").
			WithReportableDetails(map[string]any{"payment_id": rf.PaymentID}).
			Mark(ierr.ErrValidation)
	}
	for _, existing := range r.s.refunds.all(x) {
		if existing.RefundReference == rf.RefundReference {
			return ierr.NewError("refund reference already exists").
				WithHint("A record with the same reference already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	r.s.refunds.insert(x, refundRow{rf})
	return nil
}

func (r *refundRepository) Get(ctx context.Context, id int64) (*refund.Refund, error) {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.refunds.get(x, id)
	if !ok {
		return nil, ierr.NewError("refund not found").
			WithHintf("Refund %d was not found", id).
			WithReportableDetails(map[string]any{"refund": id}).
			Mark(ierr.ErrNotFound)
	}
	return row.Refund, nil
}

func (r *refundRepository) GetForUpdate(ctx context.Context, id int64) (*refund.Refund, error) {
	if err := r.s.lock(ctx, r.s.refunds.key(id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *refundRepository) GetByReference(ctx context.Context, reference string) (*refund.Refund, error) {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, row := range r.s.refunds.all(x) {
		if row.RefundReference == reference && row.live() {
			return row.Refund, nil
		}
	}
	return nil, ierr.NewError("refund not found").
		WithHintf("Refund %s was not found", reference).
		WithReportableDetails(map[string]any{"refund": reference}).
		Mark(ierr.ErrNotFound)
}

func (r *refundRepository) Update(ctx context.Context, rf *refund.Refund) error {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.refunds.update(x, refundRow{rf})
}

func (r *refundRepository) ListByPayment(ctx context.Context, paymentID int64) ([]*refund.Refund, error) {
	filter := types.NewRefundFilter()
	filter.PaymentID = &paymentID
	return r.filter(ctx, filter), nil
}

func (r *refundRepository) List(ctx context.Context, filter *types.RefundFilter) ([]*refund.Refund, error) {
	return page(r.filter(ctx, filter), filter.QueryFilter), nil
}

func (r *refundRepository) Count(ctx context.Context, filter *types.RefundFilter) (int, error) {
	return len(r.filter(ctx, filter)), nil
}

func (r *refundRepository) filter(ctx context.Context, filter *types.RefundFilter) []*refund.Refund {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*refund.Refund
	for _, row := range r.s.refunds.all(x) {
		rf := row.Refund
		if rf.Status != filter.GetStatus() {
			continue
		}
		if filter.PaymentID != nil && rf.PaymentID != *filter.PaymentID {
			continue
		}
		if filter.InvoiceID != nil && rf.InvoiceID != *filter.InvoiceID {
			continue
		}
		if len(filter.RefundStatus) > 0 && !lo.Contains(filter.RefundStatus, rf.RefundStatus) {
			continue
		}
		out = append(out, rf)
	}
	return out
}

package memory

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/domain/invoice"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
)

type invoiceRow struct{ *invoice.Invoice }

func (r invoiceRow) id() int64          { return r.ID }
func (r invoiceRow) setID(id int64)     { r.ID = id }
func (r invoiceRow) version() int64     { return r.Version }
func (r invoiceRow) setVersion(v int64) { r.Version = v }
func (r invoiceRow) live() bool         { return r.Status == types.StatusPublished }
func (r invoiceRow) clone() invoiceRow  { return invoiceRow{r.Invoice.Clone()} }

type invoiceRepository struct {
	s *Store
}

// Invoices returns the invoice repository backed by the store
func (s *Store) Invoices() invoice.Repository {
	return &invoiceRepository{s: s}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.invoices.all(x) {
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return ierr.NewError("invoice number already exists").
				WithHintf("Invoice %s already exists", inv.InvoiceNumber).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	r.s.invoices.insert(x, invoiceRow{inv})
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id int64) (*invoice.Invoice, error) {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.invoices.get(x, id)
	if !ok {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice %d was not found", id).
			WithReportableDetails(map[string]any{"invoice": id}).
			Mark(ierr.ErrNotFound)
	}
	return row.Invoice, nil
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id int64) (*invoice.Invoice, error) {
	if err := r.s.lock(ctx, r.s.invoices.key(id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *invoiceRepository) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, row := range r.s.invoices.all(x) {
		if row.InvoiceNumber == number && row.live() {
			return row.Invoice, nil
		}
	}
	return nil, ierr.NewError("invoice not found").
		WithHintf("Invoice %s was not found", number).
		WithReportableDetails(map[string]any{"invoice": number}).
		Mark(ierr.ErrNotFound)
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.invoices.update(x, invoiceRow{inv})
}

func (r *invoiceRepository) Delete(ctx context.Context, inv *invoice.Invoice) error {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := inv.Clone()
	deleted.Status = types.StatusDeleted
	if err := r.s.invoices.update(x, invoiceRow{deleted}); err != nil {
		return err
	}
	inv.Status = types.StatusDeleted
	inv.Version = deleted.Version
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	return page(r.filter(ctx, filter), filter.QueryFilter), nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return len(r.filter(ctx, filter)), nil
}

func (r *invoiceRepository) filter(ctx context.Context, filter *types.InvoiceFilter) []*invoice.Invoice {
	x, _ := getTx(ctx)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*invoice.Invoice
	for _, row := range r.s.invoices.all(x) {
		inv := row.Invoice
		if inv.Status != filter.GetStatus() {
			continue
		}
		if filter.OwnerID != nil && inv.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.ProviderID != nil && inv.ProviderID != *filter.ProviderID {
			continue
		}
		if len(filter.InvoiceStatus) > 0 && !lo.Contains(filter.InvoiceStatus, inv.InvoiceStatus) {
			continue
		}
		if filter.DueBefore != nil && !inv.DueDate.Before(*filter.DueBefore) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// GetNextInvoiceNumber holds the month's sequence lock until the surrounding
// transaction ends, so numbers are gapless like the postgres upsert
func (r *invoiceRepository) GetNextInvoiceNumber(ctx context.Context) (string, error) {
	yearMonth := invoice.SequenceYearMonth(time.Now())
	key := rowKey("sequence", yearMonth)

	x, inTx := getTx(ctx)
	if inTx {
		if err := r.s.lock(ctx, key); err != nil {
			return "", err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next := r.s.sequences[yearMonth] + 1
	if inTx {
		if w, ok := x.writes[key]; ok {
			next = w.row.(int64) + 1
		}
		x.stage(key, &write{
			row:     next,
			expect:  -1,
			current: func() (int64, bool) { return 0, false },
			apply:   func() { r.s.sequences[yearMonth] = next },
		})
	} else {
		r.s.sequences[yearMonth] = next
	}

	return invoice.FormatNumber(yearMonth, next), nil
}

func (r *invoiceRepository) PlaceHold(_ context.Context, id int64, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.invoices.rows[id]
	if !ok {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice %d was not found", id).
			Mark(ierr.ErrNotFound)
	}
	if row.IsOnHold() {
		return nil
	}
	now := time.Now().UTC()
	row.HoldReason = &reason
	row.HeldAt = &now
	row.Version++

	r.s.logger.Warnw("invoice placed on reconciliation hold", "invoice_id", id, "reason", reason)
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/flexprice/ledger/internal/domain/invoice"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
	"github.com/flexprice/ledger/internal/types"
	"github.com/lib/pq"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of invoice repository
func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `id, invoice_number, owner_id, provider_id, amount, tax_amount, total_amount,
	currency, invoice_status, issue_date, due_date, paid_date, cancelled_at, cancellation_reason,
	archived_at, notes, hold_reason, held_at, version, status, created_at, updated_at, created_by, updated_by`

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			invoice_number, owner_id, provider_id, amount, tax_amount, total_amount, currency,
			invoice_status, issue_date, due_date, notes, version, status,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:invoice_number, :owner_id, :provider_id, :amount, :tax_amount, :total_amount, :currency,
			:invoice_status, :issue_date, :due_date, :notes, 1, :status,
			:created_at, :updated_at, :created_by, :updated_by
		) RETURNING id`

	rows, err := r.db.GetQuerier(ctx).NamedQuery(query, inv)
	if err != nil {
		return postgres.TranslateError(err, "Failed to create invoice")
	}
	defer rows.Close()

	if !rows.Next() {
		return ierr.NewError("no id returned for invoice").
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}
	if err := rows.Scan(&inv.ID); err != nil {
		return postgres.TranslateError(err, "Failed to create invoice")
	}
	inv.Version = 1

	r.logger.Debugw("created invoice", "invoice_id", inv.ID, "invoice_number", inv.InvoiceNumber)
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id int64) (*invoice.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND status = $2`, id, types.StatusPublished)
}

// GetForUpdate locks the invoice row, the same way wallet balances are locked
// before a debit
func (r *invoiceRepository) GetForUpdate(ctx context.Context, id int64) (*invoice.Invoice, error) {
	if !postgres.InTx(ctx) {
		return nil, ierr.NewError("GetForUpdate called outside a transaction").
			Mark(ierr.ErrSystem)
	}
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND status = $2 FOR UPDATE`, id, types.StatusPublished)
}

func (r *invoiceRepository) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = $1 AND status = $2`, number, types.StatusPublished)
}

func (r *invoiceRepository) getOne(ctx context.Context, query string, args ...interface{}) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Invoice %v was not found", args[0]).
				WithReportableDetails(map[string]any{"invoice": args[0]}).
				Mark(ierr.ErrNotFound)
		}
		return nil, postgres.TranslateError(err, "Failed to get invoice")
	}
	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices SET
			invoice_status = $1, paid_date = $2, cancelled_at = $3, cancellation_reason = $4,
			archived_at = $5, notes = $6, updated_at = $7, updated_by = $8,
			version = version + 1
		WHERE id = $9 AND version = $10 AND status = $11`

	return r.casUpdate(ctx, inv, query,
		inv.InvoiceStatus, inv.PaidDate, inv.CancelledAt, inv.CancellationReason,
		inv.ArchivedAt, inv.Notes, inv.UpdatedAt, inv.UpdatedBy,
		inv.ID, inv.Version, types.StatusPublished)
}

func (r *invoiceRepository) Delete(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices SET status = $1, updated_at = $2, updated_by = $3, version = version + 1
		WHERE id = $4 AND version = $5 AND status = $6`

	return r.casUpdate(ctx, inv, query,
		types.StatusDeleted, inv.UpdatedAt, inv.UpdatedBy,
		inv.ID, inv.Version, types.StatusPublished)
}

// casUpdate runs a version guarded update. Zero affected rows means another
// writer committed first.
func (r *invoiceRepository) casUpdate(ctx context.Context, inv *invoice.Invoice, query string, args ...interface{}) error {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return postgres.TranslateError(err, "Failed to update invoice")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return postgres.TranslateError(err, "Failed to update invoice")
	}
	if affected == 0 {
		return ierr.NewError("invoice version conflict").
			WithHintf("Invoice %s was modified concurrently", inv.InvoiceNumber).
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"version":    inv.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	inv.Version++
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	where := r.where(filter)
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where.String() + where.page(filter.QueryFilter)

	var invoices []*invoice.Invoice
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &invoices, query, where.args...); err != nil {
		return nil, postgres.TranslateError(err, "Failed to list invoices")
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	where := r.where(filter)

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM invoices`+where.String(), where.args...); err != nil {
		return 0, postgres.TranslateError(err, "Failed to count invoices")
	}
	return count, nil
}

func (r *invoiceRepository) where(filter *types.InvoiceFilter) *whereClause {
	w := &whereClause{}
	w.add("status = ?", filter.GetStatus())
	if filter.OwnerID != nil {
		w.add("owner_id = ?", *filter.OwnerID)
	}
	if filter.ProviderID != nil {
		w.add("provider_id = ?", *filter.ProviderID)
	}
	if len(filter.InvoiceStatus) > 0 {
		statuses := make([]string, len(filter.InvoiceStatus))
		for i, s := range filter.InvoiceStatus {
			statuses[i] = string(s)
		}
		w.add("invoice_status = ANY(?)", pq.Array(statuses))
	}
	if filter.DueBefore != nil {
		w.add("due_date < ?", *filter.DueBefore)
	}
	return w
}

// GetNextInvoiceNumber increments the monthly sequence atomically. Inside a
// ledger transaction the sequence row stays locked until commit.
func (r *invoiceRepository) GetNextInvoiceNumber(ctx context.Context) (string, error) {
	yearMonth := invoice.SequenceYearMonth(time.Now())

	query := `
		INSERT INTO invoice_sequences (year_month, last_value, created_at, updated_at)
		VALUES ($1, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (year_month) DO UPDATE
		SET last_value = invoice_sequences.last_value + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING last_value`

	var lastValue int64
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &lastValue, query, yearMonth); err != nil {
		return "", postgres.TranslateError(err, "Invoice number generation failed")
	}

	r.logger.Debugw("generated invoice number", "year_month", yearMonth, "sequence", lastValue)
	return invoice.FormatNumber(yearMonth, lastValue), nil
}

func (r *invoiceRepository) PlaceHold(ctx context.Context, id int64, reason string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE invoices SET hold_reason = $1, held_at = $2, version = version + 1 WHERE id = $3 AND hold_reason IS NULL`,
		reason, time.Now().UTC(), id)
	if err != nil {
		return postgres.TranslateError(err, "Failed to place invoice on hold")
	}
	r.logger.Warnw("invoice placed on reconciliation hold", "invoice_id", id, "reason", reason)
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/flexprice/ledger/internal/domain/payment"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
	"github.com/flexprice/ledger/internal/types"
	"github.com/lib/pq"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentRepository creates a new instance of payment repository
func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

const paymentColumns = `id, payment_reference, invoice_id, payer_id, payment_method_id, amount, currency,
	payment_status, payment_type, gateway, gateway_transaction_id, idempotency_key, error_message,
	processed_at, failed_at, notes, hold_reason, held_at, version, status,
	created_at, updated_at, created_by, updated_by`

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (
			payment_reference, invoice_id, payer_id, payment_method_id, amount, currency,
			payment_status, payment_type, gateway, gateway_transaction_id, idempotency_key,
			error_message, processed_at, failed_at, notes, version, status,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:payment_reference, :invoice_id, :payer_id, :payment_method_id, :amount, :currency,
			:payment_status, :payment_type, :gateway, :gateway_transaction_id, :idempotency_key,
			:error_message, :processed_at, :failed_at, :notes, 1, :status,
			:created_at, :updated_at, :created_by, :updated_by
		) RETURNING id`

	rows, err := r.db.GetQuerier(ctx).NamedQuery(query, p)
	if err != nil {
		return postgres.TranslateError(err, "Failed to create payment")
	}
	defer rows.Close()

	if !rows.Next() {
		return ierr.NewError("no id returned for payment").
			WithHint("Failed to create payment").
			Mark(ierr.ErrDatabase)
	}
	if err := rows.Scan(&p.ID); err != nil {
		return postgres.TranslateError(err, "Failed to create payment")
	}
	p.Version = 1

	r.logger.Debugw("created payment",
		"payment_id", p.ID,
		"invoice_id", p.InvoiceID,
		"amount", p.Amount.String(),
	)
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id int64) (*payment.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 AND status = $2`, id, types.StatusPublished)
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, id int64) (*payment.Payment, error) {
	if !postgres.InTx(ctx) {
		return nil, ierr.NewError("GetForUpdate called outside a transaction").
			Mark(ierr.ErrSystem)
	}
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 AND status = $2 FOR UPDATE`, id, types.StatusPublished)
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_reference = $1 AND status = $2`, reference, types.StatusPublished)
}

func (r *paymentRepository) getOne(ctx context.Context, query string, args ...interface{}) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Payment %v was not found", args[0]).
				WithReportableDetails(map[string]any{"payment": args[0]}).
				Mark(ierr.ErrNotFound)
		}
		return nil, postgres.TranslateError(err, "Failed to get payment")
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments SET
			payment_status = $1, gateway_transaction_id = $2, error_message = $3,
			processed_at = $4, failed_at = $5, notes = $6, updated_at = $7, updated_by = $8,
			version = version + 1
		WHERE id = $9 AND version = $10 AND status = $11`

	return r.casUpdate(ctx, p, query,
		p.PaymentStatus, p.GatewayTransactionID, p.ErrorMessage,
		p.ProcessedAt, p.FailedAt, p.Notes, p.UpdatedAt, p.UpdatedBy,
		p.ID, p.Version, types.StatusPublished)
}

func (r *paymentRepository) Delete(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments SET status = $1, updated_at = $2, updated_by = $3, version = version + 1
		WHERE id = $4 AND version = $5 AND status = $6`

	return r.casUpdate(ctx, p, query,
		types.StatusDeleted, p.UpdatedAt, p.UpdatedBy,
		p.ID, p.Version, types.StatusPublished)
}

func (r *paymentRepository) casUpdate(ctx context.Context, p *payment.Payment, query string, args ...interface{}) error {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return postgres.TranslateError(err, "Failed to update payment")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return postgres.TranslateError(err, "Failed to update payment")
	}
	if affected == 0 {
		return ierr.NewError("payment version conflict").
			WithHintf("Payment %s was modified concurrently", p.PaymentReference).
			WithReportableDetails(map[string]any{
				"payment_id": p.ID,
				"version":    p.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	p.Version++
	return nil
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*payment.Payment, error) {
	var payments []*payment.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = $1 AND status = $2 ORDER BY id ASC`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query, invoiceID, types.StatusPublished); err != nil {
		return nil, postgres.TranslateError(err, "Failed to list invoice payments")
	}
	return payments, nil
}

func (r *paymentRepository) List(ctx context.Context, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	where := r.where(filter)
	query := `SELECT ` + paymentColumns + ` FROM payments` + where.String() + where.page(filter.QueryFilter)

	var payments []*payment.Payment
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query, where.args...); err != nil {
		return nil, postgres.TranslateError(err, "Failed to list payments")
	}
	return payments, nil
}

func (r *paymentRepository) Count(ctx context.Context, filter *types.PaymentFilter) (int, error) {
	where := r.where(filter)

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM payments`+where.String(), where.args...); err != nil {
		return 0, postgres.TranslateError(err, "Failed to count payments")
	}
	return count, nil
}

func (r *paymentRepository) where(filter *types.PaymentFilter) *whereClause {
	w := &whereClause{}
	w.add("status = ?", filter.GetStatus())
	if filter.InvoiceID != nil {
		w.add("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.PayerID != nil {
		w.add("payer_id = ?", *filter.PayerID)
	}
	if len(filter.PaymentStatus) > 0 {
		statuses := make([]string, len(filter.PaymentStatus))
		for i, s := range filter.PaymentStatus {
			statuses[i] = string(s)
		}
		w.add("payment_status = ANY(?)", pq.Array(statuses))
	}
	return w
}

func (r *paymentRepository) PlaceHold(ctx context.Context, id int64, reason string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE payments SET hold_reason = $1, held_at = $2, version = version + 1 WHERE id = $3 AND hold_reason IS NULL`,
		reason, time.Now().UTC(), id)
	if err != nil {
		return postgres.TranslateError(err, "Failed to place payment on hold")
	}
	r.logger.Warnw("payment placed on reconciliation hold", "payment_id", id, "reason", reason)
	return nil
}

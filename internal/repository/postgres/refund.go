package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/flexprice/ledger/internal/domain/refund"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
	"github.com/flexprice/ledger/internal/types"
	"github.com/lib/pq"
)

type refundRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewRefundRepository creates a new instance of refund repository
func NewRefundRepository(db *postgres.DB, logger *logger.Logger) refund.Repository {
	return &refundRepository{
		db:     db,
		logger: logger,
	}
}

const refundColumns = `id, refund_reference, payment_id, invoice_id, beneficiary_id, admin_id, amount,
	currency, refund_status, refund_type, reason, notes, gateway_refund_id, idempotency_key,
	error_message, processed_at, failed_at, cancelled_at, version, status,
	created_at, updated_at, created_by, updated_by`

func (r *refundRepository) Create(ctx context.Context, rf *refund.Refund) error {
	query := `
		INSERT INTO refunds (
			refund_reference, payment_id, invoice_id, beneficiary_id, admin_id, amount, currency,
			refund_status, refund_type, reason, notes, gateway_refund_id, idempotency_key,
			error_message, processed_at, failed_at, cancelled_at, version, status,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:refund_reference, :payment_id, :invoice_id, :beneficiary_id, :admin_id, :amount, :currency,
			:refund_status, :refund_type, :reason, :notes, :gateway_refund_id, :idempotency_key,
			:error_message, :processed_at, :failed_at, :cancelled_at, 1, :status,
			:created_at, :updated_at, :created_by, :updated_by
		) RETURNING id`

	rows, err := r.db.GetQuerier(ctx).NamedQuery(query, rf)
	if err != nil {
		return postgres.TranslateError(err, "Failed to create refund")
	}
	defer rows.Close()

	if !rows.Next() {
		return ierr.NewError("no id returned for refund").
			WithHint("Failed to create refund").
			Mark(ierr.ErrDatabase)
	}
	if err := rows.Scan(&rf.ID); err != nil {
		return postgres.TranslateError(err, "Failed to create refund")
	}
	rf.Version = 1

	r.logger.Debugw("created refund",
		"refund_id", rf.ID,
		"payment_id", rf.PaymentID,
		"amount", rf.Amount.String(),
	)
	return nil
}

func (r *refundRepository) Get(ctx context.Context, id int64) (*refund.Refund, error) {
	return r.getOne(ctx, `SELECT `+refundColumns+` FROM refunds WHERE id = $1 AND status = $2`, id, types.StatusPublished)
}

func (r *refundRepository) GetForUpdate(ctx context.Context, id int64) (*refund.Refund, error) {
	if !postgres.InTx(ctx) {
		return nil, ierr.NewError("GetForUpdate called outside a transaction").
			Mark(ierr.ErrSystem)
	}
	return r.getOne(ctx, `SELECT `+refundColumns+` FROM refunds WHERE id = $1 AND status = $2 FOR UPDATE`, id, types.StatusPublished)
}

func (r *refundRepository) GetByReference(ctx context.Context, reference string) (*refund.Refund, error) {
	return r.getOne(ctx, `SELECT `+refundColumns+` FROM refunds WHERE refund_reference = $1 AND status = $2`, reference, types.StatusPublished)
}

func (r *refundRepository) getOne(ctx context.Context, query string, args ...interface{}) (*refund.Refund, error) {
	var rf refund.Refund
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &rf, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Refund %v was not found", args[0]).
				WithReportableDetails(map[string]any{"refund": args[0]}).
				Mark(ierr.ErrNotFound)
		}
		return nil, postgres.TranslateError(err, "Failed to get refund")
	}
	return &rf, nil
}

func (r *refundRepository) Update(ctx context.Context, rf *refund.Refund) error {
	query := `
		UPDATE refunds SET
			refund_status = $1, gateway_refund_id = $2, error_message = $3, processed_at = $4,
			failed_at = $5, cancelled_at = $6, notes = $7, updated_at = $8, updated_by = $9,
			version = version + 1
		WHERE id = $10 AND version = $11 AND status = $12`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		rf.RefundStatus, rf.GatewayRefundID, rf.ErrorMessage, rf.ProcessedAt,
		rf.FailedAt, rf.CancelledAt, rf.Notes, rf.UpdatedAt, rf.UpdatedBy,
		rf.ID, rf.Version, types.StatusPublished)
	if err != nil {
		return postgres.TranslateError(err, "Failed to update refund")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return postgres.TranslateError(err, "Failed to update refund")
	}
	if affected == 0 {
		return ierr.NewError("refund version conflict").
			WithHintf("Refund %s was modified concurrently", rf.RefundReference).
			WithReportableDetails(map[string]any{
				"refund_id": rf.ID,
				"version":   rf.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	rf.Version++
	return nil
}

func (r *refundRepository) ListByPayment(ctx context.Context, paymentID int64) ([]*refund.Refund, error) {
	var refunds []*refund.Refund
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE payment_id = $1 AND status = $2 ORDER BY id ASC`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &refunds, query, paymentID, types.StatusPublished); err != nil {
		return nil, postgres.TranslateError(err, "Failed to list payment refunds")
	}
	return refunds, nil
}

func (r *refundRepository) List(ctx context.Context, filter *types.RefundFilter) ([]*refund.Refund, error) {
	where := r.where(filter)
	query := `SELECT ` + refundColumns + ` FROM refunds` + where.String() + where.page(filter.QueryFilter)

	var refunds []*refund.Refund
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &refunds, query, where.args...); err != nil {
		return nil, postgres.TranslateError(err, "Failed to list refunds")
	}
	return refunds, nil
}

func (r *refundRepository) Count(ctx context.Context, filter *types.RefundFilter) (int, error) {
	where := r.where(filter)

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM refunds`+where.String(), where.args...); err != nil {
		return 0, postgres.TranslateError(err, "Failed to count refunds")
	}
	return count, nil
}

func (r *refundRepository) where(filter *types.RefundFilter) *whereClause {
	w := &whereClause{}
	w.add("status = ?", filter.GetStatus())
	if filter.PaymentID != nil {
		w.add("payment_id = ?", *filter.PaymentID)
	}
	if filter.InvoiceID != nil {
		w.add("invoice_id = ?", *filter.InvoiceID)
	}
	if len(filter.RefundStatus) > 0 {
		statuses := make([]string, len(filter.RefundStatus))
		for i, s := range filter.RefundStatus {
			statuses[i] = string(s)
		}
		w.add("refund_status = ANY(?)", pq.Array(statuses))
	}
	return w
}

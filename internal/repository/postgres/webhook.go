package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/flexprice/ledger/internal/domain/webhook"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
	"github.com/flexprice/ledger/internal/types"
)

type webhookRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewWebhookRepository creates a new instance of webhook registration repository
func NewWebhookRepository(db *postgres.DB, logger *logger.Logger) webhook.Repository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

func (r *webhookRepository) Create(ctx context.Context, reg *webhook.Registration) error {
	query := `
		INSERT INTO webhook_registrations (
			id, provider_id, url, events, secret, enabled, status,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :provider_id, :url, :events, :secret, :enabled, :status,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, reg); err != nil {
		return postgres.TranslateError(err, "Failed to create webhook registration")
	}

	r.logger.Debugw("created webhook registration", "registration_id", reg.ID, "provider_id", reg.ProviderID)
	return nil
}

func (r *webhookRepository) Get(ctx context.Context, id string) (*webhook.Registration, error) {
	var reg webhook.Registration
	err := r.db.GetQuerier(ctx).GetContext(ctx, &reg,
		`SELECT * FROM webhook_registrations WHERE id = $1 AND status = $2`, id, types.StatusPublished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Webhook registration %s was not found", id).
				WithReportableDetails(map[string]any{"registration_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, postgres.TranslateError(err, "Failed to get webhook registration")
	}
	return &reg, nil
}

func (r *webhookRepository) ListByProvider(ctx context.Context, providerID int64) ([]*webhook.Registration, error) {
	var regs []*webhook.Registration
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &regs,
		`SELECT * FROM webhook_registrations WHERE provider_id = $1 AND status = $2 ORDER BY created_at ASC`,
		providerID, types.StatusPublished)
	if err != nil {
		return nil, postgres.TranslateError(err, "Failed to list webhook registrations")
	}
	return regs, nil
}

func (r *webhookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE webhook_registrations SET status = $1, updated_at = CURRENT_TIMESTAMP, updated_by = $2 WHERE id = $3 AND status = $4`,
		types.StatusDeleted, types.GetActorID(ctx), id, types.StatusPublished)
	if err != nil {
		return postgres.TranslateError(err, "Failed to delete webhook registration")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ierr.NewError("webhook registration not found").
			WithHintf("Webhook registration %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/flexprice/ledger/internal/domain/activity"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
)

type activityRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewActivityRepository creates an append-only activity sink on the ledger database
func NewActivityRepository(db *postgres.DB, logger *logger.Logger) activity.Sink {
	return &activityRepository{
		db:     db,
		logger: logger,
	}
}

// Append ignores duplicates so redelivered events are written once
func (r *activityRepository) Append(ctx context.Context, entry *activity.Entry) error {
	query := `
		INSERT INTO activity_log (id, actor_id, action, subject_type, subject_id, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
		ON CONFLICT (id) DO NOTHING`

	metadata := "{}"
	if len(entry.Metadata) > 0 {
		metadata = string(entry.Metadata)
	}
	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		entry.ID, entry.ActorID, entry.Action, entry.SubjectType, entry.SubjectID, metadata, entry.OccurredAt,
	); err != nil {
		return postgres.TranslateError(err, "Failed to append activity entry")
	}
	return nil
}

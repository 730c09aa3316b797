package clickhouse

import (
	"context"

	"github.com/flexprice/ledger/internal/domain/activity"
	ierr "github.com/flexprice/ledger/internal/errors"
)

const createActivityTable = `
	CREATE TABLE IF NOT EXISTS activity_log (
		id           String,
		actor_id     String,
		action       LowCardinality(String),
		subject_type LowCardinality(String),
		subject_id   Int64,
		metadata     String,
		occurred_at  DateTime64(3, 'UTC')
	)
	ENGINE = ReplacingMergeTree
	ORDER BY (subject_type, subject_id, id)`

// ActivitySink appends audit entries to clickhouse. Redelivered entries
// collapse on merge since the table replaces rows by id.
type ActivitySink struct {
	client *Client
}

func NewActivitySink(client *Client) *ActivitySink {
	return &ActivitySink{client: client}
}

// EnsureSchema creates the activity table when it is missing
func (s *ActivitySink) EnsureSchema(ctx context.Context) error {
	if err := s.client.Exec(ctx, "activity.ensure_schema", createActivityTable); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create clickhouse activity table").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *ActivitySink) Append(ctx context.Context, entry *activity.Entry) error {
	metadata := "{}"
	if len(entry.Metadata) > 0 {
		metadata = string(entry.Metadata)
	}

	err := s.client.Exec(ctx, "activity.append", `
		INSERT INTO activity_log (id, actor_id, action, subject_type, subject_id, metadata, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActorID, entry.Action, entry.SubjectType, entry.SubjectID, metadata, entry.OccurredAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to insert activity entry in clickhouse").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

package activity

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one append-only audit record
type Entry struct {
	ID          string          `db:"id" json:"id" dynamodbav:"id"`
	ActorID     string          `db:"actor_id" json:"actor_id" dynamodbav:"actor_id"`
	Action      string          `db:"action" json:"action" dynamodbav:"action"`
	SubjectType string          `db:"subject_type" json:"subject_type" dynamodbav:"subject_type"`
	SubjectID   int64           `db:"subject_id" json:"subject_id" dynamodbav:"subject_id"`
	Metadata    json.RawMessage `db:"metadata" json:"metadata" dynamodbav:"-"`
	OccurredAt  time.Time       `db:"occurred_at" json:"occurred_at" dynamodbav:"occurred_at"`
}

// Sink appends audit entries. Implementations never expose reads to the ledger.
type Sink interface {
	Append(ctx context.Context, entry *Entry) error
}

package activity

import (
	"context"

	"github.com/flexprice/ledger/internal/clickhouse"
	"github.com/flexprice/ledger/internal/config"
	activityDomain "github.com/flexprice/ledger/internal/domain/activity"
	"github.com/flexprice/ledger/internal/dynamodb"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/repository"
	postgresRepo "github.com/flexprice/ledger/internal/repository/postgres"
	"github.com/flexprice/ledger/internal/sentry"
	"github.com/flexprice/ledger/internal/types"
)

// NewSink returns the sink selected by activity.sink
func NewSink(
	ctx context.Context,
	cfg *config.Configuration,
	stores *repository.Stores,
	logger *logger.Logger,
	sentry *sentry.Service,
) (activityDomain.Sink, error) {
	switch cfg.Activity.Sink {
	case types.ActivitySinkLog:
		return &logSink{logger: logger}, nil

	case types.ActivitySinkPostgres:
		if stores.DB == nil {
			return nil, ierr.NewError("postgres activity sink needs the postgres store").
				WithHint("Set ledger.store to postgres or pick another activity sink").
				Mark(ierr.ErrValidation)
		}
		return postgresRepo.NewActivityRepository(stores.DB, logger), nil

	case types.ActivitySinkDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return dynamodb.NewActivitySink(client, cfg, logger), nil

	case types.ActivitySinkClickHouse:
		client, err := clickhouse.NewClient(ctx, cfg, sentry)
		if err != nil {
			return nil, err
		}
		sink := clickhouse.NewActivitySink(client)
		if err := sink.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return sink, nil
	}

	return nil, ierr.NewError("unsupported activity sink").
		WithHintf("Unsupported activity sink %q", cfg.Activity.Sink).
		Mark(ierr.ErrValidation)
}

type logSink struct {
	logger *logger.Logger
}

func (s *logSink) Append(ctx context.Context, entry *activityDomain.Entry) error {
	s.logger.WithContext(ctx).Infow("activity",
		"activity_id", entry.ID,
		"actor_id", entry.ActorID,
		"action", entry.Action,
		"subject_type", entry.SubjectType,
		"subject_id", entry.SubjectID,
		"metadata", string(entry.Metadata),
	)
	return nil
}

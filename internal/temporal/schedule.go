package temporal

import (
	"context"

	"github.com/flexprice/ledger/internal/config"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/temporal/models"
	"github.com/flexprice/ledger/internal/temporal/workflows"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

const overdueSweepWorkflowID = "ledger-overdue-sweep"

// ScheduleOverdueSweep starts the cron overdue sweep unless it already runs
func ScheduleOverdueSweep(ctx context.Context, c *TemporalClient, cfg *config.Configuration, log *logger.Logger) error {
	if cfg.Temporal.OverdueSchedule == "" {
		log.Infow("overdue sweep schedule not configured")
		return nil
	}

	run, err := c.Client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           overdueSweepWorkflowID,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cfg.Temporal.OverdueSchedule,
	}, workflows.WorkflowOverdueSweep, models.OverdueSweepWorkflowInput{})
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if ierr.As(err, &started) {
			log.Debugw("overdue sweep already scheduled", "workflow_id", overdueSweepWorkflowID)
			return nil
		}
		return ierr.WithError(err).
			WithHint("Failed to schedule the overdue sweep").
			Mark(ierr.ErrSystem)
	}

	log.Infow("scheduled overdue sweep",
		"workflow_id", overdueSweepWorkflowID,
		"run_id", run.GetRunID(),
		"schedule", cfg.Temporal.OverdueSchedule,
	)
	return nil
}

package workflows

import (
	"time"

	"github.com/flexprice/ledger/internal/temporal/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// Workflow name - must match the function name
	WorkflowOverdueSweep = "OverdueSweepWorkflow"
	// Activity names - must match the registered method names
	ActivityMarkOverdueInvoices = "MarkOverdueInvoices"
)

// OverdueSweepWorkflow flags every pending invoice past its due date
func OverdueSweepWorkflow(ctx workflow.Context, input models.OverdueSweepWorkflowInput) (*models.OverdueSweepResult, error) {
	logger := workflow.GetLogger(ctx)

	asOf := workflow.Now(ctx).UTC()
	if input.AsOf != nil {
		asOf = input.AsOf.UTC()
	}
	logger.Info("Starting overdue sweep", "as_of", asOf)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var result models.OverdueSweepResult
	err := workflow.ExecuteActivity(ctx, ActivityMarkOverdueInvoices, models.MarkOverdueInvoicesActivityInput{
		AsOf: asOf,
	}).Get(ctx, &result)
	if err != nil {
		logger.Error("Overdue sweep failed", "error", err)
		return nil, err
	}

	logger.Info("Overdue sweep completed",
		"scanned", result.Scanned,
		"marked", len(result.Marked),
		"failed", len(result.Failed))
	return &result, nil
}

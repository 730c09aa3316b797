package temporal

import (
	"github.com/flexprice/ledger/internal/service"
	"github.com/flexprice/ledger/internal/temporal/activities"
	"github.com/flexprice/ledger/internal/temporal/workflows"
	"go.temporal.io/sdk/worker"
)

// RegisterWorkflowsAndActivities registers all workflows and activities with a Temporal worker.
func RegisterWorkflowsAndActivities(w worker.Worker, invoiceService service.InvoiceService) {
	w.RegisterWorkflow(workflows.OverdueSweepWorkflow) // "OverdueSweepWorkflow"

	invoiceActivities := activities.NewInvoiceActivities(invoiceService)
	w.RegisterActivity(invoiceActivities.MarkOverdueInvoices) // "MarkOverdueInvoices"
}

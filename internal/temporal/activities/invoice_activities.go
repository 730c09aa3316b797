package activities

import (
	"context"

	"github.com/flexprice/ledger/internal/service"
	"github.com/flexprice/ledger/internal/temporal/models"
	"github.com/flexprice/ledger/internal/types"
)

// InvoiceActivities contains the invoice maintenance activities
type InvoiceActivities struct {
	invoiceService service.InvoiceService
}

func NewInvoiceActivities(invoiceService service.InvoiceService) *InvoiceActivities {
	return &InvoiceActivities{
		invoiceService: invoiceService,
	}
}

// MarkOverdueInvoices runs one batch of the overdue sweep as the system actor
func (a *InvoiceActivities) MarkOverdueInvoices(ctx context.Context, input models.MarkOverdueInvoicesActivityInput) (*models.OverdueSweepResult, error) {
	ctx = types.SetActorID(ctx, types.DefaultActorID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())

	resp, err := a.invoiceService.MarkOverdueInvoices(ctx, input.AsOf)
	if err != nil {
		return nil, err
	}

	return &models.OverdueSweepResult{
		Scanned: resp.Scanned,
		Marked:  resp.Marked,
		Failed:  resp.Failed,
	}, nil
}

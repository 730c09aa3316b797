package invoice

import (
	"context"

	"github.com/flexprice/ledger/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create inserts a new invoice and assigns its ID and version
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves a live invoice by ID
	Get(ctx context.Context, id int64) (*Invoice, error)

	// GetForUpdate retrieves an invoice and holds its row lock until the
	// surrounding transaction ends. It must be called inside WithTx.
	GetForUpdate(ctx context.Context, id int64) (*Invoice, error)

	// GetByNumber retrieves an invoice by its invoice number
	GetByNumber(ctx context.Context, number string) (*Invoice, error)

	// Update persists the invoice if its version still matches the stored one
	// and increments invoice.Version. A stale version fails with ErrVersionConflict.
	Update(ctx context.Context, invoice *Invoice) error

	// Delete soft deletes the invoice, subject to the same version check as Update
	Delete(ctx context.Context, invoice *Invoice) error

	// List retrieves invoices based on filter criteria
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)

	// GetNextInvoiceNumber allocates the next number of the current month's sequence
	GetNextInvoiceNumber(ctx context.Context) (string, error)

	// PlaceHold flags the invoice for manual reconciliation. It runs outside
	// any ledger transaction and does not check the version.
	PlaceHold(ctx context.Context, id int64, reason string) error
}

package payment

import (
	"context"

	"github.com/flexprice/ledger/internal/types"
)

// Repository defines the interface for payment persistence operations
type Repository interface {
	// Create inserts a new payment and assigns its ID and version
	Create(ctx context.Context, payment *Payment) error

	// Get retrieves a live payment by ID
	Get(ctx context.Context, id int64) (*Payment, error)

	// GetForUpdate retrieves a payment and holds its row lock until the
	// surrounding transaction ends. It must be called inside WithTx.
	GetForUpdate(ctx context.Context, id int64) (*Payment, error)

	// GetByReference retrieves a payment by its payment reference
	GetByReference(ctx context.Context, reference string) (*Payment, error)

	// Update persists the payment if its version still matches and increments payment.Version
	Update(ctx context.Context, payment *Payment) error

	// Delete soft deletes the payment, subject to the same version check as Update
	Delete(ctx context.Context, payment *Payment) error

	// ListByInvoice returns every live payment of an invoice, oldest first
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*Payment, error)

	// List retrieves payments based on filter criteria
	List(ctx context.Context, filter *types.PaymentFilter) ([]*Payment, error)

	// Count returns the total count of payments based on filter criteria
	Count(ctx context.Context, filter *types.PaymentFilter) (int, error)

	// PlaceHold flags the payment for manual reconciliation outside any ledger transaction
	PlaceHold(ctx context.Context, id int64, reason string) error
}

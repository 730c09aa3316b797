package refund

import (
	"context"

	"github.com/flexprice/ledger/internal/types"
)

// Repository defines the interface for refund persistence operations
type Repository interface {
	Create(ctx context.Context, refund *Refund) error
	Get(ctx context.Context, id int64) (*Refund, error)
	// GetForUpdate locks the refund row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id int64) (*Refund, error)
	GetByReference(ctx context.Context, reference string) (*Refund, error)
	// Update persists the refund if its version still matches and increments refund.Version
	Update(ctx context.Context, refund *Refund) error
	// ListByPayment returns every refund of a payment, oldest first
	ListByPayment(ctx context.Context, paymentID int64) ([]*Refund, error)
	List(ctx context.Context, filter *types.RefundFilter) ([]*Refund, error)
	Count(ctx context.Context, filter *types.RefundFilter) (int, error)
}

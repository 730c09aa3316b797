package payload

import (
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
)

// PayloadBuilderFactory interface for getting event-specific payload builders
type PayloadBuilderFactory interface {
	GetBuilder(eventType string) (PayloadBuilder, error)
}

type payloadBuilderFactory struct {
	builders map[string]func() PayloadBuilder
}

// NewPayloadBuilderFactory creates a new factory with registered builders
func NewPayloadBuilderFactory() PayloadBuilderFactory {
	f := &payloadBuilderFactory{
		builders: make(map[string]func() PayloadBuilder),
	}

	// invoice builders
	for _, event := range []string{
		types.EventInvoiceCreated,
		types.EventInvoicePaid,
		types.EventInvoiceCancelled,
		types.EventInvoiceOverdue,
		types.EventInvoiceArchived,
	} {
		f.builders[event] = NewInvoicePayloadBuilder
	}

	// payment builders
	f.builders[types.EventPaymentCompleted] = NewPaymentPayloadBuilder
	f.builders[types.EventPaymentFailed] = NewPaymentPayloadBuilder

	// refund builders
	f.builders[types.EventPaymentRefunded] = NewRefundPayloadBuilder
	f.builders[types.EventRefundFailed] = NewRefundPayloadBuilder
	f.builders[types.EventRefundCancelled] = NewRefundPayloadBuilder

	return f
}

// GetBuilder returns a payload builder for the given event type
func (f *payloadBuilderFactory) GetBuilder(eventType string) (PayloadBuilder, error) {
	builderFn, ok := f.builders[eventType]
	if !ok {
		return nil, ierr.NewError("no payload builder for event").
			WithHintf("No builder registered for event type %s", eventType).
			Mark(ierr.ErrValidation)
	}
	return builderFn(), nil
}

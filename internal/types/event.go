package types

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// LedgerEvent is published on the event bus after a ledger transaction commits.
// Payload holds the fully resolved snapshot of the affected entities.
type LedgerEvent struct {
	ID         string          `json:"id"`
	EventName  string          `json:"event_name"`
	ActorID    string          `json:"actor_id"`
	OwnerID    int64           `json:"owner_id"`
	ProviderID int64           `json:"provider_id"`
	RequestID  string          `json:"request_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}

// invoice event names
const (
	EventInvoiceCreated   = "invoice.created"
	EventInvoicePaid      = "invoice.paid"
	EventInvoiceCancelled = "invoice.cancelled"
	EventInvoiceOverdue   = "invoice.overdue"
	EventInvoiceArchived  = "invoice.archived"
)

// payment event names
const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentRefunded  = "payment.refunded"
)

// refund event names
const (
	EventRefundFailed    = "refund.failed"
	EventRefundCancelled = "refund.cancelled"
)

// EventWildcard subscribes a webhook registration to every event
const EventWildcard = "*"

var knownEvents = []string{
	EventInvoiceCreated,
	EventInvoicePaid,
	EventInvoiceCancelled,
	EventInvoiceOverdue,
	EventInvoiceArchived,
	EventPaymentCompleted,
	EventPaymentFailed,
	EventPaymentRefunded,
	EventRefundFailed,
	EventRefundCancelled,
}

// KnownEvents returns every event name the ledger emits
func KnownEvents() []string {
	return append([]string(nil), knownEvents...)
}

func IsKnownEvent(name string) bool {
	return lo.Contains(knownEvents, name)
}

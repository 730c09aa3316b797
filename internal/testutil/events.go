package testutil

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/types"
)

// NewLedgerEvent builds an event of the test owner and provider carrying snapshot
func NewLedgerEvent(name string, snapshot *dto.EventSnapshot) *types.LedgerEvent {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		panic(err)
	}
	return &types.LedgerEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName:  name,
		ActorID:    TestActorID,
		OwnerID:    TestOwnerID,
		ProviderID: TestProviderID,
		RequestID:  types.GenerateUUID(),
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// NewEventMessage wraps an event the way the event publisher does
func NewEventMessage(event *types.LedgerEvent) *message.Message {
	body, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return message.NewMessage(event.ID, body)
}

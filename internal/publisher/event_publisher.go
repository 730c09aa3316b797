package publisher

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/ledger/internal/api/dto"
	"github.com/flexprice/ledger/internal/config"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/pubsub"
	"github.com/flexprice/ledger/internal/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// message metadata keys
const (
	MetadataEventName = "event_name"
	MetadataRequestID = "request_id"
	MetadataActorID   = "actor_id"
)

// EventPublisher publishes committed ledger events on the event bus
type EventPublisher interface {
	Publish(ctx context.Context, event *types.LedgerEvent) error
}

type eventPublisher struct {
	pubSub pubsub.PubSub
	topic  string
	logger *logger.Logger
}

// NewEventPublisher creates a publisher on the configured event bus topic
func NewEventPublisher(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) EventPublisher {
	return &eventPublisher{
		pubSub: pubSub,
		topic:  cfg.EventBus.Topic,
		logger: logger,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, event *types.LedgerEvent) error {
	if event.ID == "" {
		event.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal ledger event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(MetadataEventName, event.EventName)
	msg.Metadata.Set(MetadataRequestID, event.RequestID)
	msg.Metadata.Set(MetadataActorID, event.ActorID)

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Errorw("failed to publish ledger event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
		)
		return ierr.WithError(err).
			WithHint("Failed to publish ledger event").
			Mark(ierr.ErrSystem)
	}

	p.logger.Debugw("published ledger event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"topic", p.topic,
	)
	return nil
}

// Decode reads a ledger event from a bus message
func Decode(msg *message.Message) (*types.LedgerEvent, error) {
	var event types.LedgerEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Message %s is not a ledger event", msg.UUID).
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

// Snapshot decodes the entities carried by an event
func Snapshot(event *types.LedgerEvent) (*dto.EventSnapshot, error) {
	var snapshot dto.EventSnapshot
	if err := json.Unmarshal(event.Payload, &snapshot); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Event %s carries an unreadable payload", event.ID).
			Mark(ierr.ErrValidation)
	}
	return &snapshot, nil
}

// Context rebuilds the request context carried by an event
func Context(ctx context.Context, event *types.LedgerEvent) context.Context {
	ctx = types.SetRequestID(ctx, event.RequestID)
	return types.SetActorID(ctx, event.ActorID)
}

package activity

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/ledger/internal/config"
	activityDomain "github.com/flexprice/ledger/internal/domain/activity"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/publisher"
	"github.com/flexprice/ledger/internal/pubsub"
	pubsubRouter "github.com/flexprice/ledger/internal/pubsub/router"
	"github.com/flexprice/ledger/internal/sentry"
)

const (
	consumerName = "activity"
	handlerName  = "activity_logger"
)

// Handler appends an audit entry for every ledger event
type Handler struct {
	pubSub pubsub.PubSub
	sink   activityDomain.Sink
	config *config.Configuration
	logger *logger.Logger
	sentry *sentry.Service
}

func NewHandler(
	pubSub pubsub.PubSub,
	sink activityDomain.Sink,
	cfg *config.Configuration,
	logger *logger.Logger,
	sentry *sentry.Service,
) *Handler {
	return &Handler{
		pubSub: pubSub,
		sink:   sink,
		config: cfg,
		logger: logger,
		sentry: sentry,
	}
}

func (h *Handler) RegisterHandler(router *pubsubRouter.Router) error {
	subscriber, err := h.pubSub.SubscriberFor(consumerName)
	if err != nil {
		return err
	}
	router.AddNoPublishHandler(
		handlerName,
		h.config.EventBus.Topic,
		subscriber,
		h.processMessage,
	)
	return nil
}

func (h *Handler) processMessage(msg *message.Message) error {
	event, err := publisher.Decode(msg)
	if err != nil {
		return err
	}

	ctx := publisher.Context(msg.Context(), event)
	span, ctx := h.sentry.MonitorEventProcessing(ctx, handlerName, event.EventName, event.Timestamp)
	defer (&sentry.SpanFinisher{Span: span}).Finish()

	snapshot, err := publisher.Snapshot(event)
	if err != nil {
		return err
	}

	entry, err := NewEntry(event, snapshot)
	if err != nil {
		return err
	}
	if err := h.sink.Append(ctx, entry); err != nil {
		return err
	}

	h.logger.WithContext(ctx).Debugw("appended activity entry",
		"activity_id", entry.ID,
		"action", entry.Action,
	)
	return nil
}

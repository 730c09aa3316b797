package notifier

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/publisher"
	"github.com/flexprice/ledger/internal/pubsub"
	pubsubRouter "github.com/flexprice/ledger/internal/pubsub/router"
	"github.com/flexprice/ledger/internal/sentry"
)

const (
	consumerName = "notifier"
	handlerName  = "notifier_handler"
)

// Handler consumes ledger events and tells customers about them
type Handler struct {
	pubSub   pubsub.PubSub
	notifier Notifier
	config   *config.Configuration
	logger   *logger.Logger
	sentry   *sentry.Service
}

func NewHandler(
	pubSub pubsub.PubSub,
	notifier Notifier,
	cfg *config.Configuration,
	logger *logger.Logger,
	sentry *sentry.Service,
) *Handler {
	return &Handler{
		pubSub:   pubSub,
		notifier: notifier,
		config:   cfg,
		logger:   logger,
		sentry:   sentry,
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

	m, ok := BuildMessage(event.EventName, snapshot)
	if !ok {
		h.logger.WithContext(ctx).Debugw("no notification for event",
			"event_id", event.ID,
			"event_name", event.EventName,
		)
		return nil
	}
	return h.notifier.Notify(ctx, event.OwnerID, m)
}

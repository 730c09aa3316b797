package handler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/domain/webhook"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/httpclient"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/publisher"
	"github.com/flexprice/ledger/internal/pubsub"
	pubsubRouter "github.com/flexprice/ledger/internal/pubsub/router"
	"github.com/flexprice/ledger/internal/sentry"
	"github.com/flexprice/ledger/internal/svix"
	"github.com/flexprice/ledger/internal/types"
	webhookDto "github.com/flexprice/ledger/internal/webhook/dto"
	"github.com/flexprice/ledger/internal/webhook/payload"
	jsoniter "github.com/json-iterator/go"
	svixgo "github.com/svix/svix-webhooks/go"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	consumerName = "webhook"
	handlerName  = "webhook_dispatcher"

	// delivered markers outlive the event bus retry window
	deliveryMarkerTTL = 24 * time.Hour
)

// Standard Webhooks headers
const (
	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"
)

// Handler interface for processing webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router) error
}

type handler struct {
	pubSub     pubsub.PubSub
	config     *config.Configuration
	factory    payload.PayloadBuilderFactory
	client     httpclient.Client
	repo       webhook.Repository
	cache      cache.Cache
	logger     *logger.Logger
	sentry     *sentry.Service
	svixClient *svix.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHandler creates the webhook dispatcher
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	factory payload.PayloadBuilderFactory,
	client httpclient.Client,
	repo webhook.Repository,
	c cache.Cache,
	logger *logger.Logger,
	sentry *sentry.Service,
	svixClient *svix.Client,
) Handler {
	return &handler{
		pubSub:     pubSub,
		config:     cfg,
		factory:    factory,
		client:     client,
		repo:       repo,
		cache:      c,
		logger:     logger,
		sentry:     sentry,
		svixClient: svixClient,
		limiters:   make(map[string]*rate.Limiter),
	}
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) error {
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

// processMessage delivers one ledger event to every endpoint of its provider
func (h *handler) processMessage(msg *message.Message) error {
	event, err := publisher.Decode(msg)
	if err != nil {
		h.logger.Errorw("failed to decode ledger event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return err
	}

	ctx := publisher.Context(msg.Context(), event)
	span, ctx := h.sentry.MonitorEventProcessing(ctx, handlerName, event.EventName, event.Timestamp)
	defer (&sentry.SpanFinisher{Span: span}).Finish()

	snapshot, err := publisher.Snapshot(event)
	if err != nil {
		return err
	}

	builder, err := h.factory.GetBuilder(event.EventName)
	if err != nil {
		return err
	}
	data, err := builder.BuildPayload(ctx, event.EventName, snapshot)
	if err != nil {
		return err
	}

	if h.svixClient.Enabled() {
		return h.processMessageSvix(ctx, event, data)
	}
	return h.processMessageNative(ctx, event, data)
}

// processMessageSvix hands the event to svix, which owns the endpoints
func (h *handler) processMessageSvix(ctx context.Context, event *types.LedgerEvent, data []byte) error {
	appID, err := h.svixClient.GetOrCreateApplication(ctx, event.ProviderID)
	if err != nil {
		return err
	}
	if err := h.svixClient.SendMessage(ctx, appID, event.ID, event.EventName, data); err != nil {
		return err
	}

	h.logger.WithContext(ctx).Infow("webhook sent via svix",
		"event_id", event.ID,
		"event_name", event.EventName,
		"provider_id", event.ProviderID,
	)
	return nil
}

// processMessageNative posts a signed envelope to each subscribed endpoint.
// Endpoints that already accepted the event are skipped on redelivery.
func (h *handler) processMessageNative(ctx context.Context, event *types.LedgerEvent, data []byte) error {
	routes, err := h.routes(ctx, event.ProviderID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(webhookDto.NewWebhookEnvelope(event, data))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Unable to marshal webhook envelope").
			Mark(ierr.ErrSystem)
	}

	var firstErr error
	failed := make([]string, 0)
	for _, reg := range routes {
		if !reg.Subscribes(event.EventName) {
			continue
		}

		marker := cache.GenerateKey(cache.PrefixWebhookDelivery, event.ID, reg.ID)
		if _, done := h.cache.Get(ctx, marker); done {
			continue
		}

		if err := h.deliver(ctx, reg, event, body); err != nil {
			h.logger.WithContext(ctx).Warnw("webhook delivery failed",
				"registration_id", reg.ID,
				"url", reg.URL,
				"event_id", event.ID,
				"event_name", event.EventName,
				"error", err,
			)
			failed = append(failed, reg.ID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		h.cache.Set(ctx, marker, true, deliveryMarkerTTL)
	}

	if firstErr != nil {
		// keep the http error in the chain so the router can tell retryable statuses
		return ierr.WithError(firstErr).
			WithHintf("Webhook delivery failed for %d endpoint(s)", len(failed)).
			WithReportableDetails(map[string]any{
				"event_id":      event.ID,
				"event_name":    event.EventName,
				"provider_id":   event.ProviderID,
				"registrations": failed,
			}).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

func (h *handler) deliver(ctx context.Context, reg *webhook.Registration, event *types.LedgerEvent, body []byte) error {
	if err := h.limiter(reg.ID).Wait(ctx); err != nil {
		return ierr.WithError(err).
			WithHint("Webhook delivery was cancelled").
			Mark(ierr.ErrHTTPClient)
	}

	signer, err := svixgo.NewWebhook(reg.Secret)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Webhook %s has an unusable secret", reg.ID).
			Mark(ierr.ErrValidation)
	}
	now := time.Now().UTC()
	signature, err := signer.Sign(event.ID, now, body)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to sign webhook").
			Mark(ierr.ErrSystem)
	}

	sendCtx := ctx
	if h.config.Webhook.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, h.config.Webhook.Timeout)
		defer cancel()
	}

	_, err = h.client.Send(sendCtx, &httpclient.Request{
		Method: "POST",
		URL:    reg.URL,
		Headers: map[string]string{
			HeaderWebhookID:        event.ID,
			HeaderWebhookTimestamp: strconv.FormatInt(now.Unix(), 10),
			HeaderWebhookSignature: signature,
		},
		Body: body,
	})
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).Debugw("webhook delivered",
		"registration_id", reg.ID,
		"event_id", event.ID,
		"event_name", event.EventName,
	)
	return nil
}

// routes returns a provider's registrations, cached for cache.ttl. Writes
// through the registration API drop the cached entry.
func (h *handler) routes(ctx context.Context, providerID int64) ([]*webhook.Registration, error) {
	key := cache.GenerateKey(cache.PrefixWebhookRoutes, providerID)
	if v, ok := h.cache.Get(ctx, key); ok {
		if routes, ok := v.([]*webhook.Registration); ok {
			return routes, nil
		}
	}

	routes, err := h.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	h.cache.Set(ctx, key, routes, h.config.Cache.TTL)
	return routes, nil
}

// limiter returns the per-endpoint rate limiter
func (h *handler) limiter(registrationID string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[registrationID]
	if !ok {
		limit := rate.Inf
		if h.config.Webhook.RateLimit > 0 {
			limit = rate.Limit(h.config.Webhook.RateLimit)
		}
		l = rate.NewLimiter(limit, 1)
		h.limiters[registrationID] = l
	}
	return l
}

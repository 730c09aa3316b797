package svix

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync"

	"github.com/flexprice/ledger/internal/config"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/svix/svix-webhooks/go/models"
)

// Client hands ledger events to Svix, which then owns endpoint delivery.
// Every provider maps to one Svix application.
type Client struct {
	client  *svix.Svix
	logger  *logger.Logger
	enabled bool

	mu   sync.Mutex
	apps map[int64]string
}

// NewClient creates a new Svix client. A disabled client accepts every call
// and does nothing.
func NewClient(cfg *config.Configuration, logger *logger.Logger) (*Client, error) {
	if !cfg.Webhook.Svix.Enabled {
		return &Client{enabled: false, logger: logger}, nil
	}

	opts := &svix.SvixOptions{}
	if cfg.Webhook.Svix.BaseURL != "" {
		serverURL, err := url.Parse(cfg.Webhook.Svix.BaseURL)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHintf("Invalid svix base url %q", cfg.Webhook.Svix.BaseURL).
				Mark(ierr.ErrValidation)
		}
		opts.ServerUrl = serverURL
	}

	svixClient, err := svix.New(cfg.Webhook.Svix.AuthToken, opts)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create svix client").
			Mark(ierr.ErrSystem)
	}

	return &Client{
		client:  svixClient,
		logger:  logger,
		enabled: true,
		apps:    make(map[int64]string),
	}, nil
}

// Enabled reports whether delivery goes through svix
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// GetOrCreateApplication returns the svix application of a provider
func (c *Client) GetOrCreateApplication(ctx context.Context, providerID int64) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	c.mu.Lock()
	appID, ok := c.apps[providerID]
	c.mu.Unlock()
	if ok {
		return appID, nil
	}

	uid := "provider_" + strconv.FormatInt(providerID, 10)
	if app, err := c.client.Application.Get(ctx, uid); err == nil {
		appID = app.Id
	} else {
		app, err := c.client.Application.Create(ctx, models.ApplicationIn{
			Name: uid,
			Uid:  &uid,
		}, &svix.ApplicationCreateOptions{})
		if err != nil {
			return "", ierr.WithError(err).
				WithHintf("Failed to create svix application for provider %d", providerID).
				Mark(ierr.ErrHTTPClient)
		}
		appID = app.Id
	}

	c.mu.Lock()
	c.apps[providerID] = appID
	c.mu.Unlock()
	return appID, nil
}

// SendMessage sends one event to a provider's application. The event id is
// passed along so svix drops redeliveries of the same event.
func (c *Client) SendMessage(ctx context.Context, applicationID, eventID, eventType string, payload json.RawMessage) error {
	if !c.Enabled() {
		return nil
	}

	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		return ierr.WithError(err).
			WithHint("Webhook payload must be a JSON object").
			Mark(ierr.ErrValidation)
	}

	_, err := c.client.Message.Create(ctx, applicationID, models.MessageIn{
		EventType: eventType,
		EventId:   &eventID,
		Payload:   payloadMap,
	}, &svix.MessageCreateOptions{IdempotencyKey: &eventID})
	if err != nil {
		c.logger.Errorw("failed to send svix message",
			"application_id", applicationID,
			"event_id", eventID,
			"event_type", eventType,
			"error", err,
		)
		return ierr.WithError(err).
			WithHint("Failed to send webhook through svix").
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

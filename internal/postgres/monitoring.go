package postgres

import (
	"context"

	"github.com/flexprice/ledger/internal/logger"
	sentryService "github.com/flexprice/ledger/internal/sentry"
)

// SentryClient wraps an IClient so every ledger transaction shows up as a span
type SentryClient struct {
	client IClient
	sentry *sentryService.Service
	logger *logger.Logger
}

// NewSentryClient creates a new Sentry-instrumented client
func NewSentryClient(client IClient, sentry *sentryService.Service, logger *logger.Logger) IClient {
	return &SentryClient{
		client: client,
		sentry: sentry,
		logger: logger,
	}
}

// WithTx wraps the given function in a transaction with Sentry span tracking
func (c *SentryClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	span, spanCtx := c.sentry.StartDBSpan(ctx, "ledger.transaction", map[string]interface{}{
		"operation": "transaction",
	})
	finisher := &sentryService.SpanFinisher{Span: span}
	defer finisher.Finish()

	return c.client.WithTx(spanCtx, fn)
}

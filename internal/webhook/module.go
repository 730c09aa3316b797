package webhook

import (
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/httpclient"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/svix"
	"github.com/flexprice/ledger/internal/webhook/handler"
	"github.com/flexprice/ledger/internal/webhook/payload"
	"go.uber.org/fx"
)

// Module provides the webhook dispatcher
var Module = fx.Options(
	fx.Provide(
		provideHTTPClient,
		svix.NewClient,
		payload.NewPayloadBuilderFactory,
		handler.NewHandler,
	),
)

// provideHTTPClient retries a delivery webhook.max_attempts times in place;
// after that the event bus redelivers with its own backoff
func provideHTTPClient(cfg *config.Configuration, logger *logger.Logger) httpclient.Client {
	retries := cfg.Webhook.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return httpclient.NewDefaultClient(httpclient.ClientConfig{
		Timeout:  cfg.Webhook.Timeout,
		RetryMax: retries,
	}, logger)
}

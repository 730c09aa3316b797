package main

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/flexprice/ledger/internal/activity"
	"github.com/flexprice/ledger/internal/api"
	"github.com/flexprice/ledger/internal/api/cron"
	v1 "github.com/flexprice/ledger/internal/api/v1"
	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/config"
	activityDomain "github.com/flexprice/ledger/internal/domain/activity"
	"github.com/flexprice/ledger/internal/domain/webhook"
	"github.com/flexprice/ledger/internal/integration"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/notifier"
	"github.com/flexprice/ledger/internal/publisher"
	"github.com/flexprice/ledger/internal/pubsub"
	"github.com/flexprice/ledger/internal/pubsub/kafka"
	"github.com/flexprice/ledger/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/ledger/internal/pubsub/router"
	"github.com/flexprice/ledger/internal/pyroscope"
	"github.com/flexprice/ledger/internal/repository"
	"github.com/flexprice/ledger/internal/sentry"
	"github.com/flexprice/ledger/internal/service"
	"github.com/flexprice/ledger/internal/temporal"
	"github.com/flexprice/ledger/internal/types"
	"github.com/flexprice/ledger/internal/validator"
	ledgerWebhook "github.com/flexprice/ledger/internal/webhook"
	webhookHandler "github.com/flexprice/ledger/internal/webhook/handler"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Ledger API
// @version 1.0
// @description Invoices, payments and refunds
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,
			provideCache,

			// Ledger store
			repository.NewStores,
			provideWebhookRepository,

			// Payment gateway
			integration.NewGateway,

			// Event bus
			providePubSub,
			publisher.NewEventPublisher,
			pubsubRouter.NewRouter,

			// Collaborators
			notifier.NewNotifier,
			notifier.NewHandler,
			provideActivitySink,
			activity.NewHandler,

			// Temporal
			provideTemporalClient,
		),
		sentry.Module(),
		pyroscope.Module(),
	)

	// Webhook dispatcher
	opts = append(opts, ledgerWebhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewInvoiceService,
			service.NewPaymentService,
			service.NewRefundService,
			service.NewWebhookService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			closeStores,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(c *cache.InMemoryCache) cache.Cache {
	return c
}

func provideWebhookRepository(stores *repository.Stores) webhook.Repository {
	return stores.Webhooks
}

func providePubSub(cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	if cfg.EventBus.PubSub == types.KafkaPubSub {
		return kafka.NewPubSub(cfg, log)
	}
	return memory.NewPubSub(log), nil
}

func provideActivitySink(
	cfg *config.Configuration,
	stores *repository.Stores,
	log *logger.Logger,
	sentry *sentry.Service,
) (activityDomain.Sink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return activity.NewSink(ctx, cfg, stores, log, sentry)
}

// provideTemporalClient returns nil when temporal is disabled
func provideTemporalClient(cfg *config.Configuration, log *logger.Logger) (*temporal.TemporalClient, error) {
	if !cfg.Temporal.Enabled {
		return nil, nil
	}
	return temporal.NewTemporalClient(cfg, log)
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
	refundService service.RefundService,
	webhookService service.WebhookService,
) api.Handlers {
	return api.Handlers{
		Health:      v1.NewHealthHandler(cfg),
		Invoice:     v1.NewInvoiceHandler(invoiceService, logger),
		Payment:     v1.NewPaymentHandler(paymentService, logger),
		Refund:      v1.NewRefundHandler(refundService, logger),
		Webhook:     v1.NewWebhookHandler(webhookService, logger),
		CronInvoice: cron.NewInvoiceHandler(invoiceService, logger),
	}
}

func closeStores(lc fx.Lifecycle, stores *repository.Stores) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if stores.DB != nil {
				stores.DB.Close()
			}
			return nil
		},
	})
}

// consumers are the collaborators fed by the event bus
type consumers struct {
	fx.In

	Webhook  webhookHandler.Handler
	Notifier *notifier.Handler
	Activity *activity.Handler
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	handlers consumers,
	temporalClient *temporal.TemporalClient,
	invoiceService service.InvoiceService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}
	if mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	// with the in-memory bus events never leave the process, so whoever
	// publishes them must also consume them
	inProcessBus := cfg.EventBus.PubSub == types.MemoryPubSub

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, handlers, log)
		startTemporalWorker(lc, temporalClient, cfg, invoiceService, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		if inProcessBus {
			startMessageRouter(lc, router, handlers, log)
		}
	case types.ModeConsumer:
		if inProcessBus {
			log.Fatal("consumer mode requires the kafka event bus")
		}
		startMessageRouter(lc, router, handlers, log)
	case types.ModeTemporalWorker:
		startTemporalWorker(lc, temporalClient, cfg, invoiceService, log)
	case types.ModeAWSLambdaAPI:
		if inProcessBus {
			startMessageRouter(lc, router, handlers, log)
		}
		startAWSLambdaAPI(r)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server")
			return srv.Shutdown(ctx)
		},
	})
}

func startAWSLambdaAPI(r *gin.Engine) {
	ginLambda := ginadapter.New(r)
	lambda.Start(ginLambda.ProxyWithContext)
}

func startTemporalWorker(
	lc fx.Lifecycle,
	temporalClient *temporal.TemporalClient,
	cfg *config.Configuration,
	invoiceService service.InvoiceService,
	log *logger.Logger,
) {
	if temporalClient == nil {
		log.Info("temporal is disabled, overdue sweeps rely on the cron endpoint")
		return
	}

	worker := temporal.NewWorker(temporalClient, cfg, invoiceService, log)
	worker.RegisterWithLifecycle(lc)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return temporal.ScheduleOverdueSweep(ctx, temporalClient, cfg, log)
		},
		OnStop: func(ctx context.Context) error {
			temporalClient.Close()
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	handlers consumers,
	log *logger.Logger,
) {
	// Register handlers before starting the router
	for name, h := range map[string]interface {
		RegisterHandler(router *pubsubRouter.Router) error
	}{
		"webhook":  handlers.Webhook,
		"notifier": handlers.Notifier,
		"activity": handlers.Activity,
	} {
		if err := h.RegisterHandler(router); err != nil {
			log.Fatalw("failed to register event consumer", "consumer", name, "error", err)
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting message router")
			go func() {
				if err := router.Run(); err != nil {
					log.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping message router")
			return router.Close()
		},
	})
}

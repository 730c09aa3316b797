package service

import (
	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/payment"
	"github.com/flexprice/ledger/internal/domain/paymentmethod"
	"github.com/flexprice/ledger/internal/domain/refund"
	"github.com/flexprice/ledger/internal/domain/webhook"
	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
	"github.com/flexprice/ledger/internal/publisher"
	"github.com/flexprice/ledger/internal/repository"
	"github.com/flexprice/ledger/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Sentry *sentry.Service
	Cache  cache.Cache

	// Repositories
	InvoiceRepo       invoice.Repository
	PaymentRepo       payment.Repository
	RefundRepo        refund.Repository
	PaymentMethodRepo paymentmethod.Repository
	WebhookRepo       webhook.Repository

	// Collaborators
	Gateway        gateway.Gateway
	EventPublisher publisher.EventPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	stores *repository.Stores,
	sentry *sentry.Service,
	cache *cache.InMemoryCache,
	gw gateway.Gateway,
	eventPublisher publisher.EventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		DB:                postgres.NewSentryClient(stores.Tx, sentry, logger),
		Sentry:            sentry,
		Cache:             cache,
		InvoiceRepo:       stores.Invoices,
		PaymentRepo:       stores.Payments,
		RefundRepo:        stores.Refunds,
		PaymentMethodRepo: stores.PaymentMethods,
		WebhookRepo:       stores.Webhooks,
		Gateway:           gw,
		EventPublisher:    eventPublisher,
	}
}

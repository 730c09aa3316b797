package repository

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/payment"
	"github.com/flexprice/ledger/internal/domain/paymentmethod"
	"github.com/flexprice/ledger/internal/domain/refund"
	"github.com/flexprice/ledger/internal/domain/webhook"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
	memoryRepo "github.com/flexprice/ledger/internal/repository/memory"
	postgresRepo "github.com/flexprice/ledger/internal/repository/postgres"
	"github.com/flexprice/ledger/internal/types"
)

// Stores bundles the ledger repositories with the transaction boundary they share
type Stores struct {
	Tx             postgres.IClient
	Invoices       invoice.Repository
	Payments       payment.Repository
	Refunds        refund.Repository
	PaymentMethods paymentmethod.Repository
	Webhooks       webhook.Repository

	// DB is set for the postgres store only
	DB *postgres.DB
	// Memory is set for the memory store only
	Memory *memoryRepo.Store
}

// NewStores builds the store selected by ledger.store
func NewStores(cfg *config.Configuration, logger *logger.Logger, c *cache.InMemoryCache) (*Stores, error) {
	var stores *Stores

	switch cfg.Ledger.Store {
	case types.StoreTypePostgres:
		db, err := postgres.NewDB(cfg, logger)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Could not connect to the ledger database").
				Mark(ierr.ErrDatabase)
		}
		stores = NewPostgresStores(db, logger)
	case types.StoreTypeMemory:
		stores = NewMemoryStores(memoryRepo.NewStore(cfg, logger))
	default:
		return nil, ierr.NewError("unsupported store type").
			WithHintf("Unsupported ledger store %q", cfg.Ledger.Store).
			Mark(ierr.ErrValidation)
	}

	if c != nil {
		stores.PaymentMethods = NewCachedPaymentMethodRepository(stores.PaymentMethods, c, cfg.Cache.TTL)
	}
	logger.Infow("ledger store ready", "store", cfg.Ledger.Store)
	return stores, nil
}

func NewPostgresStores(db *postgres.DB, logger *logger.Logger) *Stores {
	return &Stores{
		Tx:             db,
		Invoices:       postgresRepo.NewInvoiceRepository(db, logger),
		Payments:       postgresRepo.NewPaymentRepository(db, logger),
		Refunds:        postgresRepo.NewRefundRepository(db, logger),
		PaymentMethods: postgresRepo.NewPaymentMethodRepository(db, logger),
		Webhooks:       postgresRepo.NewWebhookRepository(db, logger),
		DB:             db,
	}
}

func NewMemoryStores(store *memoryRepo.Store) *Stores {
	return &Stores{
		Tx:             store,
		Invoices:       store.Invoices(),
		Payments:       store.Payments(),
		Refunds:        store.Refunds(),
		PaymentMethods: store.PaymentMethods(),
		Webhooks:       store.Webhooks(),
		Memory:         store,
	}
}

// Close releases the database connection of a postgres store
func (s *Stores) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}

type cachedPaymentMethodRepository struct {
	repo  paymentmethod.Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedPaymentMethodRepository caches payment method lookups. Methods are
// managed outside the ledger, so a deactivation is seen after at most ttl.
func NewCachedPaymentMethodRepository(repo paymentmethod.Repository, c cache.Cache, ttl time.Duration) paymentmethod.Repository {
	return &cachedPaymentMethodRepository{repo: repo, cache: c, ttl: ttl}
}

func (r *cachedPaymentMethodRepository) Get(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	key := cache.GenerateKey(cache.PrefixPaymentMethod, id)
	if v, ok := r.cache.Get(ctx, key); ok {
		if pm, ok := v.(*paymentmethod.PaymentMethod); ok {
			c := *pm
			return &c, nil
		}
	}

	pm, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := *pm
	r.cache.Set(ctx, key, &c, r.ttl)
	return pm, nil
}

package repository

import (
	"context"
	"testing"

	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/domain/paymentmethod"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPaymentMethods struct {
	calls int
}

func (c *countingPaymentMethods) Get(_ context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	c.calls++
	return &paymentmethod.PaymentMethod{ID: id, OwnerID: 1, IsActive: true}, nil
}

func TestCachedPaymentMethodRepository(t *testing.T) {
	cfg := config.GetDefaultConfig()
	inner := &countingPaymentMethods{}
	repo := NewCachedPaymentMethodRepository(inner, cache.NewInMemoryCache(cfg), cfg.Cache.TTL)

	ctx := context.Background()
	first, err := repo.Get(ctx, "pm_1")
	require.NoError(t, err)
	first.IsActive = false

	second, err := repo.Get(ctx, "pm_1")
	require.NoError(t, err)
	assert.True(t, second.IsActive)
	assert.Equal(t, 1, inner.calls)
}

func TestNewStoresMemory(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Ledger.Store = types.StoreTypeMemory
	cfg.Ledger.SeedPaymentMethods = []config.PaymentMethodSeed{{ID: "pm_1", OwnerID: 3}}

	stores, err := NewStores(cfg, logger.NewNoopLogger(), nil)
	require.NoError(t, err)
	require.NotNil(t, stores.Memory)
	assert.Nil(t, stores.DB)

	pm, err := stores.PaymentMethods.Get(context.Background(), "pm_1")
	require.NoError(t, err)
	assert.True(t, pm.IsActive)
	assert.Equal(t, int64(3), pm.OwnerID)
}

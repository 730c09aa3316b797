package integration

import (
	"testing"

	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGateway(t *testing.T) {
	cfg := config.GetDefaultConfig()

	gw, err := NewGateway(cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, "simulated", gw.Name())

	cfg.Gateway.Type = types.GatewayTypeStripe
	cfg.Gateway.Stripe.SecretKey = "sk_test_123"
	gw, err = NewGateway(cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, "stripe", gw.Name())

	cfg.Gateway.Type = "paypal"
	_, err = NewGateway(cfg, logger.NewNoopLogger())
	assert.Error(t, err)
}

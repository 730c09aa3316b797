package config

import (
	"strings"
	"testing"

	"github.com/flexprice/ledger/internal/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Ledger.RetryAttempts)
	assert.Equal(t, types.StoreTypeMemory, cfg.Ledger.Store)
}

func TestValidateRequiresStripeKey(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Gateway.Type = types.GatewayTypeStripe
	assert.Error(t, cfg.Validate())

	cfg.Gateway.Stripe.SecretKey = "sk_test_123"
	assert.NoError(t, cfg.Validate())
}

func TestDeclineAmounts(t *testing.T) {
	c := GatewaySimulatorConfig{DeclineAmounts: []string{"13.13", "not-a-number", "99"}}
	amounts := c.GetDeclineAmounts()
	require.Len(t, amounts, 2)
	assert.Equal(t, "13.13", amounts[0].StringFixed(2))
	assert.Equal(t, "99.00", amounts[1].StringFixed(2))
}

func TestPostgresDSN(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "user=u password=p dbname=ledger host=db port=5432 sslmode=disable", c.GetDSN())
}

func TestTemporalOverdueSchedule(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
temporal:
  enabled: true
  task_queue: "ledger-task-queue"
  overdue_schedule: "*/15 * * * *"
`)))

	var tc TemporalConfig
	require.NoError(t, v.UnmarshalKey("temporal", &tc))
	assert.Equal(t, "*/15 * * * *", tc.OverdueSchedule)

	cfg := GetDefaultConfig()
	cfg.Temporal = tc
	assert.NoError(t, cfg.Validate())

	cfg.Temporal.OverdueSchedule = "hourly"
	assert.Error(t, cfg.Validate())

	cfg.Temporal.OverdueSchedule = ""
	assert.NoError(t, cfg.Validate())
}

package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/flexprice/ledger/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Ledger     LedgerConfig     `validate:"required"`
	Gateway    GatewayConfig    `validate:"required"`
	EventBus   EventBusConfig   `mapstructure:"event_bus" validate:"required"`
	Kafka      KafkaConfig      `validate:"required"`
	Webhook    Webhook          `validate:"required"`
	Notifier   NotifierConfig   `validate:"required"`
	Activity   ActivityConfig   `validate:"required"`
	DynamoDB   DynamoDBConfig   `mapstructure:"dynamodb"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Sentry     SentryConfig
	Pyroscope  PyroscopeConfig
	Temporal   TemporalConfig
	Cache      CacheConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"60"`
}

// LedgerConfig tunes the ledger orchestrator
type LedgerConfig struct {
	Store types.StoreType `mapstructure:"store" validate:"required,oneof=postgres memory"`
	// Currency is applied to invoices created without one
	Currency string `mapstructure:"currency" validate:"required,len=3"`
	// RetryAttempts bounds the number of attempts on a version conflict
	RetryAttempts   int           `mapstructure:"retry_attempts" validate:"required,min=1,max=10"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
	GatewayTimeout  time.Duration `mapstructure:"gateway_timeout" validate:"required"`
	OverdueBatchMax int           `mapstructure:"overdue_batch_max" validate:"min=0"`
	// SeedPaymentMethods are loaded into the memory store on start. Postgres
	// deployments read payment methods from the payment_methods table.
	SeedPaymentMethods []PaymentMethodSeed `mapstructure:"seed_payment_methods"`
}

// PaymentMethodSeed describes a payment method available to the memory store
type PaymentMethodSeed struct {
	ID         string `mapstructure:"id" validate:"required"`
	OwnerID    int64  `mapstructure:"owner_id" validate:"required"`
	MethodType string `mapstructure:"method_type"`
	Inactive   bool   `mapstructure:"inactive"`
}

// GatewayConfig selects and configures the payment gateway
type GatewayConfig struct {
	Type      types.GatewayType      `mapstructure:"type" validate:"required,oneof=simulated stripe"`
	Stripe    StripeConfig           `mapstructure:"stripe"`
	Simulator GatewaySimulatorConfig `mapstructure:"simulator"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

// GatewaySimulatorConfig makes the simulated gateway decline specific amounts
type GatewaySimulatorConfig struct {
	DeclineAmounts []string `mapstructure:"decline_amounts"`
}

// GetDeclineAmounts parses the configured decline amounts, skipping invalid entries
func (c GatewaySimulatorConfig) GetDeclineAmounts() []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(c.DeclineAmounts))
	for _, raw := range c.DeclineAmounts {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		amounts = append(amounts, d)
	}
	return amounts
}

// EventBusConfig configures how ledger events reach the collaborators
type EventBusConfig struct {
	PubSub          types.PubSubType `mapstructure:"pubsub" validate:"required,oneof=memory kafka"`
	Topic           string           `mapstructure:"topic" validate:"required"`
	MaxRetries      int              `mapstructure:"max_retries"`
	InitialInterval time.Duration    `mapstructure:"initial_interval"`
	MaxInterval     time.Duration    `mapstructure:"max_interval"`
	Multiplier      float64          `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration    `mapstructure:"max_elapsed_time"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	TLS           bool     `mapstructure:"tls"`
	UseSASL       bool     `mapstructure:"use_sasl"`
	SASLMechanism string   `mapstructure:"sasl_mechanism"`
	SASLUser      string   `mapstructure:"sasl_user"`
	SASLPassword  string   `mapstructure:"sasl_password"`
	ClientID      string   `mapstructure:"client_id"`
}

// NotifierConfig configures customer facing notifications
type NotifierConfig struct {
	Type         types.NotifierType `mapstructure:"type" validate:"required,oneof=log email"`
	ResendAPIKey string             `mapstructure:"resend_api_key"`
	FromAddress  string             `mapstructure:"from_address"`
	ReplyTo      string             `mapstructure:"reply_to"`
	// Recipients maps an owner id to the address notifications are sent to
	Recipients map[string]string `mapstructure:"recipients"`
}

// ActivityConfig selects the audit sink
type ActivityConfig struct {
	Sink types.ActivitySinkType `mapstructure:"sink" validate:"required,oneof=postgres dynamodb clickhouse log"`
}

// DynamoDBConfig holds configuration for DynamoDB
type DynamoDBConfig struct {
	Region            string `mapstructure:"region"`
	ActivityTableName string `mapstructure:"activity_table_name"`
}

type ClickHouseConfig struct {
	Address  string `mapstructure:"address"`
	TLS      bool   `mapstructure:"tls"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type PyroscopeConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	ServerAddress   string   `mapstructure:"server_address"`
	ApplicationName string   `mapstructure:"application_name"`
	BasicAuthUser   string   `mapstructure:"basic_auth_user"`
	BasicAuthPass   string   `mapstructure:"basic_auth_pass"`
	SampleRate      uint32   `mapstructure:"sample_rate"`
	DisableGCRuns   bool     `mapstructure:"disable_gc_runs"`
	ProfileTypes    []string `mapstructure:"profile_types"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	APIKey    string `mapstructure:"api_key"`
	TLS       bool   `mapstructure:"tls"`
	// OverdueSchedule is the cron expression of the overdue sweep workflow.
	// Empty leaves the sweep to the cron endpoint.
	OverdueSchedule string `mapstructure:"overdue_schedule"`
}

type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only fills variables that are not already set
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ledger")

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Gateway.Type == types.GatewayTypeStripe && c.Gateway.Stripe.SecretKey == "" {
		return errors.New("gateway.stripe.secret_key is required when gateway.type is stripe")
	}
	if c.Notifier.Type == types.NotifierTypeEmail && (c.Notifier.ResendAPIKey == "" || c.Notifier.FromAddress == "") {
		return errors.New("notifier.resend_api_key and notifier.from_address are required for email notifications")
	}
	if c.Temporal.OverdueSchedule != "" && len(strings.Fields(c.Temporal.OverdueSchedule)) != 5 {
		return fmt.Errorf("temporal.overdue_schedule %q must be a five field cron expression", c.Temporal.OverdueSchedule)
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests that do not read config.yaml
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Ledger: LedgerConfig{
			Store:          types.StoreTypeMemory,
			Currency:       types.DefaultCurrency,
			RetryAttempts:  3,
			RetryBaseDelay: 5 * time.Millisecond,
			GatewayTimeout: 10 * time.Second,
		},
		Gateway:  GatewayConfig{Type: types.GatewayTypeSimulated},
		EventBus: EventBusConfig{PubSub: types.MemoryPubSub, Topic: "ledger_events", MaxRetries: 3},
		Webhook:  Webhook{RateLimit: 10, Timeout: 10 * time.Second},
		Notifier: NotifierConfig{Type: types.NotifierTypeLog},
		Activity: ActivityConfig{Sink: types.ActivitySinkLog},
		Cache:    CacheConfig{Enabled: true, TTL: time.Minute, CleanupInterval: 5 * time.Minute},
	}
}

func (c ClickHouseConfig) GetClientOptions() *clickhouse.Options {
	options := &clickhouse.Options{
		Addr: []string{c.Address},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	}
	if c.TLS {
		options.TLS = &tls.Config{}
	}
	return options
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

package config

import "time"

// Webhook represents the configuration for outbound webhook delivery
type Webhook struct {
	Enabled bool `mapstructure:"enabled"`
	// RateLimit caps deliveries per second to a single endpoint
	RateLimit float64       `mapstructure:"rate_limit" validate:"min=0"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// MaxAttempts is the number of HTTP attempts per delivery before the
	// event is handed back to the router for a later retry
	MaxAttempts int        `mapstructure:"max_attempts"`
	Svix        SvixConfig `mapstructure:"svix"`
}

// SvixConfig enables hosted delivery through Svix instead of signing and
// posting directly
type SvixConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"auth_token"`
	BaseURL   string `mapstructure:"base_url"`
}

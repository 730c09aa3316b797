package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache holds process local copies of reference data. Ledger aggregates are
// never cached.
type Cache interface {
	// Get reports whether key was present and not expired
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores value under key. A zero expiration uses the configured TTL.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)

	Delete(ctx context.Context, key string)

	Flush(ctx context.Context)
}

const (
	PrefixPaymentMethod = "payment_method:v1"
	PrefixWebhookRoutes = "webhook_routes:v1"
	// PrefixWebhookDelivery marks an event as delivered to one endpoint
	PrefixWebhookDelivery = "webhook_delivery:v1"
)

// GenerateKey appends the parts to prefix, colon separated
func GenerateKey(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}

package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// trace opens a db.cache span for op when the context carries a sentry hub.
// The returned func records whether the lookup hit and closes the span.
func trace(ctx context.Context, op, key string) func(hit bool) {
	if sentry.GetHubFromContext(ctx) == nil {
		return func(bool) {}
	}

	span := sentry.StartSpan(ctx, "db.cache", sentry.WithDescription("cache.inmemory."+op))
	span.SetData("cache.key", key)
	return func(hit bool) {
		span.SetData("cache.hit", hit)
		span.Status = sentry.SpanStatusOK
		span.Finish()
	}
}

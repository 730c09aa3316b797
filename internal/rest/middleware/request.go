package middleware

import (
	"strings"
	"time"

	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/types"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware scopes the request to the caller's X-Request-ID, or a
// fresh one. Retries of a ledger write must reuse the same id to keep their
// gateway idempotency keys.
func RequestIDMiddleware(c *gin.Context) {
	requestID := strings.TrimSpace(c.GetHeader(types.HeaderRequestID))
	if requestID == "" {
		requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// ActorMiddleware records who performs the request. Anonymous requests are
// attributed to the system actor.
func ActorMiddleware(c *gin.Context) {
	actorID := strings.TrimSpace(c.GetHeader(types.HeaderActorID))
	if actorID == "" {
		actorID = types.DefaultActorID
	}

	ctx := types.SetActorID(c.Request.Context(), actorID)
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}

// LoggerMiddleware logs every request once it was served
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		log.WithContext(c.Request.Context()).Infow("served request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"actor_id", types.GetActorID(c.Request.Context()),
		)
	}
}

package clickhouse

import (
	"context"

	clickhouse_go "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/flexprice/ledger/internal/config"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/sentry"
)

// Client is a clickhouse connection whose statements are traced in sentry
type Client struct {
	conn   driver.Conn
	sentry *sentry.Service
}

// NewClient opens the connection and pings the server so that a bad address
// fails at startup instead of on the first activity entry
func NewClient(ctx context.Context, cfg *config.Configuration, sentryService *sentry.Service) (*Client, error) {
	conn, err := clickhouse_go.Open(cfg.ClickHouse.GetClientOptions())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not connect to clickhouse").
			Mark(ierr.ErrDatabase)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, ierr.WithError(err).
			WithHintf("Clickhouse at %s is not reachable", cfg.ClickHouse.Address).
			Mark(ierr.ErrDatabase)
	}

	return &Client{conn: conn, sentry: sentryService}, nil
}

// Exec runs one statement inside a clickhouse span named after op
func (c *Client) Exec(ctx context.Context, op, query string, args ...any) error {
	if c.sentry != nil {
		span, spanCtx := c.sentry.StartClickHouseSpan(ctx, op, map[string]interface{}{"query": query})
		if span != nil {
			defer span.Finish()
		}
		ctx = spanCtx
	}
	return c.conn.Exec(ctx, query, args...)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

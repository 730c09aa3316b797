package postgres

import (
	"context"
)

// IClient is the transaction boundary the ledger orchestrator depends on.
// Repositories called with the ctx handed to fn join the transaction.
type IClient interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ IClient = (*DB)(nil)

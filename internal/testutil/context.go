package testutil

import (
	"context"

	"github.com/flexprice/ledger/internal/types"
)

// Test actor written to the audit fields of everything a test creates
const TestActorID = "user_test"

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetActorID(ctx, TestActorID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}

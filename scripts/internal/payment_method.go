package internal

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
)

// SeedPaymentMethod upserts a payment method. Payment methods are owned by
// another system; this exists for local setups and tests against postgres.
func SeedPaymentMethod() error {
	methodID := os.Getenv("PAYMENT_METHOD_ID")
	if methodID == "" {
		return fmt.Errorf("PAYMENT_METHOD_ID is required")
	}
	ownerID, err := strconv.ParseInt(os.Getenv("OWNER_ID"), 10, 64)
	if err != nil || ownerID <= 0 {
		return fmt.Errorf("OWNER_ID must be a positive number")
	}
	methodType := os.Getenv("METHOD_TYPE")

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(cfg, logger.L)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = db.GetQuerier(ctx).ExecContext(ctx, `
		INSERT INTO payment_methods (id, owner_id, method_type, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (id) DO UPDATE
		SET owner_id = EXCLUDED.owner_id,
			method_type = EXCLUDED.method_type,
			is_active = TRUE,
			updated_at = CURRENT_TIMESTAMP`,
		methodID, ownerID, methodType)
	if err != nil {
		return fmt.Errorf("failed to seed payment method: %w", err)
	}

	logger.L.Infow("seeded payment method",
		"payment_method_id", methodID,
		"owner_id", ownerID,
		"method_type", methodType,
	)
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/flexprice/ledger/internal/domain/paymentmethod"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/postgres"
)

type paymentMethodRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewPaymentMethodRepository creates a read-only payment method repository
func NewPaymentMethodRepository(db *postgres.DB, logger *logger.Logger) paymentmethod.Repository {
	return &paymentMethodRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentMethodRepository) Get(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	var pm paymentmethod.PaymentMethod
	err := r.db.GetQuerier(ctx).GetContext(ctx, &pm,
		`SELECT id, owner_id, method_type, is_active, created_at, updated_at FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Payment method %s was not found", id).
				WithReportableDetails(map[string]any{"payment_method_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, postgres.TranslateError(err, "Failed to get payment method")
	}
	return &pm, nil
}

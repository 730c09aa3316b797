package integration

import (
	"github.com/flexprice/ledger/internal/config"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/integration/simulator"
	"github.com/flexprice/ledger/internal/integration/stripe"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/types"
)

// NewGateway returns the payment gateway selected by gateway.type
func NewGateway(cfg *config.Configuration, logger *logger.Logger) (gateway.Gateway, error) {
	switch cfg.Gateway.Type {
	case types.GatewayTypeSimulated:
		return simulator.New(cfg, logger), nil
	case types.GatewayTypeStripe:
		return stripe.New(cfg, logger), nil
	default:
		return nil, ierr.NewError("unsupported gateway").
			WithHintf("Unsupported payment gateway %q", cfg.Gateway.Type).
			Mark(ierr.ErrValidation)
	}
}

package simulator

import (
	"context"
	"sync"

	"github.com/flexprice/ledger/internal/config"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Name is reported as the payment gateway of simulated payments
const Name = "simulated"

// Gateway is an in-process gateway used in local mode and tests. It declines
// configured amounts and replays results for a repeated idempotency key.
type Gateway struct {
	mu        sync.Mutex
	declines  []decimal.Decimal
	authorize map[string]string
	refunds   map[string]string
	logger    *logger.Logger
}

var _ gateway.Gateway = (*Gateway)(nil)

func New(cfg *config.Configuration, logger *logger.Logger) *Gateway {
	return NewWithDeclines(cfg.Gateway.Simulator.GetDeclineAmounts(), logger)
}

func NewWithDeclines(declines []decimal.Decimal, logger *logger.Logger) *Gateway {
	return &Gateway{
		declines:  declines,
		authorize: make(map[string]string),
		refunds:   make(map[string]string),
		logger:    logger,
	}
}

func (g *Gateway) Name() string {
	return Name
}

func (g *Gateway) declined(amount decimal.Decimal) bool {
	return lo.ContainsBy(g.declines, func(d decimal.Decimal) bool { return d.Equal(amount) })
}

func (g *Gateway) Authorize(ctx context.Context, req *gateway.AuthorizeRequest) (*gateway.AuthorizeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment gateway timed out").
			Mark(ierr.ErrHTTPClient)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if txn, ok := g.authorize[req.IdempotencyKey]; ok {
		return &gateway.AuthorizeResult{TransactionID: txn}, nil
	}
	if g.declined(req.Amount) {
		g.logger.Debugw("simulated decline", "payment_reference", req.PaymentReference, "amount", req.Amount.String())
		return nil, ierr.NewError("card declined").
			WithHint("The payment method was declined").
			WithReportableDetails(map[string]any{"amount": req.Amount.String()}).
			Mark(ierr.ErrInvalidOperation)
	}

	txn := types.GenerateUUIDWithPrefix("sim_txn")
	g.authorize[req.IdempotencyKey] = txn
	return &gateway.AuthorizeResult{TransactionID: txn}, nil
}

func (g *Gateway) Capture(ctx context.Context, req *gateway.CaptureRequest) error {
	if err := ctx.Err(); err != nil {
		return ierr.WithError(err).
			WithHint("Payment gateway timed out").
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

func (g *Gateway) Refund(ctx context.Context, req *gateway.RefundRequest) (*gateway.RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment gateway timed out").
			Mark(ierr.ErrHTTPClient)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.refunds[req.IdempotencyKey]; ok {
		return &gateway.RefundResult{GatewayRefundID: id}, nil
	}
	if g.declined(req.Amount) {
		return nil, ierr.NewError("refund rejected").
			WithHint("The gateway rejected the refund").
			WithReportableDetails(map[string]any{"amount": req.Amount.String()}).
			Mark(ierr.ErrInvalidOperation)
	}

	id := types.GenerateUUIDWithPrefix("sim_re")
	g.refunds[req.IdempotencyKey] = id
	return &gateway.RefundResult{GatewayRefundID: id}, nil
}

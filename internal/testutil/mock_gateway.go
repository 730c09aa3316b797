package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/integration/simulator"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/shopspring/decimal"
)

// RecordingGateway wraps the simulated gateway, counts the calls it receives
// and lets a test hold calls or make them fail
type RecordingGateway struct {
	*simulator.Gateway

	mu         sync.Mutex
	authorized []*gateway.AuthorizeRequest
	refunded   []*gateway.RefundRequest

	// OnAuthorize and OnRefund run before the simulator. A non-nil error is
	// returned to the caller instead of the simulated result.
	OnAuthorize func(ctx context.Context, req *gateway.AuthorizeRequest) error
	OnRefund    func(ctx context.Context, req *gateway.RefundRequest) error

	captures atomic.Int32
}

var _ gateway.Gateway = (*RecordingGateway)(nil)

func NewRecordingGateway(log *logger.Logger, declines ...decimal.Decimal) *RecordingGateway {
	return &RecordingGateway{
		Gateway: simulator.NewWithDeclines(declines, log),
	}
}

func (g *RecordingGateway) Authorize(ctx context.Context, req *gateway.AuthorizeRequest) (*gateway.AuthorizeResult, error) {
	g.mu.Lock()
	g.authorized = append(g.authorized, req)
	hook := g.OnAuthorize
	g.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, req); err != nil {
			return nil, err
		}
	}
	return g.Gateway.Authorize(ctx, req)
}

func (g *RecordingGateway) Capture(ctx context.Context, req *gateway.CaptureRequest) error {
	g.captures.Add(1)
	return g.Gateway.Capture(ctx, req)
}

func (g *RecordingGateway) Refund(ctx context.Context, req *gateway.RefundRequest) (*gateway.RefundResult, error) {
	g.mu.Lock()
	g.refunded = append(g.refunded, req)
	hook := g.OnRefund
	g.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, req); err != nil {
			return nil, err
		}
	}
	return g.Gateway.Refund(ctx, req)
}

// AuthorizeCalls returns every authorize request received
func (g *RecordingGateway) AuthorizeCalls() []*gateway.AuthorizeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*gateway.AuthorizeRequest(nil), g.authorized...)
}

// RefundCalls returns every refund request received
func (g *RecordingGateway) RefundCalls() []*gateway.RefundRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*gateway.RefundRequest(nil), g.refunded...)
}

func (g *RecordingGateway) CaptureCount() int {
	return int(g.captures.Load())
}

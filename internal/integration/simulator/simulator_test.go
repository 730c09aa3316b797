package simulator

import (
	"context"
	"testing"

	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SimulatorSuite struct {
	suite.Suite
	ctx context.Context
	gw  *Gateway
}

func TestSimulator(t *testing.T) {
	suite.Run(t, new(SimulatorSuite))
}

func (s *SimulatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.gw = NewWithDeclines([]decimal.Decimal{decimal.RequireFromString("13.13")}, logger.NewNoopLogger())
}

func (s *SimulatorSuite) TestAuthorizeReplaysIdempotencyKey() {
	req := &gateway.AuthorizeRequest{Amount: decimal.NewFromInt(10), IdempotencyKey: "k1"}

	a, err := s.gw.Authorize(s.ctx, req)
	s.Require().NoError(err)
	b, err := s.gw.Authorize(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(a.TransactionID, b.TransactionID)

	c, err := s.gw.Authorize(s.ctx, &gateway.AuthorizeRequest{Amount: decimal.NewFromInt(10), IdempotencyKey: "k2"})
	s.Require().NoError(err)
	s.NotEqual(a.TransactionID, c.TransactionID)
}

func (s *SimulatorSuite) TestDeclines() {
	_, err := s.gw.Authorize(s.ctx, &gateway.AuthorizeRequest{Amount: decimal.RequireFromString("13.13"), IdempotencyKey: "k"})
	s.Error(err)

	_, err = s.gw.Refund(s.ctx, &gateway.RefundRequest{Amount: decimal.RequireFromString("13.130"), IdempotencyKey: "r"})
	s.Error(err)
}

func (s *SimulatorSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.gw.Authorize(ctx, &gateway.AuthorizeRequest{Amount: decimal.NewFromInt(1), IdempotencyKey: "k"})
	s.Error(err)
	s.Error(s.gw.Capture(ctx, &gateway.CaptureRequest{}))
}

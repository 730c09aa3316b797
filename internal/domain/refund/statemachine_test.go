package refund

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/flexprice/ledger/internal/domain/payment"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type StateMachineSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	payment *payment.Payment
}

func TestStateMachine(t *testing.T) {
	suite.Run(t, new(StateMachineSuite))
}

func (s *StateMachineSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s.payment = &payment.Payment{
		ID:               5,
		PaymentReference: "PAY-abc",
		InvoiceID:        1,
		PayerID:          7,
		Amount:           decimal.NewFromInt(100),
		Currency:         "usd",
		PaymentStatus:    types.PaymentStatusCompleted,
	}
}

func (s *StateMachineSuite) params(amount string, t types.RefundType) CreateParams {
	return CreateParams{
		AdminID:         99,
		RequestedAmount: decimal.RequireFromString(amount),
		RefundType:      t,
		Reason:          lo.ToPtr("customer request"),
	}
}

func (s *StateMachineSuite) TestCreateFull() {
	r, err := Create(s.ctx, s.payment, decimal.NewFromInt(100), s.params("100", types.RefundTypeFull))
	s.Require().NoError(err)
	s.Equal(types.RefundStatusPending, r.RefundStatus)
	s.Equal(int64(7), r.BeneficiaryID)
	s.Equal(int64(1), r.InvoiceID)
	s.True(strings.HasPrefix(r.RefundReference, "REF-"))

	_, err = Create(s.ctx, s.payment, decimal.NewFromInt(100), s.params("90", types.RefundTypeFull))
	s.True(ierr.IsValidation(err))
}

func (s *StateMachineSuite) TestFullRefundAfterPartial() {
	_, err := Create(s.ctx, s.payment, decimal.NewFromInt(90), s.params("100", types.RefundTypeFull))
	s.True(ierr.Is(err, ierr.ErrFullRefundRequiresUnrefundedPayment))
}

func (s *StateMachineSuite) TestCreatePartial() {
	_, err := Create(s.ctx, s.payment, decimal.NewFromInt(100), s.params("60", types.RefundTypePartial))
	s.NoError(err)

	_, err = Create(s.ctx, s.payment, decimal.NewFromInt(40), s.params("60", types.RefundTypePartial))
	s.True(ierr.Is(err, ierr.ErrRefundExceedsRefundable))

	_, err = Create(s.ctx, s.payment, decimal.NewFromInt(40), s.params("0", types.RefundTypePartial))
	s.True(ierr.IsValidation(err))

	_, err = Create(s.ctx, s.payment, decimal.NewFromInt(40), s.params("0.005", types.RefundTypePartial))
	s.True(ierr.IsValidation(err))
}

func (s *StateMachineSuite) TestPaymentNotRefundable() {
	_, err := Create(s.ctx, s.payment, decimal.Zero, s.params("1", types.RefundTypePartial))
	s.True(ierr.Is(err, ierr.ErrPaymentNotRefundable))

	for _, status := range []types.PaymentStatus{types.PaymentStatusPending, types.PaymentStatusProcessing, types.PaymentStatusFailed} {
		p := s.payment.Clone()
		p.PaymentStatus = status
		_, err = Create(s.ctx, p, decimal.NewFromInt(100), s.params("1", types.RefundTypePartial))
		s.True(ierr.Is(err, ierr.ErrPaymentNotRefundable), string(status))
	}
}

func (s *StateMachineSuite) TestHeldPayment() {
	p := s.payment.Clone()
	p.HoldReason = lo.ToPtr("refund sum exceeds payment")
	_, err := Create(s.ctx, p, decimal.NewFromInt(100), s.params("1", types.RefundTypePartial))
	s.True(ierr.Is(err, ierr.ErrAggregateOnHold))
}

func (s *StateMachineSuite) TestLifecycle() {
	r, err := Create(s.ctx, s.payment, decimal.NewFromInt(100), s.params("30", types.RefundTypePartial))
	s.Require().NoError(err)

	processing, err := Process(r, "re_1")
	s.Require().NoError(err)
	s.Equal("re_1", *processing.GatewayRefundID)

	_, err = Cancel(processing, s.now)
	s.True(ierr.Is(err, ierr.ErrRefundNotCancellable))

	completed, err := Complete(processing, s.now)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusCompleted, completed.RefundStatus)
	s.True(completed.IsCompleted())

	_, err = Cancel(completed, s.now)
	s.True(ierr.Is(err, ierr.ErrRefundNotCancellable))

	failed, err := Fail(processing, "insufficient balance", s.now)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusFailed, failed.RefundStatus)

	cancelled, err := Cancel(r, s.now)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusCancelled, cancelled.RefundStatus)

	_, err = Process(cancelled, "re_2")
	s.True(ierr.Is(err, ierr.ErrInvalidTransition))
}

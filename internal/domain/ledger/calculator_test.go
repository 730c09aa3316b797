package ledger

import (
	"testing"

	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/payment"
	"github.com/flexprice/ledger/internal/domain/refund"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CalculatorSuite struct {
	suite.Suite
	inv *invoice.Invoice
	pay *payment.Payment
}

func TestCalculator(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}

func (s *CalculatorSuite) SetupTest() {
	s.inv = &invoice.Invoice{ID: 1, TotalAmount: decimal.NewFromInt(100)}
	s.pay = &payment.Payment{ID: 2, InvoiceID: 1, Amount: decimal.NewFromInt(100), PaymentStatus: types.PaymentStatusCompleted}
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *CalculatorSuite) paymentOf(amount string, status types.PaymentStatus) *payment.Payment {
	return &payment.Payment{InvoiceID: s.inv.ID, Amount: money(amount), PaymentStatus: status}
}

func (s *CalculatorSuite) refundOf(amount string, status types.RefundStatus) *refund.Refund {
	return &refund.Refund{PaymentID: s.pay.ID, Amount: money(amount), RefundStatus: status}
}

func (s *CalculatorSuite) TestTotalAmount() {
	s.Equal("110.10", TotalAmount(money("100.05"), money("10.05")).StringFixed(2))
}

func (s *CalculatorSuite) TestRemainingAmount() {
	s.True(RemainingAmount(s.inv, nil).Equal(money("100")))

	payments := []*payment.Payment{
		s.paymentOf("40", types.PaymentStatusCompleted),
		s.paymentOf("30", types.PaymentStatusFailed),
		s.paymentOf("25", types.PaymentStatusProcessing),
	}
	s.True(RemainingAmount(s.inv, payments).Equal(money("60")))

	payments = append(payments, s.paymentOf("60", types.PaymentStatusCompleted))
	s.True(RemainingAmount(s.inv, payments).IsZero())
}

func (s *CalculatorSuite) TestRemainingAmountFixedPoint() {
	// 0.1 + 0.2 drifts in binary floating point
	s.inv.TotalAmount = money("0.30")
	payments := []*payment.Payment{
		s.paymentOf("0.10", types.PaymentStatusCompleted),
		s.paymentOf("0.20", types.PaymentStatusCompleted),
	}
	s.True(RemainingAmount(s.inv, payments).IsZero())
}

func (s *CalculatorSuite) TestRemainingAmountPanicsOnOverpayment() {
	payments := []*payment.Payment{
		s.paymentOf("60", types.PaymentStatusCompleted),
		s.paymentOf("60", types.PaymentStatusCompleted),
	}
	s.PanicsWithError("ledger invariant violated on invoice 1: completed payments 120 exceed total 100", func() {
		RemainingAmount(s.inv, payments)
	})
}

func (s *CalculatorSuite) TestRemainingAmountPanicsOnNegativePayment() {
	defer func() {
		r := recover()
		v, ok := r.(*InvariantViolation)
		s.Require().True(ok)
		s.Equal(AggregateInvoice, v.Aggregate)
		s.Equal(int64(1), v.AggregateID)
	}()
	RemainingAmount(s.inv, []*payment.Payment{s.paymentOf("-5", types.PaymentStatusCompleted)})
}

func (s *CalculatorSuite) TestRefundableAmount() {
	s.True(RefundableAmount(s.pay, nil).Equal(money("100")))

	refunds := []*refund.Refund{
		s.refundOf("10", types.RefundStatusCompleted),
		s.refundOf("50", types.RefundStatusPending),
		s.refundOf("20", types.RefundStatusFailed),
		s.refundOf("5", types.RefundStatusCancelled),
	}
	s.True(RefundableAmount(s.pay, refunds).Equal(money("90")))

	refunds = append(refunds, s.refundOf("90", types.RefundStatusCompleted))
	s.True(RefundableAmount(s.pay, refunds).IsZero())
}

func (s *CalculatorSuite) TestRefundableAmountPanicsOnOverRefund() {
	refunds := []*refund.Refund{
		s.refundOf("60", types.RefundStatusCompleted),
		s.refundOf("60", types.RefundStatusCompleted),
	}
	s.Panics(func() { RefundableAmount(s.pay, refunds) })
}

func (s *CalculatorSuite) TestForeignChildPanics() {
	foreign := &payment.Payment{InvoiceID: 42, Amount: money("1"), PaymentStatus: types.PaymentStatusCompleted}
	s.Panics(func() { RemainingAmount(s.inv, []*payment.Payment{foreign}) })
}

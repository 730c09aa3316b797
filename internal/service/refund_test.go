package service

import (
	"context"
	"testing"

	"github.com/flexprice/ledger/internal/api/dto"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"
)

type RefundServiceSuite struct {
	ledgerSuite
}

func TestRefundService(t *testing.T) {
	suite.Run(t, new(RefundServiceSuite))
}

func (s *RefundServiceSuite) TestFullRefund() {
	paid := s.paidPayment("100.00")
	s.GetPublisher().Clear()

	// a zero amount on a full refund means the whole payment
	resp, err := s.refund(paid.Payment.ID, types.RefundTypeFull, "0", true)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusCompleted, resp.RefundStatus)
	s.assertMoney("100.00", resp.Amount)
	s.NotNil(resp.GatewayRefundID)
	s.NotNil(resp.ProcessedAt)
	s.Equal(paid.Payment.PayerID, resp.BeneficiaryID)
	s.Equal(paid.Invoice.ID, resp.InvoiceID)

	s.Require().NotNil(resp.Payment)
	s.Equal(types.PaymentStatusRefunded, resp.Payment.DisplayStatus)
	s.assertMoney("0", resp.Payment.RefundableAmount)

	// refunds never reopen a settled invoice
	inv, err := s.invoices.GetInvoice(s.GetContext(), paid.Invoice.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, inv.InvoiceStatus)

	s.Equal([]string{types.EventPaymentRefunded}, s.GetPublisher().EventNames())
	calls := s.GetGateway().RefundCalls()
	s.Require().Len(calls, 1)
	s.Equal(*paid.Payment.GatewayTransactionID, calls[0].TransactionID)

	_, err = s.refund(paid.Payment.ID, types.RefundTypePartial, "1", true)
	s.True(ierr.Is(err, ierr.ErrPaymentNotRefundable), "got %v", err)
}

func (s *RefundServiceSuite) TestFullRefundAmountMustMatch() {
	paid := s.paidPayment("100.00")

	_, err := s.refund(paid.Payment.ID, types.RefundTypeFull, "40.00", true)
	s.True(ierr.IsValidation(err), "got %v", err)
}

// a full refund is refused once part of the payment was refunded
func (s *RefundServiceSuite) TestFullRefundAfterPartial() {
	paid := s.paidPayment("100.00")

	partial, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "10.00", true)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusCompleted, partial.RefundStatus)
	s.assertMoney("90.00", partial.Payment.RefundableAmount)

	_, err = s.refund(paid.Payment.ID, types.RefundTypeFull, "0", true)
	s.True(ierr.Is(err, ierr.ErrFullRefundRequiresUnrefundedPayment), "got %v", err)
}

func (s *RefundServiceSuite) TestPartialRefundExceedingRefundable() {
	paid := s.paidPayment("100.00")

	_, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "70.00", true)
	s.Require().NoError(err)

	_, err = s.refund(paid.Payment.ID, types.RefundTypePartial, "30.01", true)
	s.True(ierr.Is(err, ierr.ErrRefundExceedsRefundable), "got %v", err)

	last, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "30.00", true)
	s.NoError(err)
	s.assertMoney("0", last.Payment.RefundableAmount)
}

func (s *RefundServiceSuite) TestRefundOnFailedPayment() {
	s.declining("15.00")
	inv := s.createInvoice("100.00", "0")
	failed, err := s.pay(inv.ID, types.PaymentTypePartial, "15.00")
	s.Require().NoError(err)

	_, err = s.refund(failed.Payment.ID, types.RefundTypePartial, "5.00", true)
	s.True(ierr.Is(err, ierr.ErrPaymentNotRefundable), "got %v", err)
}

func (s *RefundServiceSuite) TestRefundOnArchivedInvoice() {
	paid := s.paidPayment("100.00")
	_, err := s.invoices.ArchiveInvoice(s.newRequest(), paid.Invoice.ID)
	s.Require().NoError(err)

	_, err = s.refund(paid.Payment.ID, types.RefundTypePartial, "5.00", true)
	s.True(ierr.Is(err, ierr.ErrPaymentNotRefundable), "got %v", err)
}

func (s *RefundServiceSuite) TestGatewayRejectsRefund() {
	s.declining("12.50")
	paid := s.paidPayment("100.00")
	s.GetPublisher().Clear()

	resp, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "12.50", true)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusFailed, resp.RefundStatus)
	s.Equal("The gateway rejected the refund", lo.FromPtr(resp.ErrorMessage))
	s.assertMoney("100.00", resp.Payment.RefundableAmount)
	s.Equal([]string{types.EventRefundFailed}, s.GetPublisher().EventNames())
}

func (s *RefundServiceSuite) TestTwoStepRefund() {
	paid := s.paidPayment("100.00")
	s.GetPublisher().Clear()

	pending, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "25.00", false)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusPending, pending.RefundStatus)
	// pending refunds do not reduce the refundable amount
	s.assertMoney("100.00", pending.Payment.RefundableAmount)
	s.Empty(s.GetGateway().RefundCalls())
	s.Empty(s.GetPublisher().GetEvents())

	processed, err := s.refunds.ProcessRefund(s.newRequest(), pending.ID)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusCompleted, processed.RefundStatus)
	s.assertMoney("75.00", processed.Payment.RefundableAmount)
	s.Equal([]string{types.EventPaymentRefunded}, s.GetPublisher().EventNames())

	_, err = s.refunds.ProcessRefund(s.newRequest(), pending.ID)
	s.True(ierr.Is(err, ierr.ErrInvalidTransition), "got %v", err)

	_, err = s.refunds.CancelRefund(s.newRequest(), pending.ID)
	s.True(ierr.Is(err, ierr.ErrRefundNotCancellable), "got %v", err)
}

func (s *RefundServiceSuite) TestProcessRefundRechecksRefundable() {
	paid := s.paidPayment("100.00")

	first, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "60.00", false)
	s.Require().NoError(err)
	second, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "60.00", false)
	s.Require().NoError(err)

	_, err = s.refunds.ProcessRefund(s.newRequest(), first.ID)
	s.Require().NoError(err)

	_, err = s.refunds.ProcessRefund(s.newRequest(), second.ID)
	s.True(ierr.Is(err, ierr.ErrRefundExceedsRefundable), "got %v", err)

	still, err := s.refunds.GetRefund(s.GetContext(), second.ID)
	s.NoError(err)
	s.Equal(types.RefundStatusPending, still.RefundStatus)
}

func (s *RefundServiceSuite) TestCancelRefund() {
	paid := s.paidPayment("100.00")
	pending, err := s.refund(paid.Payment.ID, types.RefundTypeFull, "0", false)
	s.Require().NoError(err)
	s.GetPublisher().Clear()

	cancelled, err := s.refunds.CancelRefund(s.newRequest(), pending.ID)
	s.Require().NoError(err)
	s.Equal(types.RefundStatusCancelled, cancelled.RefundStatus)
	s.NotNil(cancelled.CancelledAt)
	s.Equal([]string{types.EventRefundCancelled}, s.GetPublisher().EventNames())

	_, err = s.refunds.ProcessRefund(s.newRequest(), pending.ID)
	s.True(ierr.Is(err, ierr.ErrInvalidTransition), "got %v", err)
	s.Empty(s.GetGateway().RefundCalls())
}

// concurrent refunds can not overdraw a payment
func (s *RefundServiceSuite) TestConcurrentRefunds() {
	paid := s.paidPayment("100.00")

	var wg conc.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Go(func() {
			_, errs[i] = s.refund(paid.Payment.ID, types.RefundTypePartial, "60.00", true)
		})
	}
	wg.Wait()

	failures := lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	s.Require().Len(failures, 1)
	s.True(ierr.Is(failures[0], ierr.ErrRefundExceedsRefundable), "got %v", failures[0])

	got, err := s.payments.GetPayment(s.GetContext(), paid.Payment.ID)
	s.Require().NoError(err)
	s.assertMoney("40.00", got.RefundableAmount)
	s.assertMoney("60.00", got.RefundedAmount)
}

func (s *RefundServiceSuite) TestCancelWaitsForProcessing() {
	paid := s.paidPayment("100.00")
	pending, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "10.00", false)
	s.Require().NoError(err)

	entered := make(chan struct{})
	release := make(chan struct{})
	s.GetGateway().OnRefund = func(context.Context, *gateway.RefundRequest) error {
		close(entered)
		<-release
		return nil
	}

	processed := make(chan error, 1)
	go func() {
		_, err := s.refunds.ProcessRefund(s.newRequest(), pending.ID)
		processed <- err
	}()
	<-entered

	cancelled := make(chan error, 1)
	go func() {
		_, err := s.refunds.CancelRefund(s.newRequest(), pending.ID)
		cancelled <- err
	}()
	close(release)

	s.NoError(<-processed)
	err = <-cancelled
	s.True(ierr.Is(err, ierr.ErrRefundNotCancellable), "got %v", err)
}

func (s *RefundServiceSuite) TestListRefunds() {
	paid := s.paidPayment("100.00")
	for _, amount := range []string{"10", "20"} {
		_, err := s.refund(paid.Payment.ID, types.RefundTypePartial, amount, false)
		s.Require().NoError(err)
	}
	_, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "5", true)
	s.Require().NoError(err)

	filter := types.NewRefundFilter()
	filter.PaymentID = &paid.Payment.ID
	filter.RefundStatus = []types.RefundStatus{types.RefundStatusPending}

	resp, err := s.refunds.ListRefunds(s.GetContext(), filter)
	s.NoError(err)
	s.Len(resp.Items, 2)
	s.Equal(2, resp.Pagination.Total)
}

func (s *RefundServiceSuite) TestCreateRefundValidation() {
	_, err := s.refunds.CreateRefund(s.newRequest(), dto.CreateRefundRequest{
		PaymentID:  1,
		RefundType: types.RefundTypePartial,
	})
	s.True(ierr.IsValidation(err), "got %v", err)
}

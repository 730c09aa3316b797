package service

import (
	"errors"
	"testing"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/integration/gateway"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerSuite struct {
	ledgerSuite
}

func TestLedger(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) TestRetriesVersionConflicts() {
	inv := s.createInvoice("100.00", "0")
	s.GetPublisher().Clear()
	s.GetMemoryStore().FailNextCommits(2)

	resp, err := s.pay(inv.ID, types.PaymentTypeFull, "0")
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.Invoice.InvoiceStatus)

	// every attempt reached the gateway with the same key and got the same charge back
	calls := s.GetGateway().AuthorizeCalls()
	s.Len(calls, 3)
	keys := lo.Uniq(lo.Map(calls, func(c *gateway.AuthorizeRequest, _ int) string { return c.IdempotencyKey }))
	s.Len(keys, 1)
	s.Equal(resp.Payment.IdempotencyKey, keys[0])

	// events of the rolled back attempts are dropped
	s.Equal([]string{types.EventPaymentCompleted, types.EventInvoicePaid}, s.GetPublisher().EventNames())

	list, err := s.payments.ListPayments(s.GetContext(), nil)
	s.NoError(err)
	s.Len(list.Items, 1)
}

func (s *LedgerSuite) TestGivesUpAfterRetryBudget() {
	inv := s.createInvoice("100.00", "0")
	s.GetPublisher().Clear()
	s.GetMemoryStore().FailNextCommits(s.GetConfig().Ledger.RetryAttempts)

	_, err := s.pay(inv.ID, types.PaymentTypeFull, "0")
	s.Require().Error(err)
	s.True(ierr.IsVersionConflict(err), "got %v", err)
	s.Equal("The record was changed by another request, please retry", ierr.DisplayMessage(err))

	s.Empty(s.GetPublisher().GetEvents())
	got, err := s.invoices.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPending, got.InvoiceStatus)
	s.assertMoney("100.00", got.RemainingAmount)
}

func (s *LedgerSuite) TestRuleViolationsAreNotRetried() {
	inv := s.createInvoice("10.00", "0")

	_, err := s.pay(inv.ID, types.PaymentTypePartial, "11.00")
	s.True(ierr.IsLedgerRule(err))
	s.Empty(s.GetGateway().AuthorizeCalls())
}

func (s *LedgerSuite) TestPublishFailureKeepsCommittedState() {
	inv := s.createInvoice("100.00", "0")
	s.GetPublisher().FailWith(errors.New("broker unavailable"))

	resp, err := s.pay(inv.ID, types.PaymentTypeFull, "0")
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusCompleted, resp.Payment.PaymentStatus)

	got, err := s.invoices.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, got.InvoiceStatus)
}

func (s *LedgerSuite) TestEventsCarryRequestContext() {
	ctx := types.SetActorID(s.newRequest(), "admin_7")
	inv := s.createInvoice("10.00", "0")
	s.GetPublisher().Clear()

	_, err := s.invoices.MarkInvoicePaid(ctx, inv.ID)
	s.Require().NoError(err)

	events := s.GetPublisher().GetEvents()
	s.Require().Len(events, 1)
	s.Equal("admin_7", events[0].ActorID)
	s.Equal(types.GetRequestID(ctx), events[0].RequestID)
	s.Equal(inv.OwnerID, events[0].OwnerID)
	s.Equal(inv.ProviderID, events[0].ProviderID)
	s.NotEmpty(events[0].ID)
}

func (s *LedgerSuite) TestCorruptionOnReadPlacesHold() {
	inv := s.InsertInvoice(decimal.RequireFromString("100.00"))
	s.InsertCompletedPayment(inv, decimal.RequireFromString("150.00"))

	_, err := s.invoices.GetInvoice(s.GetContext(), inv.ID)
	s.Require().Error(err)
	s.True(ierr.IsLedgerCorrupted(err), "got %v", err)

	held, err := s.GetStores().Invoices.Get(s.GetContext(), inv.ID)
	s.Require().NoError(err)
	s.True(held.IsOnHold())
	s.NotNil(held.HeldAt)
	s.Contains(*held.HoldReason, "exceed total")

	_, err = s.pay(inv.ID, types.PaymentTypePartial, "1.00")
	s.True(ierr.Is(err, ierr.ErrAggregateOnHold), "got %v", err)

	_, err = s.invoices.MarkInvoicePaid(s.newRequest(), inv.ID)
	s.True(ierr.Is(err, ierr.ErrAggregateOnHold), "got %v", err)
}

func (s *LedgerSuite) TestCorruptionDuringWriteRollsBack() {
	inv := s.InsertInvoice(decimal.RequireFromString("100.00"))
	s.InsertCompletedPayment(inv, decimal.RequireFromString("120.00"))

	_, err := s.pay(inv.ID, types.PaymentTypePartial, "1.00")
	s.Require().Error(err)
	s.True(ierr.IsLedgerCorrupted(err), "got %v", err)
	s.False(ierr.IsLedgerRule(err))

	s.Empty(s.GetGateway().AuthorizeCalls())
	s.Empty(s.GetPublisher().GetEvents())

	filter := types.NewPaymentFilter()
	filter.InvoiceID = &inv.ID
	count, err := s.GetStores().Payments.Count(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(1, count)

	held, err := s.GetStores().Invoices.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(held.IsOnHold())
}

func (s *LedgerSuite) TestHeldPaymentRefusesRefunds() {
	paid := s.paidPayment("100.00")
	s.Require().NoError(s.GetStores().Payments.PlaceHold(s.GetContext(), paid.Payment.ID, "manual review"))

	_, err := s.refund(paid.Payment.ID, types.RefundTypePartial, "10.00", true)
	s.True(ierr.Is(err, ierr.ErrAggregateOnHold), "got %v", err)
	s.Empty(s.GetGateway().RefundCalls())
}

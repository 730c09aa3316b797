package service

import (
	"testing"
	"time"

	"github.com/flexprice/ledger/internal/api/dto"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/testutil"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	ledgerSuite
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

// createPastDue creates a pending invoice whose due date passed a day ago
func (s *InvoiceServiceSuite) createPastDue(amount string) *dto.InvoiceResponse {
	issued := s.GetNow().Add(-30 * 24 * time.Hour)
	resp, err := s.invoices.CreateInvoice(s.newRequest(), dto.CreateInvoiceRequest{
		OwnerID:    testutil.TestOwnerID,
		ProviderID: testutil.TestProviderID,
		Amount:     decimal.RequireFromString(amount),
		IssueDate:  &issued,
		DueDate:    s.GetNow().Add(-24 * time.Hour),
	})
	s.Require().NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	resp := s.createInvoice("100.00", "8.25")

	s.NotZero(resp.ID)
	s.Equal(types.InvoiceStatusPending, resp.InvoiceStatus)
	s.Equal(types.DefaultCurrency, resp.Currency)
	s.Regexp(`^INV-\d{6}-\d{5}$`, resp.InvoiceNumber)
	s.assertMoney("108.25", resp.TotalAmount)
	s.assertMoney("108.25", resp.RemainingAmount)
	s.assertMoney("0", resp.AmountPaid)
	s.Equal(testutil.TestActorID, resp.CreatedBy)
	s.Equal([]string{types.EventInvoiceCreated}, s.GetPublisher().EventNames())
}

func (s *InvoiceServiceSuite) TestCreateInvoiceNumbersAreSequential() {
	first := s.createInvoice("10", "0")
	second := s.createInvoice("10", "0")

	s.NotEqual(first.InvoiceNumber, second.InvoiceNumber)
	s.Less(first.InvoiceNumber, second.InvoiceNumber)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceValidation() {
	tests := []struct {
		name string
		req  dto.CreateInvoiceRequest
	}{
		{
			name: "missing owner",
			req: dto.CreateInvoiceRequest{
				ProviderID: testutil.TestProviderID,
				Amount:     decimal.NewFromInt(10),
				DueDate:    s.GetNow().Add(time.Hour),
			},
		},
		{
			name: "negative tax",
			req: dto.CreateInvoiceRequest{
				OwnerID:    testutil.TestOwnerID,
				ProviderID: testutil.TestProviderID,
				Amount:     decimal.NewFromInt(10),
				TaxAmount:  decimal.NewFromInt(-1),
				DueDate:    s.GetNow().Add(time.Hour),
			},
		},
		{
			name: "zero total",
			req: dto.CreateInvoiceRequest{
				OwnerID:    testutil.TestOwnerID,
				ProviderID: testutil.TestProviderID,
				DueDate:    s.GetNow().Add(time.Hour),
			},
		},
		{
			name: "sub cent amount",
			req: dto.CreateInvoiceRequest{
				OwnerID:    testutil.TestOwnerID,
				ProviderID: testutil.TestProviderID,
				Amount:     decimal.RequireFromString("10.001"),
				DueDate:    s.GetNow().Add(time.Hour),
			},
		},
		{
			name: "due before issue",
			req: dto.CreateInvoiceRequest{
				OwnerID:    testutil.TestOwnerID,
				ProviderID: testutil.TestProviderID,
				Amount:     decimal.NewFromInt(10),
				DueDate:    s.GetNow().Add(-72 * time.Hour),
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.invoices.CreateInvoice(s.GetContext(), tt.req)
			s.Error(err)
			s.True(ierr.IsValidation(err), "got %v", err)
		})
	}
	s.Empty(s.GetPublisher().GetEvents())
}

func (s *InvoiceServiceSuite) TestGetInvoiceNotFound() {
	_, err := s.invoices.GetInvoice(s.GetContext(), 404)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestListInvoices() {
	s.createInvoice("10", "0")
	paid := s.createInvoice("20", "0")
	_, err := s.pay(paid.ID, types.PaymentTypeFull, "0")
	s.Require().NoError(err)

	filter := types.NewInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusPaid}

	resp, err := s.invoices.ListInvoices(s.GetContext(), filter)
	s.NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(paid.ID, resp.Items[0].ID)
	s.Equal(1, resp.Pagination.Total)
	s.assertMoney("20", resp.Items[0].AmountPaid)
}

// a cancelled invoice no longer accepts payments
func (s *InvoiceServiceSuite) TestCancelInvoiceBlocksPayments() {
	inv := s.createInvoice("100.00", "0")

	cancelled, err := s.invoices.CancelInvoice(s.newRequest(), inv.ID, dto.CancelInvoiceRequest{
		Reason: lo.ToPtr("issued twice"),
	})
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusCancelled, cancelled.InvoiceStatus)
	s.NotNil(cancelled.CancelledAt)
	s.Equal("issued twice", lo.FromPtr(cancelled.CancellationReason))

	_, err = s.pay(inv.ID, types.PaymentTypeFull, "0")
	s.True(ierr.Is(err, ierr.ErrInvoiceNotPayable), "got %v", err)
	s.Empty(s.GetGateway().AuthorizeCalls())

	_, err = s.invoices.CancelInvoice(s.newRequest(), inv.ID, dto.CancelInvoiceRequest{})
	s.True(ierr.Is(err, ierr.ErrInvoiceAlreadyCancelled))

	s.Equal([]string{types.EventInvoiceCreated, types.EventInvoiceCancelled}, s.GetPublisher().EventNames())
}

func (s *InvoiceServiceSuite) TestCancelPartiallyPaidInvoice() {
	inv := s.createInvoice("100.00", "0")
	_, err := s.pay(inv.ID, types.PaymentTypePartial, "40.00")
	s.Require().NoError(err)

	_, err = s.invoices.CancelInvoice(s.newRequest(), inv.ID, dto.CancelInvoiceRequest{})
	s.True(ierr.Is(err, ierr.ErrInvoiceHasPayments), "got %v", err)

	got, err := s.invoices.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPending, got.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestMarkInvoicePaidOverride() {
	inv := s.createInvoice("100.00", "0")
	_, err := s.pay(inv.ID, types.PaymentTypePartial, "25.00")
	s.Require().NoError(err)
	s.GetPublisher().Clear()

	resp, err := s.invoices.MarkInvoicePaid(s.newRequest(), inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.NotNil(resp.PaidDate)
	// the override settles the invoice without inventing money
	s.assertMoney("25.00", resp.AmountPaid)
	s.assertMoney("75.00", resp.RemainingAmount)

	events := s.GetPublisher().GetEvents()
	s.Require().Len(events, 1)
	s.Equal(types.EventInvoicePaid, events[0].EventName)
	s.Contains(string(events[0].Payload), `"override":true`)

	// a second call is a no-op
	again, err := s.invoices.MarkInvoicePaid(s.newRequest(), inv.ID)
	s.NoError(err)
	s.Equal(resp.Version, again.Version)
	s.Len(s.GetPublisher().GetEvents(), 1)
}

func (s *InvoiceServiceSuite) TestMarkInvoicePaidOnCancelled() {
	inv := s.createInvoice("10", "0")
	_, err := s.invoices.CancelInvoice(s.newRequest(), inv.ID, dto.CancelInvoiceRequest{})
	s.Require().NoError(err)

	_, err = s.invoices.MarkInvoicePaid(s.newRequest(), inv.ID)
	s.True(ierr.Is(err, ierr.ErrInvoiceAlreadyCancelled))
}

func (s *InvoiceServiceSuite) TestMarkInvoiceOverdue() {
	notDue := s.createInvoice("10", "0")
	_, err := s.invoices.MarkInvoiceOverdue(s.newRequest(), notDue.ID)
	s.True(ierr.Is(err, ierr.ErrInvalidTransition))

	pastDue := s.createPastDue("10")
	resp, err := s.invoices.MarkInvoiceOverdue(s.newRequest(), pastDue.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, resp.InvoiceStatus)

	// overdue invoices still take payments and settle
	payment, err := s.pay(pastDue.ID, types.PaymentTypeFull, "0")
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, payment.Invoice.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestArchiveInvoice() {
	pending := s.createInvoice("10", "0")
	_, err := s.invoices.ArchiveInvoice(s.newRequest(), pending.ID)
	s.True(ierr.Is(err, ierr.ErrInvalidTransition))

	paid := s.createInvoice("10", "0")
	_, err = s.pay(paid.ID, types.PaymentTypeFull, "0")
	s.Require().NoError(err)

	resp, err := s.invoices.ArchiveInvoice(s.newRequest(), paid.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusArchived, resp.InvoiceStatus)
	s.NotNil(resp.ArchivedAt)
	s.Equal(1, s.GetPublisher().CountEvents(types.EventInvoiceArchived))
}

func (s *InvoiceServiceSuite) TestDeleteInvoice() {
	unpaid := s.createInvoice("10", "0")
	s.NoError(s.invoices.DeleteInvoice(s.newRequest(), unpaid.ID))
	_, err := s.invoices.GetInvoice(s.GetContext(), unpaid.ID)
	s.True(ierr.IsNotFound(err))

	partial := s.createInvoice("10", "0")
	_, err = s.pay(partial.ID, types.PaymentTypePartial, "1")
	s.Require().NoError(err)
	err = s.invoices.DeleteInvoice(s.newRequest(), partial.ID)
	s.True(ierr.Is(err, ierr.ErrInvoiceHasPayments), "got %v", err)
}

func (s *InvoiceServiceSuite) TestMarkOverdueInvoices() {
	due := []*dto.InvoiceResponse{s.createPastDue("10"), s.createPastDue("20"), s.createPastDue("30")}
	s.createInvoice("40", "0")

	settled := s.createPastDue("50")
	_, err := s.pay(settled.ID, types.PaymentTypeFull, "0")
	s.Require().NoError(err)

	resp, err := s.invoices.MarkOverdueInvoices(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(3, resp.Scanned)
	s.Empty(resp.Failed)
	s.ElementsMatch(lo.Map(due, func(inv *dto.InvoiceResponse, _ int) string { return inv.InvoiceNumber }), resp.Marked)

	for _, inv := range due {
		got, err := s.invoices.GetInvoice(s.GetContext(), inv.ID)
		s.NoError(err)
		s.Equal(types.InvoiceStatusOverdue, got.InvoiceStatus)
	}

	// a second sweep finds nothing left to do
	resp, err = s.invoices.MarkOverdueInvoices(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Zero(resp.Scanned)
}

func (s *InvoiceServiceSuite) TestMarkOverdueInvoicesRespectsBatchLimit() {
	s.GetConfig().Ledger.OverdueBatchMax = 2
	defer func() { s.GetConfig().Ledger.OverdueBatchMax = 0 }()

	for range 3 {
		s.createPastDue("10")
	}

	resp, err := s.invoices.MarkOverdueInvoices(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Equal(2, resp.Scanned)
	s.Len(resp.Marked, 2)
}

func (s *InvoiceServiceSuite) TestMarkOverdueInvoicesEvaluatesAtGivenInstant() {
	inv := s.createInvoice("15", "0")

	resp, err := s.invoices.MarkOverdueInvoices(s.GetContext(), s.GetNow().Add(30*24*time.Hour))
	s.Require().NoError(err)
	s.Equal([]string{inv.InvoiceNumber}, resp.Marked)

	got, err := s.invoices.GetInvoice(s.GetContext(), inv.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusOverdue, got.InvoiceStatus)
}

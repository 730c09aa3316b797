package activities

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/ledger/internal/service"
	"github.com/flexprice/ledger/internal/temporal/models"
	"github.com/flexprice/ledger/internal/testutil"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceActivitiesSuite struct {
	testutil.BaseServiceTestSuite
	activities *InvoiceActivities
}

func TestInvoiceActivities(t *testing.T) {
	suite.Run(t, new(InvoiceActivitiesSuite))
}

func (s *InvoiceActivitiesSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := service.NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetStores(),
		s.GetSentry(),
		s.GetCache(),
		s.GetGateway(),
		s.GetPublisher(),
	)
	s.activities = NewInvoiceActivities(service.NewInvoiceService(params))
}

func (s *InvoiceActivitiesSuite) TestMarkOverdueInvoices() {
	due := s.InsertInvoice(decimal.NewFromInt(100))
	s.InsertInvoice(decimal.NewFromInt(50))

	// a sweep as of a day after the first due date catches both fixtures
	asOf := due.DueDate.Add(24 * time.Hour)
	result, err := s.activities.MarkOverdueInvoices(context.Background(), models.MarkOverdueInvoicesActivityInput{AsOf: asOf})
	s.Require().NoError(err)
	s.Equal(2, result.Scanned)
	s.Len(result.Marked, 2)
	s.Empty(result.Failed)

	events := s.GetPublisher().GetEvents()
	s.Require().Len(events, 2)
	for _, e := range events {
		s.Equal(types.EventInvoiceOverdue, e.EventName)
		s.Equal(types.DefaultActorID, e.ActorID)
	}

	inv, err := s.GetStores().Invoices.Get(s.GetContext(), due.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusOverdue, inv.InvoiceStatus)
}

func (s *InvoiceActivitiesSuite) TestNothingDue() {
	s.InsertInvoice(decimal.NewFromInt(100))

	result, err := s.activities.MarkOverdueInvoices(context.Background(), models.MarkOverdueInvoicesActivityInput{AsOf: s.GetNow()})
	s.Require().NoError(err)
	s.Zero(result.Scanned)
	s.Empty(s.GetPublisher().GetEvents())
}

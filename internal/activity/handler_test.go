package activity

import (
	"context"
	"sync"
	"testing"

	"github.com/flexprice/ledger/internal/api/dto"
	activityDomain "github.com/flexprice/ledger/internal/domain/activity"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/payment"
	"github.com/flexprice/ledger/internal/domain/refund"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/testutil"
	"github.com/flexprice/ledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type recordingSink struct {
	mu      sync.Mutex
	entries map[string]*activityDomain.Entry
	appends int
}

func (r *recordingSink) Append(_ context.Context, entry *activityDomain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appends++
	if _, ok := r.entries[entry.ID]; !ok {
		r.entries[entry.ID] = entry
	}
	return nil
}

type ActivityHandlerSuite struct {
	testutil.BaseServiceTestSuite
	sink    *recordingSink
	handler *Handler
}

func TestActivityHandler(t *testing.T) {
	suite.Run(t, new(ActivityHandlerSuite))
}

func (s *ActivityHandlerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.sink = &recordingSink{entries: make(map[string]*activityDomain.Entry)}
	s.handler = NewHandler(nil, s.sink, s.GetConfig(), s.GetLogger(), s.GetSentry())
}

func (s *ActivityHandlerSuite) snapshot() *dto.EventSnapshot {
	inv := &invoice.Invoice{ID: 7, InvoiceNumber: "INV-202601-0007", InvoiceStatus: types.InvoiceStatusPaid}
	p := &payment.Payment{ID: 11, PaymentReference: "PAY-0011", InvoiceID: 7, Amount: decimal.NewFromInt(100), PaymentStatus: types.PaymentStatusCompleted}
	r := &refund.Refund{ID: 13, RefundReference: "REF-0013", PaymentID: 11, Amount: decimal.NewFromInt(40), RefundStatus: types.RefundStatusCompleted}

	paymentResp := dto.NewPaymentResponse(p, decimal.NewFromInt(40), decimal.NewFromInt(60))
	return &dto.EventSnapshot{
		Invoice: dto.NewInvoiceResponse(inv, decimal.NewFromInt(100), decimal.Zero),
		Payment: paymentResp,
		Refund:  dto.NewRefundResponse(r, paymentResp),
	}
}

func (s *ActivityHandlerSuite) TestEntrySubjects() {
	tests := []struct {
		event       string
		subjectType string
		subjectID   int64
	}{
		{types.EventInvoicePaid, SubjectInvoice, 7},
		{types.EventPaymentCompleted, SubjectPayment, 11},
		{types.EventPaymentFailed, SubjectPayment, 11},
		{types.EventPaymentRefunded, SubjectRefund, 13},
		{types.EventRefundCancelled, SubjectRefund, 13},
	}

	for _, tt := range tests {
		s.Run(tt.event, func() {
			event := testutil.NewLedgerEvent(tt.event, s.snapshot())
			entry, err := NewEntry(event, s.snapshot())
			s.Require().NoError(err)
			s.Equal(tt.event, entry.Action)
			s.Equal(tt.subjectType, entry.SubjectType)
			s.Equal(tt.subjectID, entry.SubjectID)
			s.Equal(testutil.TestActorID, entry.ActorID)
			s.Equal(event.Timestamp, entry.OccurredAt)
		})
	}
}

func (s *ActivityHandlerSuite) TestEntryMetadata() {
	snapshot := s.snapshot()
	snapshot.Override = true
	event := testutil.NewLedgerEvent(types.EventInvoicePaid, snapshot)

	entry, err := NewEntry(event, snapshot)
	s.Require().NoError(err)

	var metadata map[string]any
	s.Require().NoError(json.Unmarshal(entry.Metadata, &metadata))
	s.Equal("INV-202601-0007", metadata["invoice_number"])
	s.Equal(true, metadata["override"])
	s.Equal(event.RequestID, metadata["request_id"])
}

func (s *ActivityHandlerSuite) TestEntryWithoutSubject() {
	event := testutil.NewLedgerEvent(types.EventPaymentCompleted, &dto.EventSnapshot{})
	_, err := NewEntry(event, &dto.EventSnapshot{})
	s.True(ierr.IsValidation(err))
}

func (s *ActivityHandlerSuite) TestRedeliveryMapsToSameEntry() {
	event := testutil.NewLedgerEvent(types.EventPaymentCompleted, s.snapshot())
	msg := testutil.NewEventMessage(event)

	s.Require().NoError(s.handler.processMessage(msg))
	s.Require().NoError(s.handler.processMessage(msg))

	s.Equal(2, s.sink.appends)
	s.Len(s.sink.entries, 1)
}

func (s *ActivityHandlerSuite) TestSinkSelection() {
	cfg := *s.GetConfig()

	cfg.Activity.Sink = types.ActivitySinkLog
	sink, err := NewSink(s.GetContext(), &cfg, s.GetStores(), s.GetLogger(), s.GetSentry())
	s.Require().NoError(err)
	s.NoError(sink.Append(s.GetContext(), &activityDomain.Entry{ID: "act_1", Action: types.EventInvoicePaid}))

	// the memory store has no database to write to
	cfg.Activity.Sink = types.ActivitySinkPostgres
	_, err = NewSink(s.GetContext(), &cfg, s.GetStores(), s.GetLogger(), s.GetSentry())
	s.True(ierr.IsValidation(err))
}

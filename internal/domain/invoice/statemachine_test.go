package invoice

import (
	"testing"
	"time"

	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type StateMachineSuite struct {
	suite.Suite
	now time.Time
}

func TestStateMachine(t *testing.T) {
	suite.Run(t, new(StateMachineSuite))
}

func (s *StateMachineSuite) SetupTest() {
	s.now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
}

func (s *StateMachineSuite) newInvoice(status types.InvoiceStatus) *Invoice {
	return &Invoice{
		ID:            1,
		InvoiceNumber: "INV-202610-00001",
		OwnerID:       10,
		ProviderID:    20,
		Amount:        decimal.NewFromInt(90),
		TaxAmount:     decimal.NewFromInt(10),
		TotalAmount:   decimal.NewFromInt(100),
		Currency:      "usd",
		InvoiceStatus: status,
		IssueDate:     s.now.AddDate(0, 0, -30),
		DueDate:       s.now.AddDate(0, 0, -1),
		Version:       1,
	}
}

func (s *StateMachineSuite) TestAdmitPayment() {
	tests := []struct {
		name      string
		status    types.InvoiceStatus
		remaining string
		amount    string
		wantErr   error
	}{
		{"pending exact", types.InvoiceStatusPending, "100", "100", nil},
		{"pending partial", types.InvoiceStatusPending, "100", "40", nil},
		{"overdue partial", types.InvoiceStatusOverdue, "60", "60", nil},
		{"exceeds remaining", types.InvoiceStatusPending, "60", "60.01", ierr.ErrAmountExceedsRemaining},
		{"cancelled", types.InvoiceStatusCancelled, "100", "10", ierr.ErrInvoiceNotPayable},
		{"archived", types.InvoiceStatusArchived, "0", "10", ierr.ErrInvoiceNotPayable},
		{"paid", types.InvoiceStatusPaid, "0", "10", ierr.ErrInvoiceAlreadyFullyPaid},
		{"nothing remaining", types.InvoiceStatusPending, "0", "10", ierr.ErrInvoiceAlreadyFullyPaid},
		{"zero amount", types.InvoiceStatusPending, "100", "0", ierr.ErrValidation},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := AdmitPayment(s.newInvoice(tt.status),
				decimal.RequireFromString(tt.remaining),
				decimal.RequireFromString(tt.amount))
			if tt.wantErr == nil {
				s.NoError(err)
				return
			}
			s.Error(err)
			s.True(ierr.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func (s *StateMachineSuite) TestApplyRemaining() {
	inv := s.newInvoice(types.InvoiceStatusPending)

	next, changed := ApplyRemaining(inv, decimal.NewFromInt(60), s.now)
	s.False(changed)
	s.Equal(types.InvoiceStatusPending, next.InvoiceStatus)

	next, changed = ApplyRemaining(inv, decimal.Zero, s.now)
	s.True(changed)
	s.Equal(types.InvoiceStatusPaid, next.InvoiceStatus)
	s.Equal(s.now, *next.PaidDate)
	// input snapshot is untouched
	s.Equal(types.InvoiceStatusPending, inv.InvoiceStatus)
	s.Nil(inv.PaidDate)

	_, changed = ApplyRemaining(s.newInvoice(types.InvoiceStatusCancelled), decimal.Zero, s.now)
	s.False(changed)
}

func (s *StateMachineSuite) TestCancel() {
	next, err := Cancel(s.newInvoice(types.InvoiceStatusPending), lo.ToPtr("duplicate"), false, s.now)
	s.NoError(err)
	s.Equal(types.InvoiceStatusCancelled, next.InvoiceStatus)
	s.Equal("duplicate", *next.CancellationReason)
	s.Equal(s.now, *next.CancelledAt)

	_, err = Cancel(s.newInvoice(types.InvoiceStatusOverdue), nil, false, s.now)
	s.NoError(err)

	_, err = Cancel(s.newInvoice(types.InvoiceStatusPaid), nil, true, s.now)
	s.True(ierr.Is(err, ierr.ErrInvoiceAlreadyPaid))

	_, err = Cancel(s.newInvoice(types.InvoiceStatusCancelled), nil, false, s.now)
	s.True(ierr.Is(err, ierr.ErrInvoiceAlreadyCancelled))

	_, err = Cancel(s.newInvoice(types.InvoiceStatusArchived), nil, false, s.now)
	s.True(ierr.Is(err, ierr.ErrInvoiceNotCancellable))

	_, err = Cancel(s.newInvoice(types.InvoiceStatusPending), nil, true, s.now)
	s.True(ierr.Is(err, ierr.ErrInvoiceHasPayments))
}

func (s *StateMachineSuite) TestMarkPaid() {
	next, changed, err := MarkPaid(s.newInvoice(types.InvoiceStatusPending), s.now)
	s.NoError(err)
	s.True(changed)
	s.Equal(types.InvoiceStatusPaid, next.InvoiceStatus)

	_, changed, err = MarkPaid(s.newInvoice(types.InvoiceStatusPaid), s.now)
	s.NoError(err)
	s.False(changed)

	_, _, err = MarkPaid(s.newInvoice(types.InvoiceStatusCancelled), s.now)
	s.True(ierr.Is(err, ierr.ErrInvoiceAlreadyCancelled))

	_, _, err = MarkPaid(s.newInvoice(types.InvoiceStatusArchived), s.now)
	s.True(ierr.Is(err, ierr.ErrInvoiceNotPayable))
}

func (s *StateMachineSuite) TestMarkOverdueAndArchive() {
	next, err := MarkOverdue(s.newInvoice(types.InvoiceStatusPending), s.now)
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, next.InvoiceStatus)

	notDue := s.newInvoice(types.InvoiceStatusPending)
	notDue.DueDate = s.now.AddDate(0, 0, 5)
	_, err = MarkOverdue(notDue, s.now)
	s.True(ierr.Is(err, ierr.ErrInvalidTransition))

	_, err = MarkOverdue(s.newInvoice(types.InvoiceStatusPaid), s.now)
	s.True(ierr.Is(err, ierr.ErrInvalidTransition))

	archived, err := Archive(s.newInvoice(types.InvoiceStatusPaid), s.now)
	s.NoError(err)
	s.Equal(types.InvoiceStatusArchived, archived.InvoiceStatus)
	s.NotNil(archived.ArchivedAt)

	_, err = Archive(s.newInvoice(types.InvoiceStatusPending), s.now)
	s.True(ierr.Is(err, ierr.ErrInvalidTransition))
}

func (s *StateMachineSuite) TestTerminalStatesRejectEverything() {
	for _, status := range []types.InvoiceStatus{types.InvoiceStatusCancelled, types.InvoiceStatusArchived} {
		inv := s.newInvoice(status)
		s.Error(AdmitPayment(inv, decimal.NewFromInt(100), decimal.NewFromInt(1)))
		_, err := Cancel(inv, nil, false, s.now)
		s.Error(err)
		_, _, err = MarkPaid(inv, s.now)
		s.Error(err)
		_, err = MarkOverdue(inv, s.now)
		s.Error(err)
		_, err = Archive(inv, s.now)
		s.Error(err)
	}
}

func (s *StateMachineSuite) TestHoldBlocksWrites() {
	inv := s.newInvoice(types.InvoiceStatusPending)
	inv.HoldReason = lo.ToPtr("negative payment sum")

	err := AdmitPayment(inv, decimal.NewFromInt(100), decimal.NewFromInt(1))
	s.True(ierr.Is(err, ierr.ErrAggregateOnHold))

	_, err = Cancel(inv, nil, false, s.now)
	s.True(ierr.Is(err, ierr.ErrAggregateOnHold))
}

func (s *StateMachineSuite) TestCanDelete() {
	s.NoError(CanDelete(s.newInvoice(types.InvoiceStatusPending), false))
	s.True(ierr.Is(CanDelete(s.newInvoice(types.InvoiceStatusPending), true), ierr.ErrInvoiceHasPayments))
	s.True(ierr.Is(CanDelete(s.newInvoice(types.InvoiceStatusPaid), false), ierr.ErrInvalidOperation))
}

func (s *StateMachineSuite) TestValidate() {
	inv := s.newInvoice(types.InvoiceStatusPending)
	s.NoError(inv.Validate())

	inv.TotalAmount = decimal.NewFromInt(99)
	s.True(ierr.IsValidation(inv.Validate()))

	inv = s.newInvoice(types.InvoiceStatusPending)
	inv.Amount = decimal.RequireFromString("90.001")
	inv.TotalAmount = inv.Amount.Add(inv.TaxAmount)
	s.True(ierr.IsValidation(inv.Validate()))
}

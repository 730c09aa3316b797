package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flexprice/ledger/internal/temporal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

type OverdueSweepWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func TestOverdueSweepWorkflow(t *testing.T) {
	suite.Run(t, new(OverdueSweepWorkflowSuite))
}

func (s *OverdueSweepWorkflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
}

func (s *OverdueSweepWorkflowSuite) AfterTest(_, _ string) {
	s.env.AssertExpectations(s.T())
}

func (s *OverdueSweepWorkflowSuite) registerActivity(fn func(ctx context.Context, input models.MarkOverdueInvoicesActivityInput) (*models.OverdueSweepResult, error)) {
	s.env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: ActivityMarkOverdueInvoices})
}

func (s *OverdueSweepWorkflowSuite) TestPassesAsOfToActivity() {
	asOf := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s.registerActivity(func(_ context.Context, input models.MarkOverdueInvoicesActivityInput) (*models.OverdueSweepResult, error) {
		return nil, nil
	})
	s.env.OnActivity(ActivityMarkOverdueInvoices, mock.Anything, models.MarkOverdueInvoicesActivityInput{AsOf: asOf}).
		Return(&models.OverdueSweepResult{Scanned: 2, Marked: []string{"INV-202601-0001", "INV-202601-0002"}}, nil).
		Once()

	s.env.ExecuteWorkflow(OverdueSweepWorkflow, models.OverdueSweepWorkflowInput{AsOf: &asOf})

	s.True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())

	var result models.OverdueSweepResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.Equal(2, result.Scanned)
	s.Len(result.Marked, 2)
}

func (s *OverdueSweepWorkflowSuite) TestDefaultsToWorkflowTime() {
	var got time.Time
	s.registerActivity(func(_ context.Context, input models.MarkOverdueInvoicesActivityInput) (*models.OverdueSweepResult, error) {
		got = input.AsOf
		return &models.OverdueSweepResult{}, nil
	})

	s.env.ExecuteWorkflow(OverdueSweepWorkflow, models.OverdueSweepWorkflowInput{})

	s.Require().NoError(s.env.GetWorkflowError())
	s.False(got.IsZero())
}

func (s *OverdueSweepWorkflowSuite) TestActivityFailureFailsWorkflow() {
	s.registerActivity(func(_ context.Context, input models.MarkOverdueInvoicesActivityInput) (*models.OverdueSweepResult, error) {
		return nil, errors.New("database unavailable")
	})

	s.env.ExecuteWorkflow(OverdueSweepWorkflow, models.OverdueSweepWorkflowInput{})

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

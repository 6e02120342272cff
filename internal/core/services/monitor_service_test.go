package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/core/services"
)

type MonitorServiceTestSuite struct {
	suite.Suite
	mockOperationRepo *MockOperationRepository
	mockAuditRepo     *MockAuditRepository
	mockProvider      *MockCustodyProvider
	monitor           portssvc.ExecutionMonitorSvc

	op     domain.Operation
	taskID string
}

func (s *MonitorServiceTestSuite) SetupTest() {
	s.mockOperationRepo = new(MockOperationRepository)
	s.mockAuditRepo = new(MockAuditRepository)
	s.mockProvider = new(MockCustodyProvider)

	cfg := services.MonitorConfig{
		PollInterval:  2 * time.Millisecond,
		MaxAttempts:   5,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	}
	s.monitor = services.NewMonitorService(s.mockOperationRepo, s.mockAuditRepo, s.mockProvider, cfg, nil)

	s.taskID = "task-" + uuid.NewString()
	payload, _ := json.Marshal(domain.MintPayload{
		Blockchain:    "ethereum",
		TokenStandard: "ERC-721",
		Quantity:      "1",
	})
	taskID := s.taskID
	s.op = domain.Operation{
		OperationID:    uuid.NewString(),
		AssetID:        "asset-1",
		Type:           domain.OperationMint,
		Status:         domain.OperationApproved,
		Payload:        payload,
		InitiatedBy:    "maker-1",
		ProviderTaskID: &taskID,
	}

	// Milestone entries may or may not fire depending on how many polls run.
	s.mockAuditRepo.On("AppendAuditEntry", mock.Anything, mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Maybe()
}

func (s *MonitorServiceTestSuite) TearDownTest() {
	s.monitor.Stop()
}

// waitFor blocks until the signal channel fires or the test times out.
func (s *MonitorServiceTestSuite) waitFor(done chan struct{}) {
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for monitor to act")
	}
}

func (s *MonitorServiceTestSuite) TestWatch_CompletedAfterPendingPolls() {
	done := make(chan struct{})

	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{Status: providers.TaskPending}, nil).Twice()
	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{
			Status:       providers.TaskCompleted,
			TxHash:       "0xabc",
			TokenAddress: "0xdef",
			TokenID:      "7",
		}, nil).Once()
	s.mockOperationRepo.On("MarkExecuted", mock.Anything, mock.AnythingOfType("repositories.ExecutedParams")).
		Run(func(args mock.Arguments) { close(done) }).Return(nil).Once()

	s.monitor.Watch(s.op)
	s.waitFor(done)

	s.mockOperationRepo.AssertExpectations(s.T())
	params := s.mockOperationRepo.Calls[0].Arguments.Get(1).(portsrepo.ExecutedParams)
	s.Equal(s.op.OperationID, params.OperationID)
	s.Equal("0xabc", params.TransactionHash)
	s.Equal(domain.CustodyMinted, params.NewCustodyStatus)
	s.Require().NotNil(params.Token)
	s.Equal("0xdef", params.Token.TokenAddress)
	s.Equal("7", params.Token.TokenID)
	s.Require().NotNil(params.SeedOwnerID)
	s.Equal("maker-1", *params.SeedOwnerID)
	s.Require().NotNil(params.SeedQuantity)
	s.True(params.SeedQuantity.Equal(decimal.NewFromInt(1)))
	s.Equal(domain.AuditTokenMinted, params.Entry.EventType)

	// Completion on the third poll must not emit a progress milestone.
	s.mockAuditRepo.AssertNotCalled(s.T(), "AppendAuditEntry", mock.Anything, mock.Anything)
}

func (s *MonitorServiceTestSuite) TestWatch_MilestoneOnlyWhileStillPending() {
	done := make(chan struct{})

	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{Status: providers.TaskPending}, nil).Times(3)
	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{Status: providers.TaskCompleted, TxHash: "0xabc", TokenAddress: "0x1", TokenID: "1"}, nil).Once()
	s.mockOperationRepo.On("MarkExecuted", mock.Anything, mock.AnythingOfType("repositories.ExecutedParams")).
		Run(func(args mock.Arguments) { close(done) }).Return(nil).Once()

	s.monitor.Watch(s.op)
	s.waitFor(done)

	// The third poll came back pending, so exactly one progress milestone is
	// recorded before completion on the fourth.
	milestones := 0
	for _, call := range s.mockAuditRepo.Calls {
		if call.Method != "AppendAuditEntry" {
			continue
		}
		entry := call.Arguments.Get(1).(domain.AuditLogEntry)
		s.Equal(domain.AuditBlockPropagation, entry.EventType)
		milestones++
	}
	s.Equal(1, milestones)
}

func (s *MonitorServiceTestSuite) TestWatch_ProviderRejection() {
	done := make(chan struct{})

	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{Status: providers.TaskRejected, Reason: "policy violation"}, nil).Once()
	s.mockOperationRepo.On("MarkFailed", mock.Anything, s.op.OperationID, domain.OperationApproved, "policy violation", mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Run(func(args mock.Arguments) { close(done) }).Return(nil).Once()

	s.monitor.Watch(s.op)
	s.waitFor(done)

	s.mockOperationRepo.AssertExpectations(s.T())
}

func (s *MonitorServiceTestSuite) TestWatch_TransientErrorsThenCompleted() {
	done := make(chan struct{})

	// The first poll fails twice and then succeeds within the same attempt's
	// retry budget.
	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(nil, apperrors.ErrProvider).Twice()
	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{Status: providers.TaskCompleted, TxHash: "0xabc", TokenAddress: "0x1", TokenID: "1"}, nil).Once()
	s.mockOperationRepo.On("MarkExecuted", mock.Anything, mock.AnythingOfType("repositories.ExecutedParams")).
		Run(func(args mock.Arguments) { close(done) }).Return(nil).Once()

	s.monitor.Watch(s.op)
	s.waitFor(done)

	s.mockProvider.AssertExpectations(s.T())
}

func (s *MonitorServiceTestSuite) TestWatch_TimeoutExhaustsBudget() {
	done := make(chan struct{})

	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{Status: providers.TaskPending}, nil)
	s.mockOperationRepo.On("MarkFailed", mock.Anything, s.op.OperationID, domain.OperationApproved, "monitoring timed out after 5 attempts", mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).
		Run(func(args mock.Arguments) { close(done) }).Return(nil).Once()

	s.monitor.Watch(s.op)
	s.waitFor(done)

	s.mockOperationRepo.AssertExpectations(s.T())
}

func (s *MonitorServiceTestSuite) TestWatch_ConflictMeansAlreadyTerminal() {
	done := make(chan struct{})

	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{Status: providers.TaskCompleted, TxHash: "0xabc", TokenAddress: "0x1", TokenID: "1"}, nil).Once()
	s.mockOperationRepo.On("MarkExecuted", mock.Anything, mock.AnythingOfType("repositories.ExecutedParams")).
		Run(func(args mock.Arguments) { close(done) }).Return(apperrors.ErrConflict).Once()

	s.monitor.Watch(s.op)
	s.waitFor(done)

	// The watcher must not try to fail the operation after losing the race.
	s.mockOperationRepo.AssertNotCalled(s.T(), "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *MonitorServiceTestSuite) TestWatch_RefusesOperationWithoutTaskHandle() {
	op := s.op
	op.ProviderTaskID = nil

	s.monitor.Watch(op)
	s.monitor.Stop()

	s.mockProvider.AssertNotCalled(s.T(), "PollStatus", mock.Anything, mock.Anything)
}

func (s *MonitorServiceTestSuite) TestResumeInFlight() {
	done := make(chan struct{})

	s.mockOperationRepo.On("ListSubmittedOperations", mock.Anything).Return([]domain.Operation{s.op}, nil).Once()
	s.mockProvider.On("PollStatus", mock.Anything, s.taskID).
		Return(&providers.TaskResult{Status: providers.TaskCompleted, TxHash: "0xabc", TokenAddress: "0x1", TokenID: "1"}, nil).Once()
	s.mockOperationRepo.On("MarkExecuted", mock.Anything, mock.AnythingOfType("repositories.ExecutedParams")).
		Run(func(args mock.Arguments) { close(done) }).Return(nil).Once()

	err := s.monitor.ResumeInFlight(context.Background())

	s.Require().NoError(err)
	s.waitFor(done)
	s.mockOperationRepo.AssertExpectations(s.T())
}

func TestMonitorServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MonitorServiceTestSuite))
}

package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/core/services"
	"github.com/tokencustody/token_custody_app/internal/dto"
)

type OperationServiceTestSuite struct {
	suite.Suite
	mockOperationRepo *MockOperationRepository
	mockCustodyRepo   *MockCustodyRepository
	mockAuditRepo     *MockAuditRepository
	mockProvider      *MockCustodyProvider
	mockMonitor       *MockMonitor
	service           portssvc.OperationSvcFacade

	assetID   string
	makerID   string
	checkerID string
}

func (s *OperationServiceTestSuite) SetupTest() {
	s.mockOperationRepo = new(MockOperationRepository)
	s.mockCustodyRepo = new(MockCustodyRepository)
	s.mockAuditRepo = new(MockAuditRepository)
	s.mockProvider = new(MockCustodyProvider)
	s.mockMonitor = new(MockMonitor)
	s.service = services.NewOperationService(
		s.mockOperationRepo, s.mockCustodyRepo, s.mockAuditRepo, s.mockProvider, s.mockMonitor,
		services.SubmitRetryConfig{Attempts: 3, Backoff: time.Millisecond},
	)

	s.assetID = "asset-" + uuid.NewString()
	s.makerID = uuid.NewString()
	s.checkerID = uuid.NewString()
}

func (s *OperationServiceTestSuite) linkedRecord() *domain.CustodyRecord {
	return &domain.CustodyRecord{
		AssetID:  s.assetID,
		Status:   domain.CustodyLinked,
		VaultRef: "vault-1",
	}
}

func (s *OperationServiceTestSuite) mintRequest() dto.InitiateOperationRequest {
	payload, _ := json.Marshal(domain.MintPayload{
		Blockchain:    "ethereum",
		TokenStandard: "ERC-721",
		Quantity:      "1",
	})
	return dto.InitiateOperationRequest{
		AssetID: s.assetID,
		Type:    "MINT",
		Payload: payload,
	}
}

func (s *OperationServiceTestSuite) pendingMintOperation() *domain.Operation {
	req := s.mintRequest()
	return &domain.Operation{
		OperationID: uuid.NewString(),
		AssetID:     s.assetID,
		Type:        domain.OperationMint,
		Status:      domain.OperationPendingChecker,
		Payload:     req.Payload,
		InitiatedBy: s.makerID,
	}
}

func (s *OperationServiceTestSuite) TestInitiateOperation_Success() {
	ctx := context.Background()
	s.mockCustodyRepo.On("FindCustodyRecordByID", ctx, s.assetID).Return(s.linkedRecord(), nil).Once()
	s.mockOperationRepo.On("FindActiveOperationByAssetID", ctx, s.assetID).Return(nil, apperrors.ErrNotFound).Once()
	s.mockOperationRepo.On("CreateOperation", ctx, mock.AnythingOfType("domain.Operation"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()

	op, err := s.service.InitiateOperation(ctx, s.mintRequest(), s.makerID)

	s.Require().NoError(err)
	s.Equal(domain.OperationPendingChecker, op.Status)
	s.Equal(s.makerID, op.InitiatedBy)
	s.Equal(domain.OperationMint, op.Type)
	s.mockOperationRepo.AssertExpectations(s.T())

	createdEntry := s.mockOperationRepo.Calls[1].Arguments.Get(2).(domain.AuditLogEntry)
	s.Equal(domain.AuditOperationCreated, createdEntry.EventType)
	s.Equal(s.makerID, createdEntry.ActorID)
}

func (s *OperationServiceTestSuite) TestInitiateOperation_WrongCustodyStatus() {
	ctx := context.Background()
	record := s.linkedRecord()
	record.Status = domain.CustodyMinted // MINT requires LINKED
	s.mockCustodyRepo.On("FindCustodyRecordByID", ctx, s.assetID).Return(record, nil).Once()

	_, err := s.service.InitiateOperation(ctx, s.mintRequest(), s.makerID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrPrecondition)
	s.mockOperationRepo.AssertNotCalled(s.T(), "CreateOperation", mock.Anything, mock.Anything, mock.Anything)
}

func (s *OperationServiceTestSuite) TestInitiateOperation_IdempotencyReplay() {
	ctx := context.Background()
	key := "req-12345"
	existing := s.pendingMintOperation()
	existing.IdempotencyKey = &key
	s.mockOperationRepo.On("FindOperationByIdempotencyKey", ctx, key).Return(existing, nil).Once()

	req := s.mintRequest()
	req.IdempotencyKey = &key
	op, err := s.service.InitiateOperation(ctx, req, s.makerID)

	s.Require().NoError(err)
	s.Equal(existing.OperationID, op.OperationID)
	s.mockCustodyRepo.AssertNotCalled(s.T(), "FindCustodyRecordByID", mock.Anything, mock.Anything)
	s.mockOperationRepo.AssertNotCalled(s.T(), "CreateOperation", mock.Anything, mock.Anything, mock.Anything)
}

func (s *OperationServiceTestSuite) TestInitiateOperation_ConcurrentOperation() {
	ctx := context.Background()
	s.mockCustodyRepo.On("FindCustodyRecordByID", ctx, s.assetID).Return(s.linkedRecord(), nil).Once()
	s.mockOperationRepo.On("FindActiveOperationByAssetID", ctx, s.assetID).Return(nil, apperrors.ErrNotFound).Once()
	s.mockOperationRepo.On("CreateOperation", ctx, mock.Anything, mock.Anything).Return(apperrors.ErrConcurrentOperation).Once()

	_, err := s.service.InitiateOperation(ctx, s.mintRequest(), s.makerID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrConcurrentOperation)
}

func (s *OperationServiceTestSuite) TestInitiateOperation_ActiveOperationRejectedEarly() {
	ctx := context.Background()
	s.mockCustodyRepo.On("FindCustodyRecordByID", ctx, s.assetID).Return(s.linkedRecord(), nil).Once()
	s.mockOperationRepo.On("FindActiveOperationByAssetID", ctx, s.assetID).Return(s.pendingMintOperation(), nil).Once()

	_, err := s.service.InitiateOperation(ctx, s.mintRequest(), s.makerID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrConcurrentOperation)
	s.mockOperationRepo.AssertNotCalled(s.T(), "CreateOperation", mock.Anything, mock.Anything, mock.Anything)
}

func (s *OperationServiceTestSuite) TestInitiateOperation_InvalidMintPayload() {
	ctx := context.Background()
	req := s.mintRequest()
	req.Payload = json.RawMessage(`{"blockchain":"ethereum","tokenStandard":"ERC-721","quantity":"not-a-number"}`)

	_, err := s.service.InitiateOperation(ctx, req, s.makerID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *OperationServiceTestSuite) TestApproveOperation_Success() {
	ctx := context.Background()
	op := s.pendingMintOperation()
	taskID := "task-42"

	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()
	s.mockOperationRepo.On("MarkApproved", ctx, op.OperationID, s.checkerID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()
	s.mockCustodyRepo.On("FindCustodyRecordByID", ctx, s.assetID).Return(s.linkedRecord(), nil).Once()
	s.mockProvider.On("SubmitMint", ctx, providers.MintParams{
		VaultRef:      "vault-1",
		Blockchain:    "ethereum",
		TokenStandard: "ERC-721",
		Quantity:      "1",
	}).Return(taskID, nil).Once()
	s.mockOperationRepo.On("RecordSubmission", ctx, op.OperationID, taskID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()
	s.mockMonitor.On("Watch", mock.AnythingOfType("domain.Operation")).Once()

	approved, err := s.service.ApproveOperation(ctx, op.OperationID, s.checkerID)

	s.Require().NoError(err)
	s.Equal(domain.OperationApproved, approved.Status)
	s.Require().NotNil(approved.ProviderTaskID)
	s.Equal(taskID, *approved.ProviderTaskID)
	s.mockProvider.AssertExpectations(s.T())
	s.mockMonitor.AssertExpectations(s.T())

	watched := s.mockMonitor.Calls[0].Arguments.Get(0).(domain.Operation)
	s.Equal(op.OperationID, watched.OperationID)
	s.Equal(taskID, *watched.ProviderTaskID)
}

func (s *OperationServiceTestSuite) TestApproveOperation_SegregationViolation() {
	ctx := context.Background()
	op := s.pendingMintOperation()
	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()

	_, err := s.service.ApproveOperation(ctx, op.OperationID, s.makerID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrSegregationViolation)
	s.mockOperationRepo.AssertNotCalled(s.T(), "MarkApproved", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *OperationServiceTestSuite) TestApproveOperation_NotPending() {
	ctx := context.Background()
	op := s.pendingMintOperation()
	op.Status = domain.OperationExecuted
	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()

	_, err := s.service.ApproveOperation(ctx, op.OperationID, s.checkerID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrPrecondition)
}

func (s *OperationServiceTestSuite) TestApproveOperation_SubmissionFailureMarksFailed() {
	ctx := context.Background()
	op := s.pendingMintOperation()

	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()
	s.mockOperationRepo.On("MarkApproved", ctx, op.OperationID, s.checkerID, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockCustodyRepo.On("FindCustodyRecordByID", ctx, s.assetID).Return(s.linkedRecord(), nil).Once()
	s.mockProvider.On("SubmitMint", ctx, mock.Anything).Return("", errors.New("connection refused")).Times(3)
	s.mockOperationRepo.On("MarkFailed", ctx, op.OperationID, domain.OperationApproved, "provider submission failed", mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()

	_, err := s.service.ApproveOperation(ctx, op.OperationID, s.checkerID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrProvider)
	s.mockOperationRepo.AssertExpectations(s.T())
	s.mockProvider.AssertNumberOfCalls(s.T(), "SubmitMint", 3)
	s.mockMonitor.AssertNotCalled(s.T(), "Watch", mock.Anything)
}

func (s *OperationServiceTestSuite) TestApproveOperation_TransientSubmissionErrorRetried() {
	ctx := context.Background()
	op := s.pendingMintOperation()
	taskID := "task-77"

	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()
	s.mockOperationRepo.On("MarkApproved", ctx, op.OperationID, s.checkerID, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockCustodyRepo.On("FindCustodyRecordByID", ctx, s.assetID).Return(s.linkedRecord(), nil).Once()
	s.mockProvider.On("SubmitMint", ctx, mock.Anything).Return("", errors.New("i/o timeout")).Once()
	s.mockProvider.On("SubmitMint", ctx, mock.Anything).Return(taskID, nil).Once()
	s.mockOperationRepo.On("RecordSubmission", ctx, op.OperationID, taskID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()
	s.mockMonitor.On("Watch", mock.AnythingOfType("domain.Operation")).Once()

	approved, err := s.service.ApproveOperation(ctx, op.OperationID, s.checkerID)

	s.Require().NoError(err)
	s.Require().NotNil(approved.ProviderTaskID)
	s.Equal(taskID, *approved.ProviderTaskID)
	s.mockProvider.AssertNumberOfCalls(s.T(), "SubmitMint", 2)
	s.mockOperationRepo.AssertNotCalled(s.T(), "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *OperationServiceTestSuite) TestApproveOperation_RecordSubmissionFailureMarksFailed() {
	ctx := context.Background()
	op := s.pendingMintOperation()
	taskID := "task-88"

	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()
	s.mockOperationRepo.On("MarkApproved", ctx, op.OperationID, s.checkerID, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockCustodyRepo.On("FindCustodyRecordByID", ctx, s.assetID).Return(s.linkedRecord(), nil).Once()
	s.mockProvider.On("SubmitMint", ctx, mock.Anything).Return(taskID, nil).Once()
	s.mockOperationRepo.On("RecordSubmission", ctx, op.OperationID, taskID, mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	s.mockOperationRepo.On("MarkFailed", ctx, op.OperationID, domain.OperationApproved, "failed to record provider submission", mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()

	_, err := s.service.ApproveOperation(ctx, op.OperationID, s.checkerID)

	s.Require().Error(err)
	s.mockOperationRepo.AssertExpectations(s.T())
	s.mockMonitor.AssertNotCalled(s.T(), "Watch", mock.Anything)
}

func (s *OperationServiceTestSuite) TestRejectOperation_Success() {
	ctx := context.Background()
	op := s.pendingMintOperation()
	reason := "wrong quantity"

	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()
	s.mockOperationRepo.On("MarkRejected", ctx, op.OperationID, s.checkerID, reason, mock.AnythingOfType("time.Time"), mock.AnythingOfType("domain.AuditLogEntry")).Return(nil).Once()

	rejected, err := s.service.RejectOperation(ctx, op.OperationID, s.checkerID, reason)

	s.Require().NoError(err)
	s.Equal(domain.OperationRejected, rejected.Status)
	s.Require().NotNil(rejected.RejectionReason)
	s.Equal(reason, *rejected.RejectionReason)
}

func (s *OperationServiceTestSuite) TestRejectOperation_SegregationViolation() {
	ctx := context.Background()
	op := s.pendingMintOperation()
	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()

	_, err := s.service.RejectOperation(ctx, op.OperationID, s.makerID, "self-review")

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrSegregationViolation)
}

func (s *OperationServiceTestSuite) TestGetOperation_WithAuditTrail() {
	ctx := context.Background()
	op := s.pendingMintOperation()
	entries := []domain.AuditLogEntry{
		{EntryID: uuid.NewString(), EventType: domain.AuditOperationCreated, CreatedAt: time.Now()},
	}
	s.mockOperationRepo.On("FindOperationByID", ctx, op.OperationID).Return(op, nil).Once()
	s.mockAuditRepo.On("ListAuditByOperationID", ctx, op.OperationID).Return(entries, nil).Once()

	got, audit, err := s.service.GetOperation(ctx, op.OperationID)

	s.Require().NoError(err)
	s.Equal(op.OperationID, got.OperationID)
	s.Len(audit, 1)
}

func TestOperationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OperationServiceTestSuite))
}

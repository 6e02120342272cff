package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/dto"
)

// SubmitRetryConfig bounds the retry of provider submission calls. Transient
// network failures are retried with a doubling backoff before the operation is
// classified as failed.
type SubmitRetryConfig struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultSubmitRetryConfig returns the production submission retry parameters.
func DefaultSubmitRetryConfig() SubmitRetryConfig {
	return SubmitRetryConfig{Attempts: 3, Backoff: time.Second}
}

// operationService runs the maker-checker lifecycle for custody operations.
type operationService struct {
	BaseService
	operationRepo portsrepo.OperationRepositoryFacade
	custodyRepo   portsrepo.CustodyRecordRepositoryFacade
	auditRepo     portsrepo.AuditRepositoryFacade
	provider      providers.CustodyProvider
	monitor       portssvc.ExecutionMonitorSvc
	submitRetry   SubmitRetryConfig
}

// NewOperationService creates a new operation service.
func NewOperationService(
	operationRepo portsrepo.OperationRepositoryFacade,
	custodyRepo portsrepo.CustodyRecordRepositoryFacade,
	auditRepo portsrepo.AuditRepositoryFacade,
	provider providers.CustodyProvider,
	monitor portssvc.ExecutionMonitorSvc,
	submitRetry SubmitRetryConfig,
) portssvc.OperationSvcFacade {
	if submitRetry.Attempts < 1 {
		submitRetry = DefaultSubmitRetryConfig()
	}
	return &operationService{
		operationRepo: operationRepo,
		custodyRepo:   custodyRepo,
		auditRepo:     auditRepo,
		provider:      provider,
		monitor:       monitor,
		submitRetry:   submitRetry,
	}
}

var _ portssvc.OperationSvcFacade = (*operationService)(nil)

// validatePayload checks that the payload parses as the shape the operation
// type requires. The state machine itself never interprets the payload again.
func validatePayload(opType domain.OperationType, payload json.RawMessage) error {
	switch opType {
	case domain.OperationMint:
		var p domain.MintPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return apperrors.NewAppError(400, "invalid mint payload", errors.Join(apperrors.ErrValidation, err))
		}
		if p.Blockchain == "" || p.TokenStandard == "" {
			return apperrors.NewAppError(400, "mint payload requires blockchain and tokenStandard", apperrors.ErrValidation)
		}
		if _, err := decimal.NewFromString(p.Quantity); err != nil {
			return apperrors.NewAppError(400, "mint payload quantity must be a decimal number", errors.Join(apperrors.ErrValidation, err))
		}
	case domain.OperationTransfer:
		var p domain.TransferPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return apperrors.NewAppError(400, "invalid transfer payload", errors.Join(apperrors.ErrValidation, err))
		}
		if p.DestinationVaultRef == "" {
			return apperrors.NewAppError(400, "transfer payload requires destinationVaultRef", apperrors.ErrValidation)
		}
	case domain.OperationBurn:
		// Burn carries no parameters beyond the asset itself.
	default:
		return apperrors.NewAppError(400, "unknown operation type "+string(opType), apperrors.ErrValidation)
	}
	return nil
}

// InitiateOperation creates a PENDING_CHECKER operation for the asset on
// behalf of the maker. Re-sending the same idempotency key returns the
// operation created by the first request.
func (s *operationService) InitiateOperation(ctx context.Context, req dto.InitiateOperationRequest, makerID string) (*domain.Operation, error) {
	opType := domain.OperationType(req.Type)

	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		existing, err := s.operationRepo.FindOperationByIdempotencyKey(ctx, *req.IdempotencyKey)
		if err == nil {
			s.LogInfo(ctx, "idempotency key replay, returning existing operation",
				"operation_id", existing.OperationID, "asset_id", existing.AssetID)
			return existing, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	if err := validatePayload(opType, req.Payload); err != nil {
		return nil, err
	}

	record, err := s.custodyRepo.FindCustodyRecordByID(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}

	required, ok := opType.RequiredCustodyStatus()
	if !ok {
		return nil, apperrors.NewAppError(400, "unknown operation type "+req.Type, apperrors.ErrValidation)
	}
	if record.Status != required {
		return nil, apperrors.NewAppError(422,
			fmt.Sprintf("asset %s is %s; %s requires %s", record.AssetID, record.Status, opType, required),
			apperrors.ErrPrecondition)
	}

	// Advisory pre-check; the partial unique index remains the authoritative
	// guard under races.
	active, err := s.operationRepo.FindActiveOperationByAssetID(ctx, req.AssetID)
	if err == nil {
		return nil, apperrors.NewAppError(409,
			fmt.Sprintf("operation %s is already in flight for asset %s", active.OperationID, req.AssetID),
			apperrors.ErrConcurrentOperation)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	op := domain.Operation{
		OperationID:    uuid.NewString(),
		AssetID:        req.AssetID,
		Type:           opType,
		Status:         domain.OperationPendingChecker,
		Payload:        req.Payload,
		InitiatedBy:    makerID,
		IdempotencyKey: req.IdempotencyKey,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     makerID,
			LastUpdatedAt: now,
			LastUpdatedBy: makerID,
		},
	}

	entry := s.auditEntry(domain.AuditOperationCreated, makerID, &op, now, map[string]any{
		"type": string(opType),
	})

	if err := s.operationRepo.CreateOperation(ctx, op, entry); err != nil {
		s.LogError(ctx, err, "failed to create operation", "asset_id", req.AssetID, "type", req.Type)
		return nil, err
	}

	s.LogInfo(ctx, "operation initiated", "operation_id", op.OperationID, "asset_id", op.AssetID, "type", req.Type)
	return &op, nil
}

// ApproveOperation approves a pending operation as checker, then submits it to
// the custody provider. Approval and submission are distinct steps: a
// submission failure leaves an audit-visible APPROVED->FAILED trail rather
// than silently undoing the approval.
func (s *operationService) ApproveOperation(ctx context.Context, operationID, checkerID string) (*domain.Operation, error) {
	op, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status != domain.OperationPendingChecker {
		return nil, apperrors.NewAppError(422,
			fmt.Sprintf("operation %s is %s, not awaiting approval", operationID, op.Status),
			apperrors.ErrPrecondition)
	}
	if op.InitiatedBy == checkerID {
		return nil, apperrors.ErrSegregationViolation
	}

	now := time.Now().UTC()
	approveEntry := s.auditEntry(domain.AuditOperationApproved, checkerID, op, now, nil)
	if err := s.operationRepo.MarkApproved(ctx, operationID, checkerID, now, approveEntry); err != nil {
		s.LogError(ctx, err, "failed to approve operation", "operation_id", operationID)
		return nil, err
	}
	op.Status = domain.OperationApproved
	op.ApprovedBy = &checkerID
	op.LastUpdatedAt = now
	op.LastUpdatedBy = checkerID

	taskID, err := s.submitWithRetry(ctx, op)
	if err != nil {
		s.failOperation(ctx, op, "provider submission failed", map[string]any{})
		s.LogError(ctx, err, "provider submission failed", "operation_id", operationID)
		return nil, apperrors.NewAppError(502, "custody provider submission failed", errors.Join(apperrors.ErrProvider, err))
	}

	submittedAt := time.Now().UTC()
	submitEntry := s.auditEntry(domain.AuditOnChainSubmission, domain.SystemActorID, op, submittedAt, map[string]any{
		"providerTaskID": taskID,
	})
	if err := s.operationRepo.RecordSubmission(ctx, operationID, taskID, submittedAt, submitEntry); err != nil {
		// The task handle was never persisted, so a resumed monitor could not
		// find this operation; fail it rather than strand it APPROVED.
		s.LogError(ctx, err, "failed to record provider submission", "operation_id", operationID, "task_id", taskID)
		s.failOperation(ctx, op, "failed to record provider submission", map[string]any{"providerTaskID": taskID})
		return nil, err
	}
	op.ProviderTaskID = &taskID
	op.LastUpdatedAt = submittedAt

	s.monitor.Watch(*op)

	s.LogInfo(ctx, "operation approved and submitted", "operation_id", operationID, "task_id", taskID)
	return op, nil
}

// submitWithRetry resolves the provider call for the operation and runs it
// with a bounded retry and doubling backoff. Payload and custody-record
// problems fail immediately; only the provider call itself is retried.
func (s *operationService) submitWithRetry(ctx context.Context, op *domain.Operation) (string, error) {
	submit, err := s.submitCall(ctx, op)
	if err != nil {
		return "", err
	}

	var lastErr error
	backoff := s.submitRetry.Backoff
	for attempt := 1; attempt <= s.submitRetry.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		taskID, err := submit(ctx)
		if err == nil {
			return taskID, nil
		}
		lastErr = err
		s.LogWarn(ctx, "provider submission attempt failed",
			"operation_id", op.OperationID, "attempt", attempt, "error", err.Error())
	}
	return "", lastErr
}

// submitCall maps the operation onto the provider capability call for its
// type, resolving the custody record and payload up front.
func (s *operationService) submitCall(ctx context.Context, op *domain.Operation) (func(context.Context) (string, error), error) {
	record, err := s.custodyRepo.FindCustodyRecordByID(ctx, op.AssetID)
	if err != nil {
		return nil, err
	}

	switch op.Type {
	case domain.OperationMint:
		var p domain.MintPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("corrupt mint payload for operation %s: %w", op.OperationID, err)
		}
		params := providers.MintParams{
			VaultRef:      record.VaultRef,
			Blockchain:    p.Blockchain,
			TokenStandard: p.TokenStandard,
			Quantity:      p.Quantity,
		}
		return func(ctx context.Context) (string, error) {
			return s.provider.SubmitMint(ctx, params)
		}, nil
	case domain.OperationTransfer:
		var p domain.TransferPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return nil, fmt.Errorf("corrupt transfer payload for operation %s: %w", op.OperationID, err)
		}
		if record.Token == nil {
			return nil, fmt.Errorf("asset %s has no token to transfer", op.AssetID)
		}
		params := providers.TransferParams{
			VaultRef:            record.VaultRef,
			DestinationVaultRef: p.DestinationVaultRef,
			TokenAddress:        record.Token.TokenAddress,
			TokenID:             record.Token.TokenID,
		}
		return func(ctx context.Context) (string, error) {
			return s.provider.SubmitTransfer(ctx, params)
		}, nil
	case domain.OperationBurn:
		if record.Token == nil {
			return nil, fmt.Errorf("asset %s has no token to burn", op.AssetID)
		}
		params := providers.BurnParams{
			VaultRef:     record.VaultRef,
			TokenAddress: record.Token.TokenAddress,
			TokenID:      record.Token.TokenID,
		}
		return func(ctx context.Context) (string, error) {
			return s.provider.SubmitBurn(ctx, params)
		}, nil
	default:
		return nil, fmt.Errorf("unknown operation type %s", op.Type)
	}
}

// failOperation moves an APPROVED operation to FAILED with its audit entry.
func (s *operationService) failOperation(ctx context.Context, op *domain.Operation, reason string, metadata map[string]any) {
	failedAt := time.Now().UTC()
	metadata["reason"] = reason
	entry := s.auditEntry(domain.AuditOperationFailed, domain.SystemActorID, op, failedAt, metadata)
	if err := s.operationRepo.MarkFailed(ctx, op.OperationID, domain.OperationApproved, reason, failedAt, entry); err != nil {
		s.LogError(ctx, err, "failed to mark operation failed", "operation_id", op.OperationID)
	}
}

// RejectOperation rejects a pending operation as checker with a reason.
func (s *operationService) RejectOperation(ctx context.Context, operationID, checkerID, reason string) (*domain.Operation, error) {
	op, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op.Status != domain.OperationPendingChecker {
		return nil, apperrors.NewAppError(422,
			fmt.Sprintf("operation %s is %s, not awaiting approval", operationID, op.Status),
			apperrors.ErrPrecondition)
	}
	if op.InitiatedBy == checkerID {
		return nil, apperrors.ErrSegregationViolation
	}

	now := time.Now().UTC()
	entry := s.auditEntry(domain.AuditOperationRejected, checkerID, op, now, map[string]any{
		"reason": reason,
	})
	if err := s.operationRepo.MarkRejected(ctx, operationID, checkerID, reason, now, entry); err != nil {
		s.LogError(ctx, err, "failed to reject operation", "operation_id", operationID)
		return nil, err
	}

	op.Status = domain.OperationRejected
	op.RejectedBy = &checkerID
	op.RejectionReason = &reason
	op.LastUpdatedAt = now
	op.LastUpdatedBy = checkerID

	s.LogInfo(ctx, "operation rejected", "operation_id", operationID)
	return op, nil
}

// GetOperation retrieves an operation with its audit trail in chronological order.
func (s *operationService) GetOperation(ctx context.Context, operationID string) (*domain.Operation, []domain.AuditLogEntry, error) {
	op, err := s.operationRepo.FindOperationByID(ctx, operationID)
	if err != nil {
		return nil, nil, err
	}
	audit, err := s.auditRepo.ListAuditByOperationID(ctx, operationID)
	if err != nil {
		return nil, nil, err
	}
	return op, audit, nil
}

// ListOperations retrieves a paginated list of operations for an asset.
func (s *operationService) ListOperations(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.Operation, *string, error) {
	return s.operationRepo.ListOperationsByAssetID(ctx, assetID, limit, nextToken)
}

func (s *operationService) auditEntry(eventType domain.AuditEventType, actorID string, op *domain.Operation, at time.Time, metadata map[string]any) domain.AuditLogEntry {
	operationID := op.OperationID
	assetID := op.AssetID
	return domain.AuditLogEntry{
		EntryID:     uuid.NewString(),
		EventType:   eventType,
		ActorID:     actorID,
		OperationID: &operationID,
		AssetID:     &assetID,
		Metadata:    metadata,
		CreatedAt:   at,
	}
}

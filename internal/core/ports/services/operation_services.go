package services

import (
	"context"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/dto"
)

// OperationSvcFacade exposes the maker-checker operation lifecycle.
type OperationSvcFacade interface {
	// InitiateOperation creates a PENDING_CHECKER operation for the asset on
	// behalf of the maker.
	InitiateOperation(ctx context.Context, req dto.InitiateOperationRequest, makerID string) (*domain.Operation, error)

	// ApproveOperation approves a pending operation as checker and submits it
	// to the custody provider. A submission failure leaves the operation FAILED.
	ApproveOperation(ctx context.Context, operationID, checkerID string) (*domain.Operation, error)

	// RejectOperation rejects a pending operation as checker with a reason.
	RejectOperation(ctx context.Context, operationID, checkerID, reason string) (*domain.Operation, error)

	// GetOperation retrieves an operation with its audit trail in
	// chronological order.
	GetOperation(ctx context.Context, operationID string) (*domain.Operation, []domain.AuditLogEntry, error)

	// ListOperations retrieves a paginated list of operations for an asset.
	ListOperations(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.Operation, *string, error)
}

package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// ExecutedParams carries everything the terminal-success transition touches:
// the operation row, the custody record row and the audit ledger, all committed
// in a single transaction.
type ExecutedParams struct {
	OperationID      string
	AssetID          string
	TransactionHash  string
	NewCustodyStatus domain.CustodyStatus
	Token            *domain.TokenInfo // Set for MINT; nil otherwise
	NewVaultRef      *string           // Set for TRANSFER; nil otherwise
	// SeedOwnerID/SeedQuantity create the initial ownership row when a MINT executes.
	SeedOwnerID  *string
	SeedQuantity *decimal.Decimal
	Now          time.Time
	Entry        domain.AuditLogEntry
}

// OperationReader defines read operations for custody operations
type OperationReader interface {
	// FindOperationByID retrieves a specific operation by its unique identifier.
	FindOperationByID(ctx context.Context, operationID string) (*domain.Operation, error)

	// FindOperationByIdempotencyKey retrieves the operation created with the given key, if any.
	FindOperationByIdempotencyKey(ctx context.Context, key string) (*domain.Operation, error)

	// FindActiveOperationByAssetID retrieves the non-terminal operation for an asset, if one exists.
	FindActiveOperationByAssetID(ctx context.Context, assetID string) (*domain.Operation, error)

	// ListOperationsByAssetID retrieves a paginated list of operations for an asset.
	ListOperationsByAssetID(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.Operation, *string, error)

	// ListSubmittedOperations retrieves all APPROVED operations that hold a
	// provider task handle. Used to re-attach execution monitors after a restart.
	ListSubmittedOperations(ctx context.Context) ([]domain.Operation, error)
}

// OperationWriter defines write operations for custody operations.
// Every method pairs its state change with the given audit entry in one
// transaction. Methods that move an operation out of an expected status are
// conditional updates; they return apperrors.ErrConflict when the operation is
// no longer in that status.
type OperationWriter interface {
	// CreateOperation persists a PENDING_CHECKER operation with its audit entry.
	// Returns apperrors.ErrConcurrentOperation if a non-terminal operation
	// already exists for the same asset.
	CreateOperation(ctx context.Context, op domain.Operation, entry domain.AuditLogEntry) error

	// MarkApproved moves PENDING_CHECKER -> APPROVED and records the checker.
	MarkApproved(ctx context.Context, operationID, checkerID string, now time.Time, entry domain.AuditLogEntry) error

	// MarkRejected moves PENDING_CHECKER -> REJECTED and records the checker and reason.
	MarkRejected(ctx context.Context, operationID, checkerID, reason string, now time.Time, entry domain.AuditLogEntry) error

	// RecordSubmission stores the provider task handle on an APPROVED operation.
	RecordSubmission(ctx context.Context, operationID, taskID string, now time.Time, entry domain.AuditLogEntry) error

	// MarkFailed moves an operation in fromStatus to FAILED with the reason.
	MarkFailed(ctx context.Context, operationID string, fromStatus domain.OperationStatus, reason string, now time.Time, entry domain.AuditLogEntry) error

	// MarkExecuted applies the terminal-success transition described by params.
	MarkExecuted(ctx context.Context, params ExecutedParams) error
}

// OperationRepositoryFacade combines all operation repository interfaces
type OperationRepositoryFacade interface {
	OperationReader
	OperationWriter
}

package repositories

import (
	"context"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// AuditReader defines read operations over the audit ledger.
// Entries are always returned in non-decreasing timestamp order.
type AuditReader interface {
	// ListAuditByOperationID retrieves every entry related to an operation.
	ListAuditByOperationID(ctx context.Context, operationID string) ([]domain.AuditLogEntry, error)

	// ListAuditByAssetID retrieves a paginated list of entries related to an asset.
	ListAuditByAssetID(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error)
}

// AuditWriter defines the append-only write contract of the audit ledger.
// Prior entries are never mutated or deleted.
type AuditWriter interface {
	// AppendAuditEntry writes a standalone entry. State-changing call sites do
	// not use this; their entries ride in the transaction of the state change.
	AppendAuditEntry(ctx context.Context, entry domain.AuditLogEntry) error
}

// AuditRepositoryFacade combines the audit ledger interfaces
type AuditRepositoryFacade interface {
	AuditReader
	AuditWriter
}

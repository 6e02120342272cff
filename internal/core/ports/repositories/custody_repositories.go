package repositories

import (
	"context"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// CustodyRecordReader defines read operations for custody records
type CustodyRecordReader interface {
	// FindCustodyRecordByID retrieves the custody record for an asset.
	FindCustodyRecordByID(ctx context.Context, assetID string) (*domain.CustodyRecord, error)

	// ListCustodyRecords retrieves a paginated list of custody records using token-based pagination.
	ListCustodyRecords(ctx context.Context, limit int, nextToken *string) ([]domain.CustodyRecord, *string, error)
}

// CustodyRecordWriter defines write operations for custody records
type CustodyRecordWriter interface {
	// CreateCustodyRecord persists a newly linked record together with its audit
	// entry; both are written in one transaction or not at all.
	CreateCustodyRecord(ctx context.Context, record domain.CustodyRecord, entry domain.AuditLogEntry) error
}

// CustodyRecordRepositoryFacade combines all custody-record repository interfaces
type CustodyRecordRepositoryFacade interface {
	CustodyRecordReader
	CustodyRecordWriter
}

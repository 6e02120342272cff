package services

import (
	"context"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/dto"
)

// CustodySvcFacade exposes custody record linking and queries.
type CustodySvcFacade interface {
	// LinkAsset creates a custody record in LINKED state for a new asset.
	LinkAsset(ctx context.Context, req dto.LinkAssetRequest, actorID string) (*domain.CustodyRecord, error)

	// GetCustodyRecord retrieves the custody record for an asset.
	GetCustodyRecord(ctx context.Context, assetID string) (*domain.CustodyRecord, error)

	// ListCustodyRecords retrieves a paginated list of custody records.
	ListCustodyRecords(ctx context.Context, limit int, nextToken *string) ([]domain.CustodyRecord, *string, error)

	// ListAuditByAsset retrieves the asset's audit trail, oldest first.
	ListAuditByAsset(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error)
}

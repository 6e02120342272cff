package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/dto"
)

// custodyService links assets into custody and answers custody queries.
type custodyService struct {
	BaseService
	custodyRepo portsrepo.CustodyRecordRepositoryFacade
	auditRepo   portsrepo.AuditRepositoryFacade
}

// NewCustodyService creates a new custody service.
func NewCustodyService(custodyRepo portsrepo.CustodyRecordRepositoryFacade, auditRepo portsrepo.AuditRepositoryFacade) portssvc.CustodySvcFacade {
	return &custodyService{custodyRepo: custodyRepo, auditRepo: auditRepo}
}

var _ portssvc.CustodySvcFacade = (*custodyService)(nil)

// LinkAsset creates a LINKED custody record for a new asset. The record and
// its ASSET_LINKED audit entry commit together.
func (s *custodyService) LinkAsset(ctx context.Context, req dto.LinkAssetRequest, actorID string) (*domain.CustodyRecord, error) {
	now := time.Now().UTC()

	record := domain.CustodyRecord{
		AssetID:  req.AssetID,
		Status:   domain.CustodyLinked,
		VaultRef: req.VaultRef,
		LinkedAt: &now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	assetID := req.AssetID
	entry := domain.AuditLogEntry{
		EntryID:   uuid.NewString(),
		EventType: domain.AuditAssetLinked,
		ActorID:   actorID,
		AssetID:   &assetID,
		Metadata:  map[string]any{"vaultRef": req.VaultRef},
		CreatedAt: now,
	}

	if err := s.custodyRepo.CreateCustodyRecord(ctx, record, entry); err != nil {
		s.LogError(ctx, err, "failed to link asset", "asset_id", req.AssetID)
		return nil, err
	}

	s.LogInfo(ctx, "asset linked into custody", "asset_id", req.AssetID, "vault_ref", req.VaultRef)
	return &record, nil
}

// GetCustodyRecord retrieves the custody record for an asset.
func (s *custodyService) GetCustodyRecord(ctx context.Context, assetID string) (*domain.CustodyRecord, error) {
	return s.custodyRepo.FindCustodyRecordByID(ctx, assetID)
}

// ListCustodyRecords retrieves a paginated list of custody records.
func (s *custodyService) ListCustodyRecords(ctx context.Context, limit int, nextToken *string) ([]domain.CustodyRecord, *string, error) {
	return s.custodyRepo.ListCustodyRecords(ctx, limit, nextToken)
}

// ListAuditByAsset retrieves the asset's audit trail, oldest first.
func (s *custodyService) ListAuditByAsset(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	if _, err := s.custodyRepo.FindCustodyRecordByID(ctx, assetID); err != nil {
		return nil, nil, err
	}
	return s.auditRepo.ListAuditByAssetID(ctx, assetID, limit, nextToken)
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// LinkAssetRequest creates a custody record for a new asset.
type LinkAssetRequest struct {
	AssetID  string `json:"assetID" binding:"required"`
	VaultRef string `json:"vaultRef" binding:"required"`
}

// TokenInfoResponse defines the token metadata returned once an asset is minted.
type TokenInfoResponse struct {
	Blockchain    string          `json:"blockchain"`
	TokenStandard string          `json:"tokenStandard"`
	TokenAddress  string          `json:"tokenAddress"`
	TokenID       string          `json:"tokenID"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// CustodyRecordResponse defines the data returned for a custody record.
type CustodyRecordResponse struct {
	AssetID     string             `json:"assetID"`
	Status      string             `json:"status"`
	VaultRef    string             `json:"vaultRef"`
	Token       *TokenInfoResponse `json:"token,omitempty"`
	LinkedAt    *time.Time         `json:"linkedAt,omitempty"`
	MintedAt    *time.Time         `json:"mintedAt,omitempty"`
	WithdrawnAt *time.Time         `json:"withdrawnAt,omitempty"`
	BurnedAt    *time.Time         `json:"burnedAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// ListCustodyRecordsResponse is a paginated page of custody records.
type ListCustodyRecordsResponse struct {
	Records   []CustodyRecordResponse `json:"records"`
	NextToken *string                 `json:"nextToken,omitempty"`
}

// ListAuditResponse is a paginated page of audit entries.
type ListAuditResponse struct {
	Entries   []AuditEntryResponse `json:"entries"`
	NextToken *string              `json:"nextToken,omitempty"`
}

// ToCustodyRecordResponse converts a domain.CustodyRecord to its response DTO.
func ToCustodyRecordResponse(r *domain.CustodyRecord) CustodyRecordResponse {
	resp := CustodyRecordResponse{
		AssetID:     r.AssetID,
		Status:      string(r.Status),
		VaultRef:    r.VaultRef,
		LinkedAt:    r.LinkedAt,
		MintedAt:    r.MintedAt,
		WithdrawnAt: r.WithdrawnAt,
		BurnedAt:    r.BurnedAt,
		CreatedAt:   r.CreatedAt,
	}
	if r.Token != nil {
		resp.Token = &TokenInfoResponse{
			Blockchain:    r.Token.Blockchain,
			TokenStandard: r.Token.TokenStandard,
			TokenAddress:  r.Token.TokenAddress,
			TokenID:       r.Token.TokenID,
			Quantity:      r.Token.Quantity,
		}
	}
	return resp
}

// ToCustodyRecordResponses converts a slice of custody records to responses.
func ToCustodyRecordResponses(records []domain.CustodyRecord) []CustodyRecordResponse {
	responses := make([]CustodyRecordResponse, len(records))
	for i := range records {
		responses[i] = ToCustodyRecordResponse(&records[i])
	}
	return responses
}

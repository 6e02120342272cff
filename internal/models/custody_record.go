package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustodyStatus mirrors domain.CustodyStatus at the persistence layer.
type CustodyStatus string

// CustodyRecord is the database representation of a custody record.
// Token columns are nullable until the asset is minted.
type CustodyRecord struct {
	AssetID       string           `json:"assetID"`
	Status        CustodyStatus    `json:"status"`
	VaultRef      string           `json:"vaultRef"`
	Blockchain    *string          `json:"blockchain,omitempty"`
	TokenStandard *string          `json:"tokenStandard,omitempty"`
	TokenAddress  *string          `json:"tokenAddress,omitempty"`
	TokenID       *string          `json:"tokenID,omitempty"`
	TokenQuantity *decimal.Decimal `json:"tokenQuantity,omitempty"`
	LinkedAt      *time.Time       `json:"linkedAt,omitempty"`
	MintedAt      *time.Time       `json:"mintedAt,omitempty"`
	WithdrawnAt   *time.Time       `json:"withdrawnAt,omitempty"`
	BurnedAt      *time.Time       `json:"burnedAt,omitempty"`
	AuditFields
}

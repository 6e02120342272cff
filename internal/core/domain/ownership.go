package domain

import "github.com/shopspring/decimal"

// Ownership records how much of an asset an owner holds.
// Keyed by (assetID, ownerID).
type Ownership struct {
	AssetID  string          `json:"assetID"`
	OwnerID  string          `json:"ownerID"`
	Quantity decimal.Decimal `json:"quantity"`
	AuditFields
}

// Balance records an owner's funds in a single currency.
// Keyed by (ownerID, currency). Amounts are signed decimals.
type Balance struct {
	OwnerID  string          `json:"ownerID"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	AuditFields
}

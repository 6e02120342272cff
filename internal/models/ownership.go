package models

import "github.com/shopspring/decimal"

// Ownership is the database representation of an (asset, owner) holding.
type Ownership struct {
	AssetID  string          `json:"assetID"`
	OwnerID  string          `json:"ownerID"`
	Quantity decimal.Decimal `json:"quantity"`
	AuditFields
}

// Balance is the database representation of an (owner, currency) balance.
type Balance struct {
	OwnerID  string          `json:"ownerID"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	AuditFields
}

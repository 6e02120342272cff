package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus mirrors domain.ListingStatus at the persistence layer.
type ListingStatus string

// Listing is the database representation of a marketplace listing.
type Listing struct {
	ListingID string           `json:"listingID"`
	AssetID   string           `json:"assetID"`
	SellerID  string           `json:"sellerID"`
	Price     decimal.Decimal  `json:"price"`
	Currency  string           `json:"currency"`
	Status    ListingStatus    `json:"status"`
	SoldPrice *decimal.Decimal `json:"soldPrice,omitempty"`
	ExpiresAt time.Time        `json:"expiresAt"`
	AuditFields
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the lifecycle state of a marketplace listing.
type ListingStatus string

const (
	ListingActive    ListingStatus = "ACTIVE"
	ListingSold      ListingStatus = "SOLD"
	ListingCancelled ListingStatus = "CANCELLED"
	ListingExpired   ListingStatus = "EXPIRED"
)

// IsTerminal reports whether the listing can no longer change state.
func (s ListingStatus) IsTerminal() bool {
	return s == ListingSold || s == ListingCancelled || s == ListingExpired
}

// Listing is an offer to sell a minted custody position.
type Listing struct {
	ListingID string          `json:"listingID"` // Primary Key (UUID)
	AssetID   string          `json:"assetID"`   // FK -> CustodyRecord.assetID
	SellerID  string          `json:"sellerID"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Status    ListingStatus   `json:"status"`
	SoldPrice *decimal.Decimal `json:"soldPrice,omitempty"` // Final sale price once SOLD
	ExpiresAt time.Time       `json:"expiresAt"`
	AuditFields
}

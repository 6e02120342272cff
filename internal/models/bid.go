package models

import "github.com/shopspring/decimal"

// BidStatus mirrors domain.BidStatus at the persistence layer.
type BidStatus string

// Bid is the database representation of a marketplace bid.
type Bid struct {
	BidID     string          `json:"bidID"`
	ListingID string          `json:"listingID"`
	BuyerID   string          `json:"buyerID"`
	Amount    decimal.Decimal `json:"amount"`
	Status    BidStatus       `json:"status"`
	AuditFields
}

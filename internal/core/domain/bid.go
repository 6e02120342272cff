package domain

import "github.com/shopspring/decimal"

// BidStatus is the lifecycle state of a bid against a listing.
type BidStatus string

const (
	BidPending  BidStatus = "PENDING"
	BidAccepted BidStatus = "ACCEPTED"
	BidRejected BidStatus = "REJECTED"
)

// Bid is a counter-offer a buyer places against an active listing.
type Bid struct {
	BidID     string          `json:"bidID"`     // Primary Key (UUID)
	ListingID string          `json:"listingID"` // FK -> Listing.listingID
	BuyerID   string          `json:"buyerID"`
	Amount    decimal.Decimal `json:"amount"`
	Status    BidStatus       `json:"status"`
	AuditFields
}

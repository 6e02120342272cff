package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// CreateListingRequest lists a minted custody position for sale.
type CreateListingRequest struct {
	AssetID   string          `json:"assetID" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"required"`
	Currency  string          `json:"currency" binding:"required,len=3"`
	ExpiresAt time.Time       `json:"expiresAt" binding:"required"`
}

// PlaceBidRequest places a bid against a listing.
type PlaceBidRequest struct {
	ListingID string          `json:"listingID" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
}

// DepositRequest credits the caller's balance.
type DepositRequest struct {
	Currency string          `json:"currency" binding:"required,len=3"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

// ListingResponse defines the data returned for a listing.
type ListingResponse struct {
	ListingID string           `json:"listingID"`
	AssetID   string           `json:"assetID"`
	SellerID  string           `json:"sellerID"`
	Price     decimal.Decimal  `json:"price"`
	Currency  string           `json:"currency"`
	Status    string           `json:"status"`
	SoldPrice *decimal.Decimal `json:"soldPrice,omitempty"`
	ExpiresAt time.Time        `json:"expiresAt"`
	CreatedAt time.Time        `json:"createdAt"`
}

// BidResponse defines the data returned for a bid.
type BidResponse struct {
	BidID     string          `json:"bidID"`
	ListingID string          `json:"listingID"`
	BuyerID   string          `json:"buyerID"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GetListingResponse combines a listing with its bids.
type GetListingResponse struct {
	Listing ListingResponse `json:"listing"`
	Bids    []BidResponse   `json:"bids"`
}

// BalanceResponse defines the data returned for a balance.
type BalanceResponse struct {
	OwnerID  string          `json:"ownerID"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// ToListingResponse converts a domain.Listing to ListingResponse.
func ToListingResponse(l *domain.Listing) ListingResponse {
	return ListingResponse{
		ListingID: l.ListingID,
		AssetID:   l.AssetID,
		SellerID:  l.SellerID,
		Price:     l.Price,
		Currency:  l.Currency,
		Status:    string(l.Status),
		SoldPrice: l.SoldPrice,
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt,
	}
}

// ToBidResponse converts a domain.Bid to BidResponse.
func ToBidResponse(b *domain.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		ListingID: b.ListingID,
		BuyerID:   b.BuyerID,
		Amount:    b.Amount,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
}

// ToBidResponses converts a slice of domain.Bid to responses.
func ToBidResponses(bids []domain.Bid) []BidResponse {
	responses := make([]BidResponse, len(bids))
	for i := range bids {
		responses[i] = ToBidResponse(&bids[i])
	}
	return responses
}

// ToBalanceResponse converts a domain.Balance to BalanceResponse.
func ToBalanceResponse(b *domain.Balance) BalanceResponse {
	return BalanceResponse{
		OwnerID:  b.OwnerID,
		Currency: b.Currency,
		Amount:   b.Amount,
	}
}

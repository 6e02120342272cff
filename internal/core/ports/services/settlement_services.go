package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/dto"
)

// SettlementSvcFacade exposes the off-chain marketplace: listings, bids and
// the atomic trade settlement triggered by bid acceptance.
type SettlementSvcFacade interface {
	// CreateListing lists a minted custody position for sale.
	CreateListing(ctx context.Context, req dto.CreateListingRequest, sellerID string) (*domain.Listing, error)

	// CancelListing cancels an active listing; seller only.
	CancelListing(ctx context.Context, listingID, sellerID string) error

	// GetListing retrieves a listing together with its bids.
	GetListing(ctx context.Context, listingID string) (*domain.Listing, []domain.Bid, error)

	// PlaceBid places a PENDING bid against an active listing.
	PlaceBid(ctx context.Context, req dto.PlaceBidRequest, buyerID string) (*domain.Bid, error)

	// AcceptBid settles the trade: ownership transfer, balance movement,
	// listing SOLD and bid ACCEPTED as one atomic unit. Seller only.
	AcceptBid(ctx context.Context, bidID, sellerID string) error

	// RejectBid rejects a pending bid; seller only.
	RejectBid(ctx context.Context, bidID, sellerID string) error

	// Deposit credits the owner's balance in a currency.
	Deposit(ctx context.Context, ownerID, currency string, amount decimal.Decimal) (*domain.Balance, error)

	// GetBalance retrieves the owner's balance in a currency.
	GetBalance(ctx context.Context, ownerID, currency string) (*domain.Balance, error)

	// ExpireListings moves every over-due ACTIVE listing to EXPIRED and
	// returns how many were transitioned. Safe to run repeatedly.
	ExpireListings(ctx context.Context) (int, error)
}

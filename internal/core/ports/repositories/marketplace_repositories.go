package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// SettleTradeParams carries the identities and amount of a bid-acceptance
// settlement. The repository re-validates every precondition under row locks
// before applying any effect.
type SettleTradeParams struct {
	ListingID string
	BidID     string
	SellerID  string
	BuyerID   string
	AssetID   string
	Amount    decimal.Decimal
	Currency  string
	ActorID   string
	Now       time.Time
}

// ListingReader defines read operations for marketplace listings
type ListingReader interface {
	// FindListingByID retrieves a listing by its unique identifier.
	FindListingByID(ctx context.Context, listingID string) (*domain.Listing, error)

	// ListListingsByAssetID retrieves all listings for an asset, newest first.
	ListListingsByAssetID(ctx context.Context, assetID string) ([]domain.Listing, error)
}

// ListingWriter defines write operations for marketplace listings
type ListingWriter interface {
	// CreateListing persists an ACTIVE listing with its audit entry.
	CreateListing(ctx context.Context, listing domain.Listing, entry domain.AuditLogEntry) error

	// CancelListing moves ACTIVE -> CANCELLED; returns apperrors.ErrConflict if
	// the listing is no longer active.
	CancelListing(ctx context.Context, listingID, actorID string, now time.Time, entry domain.AuditLogEntry) error

	// ExpireListings moves every ACTIVE listing whose expiry is before asOf to
	// EXPIRED, appending one audit entry per listing, all in one transaction.
	// It returns the IDs of the listings it transitioned and is idempotent.
	ExpireListings(ctx context.Context, asOf time.Time) ([]string, error)
}

// BidReader defines read operations for bids
type BidReader interface {
	// FindBidByID retrieves a bid by its unique identifier.
	FindBidByID(ctx context.Context, bidID string) (*domain.Bid, error)

	// ListBidsByListingID retrieves all bids against a listing, newest first.
	ListBidsByListingID(ctx context.Context, listingID string) ([]domain.Bid, error)
}

// BidWriter defines write operations for bids
type BidWriter interface {
	// CreateBid persists a PENDING bid with its audit entry.
	CreateBid(ctx context.Context, bid domain.Bid, entry domain.AuditLogEntry) error

	// MarkBidRejected moves PENDING -> REJECTED; returns apperrors.ErrConflict
	// if the bid is no longer pending.
	MarkBidRejected(ctx context.Context, bidID, actorID string, now time.Time, entry domain.AuditLogEntry) error
}

// LedgerReader defines read operations for ownership and balances
type LedgerReader interface {
	// GetOwnership retrieves the ownership row for (assetID, ownerID).
	GetOwnership(ctx context.Context, assetID, ownerID string) (*domain.Ownership, error)

	// GetBalance retrieves the balance row for (ownerID, currency).
	GetBalance(ctx context.Context, ownerID, currency string) (*domain.Balance, error)
}

// LedgerWriter defines write operations for ownership and balances
type LedgerWriter interface {
	// DepositBalance credits (ownerID, currency) by amount, creating the row if
	// needed, together with its audit entry.
	DepositBalance(ctx context.Context, ownerID, currency string, amount decimal.Decimal, actorID string, now time.Time, entry domain.AuditLogEntry) error
}

// TradeSettler performs the atomic five-effect bid-acceptance commit:
// ownership reassignment, buyer debit, seller credit, listing -> SOLD,
// bid -> ACCEPTED, plus the audit entries, all applied together or not at all.
type TradeSettler interface {
	SettleTrade(ctx context.Context, params SettleTradeParams) error
}

// MarketplaceRepositoryFacade combines all marketplace repository interfaces
type MarketplaceRepositoryFacade interface {
	ListingReader
	ListingWriter
	BidReader
	BidWriter
	LedgerReader
	LedgerWriter
	TradeSettler
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/dto"
)

// settlementService runs the off-chain marketplace: listings, bids and the
// atomic trade settlement triggered by bid acceptance.
type settlementService struct {
	BaseService
	marketplaceRepo portsrepo.MarketplaceRepositoryFacade
	custodyRepo     portsrepo.CustodyRecordRepositoryFacade
}

// NewSettlementService creates a new settlement service.
func NewSettlementService(
	marketplaceRepo portsrepo.MarketplaceRepositoryFacade,
	custodyRepo portsrepo.CustodyRecordRepositoryFacade,
) portssvc.SettlementSvcFacade {
	return &settlementService{
		marketplaceRepo: marketplaceRepo,
		custodyRepo:     custodyRepo,
	}
}

var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

// CreateListing lists a minted custody position for sale. The seller must
// currently own the asset and the asset must be MINTED.
func (s *settlementService) CreateListing(ctx context.Context, req dto.CreateListingRequest, sellerID string) (*domain.Listing, error) {
	if !req.Price.IsPositive() {
		return nil, apperrors.NewAppError(400, "listing price must be positive", apperrors.ErrValidation)
	}
	now := time.Now().UTC()
	if !req.ExpiresAt.After(now) {
		return nil, apperrors.NewAppError(400, "listing expiry must be in the future", apperrors.ErrValidation)
	}

	record, err := s.custodyRepo.FindCustodyRecordByID(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.CustodyMinted {
		return nil, apperrors.NewAppError(422,
			fmt.Sprintf("asset %s is %s; only minted assets can be listed", req.AssetID, record.Status),
			apperrors.ErrPrecondition)
	}

	if _, err := s.marketplaceRepo.GetOwnership(ctx, req.AssetID, sellerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotOwner
		}
		return nil, err
	}

	existing, err := s.marketplaceRepo.ListListingsByAssetID(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}
	for _, l := range existing {
		if l.Status == domain.ListingActive {
			return nil, apperrors.NewAppError(409, "asset already has an active listing", apperrors.ErrDuplicate)
		}
	}

	listing := domain.Listing{
		ListingID: uuid.NewString(),
		AssetID:   req.AssetID,
		SellerID:  sellerID,
		Price:     req.Price,
		Currency:  req.Currency,
		Status:    domain.ListingActive,
		ExpiresAt: req.ExpiresAt.UTC(),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     sellerID,
			LastUpdatedAt: now,
			LastUpdatedBy: sellerID,
		},
	}

	assetID := req.AssetID
	entry := domain.AuditLogEntry{
		EntryID:   uuid.NewString(),
		EventType: domain.AuditListingCreated,
		ActorID:   sellerID,
		AssetID:   &assetID,
		Metadata: map[string]any{
			"listingID": listing.ListingID,
			"price":     req.Price.String(),
			"currency":  req.Currency,
		},
		CreatedAt: now,
	}

	if err := s.marketplaceRepo.CreateListing(ctx, listing, entry); err != nil {
		s.LogError(ctx, err, "failed to create listing", "asset_id", req.AssetID)
		return nil, err
	}

	s.LogInfo(ctx, "listing created", "listing_id", listing.ListingID, "asset_id", req.AssetID)
	return &listing, nil
}

// CancelListing cancels an active listing; seller only.
func (s *settlementService) CancelListing(ctx context.Context, listingID, sellerID string) error {
	listing, err := s.marketplaceRepo.FindListingByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != sellerID {
		return apperrors.ErrNotOwner
	}

	now := time.Now().UTC()
	assetID := listing.AssetID
	entry := domain.AuditLogEntry{
		EntryID:   uuid.NewString(),
		EventType: domain.AuditListingCancelled,
		ActorID:   sellerID,
		AssetID:   &assetID,
		Metadata:  map[string]any{"listingID": listingID},
		CreatedAt: now,
	}
	if err := s.marketplaceRepo.CancelListing(ctx, listingID, sellerID, now, entry); err != nil {
		s.LogError(ctx, err, "failed to cancel listing", "listing_id", listingID)
		return err
	}

	s.LogInfo(ctx, "listing cancelled", "listing_id", listingID)
	return nil
}

// GetListing retrieves a listing together with its bids.
func (s *settlementService) GetListing(ctx context.Context, listingID string) (*domain.Listing, []domain.Bid, error) {
	listing, err := s.marketplaceRepo.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	bids, err := s.marketplaceRepo.ListBidsByListingID(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	return listing, bids, nil
}

// PlaceBid places a PENDING bid against an active listing.
func (s *settlementService) PlaceBid(ctx context.Context, req dto.PlaceBidRequest, buyerID string) (*domain.Bid, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.NewAppError(400, "bid amount must be positive", apperrors.ErrValidation)
	}

	listing, err := s.marketplaceRepo.FindListingByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if listing.Status != domain.ListingActive || !listing.ExpiresAt.After(now) {
		return nil, apperrors.NewAppError(422, "listing is not open for bids", apperrors.ErrPrecondition)
	}
	if listing.SellerID == buyerID {
		return nil, apperrors.NewAppError(422, "seller cannot bid on their own listing", apperrors.ErrValidation)
	}

	// No hold is taken; the balance is re-verified under lock at acceptance.
	balance, err := s.GetBalance(ctx, buyerID, listing.Currency)
	if err != nil {
		return nil, err
	}
	if balance.Amount.LessThan(req.Amount) {
		return nil, apperrors.ErrInsufficientFunds
	}

	bid := domain.Bid{
		BidID:     uuid.NewString(),
		ListingID: req.ListingID,
		BuyerID:   buyerID,
		Amount:    req.Amount,
		Status:    domain.BidPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     buyerID,
			LastUpdatedAt: now,
			LastUpdatedBy: buyerID,
		},
	}

	assetID := listing.AssetID
	entry := domain.AuditLogEntry{
		EntryID:   uuid.NewString(),
		EventType: domain.AuditBidPlaced,
		ActorID:   buyerID,
		AssetID:   &assetID,
		Metadata: map[string]any{
			"bidID":     bid.BidID,
			"listingID": req.ListingID,
			"amount":    req.Amount.String(),
		},
		CreatedAt: now,
	}

	if err := s.marketplaceRepo.CreateBid(ctx, bid, entry); err != nil {
		s.LogError(ctx, err, "failed to place bid", "listing_id", req.ListingID)
		return nil, err
	}

	s.LogInfo(ctx, "bid placed", "bid_id", bid.BidID, "listing_id", req.ListingID)
	return &bid, nil
}

// AcceptBid settles the trade atomically. All five effects (ownership
// transfer, buyer debit, seller credit, listing SOLD, bid ACCEPTED) commit
// together or not at all; preconditions are re-verified under row locks inside
// the settlement transaction.
func (s *settlementService) AcceptBid(ctx context.Context, bidID, sellerID string) error {
	bid, err := s.marketplaceRepo.FindBidByID(ctx, bidID)
	if err != nil {
		return err
	}
	listing, err := s.marketplaceRepo.FindListingByID(ctx, bid.ListingID)
	if err != nil {
		return err
	}
	if listing.SellerID != sellerID {
		return apperrors.ErrNotOwner
	}
	if bid.Status != domain.BidPending {
		return apperrors.NewAppError(422, "bid is not pending", apperrors.ErrPrecondition)
	}
	if listing.Status != domain.ListingActive {
		return apperrors.NewAppError(422, "listing is not active", apperrors.ErrPrecondition)
	}

	params := portsrepo.SettleTradeParams{
		ListingID: listing.ListingID,
		BidID:     bid.BidID,
		SellerID:  sellerID,
		BuyerID:   bid.BuyerID,
		AssetID:   listing.AssetID,
		Amount:    bid.Amount,
		Currency:  listing.Currency,
		ActorID:   sellerID,
		Now:       time.Now().UTC(),
	}
	if err := s.marketplaceRepo.SettleTrade(ctx, params); err != nil {
		s.LogError(ctx, err, "trade settlement failed", "bid_id", bidID, "listing_id", listing.ListingID)
		return err
	}

	s.LogInfo(ctx, "trade settled",
		"bid_id", bidID, "listing_id", listing.ListingID,
		"asset_id", listing.AssetID, "amount", bid.Amount.String())
	return nil
}

// RejectBid rejects a pending bid; seller only.
func (s *settlementService) RejectBid(ctx context.Context, bidID, sellerID string) error {
	bid, err := s.marketplaceRepo.FindBidByID(ctx, bidID)
	if err != nil {
		return err
	}
	listing, err := s.marketplaceRepo.FindListingByID(ctx, bid.ListingID)
	if err != nil {
		return err
	}
	if listing.SellerID != sellerID {
		return apperrors.ErrNotOwner
	}

	now := time.Now().UTC()
	assetID := listing.AssetID
	entry := domain.AuditLogEntry{
		EntryID:   uuid.NewString(),
		EventType: domain.AuditBidRejected,
		ActorID:   sellerID,
		AssetID:   &assetID,
		Metadata:  map[string]any{"bidID": bidID, "listingID": listing.ListingID},
		CreatedAt: now,
	}
	if err := s.marketplaceRepo.MarkBidRejected(ctx, bidID, sellerID, now, entry); err != nil {
		s.LogError(ctx, err, "failed to reject bid", "bid_id", bidID)
		return err
	}

	s.LogInfo(ctx, "bid rejected", "bid_id", bidID)
	return nil
}

// Deposit credits the owner's balance in a currency.
func (s *settlementService) Deposit(ctx context.Context, ownerID, currency string, amount decimal.Decimal) (*domain.Balance, error) {
	if !amount.IsPositive() {
		return nil, apperrors.NewAppError(400, "deposit amount must be positive", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	entry := domain.AuditLogEntry{
		EntryID:   uuid.NewString(),
		EventType: domain.AuditBalanceDeposited,
		ActorID:   ownerID,
		Metadata: map[string]any{
			"currency": currency,
			"amount":   amount.String(),
		},
		CreatedAt: now,
	}
	if err := s.marketplaceRepo.DepositBalance(ctx, ownerID, currency, amount, ownerID, now, entry); err != nil {
		s.LogError(ctx, err, "failed to deposit balance", "owner_id", ownerID, "currency", currency)
		return nil, err
	}

	return s.GetBalance(ctx, ownerID, currency)
}

// GetBalance retrieves the owner's balance in a currency. An owner who never
// deposited has a zero balance, not a missing one.
func (s *settlementService) GetBalance(ctx context.Context, ownerID, currency string) (*domain.Balance, error) {
	balance, err := s.marketplaceRepo.GetBalance(ctx, ownerID, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.Balance{OwnerID: ownerID, Currency: currency, Amount: decimal.Zero}, nil
		}
		return nil, err
	}
	return balance, nil
}

// ExpireListings moves every over-due ACTIVE listing to EXPIRED.
func (s *settlementService) ExpireListings(ctx context.Context) (int, error) {
	ids, err := s.marketplaceRepo.ExpireListings(ctx, time.Now().UTC())
	if err != nil {
		s.LogError(ctx, err, "listing expiry sweep failed")
		return 0, err
	}
	if len(ids) > 0 {
		s.LogInfo(ctx, "expired listings", "count", len(ids))
	}
	return len(ids), nil
}

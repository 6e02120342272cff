package mapping

import (
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/models"
)

// ToModelListing converts a domain Listing to a model Listing
func ToModelListing(d domain.Listing) models.Listing {
	return models.Listing{
		ListingID:   d.ListingID,
		AssetID:     d.AssetID,
		SellerID:    d.SellerID,
		Price:       d.Price,
		Currency:    d.Currency,
		Status:      models.ListingStatus(d.Status),
		SoldPrice:   d.SoldPrice,
		ExpiresAt:   d.ExpiresAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainListing converts a model Listing to a domain Listing
func ToDomainListing(m models.Listing) domain.Listing {
	return domain.Listing{
		ListingID:   m.ListingID,
		AssetID:     m.AssetID,
		SellerID:    m.SellerID,
		Price:       m.Price,
		Currency:    m.Currency,
		Status:      domain.ListingStatus(m.Status),
		SoldPrice:   m.SoldPrice,
		ExpiresAt:   m.ExpiresAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainListingSlice converts a slice of model Listings to domain Listings
func ToDomainListingSlice(ms []models.Listing) []domain.Listing {
	ds := make([]domain.Listing, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainListing(m)
	}
	return ds
}

// ToModelBid converts a domain Bid to a model Bid
func ToModelBid(d domain.Bid) models.Bid {
	return models.Bid{
		BidID:       d.BidID,
		ListingID:   d.ListingID,
		BuyerID:     d.BuyerID,
		Amount:      d.Amount,
		Status:      models.BidStatus(d.Status),
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBid converts a model Bid to a domain Bid
func ToDomainBid(m models.Bid) domain.Bid {
	return domain.Bid{
		BidID:       m.BidID,
		ListingID:   m.ListingID,
		BuyerID:     m.BuyerID,
		Amount:      m.Amount,
		Status:      domain.BidStatus(m.Status),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBidSlice converts a slice of model Bids to domain Bids
func ToDomainBidSlice(ms []models.Bid) []domain.Bid {
	ds := make([]domain.Bid, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBid(m)
	}
	return ds
}

// ToDomainOwnership converts a model Ownership to a domain Ownership
func ToDomainOwnership(m models.Ownership) domain.Ownership {
	return domain.Ownership{
		AssetID:     m.AssetID,
		OwnerID:     m.OwnerID,
		Quantity:    m.Quantity,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBalance converts a model Balance to a domain Balance
func ToDomainBalance(m models.Balance) domain.Balance {
	return domain.Balance{
		OwnerID:     m.OwnerID,
		Currency:    m.Currency,
		Amount:      m.Amount,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

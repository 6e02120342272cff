package pgsql

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// tradeSnapshot captures the rows SettleTrade holds locks on: the listing and
// bid states, both parties' balances and the seller's ownership quantity.
type tradeSnapshot struct {
	ListingStatus    string
	ListingExpiresAt time.Time
	BidStatus        string
	BuyerBalance     decimal.Decimal
	SellerBalance    decimal.Decimal
	SellerQuantity   decimal.Decimal
}

// tradePlan holds the post-settlement state computed from a snapshot. The
// balances are absolute values; SettleTrade writes them as-is while the rows
// stay locked.
type tradePlan struct {
	BuyerBalance  decimal.Decimal
	SellerBalance decimal.Decimal
	SoldPrice     decimal.Decimal
}

// planTrade re-validates a bid acceptance against the locked snapshot and
// computes the resulting balances. Any rejection leaves the snapshot
// untouched, so a concurrent cancel, expiry or competing acceptance makes the
// whole settlement a no-op. The sum of the two balances is preserved: the
// buyer loses exactly what the seller gains.
func planTrade(snap tradeSnapshot, amount decimal.Decimal, now time.Time) (*tradePlan, error) {
	if snap.ListingStatus != string(domain.ListingActive) || !snap.ListingExpiresAt.After(now) {
		return nil, apperrors.ErrConflict
	}
	if snap.BidStatus != string(domain.BidPending) {
		return nil, apperrors.ErrConflict
	}
	if snap.BuyerBalance.LessThan(amount) {
		return nil, apperrors.ErrInsufficientFunds
	}
	if !snap.SellerQuantity.IsPositive() {
		return nil, apperrors.ErrPrecondition
	}
	return &tradePlan{
		BuyerBalance:  snap.BuyerBalance.Sub(amount),
		SellerBalance: snap.SellerBalance.Add(amount),
		SoldPrice:     amount,
	}, nil
}

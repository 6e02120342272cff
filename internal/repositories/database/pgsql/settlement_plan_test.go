package pgsql

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

func activeSnapshot(now time.Time) tradeSnapshot {
	return tradeSnapshot{
		ListingStatus:    string(domain.ListingActive),
		ListingExpiresAt: now.Add(time.Hour),
		BidStatus:        string(domain.BidPending),
		BuyerBalance:     decimal.NewFromInt(200),
		SellerBalance:    decimal.NewFromInt(50),
		SellerQuantity:   decimal.NewFromInt(1),
	}
}

func TestPlanTrade_ConservesBalances(t *testing.T) {
	now := time.Now().UTC()
	snap := activeSnapshot(now)
	amount := decimal.NewFromInt(95)

	plan, err := planTrade(snap, amount, now)

	require.NoError(t, err)
	assert.True(t, plan.BuyerBalance.Equal(decimal.NewFromInt(105)))
	assert.True(t, plan.SellerBalance.Equal(decimal.NewFromInt(145)))
	assert.True(t, plan.SoldPrice.Equal(amount))

	before := snap.BuyerBalance.Add(snap.SellerBalance)
	after := plan.BuyerBalance.Add(plan.SellerBalance)
	assert.True(t, after.Equal(before), "settlement must neither create nor destroy funds")
}

func TestPlanTrade_ExactBalanceSpendsToZero(t *testing.T) {
	now := time.Now().UTC()
	snap := activeSnapshot(now)
	snap.BuyerBalance = decimal.NewFromInt(95)

	plan, err := planTrade(snap, decimal.NewFromInt(95), now)

	require.NoError(t, err)
	assert.True(t, plan.BuyerBalance.IsZero())
}

func TestPlanTrade_Rejections(t *testing.T) {
	now := time.Now().UTC()
	amount := decimal.NewFromInt(95)

	tests := []struct {
		name    string
		mutate  func(*tradeSnapshot)
		wantErr error
	}{
		{
			name:    "listing already sold to another bidder",
			mutate:  func(s *tradeSnapshot) { s.ListingStatus = string(domain.ListingSold) },
			wantErr: apperrors.ErrConflict,
		},
		{
			name:    "listing cancelled",
			mutate:  func(s *tradeSnapshot) { s.ListingStatus = string(domain.ListingCancelled) },
			wantErr: apperrors.ErrConflict,
		},
		{
			name:    "listing expired",
			mutate:  func(s *tradeSnapshot) { s.ListingExpiresAt = now.Add(-time.Minute) },
			wantErr: apperrors.ErrConflict,
		},
		{
			name:    "bid already accepted",
			mutate:  func(s *tradeSnapshot) { s.BidStatus = string(domain.BidAccepted) },
			wantErr: apperrors.ErrConflict,
		},
		{
			name:    "bid rejected",
			mutate:  func(s *tradeSnapshot) { s.BidStatus = string(domain.BidRejected) },
			wantErr: apperrors.ErrConflict,
		},
		{
			name:    "buyer cannot cover the bid",
			mutate:  func(s *tradeSnapshot) { s.BuyerBalance = decimal.NewFromInt(94) },
			wantErr: apperrors.ErrInsufficientFunds,
		},
		{
			name:    "seller no longer holds the asset",
			mutate:  func(s *tradeSnapshot) { s.SellerQuantity = decimal.Zero },
			wantErr: apperrors.ErrPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := activeSnapshot(now)
			tt.mutate(&snap)

			plan, err := planTrade(snap, amount, now)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, plan)
		})
	}
}

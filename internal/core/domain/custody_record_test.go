package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

func TestCustodyStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from domain.CustodyStatus
		to   domain.CustodyStatus
		want bool
	}{
		{name: "unlinked to linked", from: domain.CustodyUnlinked, to: domain.CustodyLinked, want: true},
		{name: "linked to minted", from: domain.CustodyLinked, to: domain.CustodyMinted, want: true},
		{name: "minted to burned", from: domain.CustodyMinted, to: domain.CustodyBurned, want: true},
		{name: "minted to withdrawn", from: domain.CustodyMinted, to: domain.CustodyWithdrawn, want: true},
		{name: "linked to burned skips mint", from: domain.CustodyLinked, to: domain.CustodyBurned, want: false},
		{name: "no backwards move", from: domain.CustodyMinted, to: domain.CustodyLinked, want: false},
		{name: "burned is terminal", from: domain.CustodyBurned, to: domain.CustodyMinted, want: false},
		{name: "withdrawn is terminal", from: domain.CustodyWithdrawn, to: domain.CustodyBurned, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCustodyStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.CustodyWithdrawn.IsTerminal())
	assert.True(t, domain.CustodyBurned.IsTerminal())
	assert.False(t, domain.CustodyUnlinked.IsTerminal())
	assert.False(t, domain.CustodyLinked.IsTerminal())
	assert.False(t, domain.CustodyMinted.IsTerminal())
}

func TestOperationType_RequiredCustodyStatus(t *testing.T) {
	tests := []struct {
		name   string
		opType domain.OperationType
		want   domain.CustodyStatus
		ok     bool
	}{
		{name: "mint requires linked", opType: domain.OperationMint, want: domain.CustodyLinked, ok: true},
		{name: "transfer requires minted", opType: domain.OperationTransfer, want: domain.CustodyMinted, ok: true},
		{name: "burn requires minted", opType: domain.OperationBurn, want: domain.CustodyMinted, ok: true},
		{name: "unknown type", opType: domain.OperationType("MELT"), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.opType.RequiredCustodyStatus()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestOperationStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.OperationExecuted.IsTerminal())
	assert.True(t, domain.OperationRejected.IsTerminal())
	assert.True(t, domain.OperationFailed.IsTerminal())
	assert.False(t, domain.OperationPendingChecker.IsTerminal())
	assert.False(t, domain.OperationApproved.IsTerminal())
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustodyStatus indicates where an asset sits in its custody lifecycle.
type CustodyStatus string

const (
	CustodyUnlinked  CustodyStatus = "UNLINKED"
	CustodyLinked    CustodyStatus = "LINKED"
	CustodyMinted    CustodyStatus = "MINTED"
	CustodyWithdrawn CustodyStatus = "WITHDRAWN"
	CustodyBurned    CustodyStatus = "BURNED"
)

// IsTerminal reports whether no further custody transition is reachable.
func (s CustodyStatus) IsTerminal() bool {
	return s == CustodyWithdrawn || s == CustodyBurned
}

// custodyTransitions is the strict forward lattice of allowed status moves.
var custodyTransitions = map[CustodyStatus][]CustodyStatus{
	CustodyUnlinked: {CustodyLinked},
	CustodyLinked:   {CustodyMinted},
	CustodyMinted:   {CustodyWithdrawn, CustodyBurned},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s CustodyStatus) CanTransitionTo(next CustodyStatus) bool {
	for _, allowed := range custodyTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TokenInfo holds the on-chain token details recorded once an asset is minted.
type TokenInfo struct {
	Blockchain    string          `json:"blockchain"`
	TokenStandard string          `json:"tokenStandard"`
	TokenAddress  string          `json:"tokenAddress"`
	TokenID       string          `json:"tokenID"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// CustodyRecord tracks the custody state of a single real-world asset.
// Records are created on asset linking and never deleted; only the operation
// state machine and the execution monitor mutate them after creation.
type CustodyRecord struct {
	AssetID     string        `json:"assetID"` // Primary Key, unique per asset
	Status      CustodyStatus `json:"status"`
	VaultRef    string        `json:"vaultRef"` // Provider-side vault reference
	Token       *TokenInfo    `json:"token,omitempty"`
	LinkedAt    *time.Time    `json:"linkedAt,omitempty"`
	MintedAt    *time.Time    `json:"mintedAt,omitempty"`
	WithdrawnAt *time.Time    `json:"withdrawnAt,omitempty"`
	BurnedAt    *time.Time    `json:"burnedAt,omitempty"`
	AuditFields
}

package domain

import "time"

// AuditEventType classifies audit ledger entries.
type AuditEventType string

const (
	AuditAssetLinked          AuditEventType = "ASSET_LINKED"
	AuditOperationCreated     AuditEventType = "OPERATION_CREATED"
	AuditOperationApproved    AuditEventType = "OPERATION_APPROVED"
	AuditOperationRejected    AuditEventType = "OPERATION_REJECTED"
	AuditOnChainSubmission    AuditEventType = "ON_CHAIN_SUBMISSION"
	AuditBlockPropagation     AuditEventType = "BLOCK_PROPAGATION"
	AuditFinalizingSettlement AuditEventType = "FINALIZING_SETTLEMENT"
	AuditTokenMinted          AuditEventType = "TOKEN_MINTED"
	AuditTokenTransferred     AuditEventType = "TOKEN_TRANSFERRED"
	AuditTokenBurned          AuditEventType = "TOKEN_BURNED"
	AuditOperationFailed      AuditEventType = "OPERATION_FAILED"
	AuditListingCreated       AuditEventType = "LISTING_CREATED"
	AuditListingCancelled     AuditEventType = "LISTING_CANCELLED"
	AuditListingExpired       AuditEventType = "LISTING_EXPIRED"
	AuditBidPlaced            AuditEventType = "BID_PLACED"
	AuditBidAccepted          AuditEventType = "BID_ACCEPTED"
	AuditBidRejected          AuditEventType = "BID_REJECTED"
	AuditOwnershipTransferred AuditEventType = "OWNERSHIP_TRANSFERRED"
	AuditBalanceDeposited     AuditEventType = "BALANCE_DEPOSITED"
)

// AuditLogEntry is an immutable, append-only record of a state-changing action.
// Every state change in the system must produce at least one entry, written in
// the same database transaction as the change itself.
type AuditLogEntry struct {
	EntryID     string         `json:"entryID"` // Primary Key (UUID)
	EventType   AuditEventType `json:"eventType"`
	ActorID     string         `json:"actorID"`
	OperationID *string        `json:"operationID,omitempty"`
	AssetID     *string        `json:"assetID,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

package models

import "time"

// AuditLogEntry is the database representation of an audit ledger entry.
// Metadata is stored as JSONB.
type AuditLogEntry struct {
	EntryID     string    `json:"entryID"`
	EventType   string    `json:"eventType"`
	ActorID     string    `json:"actorID"`
	OperationID *string   `json:"operationID,omitempty"`
	AssetID     *string   `json:"assetID,omitempty"`
	Metadata    []byte    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

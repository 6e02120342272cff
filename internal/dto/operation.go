package dto

import (
	"encoding/json"
	"time"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// InitiateOperationRequest is the maker's request to start a custody operation.
type InitiateOperationRequest struct {
	AssetID        string          `json:"assetID" binding:"required"`
	Type           string          `json:"type" binding:"required,oneof=MINT TRANSFER BURN"`
	Payload        json.RawMessage `json:"payload" binding:"required"`
	IdempotencyKey *string         `json:"idempotencyKey,omitempty"`
}

// RejectOperationRequest carries the checker's rejection reason.
type RejectOperationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// OperationResponse defines the data returned for an operation.
type OperationResponse struct {
	OperationID     string          `json:"operationID"`
	AssetID         string          `json:"assetID"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	InitiatedBy     string          `json:"initiatedBy"`
	ApprovedBy      *string         `json:"approvedBy,omitempty"`
	RejectedBy      *string         `json:"rejectedBy,omitempty"`
	RejectionReason *string         `json:"rejectionReason,omitempty"`
	ProviderTaskID  *string         `json:"providerTaskID,omitempty"`
	TransactionHash *string         `json:"transactionHash,omitempty"`
	FailureReason   *string         `json:"failureReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastUpdatedAt   time.Time       `json:"lastUpdatedAt"`
}

// AuditEntryResponse defines the data returned for an audit ledger entry.
type AuditEntryResponse struct {
	EntryID     string         `json:"entryID"`
	EventType   string         `json:"eventType"`
	ActorID     string         `json:"actorID"`
	OperationID *string        `json:"operationID,omitempty"`
	AssetID     *string        `json:"assetID,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// GetOperationResponse combines an operation with its chronological audit trail.
type GetOperationResponse struct {
	Operation OperationResponse    `json:"operation"`
	Audit     []AuditEntryResponse `json:"audit"`
}

// ListOperationsResponse is a paginated page of operations.
type ListOperationsResponse struct {
	Operations []OperationResponse `json:"operations"`
	NextToken  *string             `json:"nextToken,omitempty"`
}

// ToOperationResponse converts a domain.Operation to OperationResponse.
func ToOperationResponse(op *domain.Operation) OperationResponse {
	return OperationResponse{
		OperationID:     op.OperationID,
		AssetID:         op.AssetID,
		Type:            string(op.Type),
		Status:          string(op.Status),
		Payload:         op.Payload,
		InitiatedBy:     op.InitiatedBy,
		ApprovedBy:      op.ApprovedBy,
		RejectedBy:      op.RejectedBy,
		RejectionReason: op.RejectionReason,
		ProviderTaskID:  op.ProviderTaskID,
		TransactionHash: op.TransactionHash,
		FailureReason:   op.FailureReason,
		CreatedAt:       op.CreatedAt,
		LastUpdatedAt:   op.LastUpdatedAt,
	}
}

// ToOperationResponses converts a slice of domain.Operation to responses.
func ToOperationResponses(ops []domain.Operation) []OperationResponse {
	responses := make([]OperationResponse, len(ops))
	for i := range ops {
		responses[i] = ToOperationResponse(&ops[i])
	}
	return responses
}

// ToAuditEntryResponse converts a domain.AuditLogEntry to AuditEntryResponse.
func ToAuditEntryResponse(e *domain.AuditLogEntry) AuditEntryResponse {
	return AuditEntryResponse{
		EntryID:     e.EntryID,
		EventType:   string(e.EventType),
		ActorID:     e.ActorID,
		OperationID: e.OperationID,
		AssetID:     e.AssetID,
		Metadata:    e.Metadata,
		CreatedAt:   e.CreatedAt,
	}
}

// ToAuditEntryResponses converts a slice of audit entries to responses.
func ToAuditEntryResponses(entries []domain.AuditLogEntry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToAuditEntryResponse(&entries[i])
	}
	return responses
}

package models

import "encoding/json"

// OperationType mirrors domain.OperationType at the persistence layer.
type OperationType string

// OperationStatus mirrors domain.OperationStatus at the persistence layer.
type OperationStatus string

// Operation is the database representation of a custody operation.
type Operation struct {
	OperationID     string          `json:"operationID"`
	AssetID         string          `json:"assetID"`
	Type            OperationType   `json:"type"`
	Status          OperationStatus `json:"status"`
	Payload         json.RawMessage `json:"payload"`
	InitiatedBy     string          `json:"initiatedBy"`
	ApprovedBy      *string         `json:"approvedBy,omitempty"`
	RejectedBy      *string         `json:"rejectedBy,omitempty"`
	RejectionReason *string         `json:"rejectionReason,omitempty"`
	ProviderTaskID  *string         `json:"providerTaskID,omitempty"`
	TransactionHash *string         `json:"transactionHash,omitempty"`
	FailureReason   *string         `json:"failureReason,omitempty"`
	IdempotencyKey  *string         `json:"idempotencyKey,omitempty"`
	AuditFields
}

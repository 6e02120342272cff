package domain

import "encoding/json"

// OperationType is the kind of custody-changing request.
type OperationType string

const (
	OperationMint     OperationType = "MINT"
	OperationTransfer OperationType = "TRANSFER"
	OperationBurn     OperationType = "BURN"
)

// OperationStatus is the maker-checker lifecycle state of an operation.
type OperationStatus string

const (
	OperationPendingChecker OperationStatus = "PENDING_CHECKER"
	OperationApproved       OperationStatus = "APPROVED"
	OperationExecuted       OperationStatus = "EXECUTED"
	OperationRejected       OperationStatus = "REJECTED"
	OperationFailed         OperationStatus = "FAILED"
)

// IsTerminal reports whether the operation can no longer change state.
func (s OperationStatus) IsTerminal() bool {
	return s == OperationExecuted || s == OperationRejected || s == OperationFailed
}

// requiredCustodyStatus maps each operation type to the custody status the
// referenced record must currently have for the operation to be initiated.
var requiredCustodyStatus = map[OperationType]CustodyStatus{
	OperationMint:     CustodyLinked,
	OperationTransfer: CustodyMinted,
	OperationBurn:     CustodyMinted,
}

// RequiredCustodyStatus returns the custody status a record must be in before
// an operation of type t may be initiated against it.
func (t OperationType) RequiredCustodyStatus() (CustodyStatus, bool) {
	s, ok := requiredCustodyStatus[t]
	return s, ok
}

// Operation is a single mint/transfer/burn request moving through the
// approval and execution lifecycle. Terminal operations are immutable.
type Operation struct {
	OperationID     string          `json:"operationID"` // Primary Key (UUID)
	AssetID         string          `json:"assetID"`     // FK -> CustodyRecord.assetID
	Type            OperationType   `json:"type"`
	Status          OperationStatus `json:"status"`
	Payload         json.RawMessage `json:"payload"` // Operation-specific parameters, opaque to the state machine
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

// MintPayload holds the token parameters of a MINT operation.
type MintPayload struct {
	Blockchain    string `json:"blockchain"`
	TokenStandard string `json:"tokenStandard"`
	Quantity      string `json:"quantity"`
}

// TransferPayload holds the destination of a TRANSFER operation.
type TransferPayload struct {
	DestinationVaultRef string `json:"destinationVaultRef"`
}

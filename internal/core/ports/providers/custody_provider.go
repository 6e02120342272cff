package providers

import "context"

// TaskStatus is the provider-reported state of a submitted task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
	TaskRejected  TaskStatus = "REJECTED"
	TaskCancelled TaskStatus = "CANCELLED"
)

// IsTerminal reports whether the provider will not change this status again.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskRejected || s == TaskCancelled
}

// MintParams are the token parameters for a provider mint submission.
type MintParams struct {
	VaultRef      string
	Blockchain    string
	TokenStandard string
	Quantity      string
}

// TransferParams describe a provider-side custody transfer.
type TransferParams struct {
	VaultRef            string
	DestinationVaultRef string
	TokenAddress        string
	TokenID             string
}

// BurnParams describe a provider-side token burn.
type BurnParams struct {
	VaultRef     string
	TokenAddress string
	TokenID      string
}

// TaskResult is the provider's view of a task when polled.
type TaskResult struct {
	Status       TaskStatus
	TxHash       string
	TokenAddress string
	TokenID      string
	Reason       string // Populated on FAILED/REJECTED/CANCELLED
}

// CustodyProvider is the capability interface over the external MPC custody
// platform. All calls may fail with transient network errors; callers must not
// assume synchronous completion of submitted tasks.
type CustodyProvider interface {
	// SubmitMint starts an on-chain mint and returns the provider task handle.
	SubmitMint(ctx context.Context, params MintParams) (string, error)

	// SubmitTransfer starts an on-chain custody transfer and returns the task handle.
	SubmitTransfer(ctx context.Context, params TransferParams) (string, error)

	// SubmitBurn starts an on-chain burn and returns the task handle.
	SubmitBurn(ctx context.Context, params BurnParams) (string, error)

	// PollStatus queries the current state of a previously submitted task.
	PollStatus(ctx context.Context, taskID string) (*TaskResult, error)
}

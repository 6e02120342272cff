package services

import (
	"context"

	"github.com/tokencustody/token_custody_app/internal/core/domain"
)

// ExecutionMonitorSvc reconciles submitted operations with the custody
// provider. One asynchronous watcher runs per submitted operation.
type ExecutionMonitorSvc interface {
	// Watch starts a background polling loop for a submitted operation.
	// It returns immediately; the loop self-terminates on a terminal provider
	// status or when the attempt budget is exhausted.
	Watch(op domain.Operation)

	// ResumeInFlight re-attaches watchers to every operation still APPROVED
	// with a task handle, typically after a process restart.
	ResumeInFlight(ctx context.Context) error

	// Stop cancels all running watchers and waits for them to exit.
	Stop()
}

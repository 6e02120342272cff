package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
)

// FakeProvider is a deterministic in-memory custody provider for local
// development and tests. Each submitted task completes after a fixed number of
// polls; submissions whose vault reference carries a directive suffix follow a
// scripted failure path instead:
//
//	"-reject"    the provider rejects the task on its first poll
//	"-fail"      the task fails on-chain after the usual pending polls
//	"-flaky"     the first two polls return a transient error, then normal flow
type FakeProvider struct {
	mu            sync.Mutex
	pollsToFinish int
	seq           int
	tasks         map[string]*fakeTask
}

type fakeTask struct {
	kind       string
	polls      int
	reject     bool
	fail       bool
	flaky      bool
	tokenIndex int
}

// NewFakeProvider creates a fake that completes tasks after pollsToFinish polls.
func NewFakeProvider(pollsToFinish int) *FakeProvider {
	if pollsToFinish < 1 {
		pollsToFinish = 1
	}
	return &FakeProvider{
		pollsToFinish: pollsToFinish,
		tasks:         map[string]*fakeTask{},
	}
}

var _ providers.CustodyProvider = (*FakeProvider)(nil)

func (p *FakeProvider) submit(kind, vaultRef string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	taskID := fmt.Sprintf("fake-task-%06d", p.seq)
	p.tasks[taskID] = &fakeTask{
		kind:       kind,
		reject:     strings.HasSuffix(vaultRef, "-reject"),
		fail:       strings.HasSuffix(vaultRef, "-fail"),
		flaky:      strings.HasSuffix(vaultRef, "-flaky"),
		tokenIndex: p.seq,
	}
	return taskID, nil
}

// SubmitMint records a mint task and returns its handle.
func (p *FakeProvider) SubmitMint(_ context.Context, params providers.MintParams) (string, error) {
	return p.submit("mint", params.VaultRef)
}

// SubmitTransfer records a transfer task and returns its handle.
func (p *FakeProvider) SubmitTransfer(_ context.Context, params providers.TransferParams) (string, error) {
	return p.submit("transfer", params.VaultRef)
}

// SubmitBurn records a burn task and returns its handle.
func (p *FakeProvider) SubmitBurn(_ context.Context, params providers.BurnParams) (string, error) {
	return p.submit("burn", params.VaultRef)
}

// PollStatus advances the scripted task one step and reports its state.
func (p *FakeProvider) PollStatus(_ context.Context, taskID string) (*providers.TaskResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	task, ok := p.tasks[taskID]
	if !ok {
		return nil, apperrors.NewAppError(404, "unknown task "+taskID, apperrors.ErrNotFound)
	}

	task.polls++

	if task.flaky && task.polls <= 2 {
		return nil, apperrors.NewAppError(502, "simulated transient provider error", apperrors.ErrProvider)
	}

	if task.reject {
		return &providers.TaskResult{
			Status: providers.TaskRejected,
			Reason: "rejected by provider policy",
		}, nil
	}

	if task.polls < p.pollsToFinish {
		return &providers.TaskResult{Status: providers.TaskPending}, nil
	}

	if task.fail {
		return &providers.TaskResult{
			Status: providers.TaskFailed,
			Reason: "on-chain execution failed",
		}, nil
	}

	result := &providers.TaskResult{
		Status: providers.TaskCompleted,
		TxHash: fmt.Sprintf("0x%064d", task.tokenIndex),
	}
	if task.kind == "mint" {
		result.TokenAddress = fmt.Sprintf("0x%040d", task.tokenIndex)
		result.TokenID = fmt.Sprintf("%d", task.tokenIndex)
	}
	return result, nil
}

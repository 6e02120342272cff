package provider_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokencustody/token_custody_app/internal/adapters/provider"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
)

func TestFakeProvider_MintCompletesAfterConfiguredPolls(t *testing.T) {
	ctx := context.Background()
	p := provider.NewFakeProvider(3)

	taskID, err := p.SubmitMint(ctx, providers.MintParams{
		VaultRef:      "vault-main",
		Blockchain:    "ethereum",
		TokenStandard: "ERC-721",
		Quantity:      "1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	for i := 0; i < 2; i++ {
		result, err := p.PollStatus(ctx, taskID)
		require.NoError(t, err)
		assert.Equal(t, providers.TaskPending, result.Status)
	}

	result, err := p.PollStatus(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, providers.TaskCompleted, result.Status)
	assert.NotEmpty(t, result.TxHash)
	assert.NotEmpty(t, result.TokenAddress)
	assert.NotEmpty(t, result.TokenID)
}

func TestFakeProvider_TransferOmitsTokenMetadata(t *testing.T) {
	ctx := context.Background()
	p := provider.NewFakeProvider(1)

	taskID, err := p.SubmitTransfer(ctx, providers.TransferParams{
		VaultRef:            "vault-main",
		DestinationVaultRef: "vault-cold",
	})
	require.NoError(t, err)

	result, err := p.PollStatus(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, providers.TaskCompleted, result.Status)
	assert.NotEmpty(t, result.TxHash)
	assert.Empty(t, result.TokenAddress)
	assert.Empty(t, result.TokenID)
}

func TestFakeProvider_RejectDirective(t *testing.T) {
	ctx := context.Background()
	p := provider.NewFakeProvider(3)

	taskID, err := p.SubmitBurn(ctx, providers.BurnParams{VaultRef: "vault-reject"})
	require.NoError(t, err)

	result, err := p.PollStatus(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, providers.TaskRejected, result.Status)
	assert.Equal(t, "rejected by provider policy", result.Reason)
}

func TestFakeProvider_FailDirective(t *testing.T) {
	ctx := context.Background()
	p := provider.NewFakeProvider(2)

	taskID, err := p.SubmitMint(ctx, providers.MintParams{VaultRef: "vault-fail"})
	require.NoError(t, err)

	result, err := p.PollStatus(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, providers.TaskPending, result.Status)

	result, err = p.PollStatus(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, providers.TaskFailed, result.Status)
	assert.Equal(t, "on-chain execution failed", result.Reason)
}

func TestFakeProvider_FlakyDirective(t *testing.T) {
	ctx := context.Background()
	p := provider.NewFakeProvider(1)

	taskID, err := p.SubmitMint(ctx, providers.MintParams{VaultRef: "vault-flaky"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := p.PollStatus(ctx, taskID)
		require.ErrorIs(t, err, apperrors.ErrProvider)
	}

	result, err := p.PollStatus(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, providers.TaskCompleted, result.Status)
}

func TestFakeProvider_UnknownTask(t *testing.T) {
	p := provider.NewFakeProvider(1)

	_, err := p.PollStatus(context.Background(), "no-such-task")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

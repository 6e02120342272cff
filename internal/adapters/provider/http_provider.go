package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
)

// HTTPProvider talks to the external custody platform's REST API. Submissions
// return a task handle; completion is observed by polling.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates a provider client for the given endpoint.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ providers.CustodyProvider = (*HTTPProvider)(nil)

type submitResponse struct {
	TaskID string `json:"taskId"`
}

type taskStatusResponse struct {
	Status       string `json:"status"`
	TxHash       string `json:"txHash"`
	TokenAddress string `json:"tokenAddress"`
	TokenID      string `json:"tokenId"`
	Reason       string `json:"reason"`
}

func (p *HTTPProvider) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewAppError(500, "failed to encode provider request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return apperrors.NewAppError(500, "failed to build provider request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("%s %s: %w", method, path, err)
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return apperrors.NewAppError(504, "custody provider timed out", errors.Join(apperrors.ErrTimeout, wrapped))
		}
		return apperrors.NewAppError(502, "custody provider unreachable", errors.Join(apperrors.ErrProvider, wrapped))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewAppError(502, fmt.Sprintf("custody provider returned %d: %s", resp.StatusCode, string(payload)), apperrors.ErrProvider)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.NewAppError(502, "failed to decode provider response", err)
		}
	}
	return nil
}

// SubmitMint starts an on-chain mint and returns the provider task handle.
func (p *HTTPProvider) SubmitMint(ctx context.Context, params providers.MintParams) (string, error) {
	body := map[string]string{
		"vaultRef":      params.VaultRef,
		"blockchain":    params.Blockchain,
		"tokenStandard": params.TokenStandard,
		"quantity":      params.Quantity,
	}
	var resp submitResponse
	if err := p.doJSON(ctx, http.MethodPost, "/v1/tasks/mint", body, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// SubmitTransfer starts an on-chain custody transfer and returns the task handle.
func (p *HTTPProvider) SubmitTransfer(ctx context.Context, params providers.TransferParams) (string, error) {
	body := map[string]string{
		"vaultRef":            params.VaultRef,
		"destinationVaultRef": params.DestinationVaultRef,
		"tokenAddress":        params.TokenAddress,
		"tokenId":             params.TokenID,
	}
	var resp submitResponse
	if err := p.doJSON(ctx, http.MethodPost, "/v1/tasks/transfer", body, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// SubmitBurn starts an on-chain burn and returns the task handle.
func (p *HTTPProvider) SubmitBurn(ctx context.Context, params providers.BurnParams) (string, error) {
	body := map[string]string{
		"vaultRef":     params.VaultRef,
		"tokenAddress": params.TokenAddress,
		"tokenId":      params.TokenID,
	}
	var resp submitResponse
	if err := p.doJSON(ctx, http.MethodPost, "/v1/tasks/burn", body, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// PollStatus queries the current state of a previously submitted task.
func (p *HTTPProvider) PollStatus(ctx context.Context, taskID string) (*providers.TaskResult, error) {
	var resp taskStatusResponse
	if err := p.doJSON(ctx, http.MethodGet, "/v1/tasks/"+taskID, nil, &resp); err != nil {
		return nil, err
	}
	return &providers.TaskResult{
		Status:       providers.TaskStatus(resp.Status),
		TxHash:       resp.TxHash,
		TokenAddress: resp.TokenAddress,
		TokenID:      resp.TokenID,
		Reason:       resp.Reason,
	}, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokencustody/token_custody_app/internal/apperrors"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
)

// MonitorConfig tunes the execution monitor's polling behaviour.
type MonitorConfig struct {
	PollInterval  time.Duration // Delay between provider polls
	MaxAttempts   int           // Poll budget before the operation is failed
	RetryAttempts int           // Per-poll retry budget for transient errors
	RetryBackoff  time.Duration // Initial retry delay, doubled per retry
}

// DefaultMonitorConfig returns the production polling parameters.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:  10 * time.Second,
		MaxAttempts:   30,
		RetryAttempts: 3,
		RetryBackoff:  time.Second,
	}
}

// monitorService watches submitted operations until the custody provider
// reports a terminal task status or the poll budget runs out. One goroutine
// runs per watched operation; all state transitions go through the
// conditional repository updates, so a watcher that loses a race simply
// observes ErrConflict and exits.
type monitorService struct {
	operationRepo portsrepo.OperationRepositoryFacade
	auditRepo     portsrepo.AuditRepositoryFacade
	provider      providers.CustodyProvider
	cfg           MonitorConfig
	logger        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	watching map[string]bool
}

// NewMonitorService creates an execution monitor.
func NewMonitorService(
	operationRepo portsrepo.OperationRepositoryFacade,
	auditRepo portsrepo.AuditRepositoryFacade,
	provider providers.CustodyProvider,
	cfg MonitorConfig,
	logger *slog.Logger,
) portssvc.ExecutionMonitorSvc {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &monitorService{
		operationRepo: operationRepo,
		auditRepo:     auditRepo,
		provider:      provider,
		cfg:           cfg,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		watching:      map[string]bool{},
	}
}

var _ portssvc.ExecutionMonitorSvc = (*monitorService)(nil)

// Watch starts a background polling loop for a submitted operation.
func (s *monitorService) Watch(op domain.Operation) {
	if op.ProviderTaskID == nil || *op.ProviderTaskID == "" {
		s.logger.Warn("refusing to watch operation without a provider task handle",
			slog.String("operation_id", op.OperationID))
		return
	}

	s.mu.Lock()
	if s.watching[op.OperationID] {
		s.mu.Unlock()
		return
	}
	s.watching[op.OperationID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.watching, op.OperationID)
			s.mu.Unlock()
		}()
		s.run(op)
	}()
}

// ResumeInFlight re-attaches watchers to every operation still APPROVED with a
// task handle. Resumed operations get a fresh poll budget.
func (s *monitorService) ResumeInFlight(ctx context.Context) error {
	ops, err := s.operationRepo.ListSubmittedOperations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list submitted operations: %w", err)
	}
	for _, op := range ops {
		s.logger.Info("resuming execution monitor",
			slog.String("operation_id", op.OperationID),
			slog.String("task_id", *op.ProviderTaskID))
		s.Watch(op)
	}
	return nil
}

// Stop cancels all running watchers and waits for them to exit.
func (s *monitorService) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *monitorService) run(op domain.Operation) {
	logger := s.logger.With(
		slog.String("operation_id", op.OperationID),
		slog.String("asset_id", op.AssetID),
		slog.String("task_id", *op.ProviderTaskID),
	)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		select {
		case <-s.ctx.Done():
			logger.Info("monitor stopped, abandoning watch")
			return
		case <-ticker.C:
		}

		result, err := s.pollWithRetry(*op.ProviderTaskID)
		if err != nil {
			logger.Warn("provider poll failed after retries",
				slog.Int("attempt", attempt), slog.String("error", err.Error()))
			continue
		}

		if !result.Status.IsTerminal() {
			logger.Debug("task still pending", slog.Int("attempt", attempt))
			s.recordMilestone(op, attempt)
			continue
		}

		s.handleTerminal(op, result, logger)
		return
	}

	reason := fmt.Sprintf("monitoring timed out after %d attempts", s.cfg.MaxAttempts)
	s.failOperation(op, reason, logger)
}

// pollWithRetry calls the provider, retrying transient failures with a
// doubling backoff.
func (s *monitorService) pollWithRetry(taskID string) (*providers.TaskResult, error) {
	var lastErr error
	backoff := s.cfg.RetryBackoff
	for i := 0; i < s.cfg.RetryAttempts; i++ {
		if i > 0 {
			select {
			case <-s.ctx.Done():
				return nil, s.ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		result, err := s.provider.PollStatus(s.ctx, taskID)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// recordMilestone appends progress audit entries at fixed points of the poll
// budget so long-running executions stay visible in the ledger.
func (s *monitorService) recordMilestone(op domain.Operation, attempt int) {
	var eventType domain.AuditEventType
	switch attempt {
	case 3:
		eventType = domain.AuditBlockPropagation
	case 6, 11:
		eventType = domain.AuditFinalizingSettlement
	default:
		return
	}

	operationID := op.OperationID
	assetID := op.AssetID
	entry := domain.AuditLogEntry{
		EntryID:     uuid.NewString(),
		EventType:   eventType,
		ActorID:     domain.SystemActorID,
		OperationID: &operationID,
		AssetID:     &assetID,
		Metadata:    map[string]any{"attempt": attempt},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.auditRepo.AppendAuditEntry(s.ctx, entry); err != nil {
		s.logger.Warn("failed to record monitor milestone",
			slog.String("operation_id", op.OperationID), slog.String("error", err.Error()))
	}
}

func (s *monitorService) handleTerminal(op domain.Operation, result *providers.TaskResult, logger *slog.Logger) {
	switch result.Status {
	case providers.TaskCompleted:
		if err := s.markExecuted(op, result); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				logger.Info("operation already reached a terminal state, nothing to apply")
				return
			}
			logger.Error("failed to finalize executed operation", slog.String("error", err.Error()))
			return
		}
		logger.Info("operation executed", slog.String("tx_hash", result.TxHash))
	default:
		reason := result.Reason
		if reason == "" {
			reason = "provider reported task " + string(result.Status)
		}
		s.failOperation(op, reason, logger)
	}
}

// markExecuted assembles the terminal-success transition for the operation
// type and applies it atomically.
func (s *monitorService) markExecuted(op domain.Operation, result *providers.TaskResult) error {
	now := time.Now().UTC()
	operationID := op.OperationID
	assetID := op.AssetID

	params := portsrepo.ExecutedParams{
		OperationID:     op.OperationID,
		AssetID:         op.AssetID,
		TransactionHash: result.TxHash,
		Now:             now,
	}

	var eventType domain.AuditEventType
	switch op.Type {
	case domain.OperationMint:
		var p domain.MintPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return fmt.Errorf("corrupt mint payload for operation %s: %w", op.OperationID, err)
		}
		quantity, err := decimal.NewFromString(p.Quantity)
		if err != nil {
			return fmt.Errorf("corrupt mint quantity for operation %s: %w", op.OperationID, err)
		}
		params.NewCustodyStatus = domain.CustodyMinted
		params.Token = &domain.TokenInfo{
			Blockchain:    p.Blockchain,
			TokenStandard: p.TokenStandard,
			TokenAddress:  result.TokenAddress,
			TokenID:       result.TokenID,
			Quantity:      quantity,
		}
		initiator := op.InitiatedBy
		params.SeedOwnerID = &initiator
		params.SeedQuantity = &quantity
		eventType = domain.AuditTokenMinted
	case domain.OperationTransfer:
		var p domain.TransferPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return fmt.Errorf("corrupt transfer payload for operation %s: %w", op.OperationID, err)
		}
		params.NewCustodyStatus = domain.CustodyMinted
		params.NewVaultRef = &p.DestinationVaultRef
		eventType = domain.AuditTokenTransferred
	case domain.OperationBurn:
		params.NewCustodyStatus = domain.CustodyBurned
		eventType = domain.AuditTokenBurned
	default:
		return fmt.Errorf("unknown operation type %s", op.Type)
	}

	params.Entry = domain.AuditLogEntry{
		EntryID:     uuid.NewString(),
		EventType:   eventType,
		ActorID:     domain.SystemActorID,
		OperationID: &operationID,
		AssetID:     &assetID,
		Metadata:    map[string]any{"txHash": result.TxHash},
		CreatedAt:   now,
	}

	return s.operationRepo.MarkExecuted(s.ctx, params)
}

func (s *monitorService) failOperation(op domain.Operation, reason string, logger *slog.Logger) {
	now := time.Now().UTC()
	operationID := op.OperationID
	assetID := op.AssetID
	entry := domain.AuditLogEntry{
		EntryID:     uuid.NewString(),
		EventType:   domain.AuditOperationFailed,
		ActorID:     domain.SystemActorID,
		OperationID: &operationID,
		AssetID:     &assetID,
		Metadata:    map[string]any{"reason": reason},
		CreatedAt:   now,
	}

	err := s.operationRepo.MarkFailed(s.ctx, op.OperationID, domain.OperationApproved, reason, now, entry)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Info("operation already reached a terminal state, skipping failure")
			return
		}
		logger.Error("failed to mark operation failed", slog.String("error", err.Error()))
		return
	}
	logger.Warn("operation failed", slog.String("reason", reason))
}

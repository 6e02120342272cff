package services

import (
	"log/slog"

	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
	"github.com/tokencustody/token_custody_app/internal/platform/config"
)

// NewServiceContainer creates a service container with properly initialized
// dependencies. The monitor is built first since the operation service hands
// submitted operations to it.
func NewServiceContainer(
	cfg *config.Config,
	repos *portsrepo.RepositoryProvider,
	provider providers.CustodyProvider,
	logger *slog.Logger,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	monitorCfg := MonitorConfig{
		PollInterval:  cfg.MonitorPollInterval,
		MaxAttempts:   cfg.MonitorMaxAttempts,
		RetryAttempts: cfg.MonitorRetryAttempts,
		RetryBackoff:  cfg.MonitorRetryBackoff,
	}
	container.Monitor = NewMonitorService(repos.Operation, repos.Audit, provider, monitorCfg, logger)

	container.Custody = NewCustodyService(repos.Custody, repos.Audit)
	submitRetry := SubmitRetryConfig{
		Attempts: cfg.SubmitRetryAttempts,
		Backoff:  cfg.SubmitRetryBackoff,
	}
	container.Operation = NewOperationService(repos.Operation, repos.Custody, repos.Audit, provider, container.Monitor, submitRetry)
	container.Settlement = NewSettlementService(repos.Marketplace, repos.Custody)
	container.User = NewUserService(repos.User)
	container.Auth = NewAuthService(repos.User, cfg)

	return container
}

package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/go-co-op/gocron"
	"github.com/tokencustody/token_custody_app/internal/adapters/provider"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
	"github.com/tokencustody/token_custody_app/internal/core/services"
	"github.com/tokencustody/token_custody_app/internal/handlers"
	"github.com/tokencustody/token_custody_app/internal/middleware"
	"github.com/tokencustody/token_custody_app/internal/platform/config"
	"github.com/tokencustody/token_custody_app/internal/repositories/database/pgsql"
	"github.com/tokencustody/token_custody_app/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)

	// Select the custody provider implementation by configuration. The fake is
	// deterministic and suitable for local development and integration tests.
	var custodyProvider providers.CustodyProvider
	if cfg.ProviderUseFake {
		logger.Info("Using fake custody provider", slog.Int("polls_to_finish", cfg.FakeProviderPollCount))
		custodyProvider = provider.NewFakeProvider(cfg.FakeProviderPollCount)
	} else {
		logger.Info("Using HTTP custody provider", slog.String("base_url", cfg.ProviderBaseURL))
		custodyProvider = provider.NewHTTPProvider(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
	}

	svcContainer := services.NewServiceContainer(cfg, repos, custodyProvider, logger)

	// Re-attach execution monitors to operations that were in flight when the
	// process last stopped.
	if err := svcContainer.Monitor.ResumeInFlight(context.Background()); err != nil {
		logger.Error("Failed to resume in-flight operations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer svcContainer.Monitor.Stop()

	// Periodic listing-expiry sweep.
	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Every(cfg.ExpirySweepSeconds).Seconds().Do(func() {
		if _, err := svcContainer.Settlement.ExpireListings(context.Background()); err != nil {
			logger.Error("Listing expiry sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		logger.Error("Failed to schedule expiry sweep", slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Rate limiting by client IP.
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))

	handlers.RegisterRoutes(r, cfg, svcContainer)

	// Stop the monitor cleanly on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutdown signal received, stopping monitors")
		svcContainer.Monitor.Stop()
		os.Exit(0)
	}()

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending database migrations at boot.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		logger.Error("Failed to ping database for migrations", slog.String("error", err.Error()))
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", upErr.Error()))
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Custody provider
	ProviderUseFake       bool
	ProviderBaseURL       string
	ProviderAPIKey        string
	ProviderTimeout       time.Duration
	FakeProviderPollCount int
	SubmitRetryAttempts   int
	SubmitRetryBackoff    time.Duration

	// Execution monitor
	MonitorPollInterval  time.Duration
	MonitorMaxAttempts   int
	MonitorRetryAttempts int
	MonitorRetryBackoff  time.Duration

	// Marketplace
	ExpirySweepSeconds int

	// Rate limiting, in ulule/limiter format (e.g. "100-M")
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "token-custody-app")
	viper.SetDefault("PROVIDER_USE_FAKE", true)
	viper.SetDefault("PROVIDER_BASE_URL", "")
	viper.SetDefault("PROVIDER_API_KEY", "")
	viper.SetDefault("PROVIDER_TIMEOUT", "15s")
	viper.SetDefault("FAKE_PROVIDER_POLL_COUNT", 3)
	viper.SetDefault("SUBMIT_RETRY_ATTEMPTS", 3)
	viper.SetDefault("SUBMIT_RETRY_BACKOFF", "1s")
	viper.SetDefault("MONITOR_POLL_INTERVAL", "10s")
	viper.SetDefault("MONITOR_MAX_ATTEMPTS", 30)
	viper.SetDefault("MONITOR_RETRY_ATTEMPTS", 3)
	viper.SetDefault("MONITOR_RETRY_BACKOFF", "1s")
	viper.SetDefault("EXPIRY_SWEEP_SECONDS", 60)
	viper.SetDefault("RATE_LIMIT", "300-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.JWTExpiryDuration = parseDurationOr("JWT_EXPIRY_DURATION", time.Hour)

	cfg.ProviderUseFake = viper.GetBool("PROVIDER_USE_FAKE")
	cfg.ProviderBaseURL = viper.GetString("PROVIDER_BASE_URL")
	cfg.ProviderAPIKey = viper.GetString("PROVIDER_API_KEY")
	cfg.ProviderTimeout = parseDurationOr("PROVIDER_TIMEOUT", 15*time.Second)
	cfg.FakeProviderPollCount = viper.GetInt("FAKE_PROVIDER_POLL_COUNT")
	cfg.SubmitRetryAttempts = viper.GetInt("SUBMIT_RETRY_ATTEMPTS")
	cfg.SubmitRetryBackoff = parseDurationOr("SUBMIT_RETRY_BACKOFF", time.Second)

	if !cfg.ProviderUseFake && cfg.ProviderBaseURL == "" {
		log.Println("Warning: PROVIDER_USE_FAKE is false but PROVIDER_BASE_URL is not set.")
	}

	cfg.MonitorPollInterval = parseDurationOr("MONITOR_POLL_INTERVAL", 10*time.Second)
	cfg.MonitorMaxAttempts = viper.GetInt("MONITOR_MAX_ATTEMPTS")
	cfg.MonitorRetryAttempts = viper.GetInt("MONITOR_RETRY_ATTEMPTS")
	cfg.MonitorRetryBackoff = parseDurationOr("MONITOR_RETRY_BACKOFF", time.Second)

	cfg.ExpirySweepSeconds = viper.GetInt("EXPIRY_SWEEP_SECONDS")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

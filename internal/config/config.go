// Package config loads application configuration from environment
// variables, with a .env file honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"paywatch/transaction-api/internal/rules"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Logging LoggingConfig
	Store   StoreConfig
	Rules   rules.Config
	Webhook WebhookConfig

	// SummarySchedule is a cron expression for the periodic stats
	// summary log line. Empty disables the job.
	SummarySchedule string

	// SeedFile is a JSON file of transaction records loaded on startup.
	// Empty disables seed loading.
	SeedFile string
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

// StoreConfig selects and configures the transaction store backend.
type StoreConfig struct {
	Driver      string // memory|postgres
	PostgresDSN string
}

// WebhookConfig controls fraud alert deliveries.
type WebhookConfig struct {
	URLs     []string
	MinScore float64
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "text"
	defaultStoreDriver     = "memory"
	defaultSeedFile        = "data/seed.json"
	defaultSummaryCron     = "0 0 * * *" // daily at midnight
	defaultWebhookMinScore = 0.5
)

// Load reads configuration from the environment, applying defaults.
// A .env file in the working directory is loaded first if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
		},
		Store: StoreConfig{
			Driver:      valueOrDefault("STORE_DRIVER", defaultStoreDriver),
			PostgresDSN: os.Getenv("POSTGRES_DSN"),
		},
		Rules:           loadRules(),
		SummarySchedule: valueOrDefault("STATS_SUMMARY_SCHEDULE", defaultSummaryCron),
		SeedFile:        valueOrDefault("SEED_FILE", defaultSeedFile),
	}

	cfg.Webhook = WebhookConfig{
		URLs:     splitCSV(os.Getenv("WEBHOOK_URLS")),
		MinScore: parseFloatWithDefault("WEBHOOK_MIN_SCORE", defaultWebhookMinScore),
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	// PaaS platforms inject PORT; it wins over SERVER_PORT.
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	cfg.HTTP.Port = port

	for _, tc := range []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
	} {
		if v := os.Getenv(tc.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", tc.key, err)
			}
			*tc.dst = d
		}
	}

	if cfg.Store.Driver != "memory" && cfg.Store.Driver != "postgres" {
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q: want memory or postgres", cfg.Store.Driver)
	}
	if cfg.Store.Driver == "postgres" && cfg.Store.PostgresDSN == "" {
		return Config{}, fmt.Errorf("STORE_DRIVER=postgres requires POSTGRES_DSN")
	}

	return cfg, nil
}

// loadRules builds the detection policy, starting from the built-in
// defaults and overriding individual knobs from the environment.
func loadRules() rules.Config {
	rc := rules.DefaultConfig()

	rc.AmountThreshold = parseFloatWithDefault("RULE_AMOUNT_THRESHOLD", rc.AmountThreshold)
	rc.FailedAttemptThreshold = parseIntWithDefault("RULE_FAILED_ATTEMPT_THRESHOLD", rc.FailedAttemptThreshold)
	if v := splitCSV(os.Getenv("RULE_IP_BLOCKLIST")); len(v) > 0 {
		rc.IPBlocklist = v
	}
	if v := splitCSV(os.Getenv("RULE_REGION_BLOCKLIST")); len(v) > 0 {
		rc.RegionBlocklist = v
	}

	rc.Weights.HighAmount = parseFloatWithDefault("RULE_WEIGHT_AMOUNT", rc.Weights.HighAmount)
	rc.Weights.SuspiciousIP = parseFloatWithDefault("RULE_WEIGHT_IP", rc.Weights.SuspiciousIP)
	rc.Weights.BlockedRegion = parseFloatWithDefault("RULE_WEIGHT_REGION", rc.Weights.BlockedRegion)
	rc.Weights.FailedAttempts = parseFloatWithDefault("RULE_WEIGHT_ATTEMPTS", rc.Weights.FailedAttempts)
	return rc
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

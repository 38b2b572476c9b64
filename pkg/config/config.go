package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Identity of the local learner and repertoire used by the CLI.
	UserID       string
	RepertoireID string

	// Database
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	LocalMode      bool

	// Redis
	RedisURL             string
	QueueLockTTL         time.Duration
	RedisBreakerFailures int
	RedisBreakerTimeout  time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Practice defaults for learners without stored preferences.
	DefaultDelinquencyWindowDays int
	DefaultMaxDailyReviews       int
	DefaultEnableNewItems        bool

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		UserID:       getEnv("REPERTOIRE_USER_ID", "00000000-0000-0000-0000-000000000001"),
		RepertoireID: getEnv("REPERTOIRE_ID", "00000000-0000-0000-0000-000000000001"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseDriver: strings.ToLower(os.Getenv("DATABASE_DRIVER")),
		SQLitePath:     getEnv("SQLITE_PATH", defaultSQLitePath()),

		RedisURL:             os.Getenv("REDIS_URL"),
		QueueLockTTL:         getDurationEnv("QUEUE_LOCK_TTL", 10*time.Second),
		RedisBreakerFailures: getIntEnv("REDIS_BREAKER_FAILURES", 3),
		RedisBreakerTimeout:  getDurationEnv("REDIS_BREAKER_TIMEOUT", 30*time.Second),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		DefaultDelinquencyWindowDays: getIntEnv("DEFAULT_DELINQUENCY_WINDOW_DAYS", 7),
		DefaultMaxDailyReviews:       getIntEnv("DEFAULT_MAX_DAILY_REVIEWS", 10),
		DefaultEnableNewItems:        getBoolEnv("DEFAULT_ENABLE_NEW_ITEMS", true),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
	}

	if cfg.DatabaseDriver == "" {
		if cfg.DatabaseURL == "" {
			cfg.DatabaseDriver = "sqlite"
		} else {
			cfg.DatabaseDriver = "auto"
		}
	}
	cfg.LocalMode = cfg.DatabaseDriver == "sqlite"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if _, err := uuid.Parse(c.UserID); err != nil {
		return fmt.Errorf("REPERTOIRE_USER_ID: %w", err)
	}
	if _, err := uuid.Parse(c.RepertoireID); err != nil {
		return fmt.Errorf("REPERTOIRE_ID: %w", err)
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres", "auto":
	default:
		return fmt.Errorf("DATABASE_DRIVER: unsupported driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}
	if c.DefaultDelinquencyWindowDays < 0 {
		return fmt.Errorf("DEFAULT_DELINQUENCY_WINDOW_DAYS must not be negative")
	}
	if c.DefaultMaxDailyReviews < 0 {
		return fmt.Errorf("DEFAULT_MAX_DAILY_REVIEWS must not be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".repertoire", "data.db")
	}
	return filepath.Join(home, ".repertoire", "data.db")
}

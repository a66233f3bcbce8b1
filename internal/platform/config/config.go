package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EventStoreDriverPgx  = "pgx"
	EventStoreDriverSQLX = "sqlx"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	LogLevel      slog.Level

	JWTSecret string
	JWTIssuer string

	MigrationsPath string

	// Unit of work
	TxMaxAttempts  int
	TxLockTimeout  time.Duration
	TxRetryBackoff time.Duration

	RateLimit          string
	RedisURL           string
	CORSAllowedOrigins []string

	EventStoreTable  string
	EventStoreDriver string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	SnowflakeNode int64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("JWT_ISSUER", "mfi-ledger")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("TX_MAX_ATTEMPTS", 3)
	v.SetDefault("TX_LOCK_TIMEOUT", "2s")
	v.SetDefault("TX_RETRY_BACKOFF", "50ms")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("EVENTSTORE_TABLE", "ledger_events")
	v.SetDefault("EVENTSTORE_DRIVER", EventStoreDriverPgx)
	v.SetDefault("OUTBOX_POLL_INTERVAL", "1s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("SNOWFLAKE_NODE", 1)
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:      v.GetString("PGSQL_URL"),
		Port:             v.GetString("PORT"),
		IsProduction:     v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:    v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTIssuer:        v.GetString("JWT_ISSUER"),
		MigrationsPath:   v.GetString("MIGRATIONS_PATH"),
		TxMaxAttempts:    v.GetInt("TX_MAX_ATTEMPTS"),
		RateLimit:        v.GetString("RATE_LIMIT"),
		RedisURL:         v.GetString("REDIS_URL"),
		EventStoreTable:  v.GetString("EVENTSTORE_TABLE"),
		EventStoreDriver: strings.ToLower(v.GetString("EVENTSTORE_DRIVER")),
		OutboxBatchSize:  v.GetInt("OUTBOX_BATCH_SIZE"),
		SnowflakeNode:    v.GetInt64("SNOWFLAKE_NODE"),
	}

	if cfg.DatabaseURL == "" {
		slog.Warn("PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	var err error
	if cfg.TxLockTimeout, err = parseDuration(v, "TX_LOCK_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.TxRetryBackoff, err = parseDuration(v, "TX_RETRY_BACKOFF"); err != nil {
		return nil, err
	}
	if cfg.OutboxPollInterval, err = parseDuration(v, "OUTBOX_POLL_INTERVAL"); err != nil {
		return nil, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if cfg.TxMaxAttempts < 1 {
		return nil, fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1, got %d", cfg.TxMaxAttempts)
	}
	if cfg.OutboxBatchSize < 1 {
		return nil, fmt.Errorf("OUTBOX_BATCH_SIZE must be at least 1, got %d", cfg.OutboxBatchSize)
	}
	if cfg.SnowflakeNode < 0 || cfg.SnowflakeNode > 1023 {
		return nil, fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023, got %d", cfg.SnowflakeNode)
	}
	switch cfg.EventStoreDriver {
	case EventStoreDriverPgx, EventStoreDriverSQLX:
	default:
		return nil, fmt.Errorf("EVENTSTORE_DRIVER must be %q or %q, got %q", EventStoreDriverPgx, EventStoreDriverSQLX, cfg.EventStoreDriver)
	}
	if cfg.IsProduction && cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

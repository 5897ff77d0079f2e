// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment ("development" or "production"). Development enables detailed error bodies and a relaxed CSP.
	Env string `mapstructure:"APP_ENV"`
	// StaticDir is the directory served at / for the board UI. Empty disables static serving.
	StaticDir string `mapstructure:"STATIC_DIR"`

	// JWTSecret is the HMAC secret for signing session tokens. Required; the server refuses to start without it.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// TokenTTLRaw is the session token lifetime (e.g. "4h").
	TokenTTLRaw string `mapstructure:"TOKEN_TTL"`
	// MaxLoginFailures is the number of consecutive failures that locks an account.
	MaxLoginFailures int `mapstructure:"MAX_LOGIN_FAILURES"`
	// LockoutWindowRaw is how long a locked account stays locked after its last failure (e.g. "5m").
	LockoutWindowRaw string `mapstructure:"LOCKOUT_WINDOW"`
	// MinPasswordLength is the minimum length of a new password.
	MinPasswordLength int `mapstructure:"MIN_PASSWORD_LENGTH"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// DatabaseURL is the Postgres DSN for accounts, board data, and audit logs.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// RedisAddr switches the session registry to Redis when set (e.g. localhost:6379). Empty keeps sessions in memory.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// GRPCHealthAddr is the listen address for the gRPC health service. Empty disables it.
	GRPCHealthAddr string `mapstructure:"GRPC_HEALTH_ADDR"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint. Empty uses no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// KafkaBrokers is a comma-separated list of Kafka brokers for the auth event stream. Empty disables it.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the topic auth events are written to.
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the audit worker to push events (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the audit worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	ReadTimeoutRaw  string `mapstructure:"HTTP_READ_TIMEOUT"`
	WriteTimeoutRaw string `mapstructure:"HTTP_WRITE_TIMEOUT"`
	IdleTimeoutRaw  string `mapstructure:"HTTP_IDLE_TIMEOUT"`
}

// ErrMissingSecret is returned by Load when JWT_SECRET is not set.
var ErrMissingSecret = errors.New("config: JWT_SECRET must be set")

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "4h")
	v.SetDefault("MAX_LOGIN_FAILURES", 10)
	v.SetDefault("LOCKOUT_WINDOW", "5m")
	v.SetDefault("MIN_PASSWORD_LENGTH", 6)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GRPC_HEALTH_ADDR", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "taskboard-auth-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "taskboard-audit-worker")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_READ_TIMEOUT", "10s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "15s")
	v.SetDefault("HTTP_IDLE_TIMEOUT", "60s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, ErrMissingSecret
	}
	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.MaxLoginFailures <= 0 {
		return nil, errors.New("config: MAX_LOGIN_FAILURES must be positive")
	}
	if cfg.MinPasswordLength <= 0 {
		return nil, errors.New("config: MIN_PASSWORD_LENGTH must be positive")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// IsDevelopment reports whether APP_ENV is "development".
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development")
}

// TokenTTL parses TokenTTLRaw as a time.Duration. Returns 4h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	return parseDuration(c.TokenTTLRaw, 4*time.Hour)
}

// LockoutWindow parses LockoutWindowRaw as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) LockoutWindow() time.Duration {
	return parseDuration(c.LockoutWindowRaw, 5*time.Minute)
}

// ReadTimeout returns the HTTP server read timeout (default 10s).
func (c *Config) ReadTimeout() time.Duration {
	return parseDuration(c.ReadTimeoutRaw, 10*time.Second)
}

// WriteTimeout returns the HTTP server write timeout (default 15s).
func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.WriteTimeoutRaw, 15*time.Second)
}

// IdleTimeout returns the HTTP server idle timeout (default 60s).
func (c *Config) IdleTimeout() time.Duration {
	return parseDuration(c.IdleTimeoutRaw, 60*time.Second)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the auth event stream is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

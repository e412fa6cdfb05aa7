// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinSigningSecretLen is the minimum length in bytes for TOKEN_SIGNING_SECRET.
// Starting with a shorter secret is a configuration error, not a recoverable one.
const MinSigningSecretLen = 32

// EncryptionKeyLen is the exact key length required for AES-256-GCM.
const EncryptionKeyLen = 32

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the entity store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// TokenSigningSecret signs access and refresh tokens (HS256). Min 32 bytes; startup fails otherwise.
	TokenSigningSecret string `mapstructure:"TOKEN_SIGNING_SECRET"`
	// EncryptionKey is the AES-256-GCM key for reversible encryption of sensitive payloads. Exactly 32 bytes.
	EncryptionKey string `mapstructure:"ENCRYPTION_KEY"`
	// AccessTokenTTL is the access token lifetime (e.g. "15m").
	AccessTokenTTL string `mapstructure:"ACCESS_TOKEN_TTL"`
	// RefreshTokenTTL is the refresh token lifetime (e.g. "168h").
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	// SessionTTL is the session record lifetime (e.g. "24h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// MailAPIKey is the API key for the transactional mail provider used for 2FA code delivery.
	MailAPIKey string `mapstructure:"MAIL_API_KEY"`
	// MailAPIBaseURL is the mail provider API base URL.
	MailAPIBaseURL string `mapstructure:"MAIL_API_BASE_URL"`
	// MailSender is the from-address for outbound mail.
	MailSender string `mapstructure:"MAIL_SENDER"`
	// RedisAddr enables the shared creation-endpoint throttle when set (host:port).
	// When empty the throttle falls back to a process-local map.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Alerting (optional). When Kafka brokers are set, high and critical security
	// events are published for the alert worker.
	// AlertKafkaBrokers is a comma-separated list of Kafka broker addresses.
	AlertKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AlertKafkaTopic is the Kafka topic for security alerts (default fleetia-security-alerts).
	AlertKafkaTopic string `mapstructure:"ALERT_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the alert worker to push notifications (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the alert worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required
// fields are invalid; in particular a missing or short signing secret or encryption key is
// fatal rather than falling back to a default.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TOKEN_SIGNING_SECRET", "")
	v.SetDefault("ENCRYPTION_KEY", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h") // 7d
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MAIL_API_KEY", "")
	v.SetDefault("MAIL_API_BASE_URL", "")
	v.SetDefault("MAIL_SENDER", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ALERT_KAFKA_TOPIC", "fleetia-security-alerts")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "fleetia-alert-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if len(cfg.TokenSigningSecret) < MinSigningSecretLen {
		return nil, errors.New("config: TOKEN_SIGNING_SECRET must be at least 32 bytes")
	}
	if len(cfg.EncryptionKey) != EncryptionKeyLen {
		return nil, errors.New("config: ENCRYPTION_KEY must be exactly 32 bytes")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses AccessTokenTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses RefreshTokenTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// SessionLifetime parses SessionTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// AlertKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if alerting is enabled (non-empty list) and to create the producer.
func (c *Config) AlertKafkaBrokersList() []string {
	if c == nil || c.AlertKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AlertKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

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
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AuthProviderURL is the base URL of the GoTrue-compatible identity API.
	// Empty enables the in-process local provider (development only).
	AuthProviderURL string `mapstructure:"AUTH_PROVIDER_URL"`
	// AuthAnonKey is sent as the apikey header on provider requests.
	AuthAnonKey string `mapstructure:"AUTH_ANON_KEY"`
	// AuthServiceKey authorizes provider admin endpoints (user provisioning).
	AuthServiceKey string `mapstructure:"AUTH_SERVICE_KEY"`
	// JWTSecret is the HS256 shared secret the provider signs session tokens with.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim validated on session tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAccessTTL is the access token lifetime (e.g. "1h"). Used by the local provider.
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12. Used by the local provider.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// BulkSMSAPIKey is the BulkSMS BD API key for status-change notifications.
	BulkSMSAPIKey string `mapstructure:"BULKSMS_API_KEY"`
	// BulkSMSSenderID is the approved sender id for outbound SMS.
	BulkSMSSenderID string `mapstructure:"BULKSMS_SENDER_ID"`
	// BulkSMSBaseURL is the BulkSMS API base URL.
	BulkSMSBaseURL string `mapstructure:"BULKSMS_BASE_URL"`
	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// OTLPEndpoint is the OTLP/HTTP endpoint for trace export. Empty disables tracing.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// LogLevel is the zap level (debug, info, warn, error). Default info.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFile is an optional path for rotated file logging alongside stderr.
	LogFile string `mapstructure:"LOG_FILE"`
	// Env is the application environment (e.g. "development", "production").
	// The local provider must not be used when Env is production.
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("AUTH_PROVIDER_URL", "")
	v.SetDefault("AUTH_ANON_KEY", "")
	v.SetDefault("AUTH_SERVICE_KEY", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "netnest-auth")
	v.SetDefault("JWT_ACCESS_TTL", "1h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("BULKSMS_BASE_URL", "http://bulksmsbd.net/api/smsapi")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.AuthProviderURL == "" && cfg.Env == "production" {
		return nil, errors.New("config: AUTH_PROVIDER_URL must be set when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// AllowedOrigins returns the allowed CORS origins from the comma-separated
// config. Empty means same-origin only.
func (c *Config) AllowedOrigins() []string {
	if c == nil || c.CORSAllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

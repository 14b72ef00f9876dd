// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides Redis/asynq settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides SMTP settings for notifications.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetAppBaseURL() string
}

// PricingConfig provides prices (in øre) for leads and contact access.
type PricingConfig interface {
	GetLeadPrice() int64
	GetContactAccessPrice() int64
	GetFullAccessPrice() int64
	GetContactGrantTTL() time.Duration
}

// BudgetConfig provides budget window settings.
type BudgetConfig interface {
	GetBudgetLocation() *time.Location
	GetBudgetCacheTTL() time.Duration
}

// DistributionConfig provides batch distribution settings.
type DistributionConfig interface {
	PricingConfig
	GetDistributionBatchSize() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	MigrationsEnabled     bool
	JWTAccessSecret       string
	AccessTokenTTL        time.Duration
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	AppBaseURL            string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	EmailEnabled          bool
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	EmailFromName         string
	EmailFromAddress      string
	LeadPrice             int64
	ContactAccessPrice    int64
	FullAccessPrice       int64
	ContactGrantTTL       time.Duration
	BudgetLocation        *time.Location
	BudgetCacheTTL        time.Duration
	DistributionBatchSize int
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetJWTAccessSecret() string       { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetAppBaseURL() string       { return c.AppBaseURL }

func (c *Config) GetLeadPrice() int64               { return c.LeadPrice }
func (c *Config) GetContactAccessPrice() int64      { return c.ContactAccessPrice }
func (c *Config) GetFullAccessPrice() int64         { return c.FullAccessPrice }
func (c *Config) GetContactGrantTTL() time.Duration { return c.ContactGrantTTL }
func (c *Config) GetDistributionBatchSize() int     { return c.DistributionBatchSize }
func (c *Config) GetBudgetCacheTTL() time.Duration  { return c.BudgetCacheTTL }
func (c *Config) GetBudgetLocation() *time.Location {
	if c.BudgetLocation == nil {
		return time.UTC
	}
	return c.BudgetLocation
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	location, err := time.LoadLocation(getEnv("BUDGET_TIMEZONE", "Europe/Oslo"))
	if err != nil {
		return nil, fmt.Errorf("BUDGET_TIMEZONE: %w", err)
	}

	leadPrice, err := priceEnv("LEAD_PRICE", "25000")
	if err != nil {
		return nil, err
	}
	contactPrice, err := priceEnv("CONTACT_ACCESS_PRICE", "10000")
	if err != nil {
		return nil, err
	}
	fullPrice, err := priceEnv("FULL_ACCESS_PRICE", "20000")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		MigrationsEnabled:     strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:        mustDuration(getEnv("JWT_ACCESS_TTL", "1h")),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:            getEnv("APP_BASE_URL", "http://localhost:5173"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		EmailEnabled:          emailEnabled && smtpHost != "",
		SMTPHost:              smtpHost,
		SMTPPort:              int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Homni"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		LeadPrice:             leadPrice,
		ContactAccessPrice:    contactPrice,
		FullAccessPrice:       fullPrice,
		ContactGrantTTL:       mustDuration(getEnv("CONTACT_GRANT_TTL", "720h")),
		BudgetLocation:        location,
		BudgetCacheTTL:        mustDuration(getEnv("BUDGET_CACHE_TTL", "10s")),
		DistributionBatchSize: int(mustInt64(getEnv("DISTRIBUTION_BATCH_SIZE", "100"))),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DistributionBatchSize < 1 {
		cfg.DistributionBatchSize = 100
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// priceEnv reads a price in øre. Prices are charged as budget debits, which
// must be positive, so zero, negative and malformed values are rejected.
func priceEnv(key, fallback string) (int64, error) {
	raw := strings.TrimSpace(getEnv(key, fallback))
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid price %q", key, raw)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return price, nil
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

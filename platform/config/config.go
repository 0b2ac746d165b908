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
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDBMaxConns() int32
	GetDBMinConns() int32
	GetDBOpTimeout() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// TenantConfig provides settings for tenant resolution.
type TenantConfig interface {
	GetBaseDomain() string
}

// BotConfig provides settings for the outbound chat-bot dispatcher.
type BotConfig interface {
	GetBotURL() string
	GetBotRetryAttempts() int
	GetBotRetryDelay() time.Duration
	IsBotEnabled() bool
}

// SchedulerConfig provides settings for the asynq scheduler/worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetContextRetention() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	DBMaxConns       int32
	DBMinConns       int32
	DBOpTimeout      time.Duration
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	BaseDomain       string
	BotURL           string
	BotRetryAttempts int
	BotRetryDelay    time.Duration
	RedisURL         string
	AsynqQueueName   string
	AsynqConcurrency int
	ContextRetention time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string        { return c.DatabaseURL }
func (c *Config) GetDBMaxConns() int32          { return c.DBMaxConns }
func (c *Config) GetDBMinConns() int32          { return c.DBMinConns }
func (c *Config) GetDBOpTimeout() time.Duration { return c.DBOpTimeout }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// TenantConfig implementation
func (c *Config) GetBaseDomain() string { return c.BaseDomain }

// BotConfig implementation
func (c *Config) GetBotURL() string               { return c.BotURL }
func (c *Config) GetBotRetryAttempts() int        { return c.BotRetryAttempts }
func (c *Config) GetBotRetryDelay() time.Duration { return c.BotRetryDelay }
func (c *Config) IsBotEnabled() bool              { return c.BotURL != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetContextRetention() time.Duration { return c.ContextRetention }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBMaxConns:       int32(mustInt(getEnv("DB_MAX_CONNS", "10"))),
		DBMinConns:       int32(mustInt(getEnv("DB_MIN_CONNS", "1"))),
		DBOpTimeout:      mustDuration(getEnv("DB_OP_TIMEOUT", "5s")),
		CORSAllowAll:     corsAllowAll,
		CORSOrigins:      corsOrigins,
		CORSAllowCreds:   strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		BaseDomain:       getEnv("BASE_DOMAIN", ""),
		BotURL:           getEnv("BOT_URL", ""),
		BotRetryAttempts: mustInt(getEnv("BOT_RETRY_ATTEMPTS", "3")),
		BotRetryDelay:    mustDuration(getEnv("BOT_RETRY_DELAY", "2s")),
		RedisURL:         getEnv("REDIS_URL", ""),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		ContextRetention: mustDuration(getEnv("CONTEXT_RETENTION", "720h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
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

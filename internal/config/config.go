// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package config

import (
	"time"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: override any mapped setting
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Security   SecurityConfig   `koanf:"security"`
	Database   DatabaseConfig   `koanf:"database"`
	Audit      AuditConfig      `koanf:"audit"`
	Reports    ReportsConfig    `koanf:"reports"`
	Sweep      SweepConfig      `koanf:"sweep"`
	Identity   IdentityConfig   `koanf:"identity"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// MaxPageSizeLimit is the largest allowed API_MAX_PAGE_SIZE. It matches the
// identity directory's batch limit, so one page resolves in one call.
const MaxPageSizeLimit = 200

// APIConfig holds API pagination settings
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds bearer-token and HTTP protection settings.
//
// Environment Variables:
//   - AUTH_MODE: jwt or none (default: jwt)
//   - JWT_SECRET: HS256 signing secret, at least 32 characters
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW / DISABLE_RATE_LIMIT
//   - CORS_ORIGINS: comma-separated origins (default: *)
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path         string `koanf:"path"`           // ":memory:" or a file path
	MaxMemory    string `koanf:"max_memory"`     // DuckDB memory_limit, e.g. "1GB"
	Threads      int    `koanf:"threads"`        // 0 = DuckDB default
	SeedMockData bool   `koanf:"seed_mock_data"` // Seed the catalog with deterministic demo data
}

// AuditConfig controls the asynchronous audit writer.
type AuditConfig struct {
	Enabled bool `koanf:"enabled"`

	// BufferSize is the writer queue length. A full queue drops records.
	BufferSize int `koanf:"buffer_size"`

	// WriteTimeout bounds each store append.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// MaxPayloadBytes caps the request/response body captured into details.
	MaxPayloadBytes int `koanf:"max_payload_bytes"`
}

// ReportsConfig controls report generation, artifact storage and the job queue.
type ReportsConfig struct {
	// GenerationTimeout bounds one generation run.
	GenerationTimeout time.Duration `koanf:"generation_timeout"`

	// RetentionDays sets fileDetails.expiresAt relative to completion. It is
	// recorded, not enforced.
	RetentionDays int `koanf:"retention_days"`

	// PublicURL prefixes download URLs. Empty yields relative URLs.
	PublicURL string `koanf:"public_url"`

	Artifacts ArtifactConfig `koanf:"artifacts"`
	Queue     QueueConfig    `koanf:"queue"`
}

// ArtifactConfig selects the blob store for rendered files.
type ArtifactConfig struct {
	Backend string `koanf:"backend"` // badger or memory
	Path    string `koanf:"path"`    // BadgerDB directory
}

// QueueConfig selects and tunes the report job queue.
//
// Environment Variables:
//   - REPORT_QUEUE_BACKEND: memory (gochannel) or nats (JetStream)
//   - NATS_URL / NATS_EMBEDDED / NATS_STORE_DIR
//   - REPORT_WORKERS: subscriber count
type QueueConfig struct {
	Backend          string        `koanf:"backend"`
	Topic            string        `koanf:"topic"`
	NATSURL          string        `koanf:"nats_url"`
	EmbeddedServer   bool          `koanf:"embedded_server"`
	StoreDir         string        `koanf:"store_dir"`
	SubscribersCount int           `koanf:"subscribers_count"`
	QueueGroup       string        `koanf:"queue_group"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`

	// Router retry applies to infrastructure errors only. A generation
	// failure is terminal and acknowledged.
	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
}

// SweepConfig controls the product availability sweep.
type SweepConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`

	// FreshnessWindow applies to products without their own window.
	FreshnessWindow time.Duration `koanf:"freshness_window"`

	// BatchSize is the keyset page size of the product scan.
	BatchSize int `koanf:"batch_size"`

	// LockBackend is local (in-process guard only) or redis (plus a lease).
	LockBackend string        `koanf:"lock_backend"`
	RedisAddr   string        `koanf:"redis_addr"`
	LockKey     string        `koanf:"lock_key"`
	LockTTL     time.Duration `koanf:"lock_ttl"`
}

// IdentityConfig configures the outbound identity directory client.
type IdentityConfig struct {
	// BaseURL of the directory. Empty disables enrichment (actorInfo stays null).
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`

	// RateLimit is requests per second; RateBurst the bucket size.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// Circuit breaker opens after BreakerFailures consecutive failures.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load reads configuration from defaults, an optional config file, and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateAPI,
		c.validateSecurity,
		c.validateDatabase,
		c.validateAudit,
		c.validateReports,
		c.validateSweep,
		c.validateIdentity,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API page sizes must satisfy 1 <= API_DEFAULT_PAGE_SIZE <= API_MAX_PAGE_SIZE")
	}
	if c.API.MaxPageSize > MaxPageSizeLimit {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be at most %d", MaxPageSizeLimit)
	}
	return nil
}

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	case "none":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed in production")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: jwt, none")
	}

	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production; set explicit origins")
	}

	return c.validateRateLimits()
}

// validateJWTSecret validates the JWT secret configuration
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required (use :memory: for an in-memory database)")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1")
	}
	if c.Audit.WriteTimeout <= 0 {
		return fmt.Errorf("AUDIT_WRITE_TIMEOUT must be positive")
	}
	if c.Audit.MaxPayloadBytes < 0 {
		return fmt.Errorf("AUDIT_MAX_PAYLOAD_BYTES must be >= 0")
	}
	return nil
}

func (c *Config) validateReports() error {
	r := c.Reports
	if r.GenerationTimeout <= 0 {
		return fmt.Errorf("REPORT_GENERATION_TIMEOUT must be positive")
	}
	if r.RetentionDays < 1 {
		return fmt.Errorf("REPORT_RETENTION_DAYS must be at least 1")
	}
	if r.PublicURL != "" {
		if err := validateHTTPURL(r.PublicURL, "PUBLIC_URL"); err != nil {
			return err
		}
	}

	switch r.Artifacts.Backend {
	case "memory":
	case "badger":
		if r.Artifacts.Path == "" {
			return fmt.Errorf("ARTIFACT_PATH is required when ARTIFACT_BACKEND is badger")
		}
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be one of: badger, memory")
	}

	q := r.Queue
	if q.Topic == "" {
		return fmt.Errorf("REPORT_QUEUE_TOPIC is required")
	}
	if q.SubscribersCount < 1 || q.SubscribersCount > 64 {
		return fmt.Errorf("REPORT_WORKERS must be between 1 and 64")
	}
	switch q.Backend {
	case "memory":
	case "nats":
		if err := validateNATSURL(q.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL: %w", err)
		}
		if q.EmbeddedServer && q.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED is true")
		}
	default:
		return fmt.Errorf("REPORT_QUEUE_BACKEND must be one of: memory, nats")
	}
	return nil
}

func (c *Config) validateSweep() error {
	s := c.Sweep
	if !s.Enabled {
		return nil
	}
	if s.Interval < time.Second {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1s")
	}
	if s.FreshnessWindow <= 0 {
		return fmt.Errorf("SWEEP_FRESHNESS_WINDOW must be positive")
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be at least 1")
	}
	switch s.LockBackend {
	case "local":
	case "redis":
		if s.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SWEEP_LOCK_BACKEND is redis")
		}
		if s.LockTTL < time.Second {
			return fmt.Errorf("SWEEP_LOCK_TTL must be at least 1s")
		}
	default:
		return fmt.Errorf("SWEEP_LOCK_BACKEND must be one of: local, redis")
	}
	return nil
}

func (c *Config) validateIdentity() error {
	if c.Identity.BaseURL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Identity.BaseURL, "IDENTITY_BASE_URL"); err != nil {
		return err
	}
	if c.Identity.Timeout <= 0 {
		return fmt.Errorf("IDENTITY_TIMEOUT must be positive")
	}
	if c.Identity.RateLimit <= 0 {
		return fmt.Errorf("IDENTITY_RATE_LIMIT must be positive")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns indicate a secret that was never replaced.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

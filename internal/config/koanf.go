// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/orderdesk/config.yaml",
	"/etc/orderdesk/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. Config file and
// environment layers override it.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Database: DatabaseConfig{
			Path:         "/data/orderdesk.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			SeedMockData: false,
		},
		Audit: AuditConfig{
			Enabled:         true,
			BufferSize:      1000,
			WriteTimeout:    5 * time.Second,
			MaxPayloadBytes: 8 << 10,
		},
		Reports: ReportsConfig{
			GenerationTimeout: 5 * time.Minute,
			RetentionDays:     30,
			PublicURL:         "",
			Artifacts: ArtifactConfig{
				Backend: "badger",
				Path:    "/data/artifacts",
			},
			Queue: QueueConfig{
				Backend:              "memory",
				Topic:                "reports.generate",
				NATSURL:              "nats://127.0.0.1:4222",
				EmbeddedServer:       false,
				StoreDir:             "/data/nats/jetstream",
				SubscribersCount:     2,
				QueueGroup:           "report-workers",
				AckWaitTimeout:       10 * time.Minute,
				CloseTimeout:         30 * time.Second,
				RetryCount:           3,
				RetryInitialInterval: 500 * time.Millisecond,
			},
		},
		Sweep: SweepConfig{
			Enabled:         true,
			Interval:        time.Hour,
			FreshnessWindow: 24 * time.Hour,
			BatchSize:       500,
			LockBackend:     "local",
			RedisAddr:       "127.0.0.1:6379",
			LockKey:         "orderdesk:sweep:availability",
			LockTTL:         10 * time.Minute,
		},
		Identity: IdentityConfig{
			BaseURL:         "",
			Timeout:         3 * time.Second,
			CacheSize:       1000,
			CacheTTL:        5 * time.Minute,
			RateLimit:       20,
			RateBurst:       5,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// JWT_SECRET -> security.jwt_secret, REPORT_WORKERS -> reports.queue.subscribers_count
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first existing
// default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// API
	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"seed_mock_data":    "database.seed_mock_data",

	// Audit
	"audit_enabled":           "audit.enabled",
	"audit_buffer_size":       "audit.buffer_size",
	"audit_write_timeout":     "audit.write_timeout",
	"audit_max_payload_bytes": "audit.max_payload_bytes",

	// Reports
	"report_generation_timeout": "reports.generation_timeout",
	"report_retention_days":     "reports.retention_days",
	"public_url":                "reports.public_url",
	"artifact_backend":          "reports.artifacts.backend",
	"artifact_path":             "reports.artifacts.path",
	"report_queue_backend":      "reports.queue.backend",
	"report_queue_topic":        "reports.queue.topic",
	"nats_url":                  "reports.queue.nats_url",
	"nats_embedded":             "reports.queue.embedded_server",
	"nats_store_dir":            "reports.queue.store_dir",
	"report_workers":            "reports.queue.subscribers_count",
	"report_retry_count":        "reports.queue.retry_count",

	// Sweep
	"sweep_enabled":          "sweep.enabled",
	"sweep_interval":         "sweep.interval",
	"sweep_freshness_window": "sweep.freshness_window",
	"sweep_batch_size":       "sweep.batch_size",
	"sweep_lock_backend":     "sweep.lock_backend",
	"redis_addr":             "sweep.redis_addr",
	"sweep_lock_ttl":         "sweep.lock_ttl",

	// Identity directory
	"identity_base_url":   "identity.base_url",
	"identity_timeout":    "identity.timeout",
	"identity_cache_size": "identity.cache_size",
	"identity_cache_ttl":  "identity.cache_ttl",
	"identity_rate_limit": "identity.rate_limit",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - JWT_SECRET -> security.jwt_secret
//   - SWEEP_LOCK_BACKEND -> sweep.lock_backend
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testJWTSecret = "k3v1n-0rd3rd3sk-t3st-s1gn1ng-k3y-0001"

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Reports.RetentionDays != 30 {
		t.Errorf("Reports.RetentionDays = %d, want 30", cfg.Reports.RetentionDays)
	}
	if cfg.Reports.Queue.Backend != "memory" {
		t.Errorf("Reports.Queue.Backend = %q, want memory", cfg.Reports.Queue.Backend)
	}
	if cfg.Sweep.FreshnessWindow != 24*time.Hour {
		t.Errorf("Sweep.FreshnessWindow = %v, want 24h", cfg.Sweep.FreshnessWindow)
	}
	if cfg.Sweep.LockBackend != "local" {
		t.Errorf("Sweep.LockBackend = %q, want local", cfg.Sweep.LockBackend)
	}
	if cfg.Audit.BufferSize != 1000 {
		t.Errorf("Audit.BufferSize = %d, want 1000", cfg.Audit.BufferSize)
	}
	if cfg.Security.AuthMode != "jwt" {
		t.Errorf("Security.AuthMode = %q, want jwt", cfg.Security.AuthMode)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"DUCKDB_PATH", "database.path"},
		{"AUDIT_BUFFER_SIZE", "audit.buffer_size"},
		{"REPORT_GENERATION_TIMEOUT", "reports.generation_timeout"},
		{"REPORT_QUEUE_BACKEND", "reports.queue.backend"},
		{"REPORT_WORKERS", "reports.queue.subscribers_count"},
		{"NATS_URL", "reports.queue.nats_url"},
		{"SWEEP_LOCK_BACKEND", "sweep.lock_backend"},
		{"REDIS_ADDR", "sweep.redis_addr"},
		{"IDENTITY_BASE_URL", "identity.base_url"},
		{"log_level", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, path)
		if got := findConfigFile(); got != path {
			t.Errorf("findConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, filepath.Join(tmpDir, "missing.yaml"))
		if got := findConfigFile(); got == filepath.Join(tmpDir, "missing.yaml") {
			t.Errorf("findConfigFile() returned a missing file")
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org")
	t.Setenv("REPORT_WORKERS", "4")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.Sweep.Interval != 15*time.Minute {
		t.Errorf("Sweep.Interval = %v, want 15m", cfg.Sweep.Interval)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.org" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Reports.Queue.SubscribersCount != 4 {
		t.Errorf("Reports.Queue.SubscribersCount = %d, want 4", cfg.Reports.Queue.SubscribersCount)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	content := `
server:
  port: 8888
security:
  auth_mode: "none"
sweep:
  lock_backend: "redis"
  redis_addr: "redis.internal:6379"
logging:
  level: "warn"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888 from file", cfg.Server.Port)
	}
	if cfg.Sweep.LockBackend != "redis" || cfg.Sweep.RedisAddr != "redis.internal:6379" {
		t.Errorf("Sweep lock = %q@%q", cfg.Sweep.LockBackend, cfg.Sweep.RedisAddr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug from env", cfg.Logging.Level)
	}
	if cfg.Reports.RetentionDays != 30 {
		t.Errorf("Reports.RetentionDays = %d, want default 30", cfg.Reports.RetentionDays)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("JWT_SECRET", "short")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected validation error for short JWT secret")
	}
}

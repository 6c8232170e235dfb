// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package config provides centralized configuration management for Orderdesk.

# Configuration Sources

Configuration is layered with Koanf v2, later layers overriding earlier ones:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: $CONFIG_PATH, else config.yaml / config.yml in the
    working directory, else /etc/orderdesk/config.yaml
  - Environment variables, through an explicit name mapping

# Configuration Structure

  - ServerConfig: HTTP listener and environment mode
  - APIConfig: pagination bounds
  - SecurityConfig: bearer token secret, CORS, rate limiting
  - DatabaseConfig: DuckDB path, memory limit, demo data seeding
  - AuditConfig: async audit writer buffer, timeouts, payload cap
  - ReportsConfig: generation timeout, artifact store, job queue
  - SweepConfig: availability sweep interval, window, lock backend
  - IdentityConfig: identity directory client, cache, rate limit, breaker
  - LoggingConfig: zerolog level and format
  - SupervisorConfig: suture restart policy

# Environment Variables

A selection (see envMappings in koanf.go for the full list):

  - HTTP_PORT, HTTP_HOST, ENVIRONMENT
  - AUTH_MODE, JWT_SECRET, CORS_ORIGINS, RATE_LIMIT_REQUESTS
  - DUCKDB_PATH, SEED_MOCK_DATA
  - AUDIT_BUFFER_SIZE, AUDIT_MAX_PAYLOAD_BYTES
  - REPORT_GENERATION_TIMEOUT, PUBLIC_URL, ARTIFACT_BACKEND, ARTIFACT_PATH
  - REPORT_QUEUE_BACKEND, NATS_URL, NATS_EMBEDDED, REPORT_WORKERS
  - SWEEP_INTERVAL, SWEEP_FRESHNESS_WINDOW, SWEEP_LOCK_BACKEND, REDIS_ADDR
  - IDENTITY_BASE_URL, IDENTITY_TIMEOUT
  - LOG_LEVEL, LOG_FORMAT

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
*/
package config

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package main is the entry point for the Orderdesk server.

Orderdesk serves the reporting side of an order and catalog backend: report
requests are accepted over HTTP, generated asynchronously from the catalog
and audit data, rendered to CSV, JSON, XLSX or PDF, and served back with
role-based access control. Every mutating or privileged request lands in an
audit trail that admins can query.

# Application Architecture

	RootSupervisor ("orderdesk")
	├── DataSupervisor ("data-layer")
	│   └── Audit writer (buffered, drains to DuckDB)
	├── WorkerSupervisor ("worker-layer")
	│   ├── Report queue (Watermill router, gochannel or NATS JetStream)
	│   ├── Report reaper (fails reports stranded in GENERATING)
	│   └── Availability sweep (optional, Redis lease for multi-instance)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional config file, environment
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB with catalog, audit and report schemas
 4. Artifact store: BadgerDB or memory
 5. Authorization: Casbin role model for report types and the audit trail
 6. Report queue and manager; stranded reports are recovered once the
    router is running
 7. HTTP router: authentication, audit interceptor, authorization
 8. Supervisor tree: Suture v4

# Configuration

Configuration is read from environment variables and an optional
config.yaml. The commonly used variables:

	HTTP_PORT             listen port (default 8080)
	AUTH_MODE             jwt or none (default jwt)
	JWT_SECRET            HS256 secret, at least 32 characters
	DUCKDB_PATH           database file (default /data/orderdesk.duckdb)
	ARTIFACT_BACKEND      badger or memory
	REPORT_QUEUE_BACKEND  memory or nats
	NATS_URL              JetStream server when not embedded
	SWEEP_ENABLED         run the product availability sweep
	SWEEP_LOCK_BACKEND    local or redis
	IDENTITY_BASE_URL     identity directory for actor names

# Usage

Local development with demo data:

	export AUTH_MODE=none
	export SEED_MOCK_DATA=true
	export ARTIFACT_BACKEND=memory
	./orderdesk

	curl -H 'X-Actor-ID: u-1' -H 'X-Actor-Role: admin' \
	  -d '{"name":"Q1","type":"SALES_SUMMARY","format":"CSV"}' \
	  localhost:8080/api/v1/reports

Production:

	export ENVIRONMENT=production
	export JWT_SECRET=$(openssl rand -base64 32)
	export CORS_ORIGINS=https://orders.example.com
	export REPORT_QUEUE_BACKEND=nats
	export NATS_URL=nats://nats:4222
	./orderdesk

# Shutdown

SIGINT and SIGTERM cancel the root context. The HTTP server drains, the
queue stops consuming, and the audit writer flushes its buffer before the
process exits.
*/
package main

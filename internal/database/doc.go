// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package database opens the DuckDB database shared by the audit, report
// and catalog stores, and holds the small schema helpers they use.
//
// Each store owns its tables and implements SchemaCreator; the server
// calls EnsureSchema once at startup. Use ":memory:" (MemoryPath) for an
// ephemeral database.
package database

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package artifact stores rendered report files. BadgerStore persists them in
// BadgerDB; MemoryStore is for tests and demo mode. Every stored artifact
// carries a BLAKE2b-256 checksum that is copied into the report's file
// details.
package artifact

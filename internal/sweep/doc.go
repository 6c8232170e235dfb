// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package sweep keeps the derived Product.Unavailable flag in step with
// inventory. A Sweeper streams products in keyset pages, recomputes
// ShouldFlag and writes only the products whose flag changed, each with a
// change-log entry. Runs are single-flight per process, and optionally per
// deployment through a Redis lease.
package sweep

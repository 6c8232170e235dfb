// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package audit records an append-only trail of privileged actions and
// answers filtered queries and statistics over it.
//
// # Overview
//
// The audit system provides:
//   - An after-response HTTP middleware (Interceptor) that produces one
//     record per instrumented request carrying a resolved actor
//   - Asynchronous buffered writes (Writer) that never delay or fail the
//     request; a full buffer drops the record
//   - Append-only persistence (Store) in memory or DuckDB
//   - Paginated queries with batched actor enrichment, and statistics
//     (QueryService)
//
// # Architecture
//
// The audit system uses a producer-consumer pattern:
//
//	Interceptor -> Writer.Record() -> buffer (chan) -> Writer.Serve() -> Store.Append()
//	                     |                                   |
//	                Non-blocking                  Supervised goroutine
//
// Severity is HIGH for responses with status >= 400 and LOW otherwise.
// Details is a versioned JSON blob ({"v":1,...}); readers accept any
// version up to DetailsVersion. Known secret keys in captured payloads and
// query strings are redacted.
//
// # Usage
//
//	writer := audit.NewWriter(store, cfg.Audit)
//	tree.AddDataService(writer)
//
//	interceptor := audit.NewInterceptor(writer, cfg.Audit.MaxPayloadBytes)
//	r.With(interceptor.Instrument(audit.Spec{
//	    Action:     audit.ActionReportCreated,
//	    TargetType: audit.TargetReport,
//	    Category:   audit.CategoryReporting,
//	})).Post("/reports", h.CreateReport)
//
// Records are eventually consistent with request completion; a query
// issued right after a request may not see its record.
package audit

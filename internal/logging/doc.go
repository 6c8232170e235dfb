// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package logging provides the zerolog-based structured logger used across Orderdesk.
//
// One global logger is configured at startup with Init and then used through
// the level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("report_id", id).Msg("Report queued")
//	logging.Err(err).Msg("Sweep run failed")
//
// Request-scoped fields travel on the context. The API router stores the
// request ID and, once resolved, the actor ID; Ctx(ctx) returns a logger
// carrying both:
//
//	logging.Ctx(r.Context()).Warn().Msg("Report access denied")
//
// Two adapters bridge libraries with their own logger interfaces onto the
// same output:
//
//   - SlogHandler / NewSlogLogger for log/slog consumers (sutureslog)
//   - WatermillAdapter for the report job router and NATS pub/sub
//
// Output is JSON by default; Format "console" switches to zerolog's
// human-readable writer for local development.
package logging

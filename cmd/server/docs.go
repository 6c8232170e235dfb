// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// @title Orderdesk API
// @version 1.0
// @description Report generation, download tracking and audit trail for the order and catalog backend.
// @description
// @description ## Authentication
// @description
// @description Protected endpoints take a bearer token (HS256 JWT) in the Authorization header.
// @description The token subject is the actor id and the `role` claim its role.
// @description With AUTH_MODE=none the actor is read from the X-Actor-ID, X-Actor-Role and X-Actor-Name headers instead.
// @description
// @description ## Responses
// @description
// @description Every JSON response uses one envelope:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "VALIDATION_FAILED",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "meta": {
// @description     "requestId": "b7c9...",
// @description     "timestamp": "2026-03-01T12:34:56Z"
// @description   }
// @description }
// @description ```
// @description
// @description ## Rate Limiting
// @description
// @description - API endpoints: 100 requests/minute per IP (configurable)
// @description - Report creation and access updates: 30 requests/minute per IP
// @description - Downloads: 20 requests/minute per IP
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/orderdesk/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token: "Bearer <jwt>".
//
// @tag.name Reports
// @tag.description Report requests, generation status, downloads and access control
//
// @tag.name Audit
// @tag.description Audit trail queries and statistics (admin only)
//
// @tag.name Analytics
// @tag.description Public catalog summary
//
// @tag.name Health
// @tag.description Liveness and readiness probes
package main

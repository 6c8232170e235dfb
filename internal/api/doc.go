// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package api provides the HTTP surface of Orderdesk.

# Endpoints

All JSON endpoints live under /api/v1:

	POST   /reports                  request a report (202, generation is async)
	GET    /reports                  list visible reports
	GET    /reports/{id}             one report (404 when missing or forbidden)
	GET    /reports/{id}/download    file metadata, appends download history
	GET    /reports/{id}/file        stream the artifact
	PUT    /reports/{id}/access      replace access control (owner)
	DELETE /reports/{id}             soft delete (owner)
	GET    /audit/logs               audit trail (elevated roles)
	GET    /audit/stats              audit statistics (elevated roles)
	GET    /analytics/summary        public KPI summary

Operational endpoints: /health/live, /health/ready, /metrics, /swagger/*.

# Response Envelope

	{
	  "success": true,
	  "message": "Report generation started",
	  "data": {...},
	  "error": {"code": "VALIDATION_FAILED", "message": "...", "details": {...}},
	  "meta": {"requestId": "...", "timestamp": "...", "pagination": {...}}
	}

Error mapping lives in respondReportError.

# Auditing

Every report and audit route is wrapped in audit.Interceptor, which records
one entry after the response has been written. Unauthenticated requests
are not recorded.
*/
package api

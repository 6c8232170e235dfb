// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"net/http"
)

// AuditLogs handles GET /api/v1/audit/logs.
//
// @Summary Query the audit trail
// @Description Newest first. Each record carries actorInfo from the identity directory, or null when it could not be resolved. Requires an elevated role.
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param action query string false "Action"
// @Param actorId query string false "Actor ID"
// @Param actorRole query string false "Actor role"
// @Param targetType query string false "Target type"
// @Param targetId query string false "Target ID"
// @Param category query string false "Category"
// @Param severity query string false "Severity"
// @Param bulkOperationId query string false "Bulk operation ID"
// @Param start query string false "At or after (RFC3339 or YYYY-MM-DD)"
// @Param end query string false "At or before (RFC3339 or YYYY-MM-DD)"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} APIResponse{data=[]audit.EnrichedRecord}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Router /audit/logs [get]
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseAuditFilter(q)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	page, err := parsePage(q)
	if err != nil {
		respondReportError(w, r, err)
		return
	}

	res, err := h.audit.Query(r.Context(), filter, page.Normalize(h.defaultPageSize, h.maxPageSize))
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(res.Records, &PaginationMeta{
		Page:  res.Page,
		Limit: res.Limit,
		Total: res.Total,
		Pages: res.Pages,
	})
}

// AuditStats handles GET /api/v1/audit/stats.
//
// @Summary Audit trail statistics
// @Description Totals, distinct actors and actions, average execution time, error count and breakdowns by severity and category. Requires an elevated role.
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param start query string false "At or after (RFC3339 or YYYY-MM-DD)"
// @Param end query string false "At or before (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} APIResponse{data=audit.Stats}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Router /audit/stats [get]
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r.URL.Query())
	if err != nil {
		respondReportError(w, r, err)
		return
	}

	stats, err := h.audit.Stats(r.Context(), filter)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(stats)
}

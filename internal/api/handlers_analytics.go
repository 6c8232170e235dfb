// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/orderdesk/internal/catalog"
)

// AnalyticsSummary returns the public KPI view.
//
// @Summary KPI summary
// @Description Role-free aggregate view over the last N days. No authentication required.
// @Tags Analytics
// @Produce json
// @Param days query int false "Window in days (default 30, max 366)"
// @Success 200 {object} APIResponse{data=catalog.Summary}
// @Failure 400 {object} APIResponse
// @Router /analytics/summary [get]
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	days := h.summaryDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSummaryDays {
			respondReportError(w, r, invalidParam("days", "range", "days must be between 1 and 366"))
			return
		}
		days = n
	}

	now := h.now()
	summary, err := catalog.Summarize(r.Context(), h.catalog, now.Add(-time.Duration(days)*24*time.Hour), now)
	if err != nil {
		NewResponseWriter(w, r).InternalError("Failed to compute summary", err)
		return
	}
	NewResponseWriter(w, r).Success(summary)
}

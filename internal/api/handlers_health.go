// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds all readiness checks together.
const readinessTimeout = 3 * time.Second

// HealthLive reports that the process is serving HTTP.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady runs every readiness check.
//
// @Summary Readiness probe
// @Description 200 when every dependency check passes, 503 otherwise.
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	ready := true
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			checks[c.Name] = err.Error()
			ready = false
			continue
		}
		checks[c.Name] = "ok"
	}

	rw := NewResponseWriter(w, r)
	if !ready {
		rw.ServiceUnavailable("Service not ready", checks)
		return
	}
	rw.Success(map[string]interface{}{
		"status": "ready",
		"checks": checks,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

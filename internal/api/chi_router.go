// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/auth"
	"github.com/tomtom215/orderdesk/internal/authz"
	"github.com/tomtom215/orderdesk/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler     *Handler
	mw          *ChiMiddleware
	authn       *auth.Middleware
	authz       *authz.Middleware
	interceptor *audit.Interceptor
}

// NewRouter creates a router. interceptor may be nil, which disables
// request auditing.
func NewRouter(handler *Handler, mw *ChiMiddleware, authn *auth.Middleware, az *authz.Middleware, interceptor *audit.Interceptor) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:     handler,
		mw:          mw,
		authn:       authn,
		authz:       az,
		interceptor: interceptor,
	}
}

// audited wraps a route with the after-response audit hook.
func (rt *Router) audited(spec audit.Spec) func(http.Handler) http.Handler {
	if rt.interceptor == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rt.interceptor.Instrument(spec)
}

func reportSpec(action audit.Action, withTarget bool) audit.Spec {
	spec := audit.Spec{
		Action:     action,
		TargetType: audit.TargetReport,
		Category:   audit.CategoryReporting,
	}
	if withTarget {
		spec.TargetID = func(r *http.Request) string { return chi.URLParam(r, "id") }
	}
	return spec
}

func auditSpec(action audit.Action) audit.Spec {
	return audit.Spec{
		Action:     action,
		TargetType: audit.TargetAuditLog,
		Category:   audit.CategoryAudit,
	}
}

// SetupChi builds the chi router.
//
// Middleware order for protected routes is authenticate, audit, authorize,
// handler: the audit hook sees the resolved actor and also records
// authorization denials.
func (rt *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.mw.CORS())
	r.Use(APISecurityHeaders())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	h := rt.handler

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.mw.RateLimit())

		r.With(rt.mw.RateLimitAnalytics()).Get("/analytics/summary", h.AnalyticsSummary)

		r.Route("/reports", func(r chi.Router) {
			r.Use(rt.authn.Authenticate)

			r.With(rt.mw.RateLimitWrite(), rt.audited(reportSpec(audit.ActionReportCreated, false))).
				Post("/", h.CreateReport)
			r.With(rt.audited(reportSpec(audit.ActionReportListed, false))).
				Get("/", h.ListReports)
			r.With(rt.audited(reportSpec(audit.ActionReportViewed, true))).
				Get("/{id}", h.GetReport)
			r.With(rt.audited(reportSpec(audit.ActionReportDownloaded, true))).
				Get("/{id}/download", h.DownloadReport)
			r.With(rt.mw.RateLimitExport(), rt.audited(reportSpec(audit.ActionReportFileFetched, true))).
				Get("/{id}/file", h.ReportFile)
			r.With(rt.mw.RateLimitWrite(), rt.audited(reportSpec(audit.ActionReportAccessUpdated, true))).
				Put("/{id}/access", h.UpdateReportAccess)
			r.With(rt.mw.RateLimitWrite(), rt.audited(reportSpec(audit.ActionReportDeleted, true))).
				Delete("/{id}", h.DeleteReport)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Use(rt.authn.Authenticate)

			readAudit := rt.authz.Authorize(authz.ObjectAudit, authz.ActionRead)
			r.With(rt.audited(auditSpec(audit.ActionAuditQueried)), readAudit).
				Get("/logs", h.AuditLogs)
			r.With(rt.audited(auditSpec(audit.ActionAuditStatsViewed)), readAudit).
				Get("/stats", h.AuditStats)
		})
	})

	r.Route("/health", func(r chi.Router) {
		r.Use(rt.mw.RateLimitHealth())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}

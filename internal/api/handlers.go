// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"context"
	"time"

	"github.com/tomtom215/orderdesk/internal/artifact"
	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/catalog"
	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/models"
	"github.com/tomtom215/orderdesk/internal/report"
)

// ReportService is the report lifecycle as seen by HTTP handlers.
// *report.Manager implements it.
type ReportService interface {
	Create(ctx context.Context, actor *models.Actor, req *report.CreateRequest) (*report.CreateResult, error)
	Get(ctx context.Context, actor *models.Actor, id string) (*report.Report, error)
	List(ctx context.Context, actor *models.Actor, filter report.ListFilter, page models.Page) ([]report.Report, int64, error)
	Download(ctx context.Context, actor *models.Actor, id string, meta report.DownloadMeta) (*report.DownloadInfo, error)
	File(ctx context.Context, actor *models.Actor, id string) (*report.Report, *artifact.Object, error)
	UpdateAccess(ctx context.Context, actor *models.Actor, id string, upd *report.AccessUpdate) (*report.Report, error)
	Delete(ctx context.Context, actor *models.Actor, id string) error
}

// AuditService answers audit trail queries. *audit.QueryService
// implements it.
type AuditService interface {
	Query(ctx context.Context, filter audit.Filter, page models.Page) (*audit.QueryResult, error)
	Stats(ctx context.Context, filter audit.Filter) (*audit.Stats, error)
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_reports.go: report lifecycle endpoints
//   - handlers_audit.go: audit trail query and statistics
//   - handlers_analytics.go: public KPI summary
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	reports ReportService
	audit   AuditService
	catalog catalog.Source
	checks  []ReadinessCheck

	defaultPageSize int
	maxPageSize     int
	summaryDays     int

	startTime time.Time
	now       func() time.Time
}

// Deps are the collaborators of a Handler. Checks may be empty.
type Deps struct {
	Reports ReportService
	Audit   AuditService
	Catalog catalog.Source
	Checks  []ReadinessCheck
}

// defaultSummaryDays is the window of /analytics/summary without ?days.
const defaultSummaryDays = 30

// maxSummaryDays caps ?days on /analytics/summary.
const maxSummaryDays = 366

// NewHandler creates a new API handler.
func NewHandler(deps Deps, cfg config.APIConfig) *Handler {
	def, maxSize := cfg.DefaultPageSize, cfg.MaxPageSize
	if def <= 0 {
		def = 20
	}
	if maxSize < def {
		maxSize = max(def, 100)
	}
	return &Handler{
		reports:         deps.Reports,
		audit:           deps.Audit,
		catalog:         deps.Catalog,
		checks:          deps.Checks,
		defaultPageSize: def,
		maxPageSize:     maxSize,
		summaryDays:     defaultSummaryDays,
		startTime:       time.Now(),
		now:             time.Now,
	}
}

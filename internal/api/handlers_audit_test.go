// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/models"
)

func seedAudit(t *testing.T, store *audit.MemoryStore, n int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range n {
		sev := audit.SeverityLow
		if i%3 == 0 {
			sev = audit.SeverityHigh
		}
		rec := &audit.Record{
			ID:         uuid.NewString(),
			Action:     audit.ActionReportViewed,
			ActorID:    analystActor.ID,
			ActorRole:  models.RoleAnalyst,
			TargetType: audit.TargetReport,
			Category:   audit.CategoryReporting,
			Severity:   sev,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
}

func TestAuditLogs_Access(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	seedAudit(t, ts.auditStore, 5)

	tests := []struct {
		name   string
		path   string
		actor  *models.Actor
		status int
	}{
		{"logs anonymous", "/api/v1/audit/logs", nil, http.StatusUnauthorized},
		{"stats anonymous", "/api/v1/audit/stats", nil, http.StatusUnauthorized},
		{"logs analyst", "/api/v1/audit/logs", analystActor, http.StatusForbidden},
		{"stats manager", "/api/v1/audit/stats", managerActor, http.StatusForbidden},
		{"logs admin", "/api/v1/audit/logs", adminActor, http.StatusOK},
		{"stats super admin", "/api/v1/audit/stats", &models.Actor{ID: "u-root", Role: models.RoleSuperAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if rec := ts.do(t, http.MethodGet, tt.path, tt.actor, ""); rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestAuditLogs_QueryAndPaginate(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	seedAudit(t, ts.auditStore, 5)

	rec := ts.do(t, http.MethodGet, "/api/v1/audit/logs?limit=2&page=1", adminActor, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var records []audit.EnrichedRecord
	env := decodeData(t, rec, &records)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !records[0].Timestamp.After(records[1].Timestamp) {
		t.Error("records not newest first")
	}
	if records[0].ActorInfo != nil {
		t.Errorf("actorInfo = %+v, want null without a directory", records[0].ActorInfo)
	}
	if p := env.Meta.Pagination; p == nil || p.Total != 5 || p.Pages != 3 {
		t.Errorf("pagination = %+v", p)
	}

	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/audit/logs?severity=HIGH&actorRole=Analyst", adminActor, ""), &records)
	if len(records) != 2 {
		t.Errorf("HIGH records = %d, want 2", len(records))
	}

	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/audit/logs?start=2026-03-01T09:03:00Z", adminActor, ""), &records)
	if len(records) != 2 {
		t.Errorf("records since 09:03 = %d, want 2", len(records))
	}

	wantError(t, ts.do(t, http.MethodGet, "/api/v1/audit/logs?start=2026-03-02&end=2026-03-01", adminActor, ""),
		http.StatusBadRequest, ErrCodeValidationFailed)
	wantError(t, ts.do(t, http.MethodGet, "/api/v1/audit/logs?actorRole=emperor", adminActor, ""),
		http.StatusBadRequest, ErrCodeValidationFailed)
}

func TestAuditStats(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	seedAudit(t, ts.auditStore, 6)

	var stats audit.Stats
	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/audit/stats", adminActor, ""), &stats)
	if stats.TotalRecords != 6 || stats.DistinctActors != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.BySeverity[string(audit.SeverityHigh)] != 2 {
		t.Errorf("bySeverity = %v", stats.BySeverity)
	}
}

func TestAuditRoutes_Audited(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/api/v1/audit/logs", adminActor, "")
	ts.do(t, http.MethodGet, "/api/v1/audit/logs", analystActor, "")
	ts.do(t, http.MethodGet, "/api/v1/audit/stats", adminActor, "")

	queried := ts.recorder.ByAction(audit.ActionAuditQueried)
	if len(queried) != 2 {
		t.Fatalf("AUDIT_QUERIED records = %d, want 2", len(queried))
	}
	if queried[1].ActorID != analystActor.ID || queried[1].Severity != audit.SeverityHigh {
		t.Errorf("denied query record = %+v", queried[1])
	}
	if stats := ts.recorder.ByAction(audit.ActionAuditStatsViewed); len(stats) != 1 || stats[0].TargetType != audit.TargetAuditLog {
		t.Errorf("AUDIT_STATS_VIEWED records = %+v", stats)
	}
}

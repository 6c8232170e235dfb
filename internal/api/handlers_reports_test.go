// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/report"
)

func TestCreateReport_GeneratesAsynchronously(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/reports", analystActor, `{"name":"Q1 Orders","type":"ORDER_ANALYTICS","format":"CSV"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
	}
	var created report.CreateResult
	env := decodeData(t, rec, &created)
	if !env.Success || created.Status != report.StatusPending || created.ReportID == "" {
		t.Fatalf("create response = %+v %+v", env, created)
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Errorf("meta.requestId missing: %+v", env.Meta)
	}
	if jobs := ts.publisher.Jobs(); len(jobs) != 1 || jobs[0].ReportID != created.ReportID {
		t.Fatalf("published jobs = %+v", jobs)
	}

	if err := ts.manager.Generate(t.Context(), created.ReportID); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/reports/"+created.ReportID, analystActor, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got report.Report
	decodeData(t, rec, &got)
	if got.Status != report.StatusCompleted || got.FileDetails == nil || got.FileDetails.FileName == "" {
		t.Fatalf("report = status %s fileDetails %+v", got.Status, got.FileDetails)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/reports/"+created.ReportID+"/file", analystActor, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("file status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, got.FileDetails.FileName) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Header().Get("X-Content-Checksum") != got.FileDetails.Checksum {
		t.Errorf("checksum header = %q, want %q", rec.Header().Get("X-Content-Checksum"), got.FileDetails.Checksum)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty file body")
	}
}

func TestCreateReport_Errors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		actor  bool
		status int
		code   string
	}{
		{"unauthenticated", `{"name":"x","type":"ORDER_ANALYTICS","format":"CSV"}`, false, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"malformed json", `{"name":`, true, http.StatusBadRequest, ErrCodeValidationFailed},
		{"missing type", `{"name":"x","format":"CSV"}`, true, http.StatusBadRequest, ErrCodeValidationFailed},
		{"unknown format", `{"name":"x","type":"ORDER_ANALYTICS","format":"DOCX"}`, true, http.StatusBadRequest, ErrCodeValidationFailed},
		{"frequency without recurrence", `{"name":"x","type":"ORDER_ANALYTICS","format":"CSV","frequency":"DAILY"}`, true, http.StatusBadRequest, ErrCodeValidationFailed},
		{"role not permitted", `{"name":"x","type":"AUDIT_SUMMARY","format":"CSV"}`, true, http.StatusForbidden, ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			actor := analystActor
			if !tt.actor {
				actor = nil
			}
			env := wantError(t, ts.do(t, http.MethodPost, "/api/v1/reports", actor, tt.body), tt.status, tt.code)
			if tt.code == ErrCodeValidationFailed && tt.name != "malformed json" && env.Error.Details == nil {
				t.Error("validation error without details")
			}
		})
	}
}

func TestCreateReport_StaffLimitedToInventory(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	wantError(t, ts.do(t, http.MethodPost, "/api/v1/reports", staffActor, `{"name":"x","type":"ORDER_ANALYTICS","format":"CSV"}`),
		http.StatusForbidden, ErrCodeForbidden)

	rec := ts.do(t, http.MethodPost, "/api/v1/reports", staffActor, `{"name":"stock","type":"INVENTORY_STATUS","format":"JSON"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
}

func TestGetReport_Visibility(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	id := ts.create(t, analystActor)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"owner", "/api/v1/reports/" + id, http.StatusOK},
		{"missing", "/api/v1/reports/does-not-exist", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if rec := ts.do(t, http.MethodGet, tt.path, analystActor, ""); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	// Inaccessible is indistinguishable from missing.
	wantError(t, ts.do(t, http.MethodGet, "/api/v1/reports/"+id, otherAnalyst, ""), http.StatusNotFound, ErrCodeNotFound)
	if rec := ts.do(t, http.MethodGet, "/api/v1/reports/"+id, adminActor, ""); rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}

func TestDownloadReport_NotReady(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	id := ts.create(t, analystActor)

	wantError(t, ts.do(t, http.MethodGet, "/api/v1/reports/"+id+"/download", analystActor, ""), http.StatusConflict, ErrCodeConflict)
	wantError(t, ts.do(t, http.MethodGet, "/api/v1/reports/"+id+"/file", analystActor, ""), http.StatusConflict, ErrCodeConflict)
	// Access is checked before readiness.
	wantError(t, ts.do(t, http.MethodGet, "/api/v1/reports/"+id+"/download", otherAnalyst, ""), http.StatusNotFound, ErrCodeNotFound)
}

func TestDownloadReport_ConcurrentAppendsHistory(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	id := ts.complete(t, analystActor)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = ts.do(t, http.MethodGet, "/api/v1/reports/"+id+"/download", analystActor, "").Code
		}(i)
	}
	wg.Wait()
	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("download %d status = %d", i, code)
		}
	}

	var got report.Report
	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/reports/"+id, analystActor, ""), &got)
	if len(got.DownloadHistory) != 2 {
		t.Fatalf("downloadHistory length = %d, want 2", len(got.DownloadHistory))
	}
	if got.DownloadHistory[0].UserID != analystActor.ID || got.DownloadHistory[0].IPAddress == "" {
		t.Errorf("history entry = %+v", got.DownloadHistory[0])
	}

	// Streaming the file is not a download.
	if rec := ts.do(t, http.MethodGet, "/api/v1/reports/"+id+"/file", analystActor, ""); rec.Code != http.StatusOK {
		t.Fatalf("file status = %d", rec.Code)
	}
	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/reports/"+id, analystActor, ""), &got)
	if len(got.DownloadHistory) != 2 {
		t.Errorf("downloadHistory after /file = %d, want 2", len(got.DownloadHistory))
	}
}

func TestUpdateReportAccess(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	id := ts.create(t, analystActor)

	wantError(t, ts.do(t, http.MethodPut, "/api/v1/reports/"+id+"/access", analystActor, `{"roles":["emperor"]}`),
		http.StatusBadRequest, ErrCodeValidationFailed)

	rec := ts.do(t, http.MethodPut, "/api/v1/reports/"+id+"/access", analystActor, `{"roles":["Manager","manager"],"users":["u-analyst-2"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var got report.Report
	decodeData(t, rec, &got)
	if len(got.AccessControl.Roles) != 1 || got.AccessControl.Roles[0] != "manager" {
		t.Errorf("roles = %v, want [manager]", got.AccessControl.Roles)
	}

	// Granted viewers can read but not mutate.
	if rec := ts.do(t, http.MethodGet, "/api/v1/reports/"+id, managerActor, ""); rec.Code != http.StatusOK {
		t.Errorf("manager get status = %d", rec.Code)
	}
	wantError(t, ts.do(t, http.MethodPut, "/api/v1/reports/"+id+"/access", otherAnalyst, `{"isPublic":true}`),
		http.StatusForbidden, ErrCodeForbidden)
	wantError(t, ts.do(t, http.MethodDelete, "/api/v1/reports/"+id, managerActor, ""),
		http.StatusForbidden, ErrCodeForbidden)
}

func TestDeleteReport(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	id := ts.create(t, analystActor)

	if rec := ts.do(t, http.MethodDelete, "/api/v1/reports/"+id, analystActor, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	wantError(t, ts.do(t, http.MethodGet, "/api/v1/reports/"+id, analystActor, ""), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, ts.do(t, http.MethodDelete, "/api/v1/reports/"+id, analystActor, ""), http.StatusNotFound, ErrCodeNotFound)

	var list []report.Report
	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/reports", analystActor, ""), &list)
	if len(list) != 0 {
		t.Errorf("deleted report still listed: %d", len(list))
	}
}

func TestListReports(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	for range 3 {
		ts.create(t, analystActor)
	}
	ts.create(t, otherAnalyst)

	rec := ts.do(t, http.MethodGet, "/api/v1/reports?limit=2", analystActor, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []report.Report
	env := decodeData(t, rec, &list)
	if len(list) != 2 {
		t.Errorf("page length = %d, want 2", len(list))
	}
	p := env.Meta.Pagination
	if p == nil || p.Total != 3 || p.Pages != 2 || p.Page != 1 || p.Limit != 2 {
		t.Errorf("pagination = %+v", p)
	}
	for _, r := range list {
		if r.GeneratedBy != analystActor.ID {
			t.Errorf("foreign report listed: %s", r.GeneratedBy)
		}
	}

	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/reports?status=COMPLETED", analystActor, ""), &list)
	if len(list) != 0 {
		t.Errorf("COMPLETED filter returned %d", len(list))
	}

	for _, q := range []string{"status=DONE", "type=NOPE", "page=0", "limit=x", "start=yesterday", "start=2026-03-02&end=2026-03-01"} {
		wantError(t, ts.do(t, http.MethodGet, "/api/v1/reports?"+q, analystActor, ""), http.StatusBadRequest, ErrCodeValidationFailed)
	}
}

func TestReportRoutes_Audited(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	id := ts.create(t, analystActor)
	ts.do(t, http.MethodGet, "/api/v1/reports/"+id, analystActor, "")
	ts.do(t, http.MethodGet, "/api/v1/reports/"+id, otherAnalyst, "")
	ts.do(t, http.MethodGet, "/api/v1/reports/"+id, nil, "")

	if created := ts.recorder.ByAction(audit.ActionReportCreated); len(created) != 1 || created[0].ActorID != analystActor.ID {
		t.Errorf("REPORT_CREATED records = %+v", created)
	}

	viewed := ts.recorder.ByAction(audit.ActionReportViewed)
	if len(viewed) != 2 {
		t.Fatalf("REPORT_VIEWED records = %d, want 2 (anonymous is not audited)", len(viewed))
	}
	for _, rec := range viewed {
		if rec.TargetID != id || rec.TargetType != audit.TargetReport || rec.Category != audit.CategoryReporting {
			t.Errorf("record = %+v", rec)
		}
	}
	if viewed[0].Severity != audit.SeverityLow || viewed[1].Severity != audit.SeverityHigh {
		t.Errorf("severities = %s, %s", viewed[0].Severity, viewed[1].Severity)
	}
	if viewed[1].ErrorDetails == "" {
		t.Error("failed request recorded without errorDetails")
	}
}

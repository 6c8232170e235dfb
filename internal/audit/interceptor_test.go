// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/orderdesk/internal/models"
)

// captureRecorder collects records synchronously.
type captureRecorder struct {
	mu      sync.Mutex
	records []*Record
}

func (c *captureRecorder) Record(_ context.Context, rec *Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return true
}

func (c *captureRecorder) all() []*Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Record(nil), c.records...)
}

var reportSpec = Spec{
	Action:     ActionReportCreated,
	TargetType: TargetReport,
	Category:   CategoryReporting,
	TargetID:   func(r *http.Request) string { return r.URL.Query().Get("id") },
}

func withActor(r *http.Request, a *models.Actor) *http.Request {
	return r.WithContext(models.ContextWithActor(r.Context(), a))
}

func TestInterceptor_NoActorNoRecord(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	h := NewInterceptor(rec, 128).Instrument(reportSpec)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/api/v1/reports", strings.NewReader(`{}`)))
	}
	if n := len(rec.all()); n != 0 {
		t.Errorf("anonymous requests produced %d records", n)
	}
}

func TestInterceptor_Severity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   Severity
	}{
		{http.StatusOK, SeverityLow},
		{http.StatusAccepted, SeverityLow},
		{http.StatusFound, SeverityLow},
		{http.StatusBadRequest, SeverityHigh},
		{http.StatusNotFound, SeverityHigh},
		{http.StatusInternalServerError, SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()
			rec := &captureRecorder{}
			h := NewInterceptor(rec, 128).Instrument(reportSpec)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"success":false}`))
			}))
			req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/reports?id=r1", nil), &models.Actor{ID: "u1", Role: models.RoleAdmin, Name: "Ana"})
			h.ServeHTTP(httptest.NewRecorder(), req)

			got := rec.all()
			if len(got) != 1 {
				t.Fatalf("records = %d, want 1", len(got))
			}
			if got[0].Severity != tt.want {
				t.Errorf("Severity = %s, want %s", got[0].Severity, tt.want)
			}
			if (tt.status >= 400) != (got[0].ErrorDetails != "") {
				t.Errorf("ErrorDetails = %q for status %d", got[0].ErrorDetails, tt.status)
			}
		})
	}
}

func TestInterceptor_RecordContents(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	icpt := NewInterceptor(rec, 1024)
	clock := baseTime
	icpt.now = func() time.Time {
		clock = clock.Add(25 * time.Millisecond)
		return clock
	}

	var handlerBody string
	h := icpt.Instrument(reportSpec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		handlerBody = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))

	body := `{"name":"Q3","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports?id=r9&format=CSV", strings.NewReader(body))
	req.Header.Set("User-Agent", "test-agent")
	req = withActor(req, &models.Actor{ID: "u1", Role: models.RoleManager, Name: "Mia"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if handlerBody != body {
		t.Fatalf("handler saw %q, want full body", handlerBody)
	}

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("records = %d", len(got))
	}
	r := got[0]
	if r.Action != ActionReportCreated || r.TargetType != TargetReport || r.Category != CategoryReporting || r.TargetID != "r9" {
		t.Errorf("spec fields wrong: %+v", r)
	}
	if r.ActorID != "u1" || r.ActorRole != models.RoleManager || r.ActorName != "Mia" {
		t.Errorf("actor fields wrong: %+v", r)
	}
	if r.ExecutionTimeMs <= 0 {
		t.Errorf("ExecutionTimeMs = %d", r.ExecutionTimeMs)
	}
	if r.UserAgent != "test-agent" || r.IPAddress == "" {
		t.Errorf("network metadata missing: %+v", r)
	}

	d, err := ParseDetails(r.Details)
	if err != nil {
		t.Fatalf("ParseDetails() error = %v", err)
	}
	if d.Method != http.MethodPost || d.Path != "/api/v1/reports" || d.StatusCode != http.StatusAccepted {
		t.Errorf("details = %+v", d)
	}
	if d.Query["format"][0] != "CSV" {
		t.Errorf("query not captured: %v", d.Query)
	}
	if strings.Contains(string(d.Payload), `"x"`) || !strings.Contains(string(d.Payload), redacted) {
		t.Errorf("payload not redacted: %s", d.Payload)
	}
}

func TestInterceptor_TruncatesLargeBody(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	var handlerLen int
	h := NewInterceptor(rec, 8).Instrument(reportSpec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		handlerLen = len(b)
	}))

	body := strings.Repeat("a", 100)
	h.ServeHTTP(httptest.NewRecorder(), withActor(httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body)), &models.Actor{ID: "u"}))

	if handlerLen != 100 {
		t.Errorf("handler read %d bytes, want 100", handlerLen)
	}
	d, _ := ParseDetails(rec.all()[0].Details)
	if !d.Truncated || string(d.Payload) != `"aaaaaaaa"` {
		t.Errorf("truncation wrong: truncated=%v payload=%s", d.Truncated, d.Payload)
	}
}

func TestInterceptor_ResponseUnaffected(t *testing.T) {
	t.Parallel()

	h := NewInterceptor(&captureRecorder{}, 0).Instrument(reportSpec)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Test", "1")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, withActor(httptest.NewRequest(http.MethodGet, "/", nil), &models.Actor{ID: "u"}))
	if rr.Code != http.StatusCreated || rr.Body.String() != "ok" || rr.Header().Get("X-Test") != "1" {
		t.Errorf("response altered: %d %q", rr.Code, rr.Body.String())
	}
	if !rr.Flushed {
		t.Error("response not flushed before recording")
	}
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderdesk/internal/artifact"
	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/auth"
	"github.com/tomtom215/orderdesk/internal/authz"
	"github.com/tomtom215/orderdesk/internal/catalog"
	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/models"
	"github.com/tomtom215/orderdesk/internal/report"
)

var (
	adminActor   = &models.Actor{ID: "u-admin", Role: models.RoleAdmin, Name: "Ada"}
	analystActor = &models.Actor{ID: "u-analyst", Role: models.RoleAnalyst, Name: "Ana"}
	otherAnalyst = &models.Actor{ID: "u-analyst-2", Role: models.RoleAnalyst, Name: "Abe"}
	managerActor = &models.Actor{ID: "u-manager", Role: models.RoleManager, Name: "Max"}
	staffActor   = &models.Actor{ID: "u-staff", Role: models.RoleStaff, Name: "Sam"}
)

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []report.Job
}

func (p *recordingPublisher) PublishJob(_ context.Context, job report.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *recordingPublisher) Jobs() []report.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]report.Job(nil), p.jobs...)
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []audit.Record
}

func (r *recordingRecorder) Record(_ context.Context, rec *audit.Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return true
}

func (r *recordingRecorder) ByAction(action audit.Action) []audit.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Record
	for _, rec := range r.records {
		if rec.Action == action {
			out = append(out, rec)
		}
	}
	return out
}

type testServer struct {
	handler    http.Handler
	api        *Handler
	manager    *report.Manager
	publisher  *recordingPublisher
	recorder   *recordingRecorder
	auditStore *audit.MemoryStore
}

func newTestServer(t *testing.T, checks ...ReadinessCheck) *testServer {
	t.Helper()
	ctx := context.Background()

	cat := catalog.NewMemoryStore()
	if err := cat.Load(ctx, catalog.NewSeedData(time.Now())); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	ts := &testServer{
		publisher:  &recordingPublisher{},
		recorder:   &recordingRecorder{},
		auditStore: audit.NewMemoryStore(),
	}
	ts.manager = report.NewManager(report.Deps{
		Store:       report.NewMemoryStore(),
		Artifacts:   artifact.NewMemoryStore(),
		Sources:     report.Sources{Catalog: cat, Audit: ts.auditStore},
		Permissions: enforcer,
		Publisher:   ts.publisher,
		Recorder:    ts.recorder,
	}, config.ReportsConfig{GenerationTimeout: time.Minute, RetentionDays: 30})

	ts.api = NewHandler(Deps{
		Reports: ts.manager,
		Audit:   audit.NewQueryService(ts.auditStore, nil, 20, 100),
		Catalog: cat,
		Checks:  checks,
	}, config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100})

	ts.handler = NewRouter(
		ts.api,
		NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true}),
		auth.NewMiddleware(auth.HeaderResolver{}, WriteUnauthorized),
		authz.NewMiddleware(enforcer, WriteDenied),
		audit.NewInterceptor(ts.recorder, 4096),
	).SetupChi()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, actor *models.Actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if actor != nil {
		req.Header.Set(auth.HeaderActorID, actor.ID)
		req.Header.Set(auth.HeaderActorRole, string(actor.Role))
		req.Header.Set(auth.HeaderActorName, actor.Name)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// create posts an ORDER_ANALYTICS CSV request and returns the report id.
func (ts *testServer) create(t *testing.T, actor *models.Actor) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/reports", actor, `{"name":"Q1 Orders","type":"ORDER_ANALYTICS","format":"CSV"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body.String())
	}
	var res report.CreateResult
	decodeData(t, rec, &res)
	return res.ReportID
}

// complete creates a report and runs its generation.
func (ts *testServer) complete(t *testing.T, actor *models.Actor) string {
	t.Helper()
	id := ts.create(t, actor)
	if err := ts.manager.Generate(context.Background(), id); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return id
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
	return env
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil || env.Error.Code != code {
		t.Fatalf("envelope = %+v, want error code %s", env, code)
	}
	return env
}

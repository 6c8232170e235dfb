// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/models"
)

func testConfig(baseURL string) config.IdentityConfig {
	return config.IdentityConfig{
		BaseURL:         baseURL,
		Timeout:         time.Second,
		CacheSize:       100,
		CacheTTL:        time.Minute,
		RateLimit:       1000,
		RateBurst:       100,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}
}

func directoryServer(t *testing.T, calls *atomic.Int32, profiles map[string]Profile) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/actors/resolve" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var resp resolveResponse
		for _, id := range req.IDs {
			if p, ok := profiles[id]; ok {
				resp.Profiles = append(resp.Profiles, p)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ResolveActors_BatchesAndCaches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := directoryServer(t, &calls, map[string]Profile{
		"u1": {ID: "u1", Name: "Ana", Role: "Super Admin", Active: true},
		"u2": {ID: "u2", Name: "Ben", Role: models.RoleDealer, Active: true},
	})
	c := NewClient(testConfig(srv.URL), srv.Client())

	got, err := c.ResolveActors(context.Background(), []string{"u1", "u2", "u1", "ghost", ""})
	if err != nil {
		t.Fatalf("ResolveActors: %v", err)
	}
	if len(got) != 2 || got["u1"].Name != "Ana" || got["u2"].Name != "Ben" {
		t.Fatalf("unexpected profiles: %+v", got)
	}
	if got["u1"].Role != models.RoleSuperAdmin {
		t.Errorf("role not normalized: %q", got["u1"].Role)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one batched call, got %d", calls.Load())
	}

	// second lookup of known ids is served from cache
	if _, err := c.ResolveActors(context.Background(), []string{"u1", "u2"}); err != nil {
		t.Fatalf("ResolveActors (cached): %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected cache hit, got %d calls", calls.Load())
	}
}

func TestClient_ResolveActors_FailureKeepsCachedProfiles(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(resolveResponse{Profiles: []Profile{{ID: "u1", Name: "Ana"}}})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())
	if _, err := c.ResolveActors(context.Background(), []string{"u1"}); err != nil {
		t.Fatalf("warmup: %v", err)
	}

	fail.Store(true)
	got, err := c.ResolveActors(context.Background(), []string{"u1", "u9"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got["u1"].Name != "Ana" {
		t.Errorf("cached profile should survive failure: %+v", got)
	}
	if _, ok := got["u9"]; ok {
		t.Error("unresolved id must be absent")
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())
	for i := 0; i < 5; i++ {
		_, err := c.ResolveActors(context.Background(), []string{"x"})
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: expected ErrUnavailable, got %v", i, err)
		}
	}

	// BreakerFailures=2: after two failures the breaker rejects without calling out
	if calls.Load() != 2 {
		t.Errorf("expected 2 outbound calls before the breaker opened, got %d", calls.Load())
	}
}

func TestStaticDirectoryAndName(t *testing.T) {
	t.Parallel()

	dir := StaticDirectory{"u1": {ID: "u1", Name: "Ana"}}
	got, err := dir.ResolveActors(context.Background(), []string{"u1", "u2"})
	if err != nil || len(got) != 1 {
		t.Fatalf("ResolveActors = %v, %v", got, err)
	}
	if Name(context.Background(), dir, "u1") != "Ana" {
		t.Error("Name should resolve u1")
	}
	if Name(context.Background(), nil, "u1") != "" {
		t.Error("nil directory yields empty name")
	}
}

func TestClient_ResolveActors_PageSizeBatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ids       int
		wantCalls int32
	}{
		{"largest allowed page", config.MaxPageSizeLimit, 1},
		{"one over", config.MaxPageSizeLimit + 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := directoryServer(t, &calls, map[string]Profile{})
			cfg := testConfig(srv.URL)
			cfg.CacheSize = 1000
			c := NewClient(cfg, srv.Client())

			ids := make([]string, tt.ids)
			for i := range ids {
				ids[i] = fmt.Sprintf("u-%03d", i)
			}
			if _, err := c.ResolveActors(context.Background(), ids); err != nil {
				t.Fatalf("ResolveActors: %v", err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("directory calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderdesk/internal/catalog"
)

func TestAnalyticsSummary_Public(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/analytics/summary", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var summary catalog.Summary
	env := decodeData(t, rec, &summary)
	if !env.Success {
		t.Fatal("success = false")
	}
	if summary.TotalOrders == 0 || summary.Dealers == 0 || summary.ActiveProducts == 0 {
		t.Errorf("summary = %+v", summary)
	}
	if got := summary.GeneratedAt.Sub(summary.Since); got != 30*24*time.Hour {
		t.Errorf("window = %v, want 30 days", got)
	}

	// The public view carries no role-scoped or per-actor fields.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"generatedBy", "actorId", "role", "orders"} {
		if _, ok := raw[k]; ok {
			t.Errorf("unexpected field %q in public summary", k)
		}
	}

	// Anonymous requests are never audited.
	if len(ts.recorder.records) != 0 {
		t.Errorf("recorded %d audit records for a public route", len(ts.recorder.records))
	}
}

func TestAnalyticsSummary_Days(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	var summary catalog.Summary
	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/analytics/summary?days=7", nil, ""), &summary)
	if got := summary.GeneratedAt.Sub(summary.Since); got != 7*24*time.Hour {
		t.Errorf("window = %v, want 7 days", got)
	}

	for _, q := range []string{"0", "-1", "367", "week"} {
		wantError(t, ts.do(t, http.MethodGet, "/api/v1/analytics/summary?days="+q, nil, ""), http.StatusBadRequest, ErrCodeValidationFailed)
	}
}

type failingSource struct{}

func (failingSource) Orders(context.Context, catalog.OrderFilter) ([]catalog.Order, error) {
	return nil, errors.New("catalog offline")
}

func (failingSource) Products(context.Context, catalog.ProductFilter) ([]catalog.Product, error) {
	return nil, nil
}

func (failingSource) Dealers(context.Context) ([]catalog.Dealer, error) {
	return nil, nil
}

func TestAnalyticsSummary_SourceError(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.api.catalog = failingSource{}

	env := wantError(t, ts.do(t, http.MethodGet, "/api/v1/analytics/summary", nil, ""), http.StatusInternalServerError, ErrCodeInternalError)
	if env.Error.Message == "catalog offline" {
		t.Error("internal error leaked to the client")
	}
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/catalog"
	"github.com/tomtom215/orderdesk/internal/models"
)

func seededSources(t *testing.T) Sources {
	t.Helper()
	cat := catalog.NewMemoryStore()
	if err := cat.Load(context.Background(), catalog.NewSeedData(testNow)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return Sources{Catalog: cat, Audit: audit.NewMemoryStore()}
}

func TestDefaultBuilders_CoverAllTypes(t *testing.T) {
	t.Parallel()

	src := seededSources(t)
	builders := DefaultBuilders()
	for _, typ := range Types {
		build, ok := builders[typ]
		if !ok {
			t.Errorf("no builder for %s", typ)
			continue
		}
		ds, err := build(context.Background(), src, &Report{Name: "n", Type: typ})
		if err != nil {
			t.Errorf("%s build error = %v", typ, err)
			continue
		}
		if len(ds.Columns) == 0 {
			t.Errorf("%s has no columns", typ)
		}
		for i, row := range ds.Rows {
			if len(row) != len(ds.Columns) {
				t.Errorf("%s row %d has %d cells, want %d", typ, i, len(row), len(ds.Columns))
				break
			}
		}
	}
}

func TestBuildSalesSummary_MatchesSummary(t *testing.T) {
	t.Parallel()

	src := seededSources(t)
	ctx := context.Background()
	start := testNow.AddDate(0, 0, -30)
	r := &Report{Name: "s", Type: TypeSalesSummary, DateRange: &DateRange{Start: start, End: testNow},
		Parameters: json.RawMessage(`{"groupBy":"month"}`)}

	ds, err := buildSalesSummary(ctx, src, r)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	summary, err := catalog.Summarize(ctx, src.Catalog, start, testNow)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	revenue := decimal.Zero
	for _, row := range ds.Rows {
		revenue = revenue.Add(row[3].(decimal.Decimal))
		if p := row[0].(string); len(p) != len("2026-03") {
			t.Errorf("period %q is not a month", p)
		}
	}
	if !revenue.Equal(summary.TotalRevenue) {
		t.Errorf("revenue = %s, summary = %s", revenue, summary.TotalRevenue)
	}
}

func TestBuildProductPerformance_LimitAndOrder(t *testing.T) {
	t.Parallel()

	src := seededSources(t)
	r := &Report{Name: "p", Type: TypeProductPerformance, Parameters: json.RawMessage(`{"limit":5}`)}
	ds, err := buildProductPerformance(context.Background(), src, r)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	if len(ds.Rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(ds.Rows))
	}
	for i := 1; i < len(ds.Rows); i++ {
		prev, cur := ds.Rows[i-1][6].(decimal.Decimal), ds.Rows[i][6].(decimal.Decimal)
		if cur.GreaterThan(prev) {
			t.Errorf("row %d revenue %s > previous %s", i, cur, prev)
		}
	}
}

func TestBuildCategoryBreakdown_SharesSumTo100(t *testing.T) {
	t.Parallel()

	ds, err := buildCategoryBreakdown(context.Background(), seededSources(t), &Report{Name: "c", Type: TypeCategoryBreakdown})
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	total := decimal.Zero
	for _, row := range ds.Rows {
		total = total.Add(row[4].(decimal.Decimal))
	}
	if diff := total.Sub(decimal.NewFromInt(100)).Abs(); diff.GreaterThan(decimal.RequireFromString("0.05")) {
		t.Errorf("shares sum to %s", total)
	}
}

func TestBuildDealerPerformance_Scope(t *testing.T) {
	t.Parallel()

	src := seededSources(t)
	dealers, _ := src.Catalog.Dealers(context.Background())
	r := &Report{Name: "d", Type: TypeDealerPerformance, Scope: Scope{Dealers: []string{dealers[0].ID}}}
	ds, err := buildDealerPerformance(context.Background(), src, r)
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	if len(ds.Rows) != 1 || ds.Rows[0][0] != dealers[0].ID {
		t.Errorf("rows = %v", ds.Rows)
	}
}

func TestBuildAuditSummary(t *testing.T) {
	t.Parallel()

	src := seededSources(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rec := &audit.Record{
			ID: "a" + string(rune('0'+i)), Action: audit.ActionReportViewed, ActorID: "u1",
			ActorRole: models.RoleAdmin, Category: audit.CategoryReporting, Severity: audit.SeverityLow,
			Timestamp: testNow.Add(-time.Duration(i) * time.Hour), ExecutionTimeMs: 10,
		}
		if err := src.Audit.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := src.Audit.Append(ctx, &audit.Record{
		ID: "b0", Action: audit.ActionReportDeleted, ActorID: "u2", Category: audit.CategoryReporting,
		Severity: audit.SeverityHigh, Timestamp: testNow,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	ds, err := buildAuditSummary(ctx, src, &Report{Name: "a", Type: TypeAuditSummary})
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	if len(ds.Rows) != 2 {
		t.Fatalf("rows = %v, want 2 groups", ds.Rows)
	}

	if _, err := buildAuditSummary(ctx, Sources{Catalog: src.Catalog}, &Report{Type: TypeAuditSummary}); err == nil {
		t.Error("build without audit store succeeded")
	}
}

func TestParseParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Parameters
		wantErr bool
	}{
		{"", Parameters{GroupBy: "day"}, false},
		{"null", Parameters{GroupBy: "day"}, false},
		{`{"groupBy":"week","limit":3,"extra":true}`, Parameters{GroupBy: "week", Limit: 3}, false},
		{`{"groupBy":""}`, Parameters{GroupBy: "day"}, false},
		{`{"groupBy":"year"}`, Parameters{}, true},
		{`{"limit":-1}`, Parameters{}, true},
		{`{`, Parameters{}, true},
	}
	for _, tt := range tests {
		got, err := ParseParameters([]byte(tt.raw))
		if tt.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParseParameters(%q) error = %v, want ErrValidation", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseParameters(%q) = %+v, %v; want %+v", tt.raw, got, err, tt.want)
		}
	}
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/tomtom215/orderdesk/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedStore(t *testing.T, s Store, recs ...Record) {
	t.Helper()
	for i := range recs {
		if err := s.Append(context.Background(), &recs[i]); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
}

func sampleRecords() []Record {
	return []Record{
		{ID: "a", Action: ActionReportCreated, ActorID: "u1", ActorRole: models.RoleAdmin, TargetType: TargetReport, TargetID: "r1",
			Category: CategoryReporting, Severity: SeverityLow, Timestamp: baseTime, ExecutionTimeMs: 10},
		{ID: "b", Action: ActionReportDownloaded, ActorID: "u2", ActorRole: models.RoleDealer, TargetType: TargetReport, TargetID: "r1",
			Category: CategoryReporting, Severity: SeverityHigh, Timestamp: baseTime.Add(time.Minute), ExecutionTimeMs: 30, ErrorDetails: "not ready"},
		{ID: "c", Action: ActionAuditQueried, ActorID: "u1", ActorRole: models.RoleAdmin, TargetType: TargetAuditLog,
			Category: CategoryAudit, Severity: SeverityLow, Timestamp: baseTime.Add(2 * time.Minute), ExecutionTimeMs: 20, BulkOperationID: "bulk-1"},
	}
}

func TestMemoryStore_QueryFiltersAndOrder(t *testing.T) {
	t.Parallel()

	start := baseTime.Add(30 * time.Second)
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"c", "b", "a"}},
		{"by actor", Filter{ActorID: "u1"}, []string{"c", "a"}},
		{"by action", Filter{Action: ActionReportDownloaded}, []string{"b"}},
		{"by role", Filter{ActorRole: models.RoleDealer}, []string{"b"}},
		{"by target", Filter{TargetType: TargetReport, TargetID: "r1"}, []string{"b", "a"}},
		{"by category", Filter{Category: CategoryAudit}, []string{"c"}},
		{"by severity", Filter{Severity: SeverityHigh}, []string{"b"}},
		{"by bulk op", Filter{BulkOperationID: "bulk-1"}, []string{"c"}},
		{"by start", Filter{Start: &start}, []string{"c", "b"}},
		{"by end", Filter{End: &start}, []string{"a"}},
	}

	s := NewMemoryStore()
	seedStore(t, s, sampleRecords()...)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, total, err := s.Query(context.Background(), tt.filter, models.Page{Page: 1, Limit: 10})
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if int(total) != len(tt.want) || len(got) != len(tt.want) {
				t.Fatalf("got %d records (total %d), want %d", len(got), total, len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("record[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestMemoryStore_Pagination(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	seedStore(t, s, sampleRecords()...)

	got, total, err := s.Query(context.Background(), Filter{}, models.Page{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if total != 3 || len(got) != 1 || got[0].ID != "a" {
		t.Errorf("page 2 = %v (total %d)", got, total)
	}

	got, _, _ = s.Query(context.Background(), Filter{}, models.Page{Page: 5, Limit: 2})
	if len(got) != 0 {
		t.Errorf("out-of-range page returned %d records", len(got))
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	seedStore(t, s, sampleRecords()...)

	stats, err := s.Stats(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalRecords != 3 || stats.DistinctActors != 2 || stats.DistinctActions != 3 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.AvgExecutionTimeMs != 20 {
		t.Errorf("AvgExecutionTimeMs = %v, want 20", stats.AvgExecutionTimeMs)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", stats.ErrorCount)
	}
	if stats.BySeverity["LOW"] != 2 || stats.ByCategory["REPORTING"] != 2 {
		t.Errorf("breakdowns = %v %v", stats.BySeverity, stats.ByCategory)
	}

	empty, err := s.Stats(context.Background(), Filter{ActorID: "nobody"})
	if err != nil || empty.TotalRecords != 0 || empty.AvgExecutionTimeMs != 0 {
		t.Errorf("empty stats = %+v, %v", empty, err)
	}
}

// Property: for any append order, every page is in non-increasing timestamp order
// and pages do not overlap.
func TestMemoryStore_OrderingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("query results are newest first", prop.ForAll(
		func(offsets []int, limit int) bool {
			s := NewMemoryStore()
			for i, off := range offsets {
				rec := Record{
					ID:        fmt.Sprintf("r%04d", i),
					Action:    ActionReportViewed,
					ActorID:   "u",
					Timestamp: baseTime.Add(time.Duration(off) * time.Second),
				}
				if err := s.Append(context.Background(), &rec); err != nil {
					return false
				}
			}

			var prev *Record
			seen := make(map[string]bool)
			for page := 1; ; page++ {
				got, total, err := s.Query(context.Background(), Filter{}, models.Page{Page: page, Limit: limit})
				if err != nil || int(total) != len(offsets) {
					return false
				}
				if len(got) == 0 {
					break
				}
				for i := range got {
					if seen[got[i].ID] {
						return false
					}
					seen[got[i].ID] = true
					if prev != nil && got[i].Timestamp.After(prev.Timestamp) {
						return false
					}
					prev = &got[i]
				}
			}
			return len(seen) == len(offsets)
		},
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.IntRange(1, 7),
	))

	properties.TestingRun(t)
}

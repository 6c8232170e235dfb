// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

//go:build integration

package audit

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/orderdesk/internal/models"
)

func setupTestDB(t *testing.T) *DuckDBStore {
	t.Helper()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewDuckDBStore(db)
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	return store
}

func TestDuckDBStore_CreateTableIdempotent(t *testing.T) {
	store := setupTestDB(t)
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("second CreateTable failed: %v", err)
	}
}

func TestDuckDBStore_AppendAndQuery(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	recs := sampleRecords()
	recs[0].Details = Details{Method: "POST", Path: "/api/v1/reports", StatusCode: 202}.Marshal()
	recs[0].NewValues = []byte(`{"status":"PENDING"}`)
	seedStore(t, store, recs...)

	got, total, err := store.Query(ctx, Filter{}, models.Page{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if total != 3 || len(got) != 3 {
		t.Fatalf("got %d records (total %d)", len(got), total)
	}
	if got[0].ID != "c" || got[2].ID != "a" {
		t.Errorf("order = %s,%s,%s", got[0].ID, got[1].ID, got[2].ID)
	}

	d, err := ParseDetails(got[2].Details)
	if err != nil || d.StatusCode != 202 {
		t.Errorf("details round trip = %+v, %v", d, err)
	}
	if got[2].ActorRole != models.RoleAdmin || got[1].ErrorDetails != "not ready" {
		t.Errorf("fields lost: %+v / %+v", got[2], got[1])
	}
}

func TestDuckDBStore_QueryFilters(t *testing.T) {
	store := setupTestDB(t)
	seedStore(t, store, sampleRecords()...)
	start := baseTime.Add(30e9)

	tests := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"actor", Filter{ActorID: "u1"}, 2},
		{"severity", Filter{Severity: SeverityHigh}, 1},
		{"target", Filter{TargetType: TargetReport, TargetID: "r1"}, 2},
		{"bulk", Filter{BulkOperationID: "bulk-1"}, 1},
		{"start", Filter{Start: &start}, 2},
		{"role and category", Filter{ActorRole: models.RoleAdmin, Category: CategoryAudit}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := store.Query(context.Background(), tt.filter, models.Page{Page: 1, Limit: 1})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}
}

func TestDuckDBStore_Stats(t *testing.T) {
	store := setupTestDB(t)
	seedStore(t, store, sampleRecords()...)

	stats, err := store.Stats(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalRecords != 3 || stats.DistinctActors != 2 || stats.DistinctActions != 3 || stats.ErrorCount != 1 {
		t.Errorf("Stats = %+v", stats)
	}
	if stats.AvgExecutionTimeMs != 20 {
		t.Errorf("AvgExecutionTimeMs = %v", stats.AvgExecutionTimeMs)
	}
	if stats.BySeverity["HIGH"] != 1 || stats.ByCategory["AUDIT"] != 1 {
		t.Errorf("breakdowns = %v %v", stats.BySeverity, stats.ByCategory)
	}
}

// A row that cannot be scanned fails the read instead of being dropped
// from the page or the breakdown.
func TestDuckDBStore_UnscannableRow(t *testing.T) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Same columns as CreateTable without the NOT NULL constraints.
	stmts := []string{
		`CREATE TABLE audit_records (
			id TEXT PRIMARY KEY, action TEXT, actor_id TEXT, actor_role TEXT, actor_name TEXT,
			target_type TEXT, target_id TEXT, target_identifier TEXT, details JSON,
			timestamp TIMESTAMPTZ, severity TEXT, category TEXT, execution_time_ms BIGINT,
			old_values JSON, new_values JSON, error_details TEXT, bulk_operation_id TEXT,
			file_name TEXT, file_size BIGINT, request_id TEXT, ip_address TEXT, user_agent TEXT
		)`,
		`INSERT INTO audit_records (id, action, actor_id, actor_role, target_type, timestamp, severity, category, execution_time_ms)
			VALUES ('a-1', 'LOGIN', 'u-1', 'admin', 'SYSTEM', now(), 'LOW', 'AUTH', 1)`,
		`INSERT INTO audit_records (id, action, actor_id, actor_role, target_type, timestamp, severity, category, execution_time_ms)
			VALUES ('a-2', 'LOGIN', 'u-2', 'admin', 'SYSTEM', now(), NULL, 'AUTH', 1)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec failed: %v", err)
		}
	}
	store := NewDuckDBStore(db)

	tests := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{"query", func(ctx context.Context) error {
			_, _, err := store.Query(ctx, Filter{}, models.Page{Page: 1, Limit: 10})
			return err
		}},
		{"stats", func(ctx context.Context) error {
			_, err := store.Stats(ctx, Filter{})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(context.Background()); err == nil {
				t.Error("error = nil, want scan error")
			}
		})
	}
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tomtom215/orderdesk/internal/config"
)

func TestOpenMemory(t *testing.T) {
	t.Parallel()

	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestNew_FileCreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "orderdesk.duckdb")
	db, err := New(&config.DatabaseConfig{Path: path, MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

type tableCreator struct {
	db   *DB
	name string
}

func (c tableCreator) CreateTable(ctx context.Context) error {
	return ExecStatements(ctx, c.db.Conn(), "CREATE TABLE IF NOT EXISTS "+c.name+" (id TEXT PRIMARY KEY); CREATE INDEX IF NOT EXISTS idx_"+c.name+" ON "+c.name+"(id);")
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := EnsureSchema(ctx, tableCreator{db, "a"}, tableCreator{db, "b"}); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	// idempotent
	if err := EnsureSchema(ctx, tableCreator{db, "a"}); err != nil {
		t.Fatalf("EnsureSchema() rerun error = %v", err)
	}

	var n int
	if err := db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM information_schema.tables WHERE table_name IN ('a','b')").Scan(&n); err != nil || n != 2 {
		t.Errorf("tables = %d, %v", n, err)
	}

	if err := ExecStatements(ctx, db.Conn(), "CREATE TABLE broken ("); err == nil {
		t.Error("malformed DDL should fail")
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	for n, want := range map[int]string{0: "", 1: "?", 3: "?,?,?"} {
		if got := Placeholders(n); got != want {
			t.Errorf("Placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestIsTransactionConflict(t *testing.T) {
	t.Parallel()

	if !IsTransactionConflict(errors.New("TransactionContext Error: Transaction conflict: cannot update")) {
		t.Error("conflict not detected")
	}
	if IsTransactionConflict(nil) || IsTransactionConflict(errors.New("syntax error")) {
		t.Error("false positive")
	}
}

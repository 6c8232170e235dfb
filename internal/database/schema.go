// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SchemaCreator is implemented by every store owning tables.
type SchemaCreator interface {
	CreateTable(ctx context.Context) error
}

// EnsureSchema creates the tables of every store, in order.
func EnsureSchema(ctx context.Context, stores ...SchemaCreator) error {
	for _, s := range stores {
		if err := s.CreateTable(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ExecStatements runs a semicolon-separated DDL script one statement at a
// time. Statements must not contain literal semicolons.
func ExecStatements(ctx context.Context, conn *sql.DB, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Placeholders returns n comma-separated "?" markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

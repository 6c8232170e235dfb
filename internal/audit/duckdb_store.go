// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/orderdesk/internal/database"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/metrics"
	"github.com/tomtom215/orderdesk/internal/models"
)

const auditTable = "audit_records"

// DuckDBStore implements Store using DuckDB for persistent storage.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a new DuckDB-backed audit store.
// The caller is responsible for ensuring the table exists (CreateTable).
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the audit_records table and its indexes if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS audit_records (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			actor_role TEXT NOT NULL,
			actor_name TEXT,
			target_type TEXT NOT NULL,
			target_id TEXT,
			target_identifier TEXT,
			details JSON,
			timestamp TIMESTAMPTZ NOT NULL,
			severity TEXT NOT NULL,
			category TEXT NOT NULL,
			execution_time_ms BIGINT NOT NULL DEFAULT 0,
			old_values JSON,
			new_values JSON,
			error_details TEXT,
			bulk_operation_id TEXT,
			file_name TEXT,
			file_size BIGINT,
			request_id TEXT,
			ip_address TEXT,
			user_agent TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_audit_action_ts ON audit_records(action, timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_actor_ts ON audit_records(actor_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_records(target_type, target_id);
		CREATE INDEX IF NOT EXISTS idx_audit_category_ts ON audit_records(category, timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_severity_ts ON audit_records(severity, timestamp);
	`

	if err := database.ExecStatements(ctx, s.db, query); err != nil {
		return err
	}

	logging.Info().Msg("Audit records table created/verified")
	return nil
}

// Append persists an audit record to DuckDB.
func (s *DuckDBStore) Append(ctx context.Context, rec *Record) (err error) {
	if rec == nil {
		return errors.New("record cannot be nil")
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", auditTable, time.Since(start), err) }()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_records (
			id, action, actor_id, actor_role, actor_name,
			target_type, target_id, target_identifier, details,
			timestamp, severity, category, execution_time_ms,
			old_values, new_values, error_details, bulk_operation_id,
			file_name, file_size, request_id, ip_address, user_agent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Action), rec.ActorID, string(rec.ActorRole), nullString(rec.ActorName),
		string(rec.TargetType), nullString(rec.TargetID), nullString(rec.TargetIdentifier), nullJSON(rec.Details),
		rec.Timestamp.UTC(), string(rec.Severity), string(rec.Category), rec.ExecutionTimeMs,
		nullJSON(rec.OldValues), nullJSON(rec.NewValues), nullString(rec.ErrorDetails), nullString(rec.BulkOperationID),
		nullString(rec.FileName), rec.FileSize, nullString(rec.RequestID), nullString(rec.IPAddress), nullString(rec.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// Query retrieves one page of matching records, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter Filter, page models.Page) (_ []Record, _ int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", auditTable, time.Since(start), err) }()

	where, args := buildWhere(&filter)

	var total int64
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	// JSON columns are cast to VARCHAR for scanning
	query := `
		SELECT id, action, actor_id, actor_role, actor_name,
			target_type, target_id, target_identifier, CAST(details AS VARCHAR),
			timestamp, severity, category, execution_time_ms,
			CAST(old_values AS VARCHAR), CAST(new_values AS VARCHAR), error_details, bulk_operation_id,
			file_name, file_size, request_id, ip_address, user_agent
		FROM audit_records` + where + `
		ORDER BY timestamp DESC, id DESC`
	pageArgs := args
	if page.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		pageArgs = append(append([]any{}, args...), page.Limit, page.Offset())
	}

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, page.Limit)
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan audit record: %w", scanErr)
		}
		records = append(records, *rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit records: %w", err)
	}
	return records, total, nil
}

// Stats aggregates matching records.
func (s *DuckDBStore) Stats(ctx context.Context, filter Filter) (_ *Stats, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("stats", auditTable, time.Since(start), err) }()

	where, args := buildWhere(&filter)
	stats := &Stats{}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(DISTINCT actor_id),
			COUNT(DISTINCT action),
			COALESCE(AVG(execution_time_ms), 0),
			COALESCE(SUM(CASE WHEN error_details IS NOT NULL AND error_details <> '' THEN 1 ELSE 0 END), 0)
		FROM audit_records`+where, args...).Scan(
		&stats.TotalRecords, &stats.DistinctActors, &stats.DistinctActions,
		&stats.AvgExecutionTimeMs, &stats.ErrorCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate audit records: %w", err)
	}

	if stats.BySeverity, err = s.countByColumn(ctx, "severity", where, args); err != nil {
		return nil, err
	}
	if stats.ByCategory, err = s.countByColumn(ctx, "category", where, args); err != nil {
		return nil, err
	}
	return stats, nil
}

// countByColumn executes a GROUP BY query and returns counts per value.
// column is always a package constant, never user input.
func (s *DuckDBStore) countByColumn(ctx context.Context, column, where string, args []any) (map[string]int64, error) {
	result := make(map[string]int64)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM audit_records%s GROUP BY %s", column, where, column)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		result[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return result, nil
}

// buildWhere renders the filter as a parameterized WHERE clause.
func buildWhere(f *Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		conds = append(conds, cond)
		args = append(args, v)
	}

	if f.Action != "" {
		add("action = ?", string(f.Action))
	}
	if f.ActorID != "" {
		add("actor_id = ?", f.ActorID)
	}
	if f.ActorRole != "" {
		add("actor_role = ?", string(f.ActorRole))
	}
	if f.TargetType != "" {
		add("target_type = ?", string(f.TargetType))
	}
	if f.TargetID != "" {
		add("target_id = ?", f.TargetID)
	}
	if f.Category != "" {
		add("category = ?", string(f.Category))
	}
	if f.Severity != "" {
		add("severity = ?", string(f.Severity))
	}
	if f.BulkOperationID != "" {
		add("bulk_operation_id = ?", f.BulkOperationID)
	}
	if f.Start != nil {
		add("timestamp >= ?", f.Start.UTC())
	}
	if f.End != nil {
		add("timestamp <= ?", f.End.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var actorName, targetID, targetIdentifier, details sql.NullString
	var oldValues, newValues, errorDetails, bulkID sql.NullString
	var fileName, requestID, ip, ua sql.NullString
	var fileSize sql.NullInt64
	var action, role, targetType, severity, category string

	err := row.Scan(
		&rec.ID, &action, &rec.ActorID, &role, &actorName,
		&targetType, &targetID, &targetIdentifier, &details,
		&rec.Timestamp, &severity, &category, &rec.ExecutionTimeMs,
		&oldValues, &newValues, &errorDetails, &bulkID,
		&fileName, &fileSize, &requestID, &ip, &ua,
	)
	if err != nil {
		return nil, err
	}

	rec.Action = Action(action)
	rec.ActorRole = models.Role(role)
	rec.TargetType = TargetType(targetType)
	rec.Severity = Severity(severity)
	rec.Category = Category(category)
	rec.ActorName = actorName.String
	rec.TargetID = targetID.String
	rec.TargetIdentifier = targetIdentifier.String
	if details.Valid {
		rec.Details = []byte(details.String)
	}
	if oldValues.Valid {
		rec.OldValues = []byte(oldValues.String)
	}
	if newValues.Valid {
		rec.NewValues = []byte(newValues.String)
	}
	rec.ErrorDetails = errorDetails.String
	rec.BulkOperationID = bulkID.String
	rec.FileName = fileName.String
	rec.FileSize = fileSize.Int64
	rec.RequestID = requestID.String
	rec.IPAddress = ip.String
	rec.UserAgent = ua.String
	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

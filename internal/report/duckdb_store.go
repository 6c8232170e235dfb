// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/orderdesk/internal/database"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/metrics"
	"github.com/tomtom215/orderdesk/internal/models"
)

// Access principal kinds in report_access.
const (
	principalRole = "role"
	principalUser = "user"
)

const reportColumns = `
	report_id, name, type, category, generated_by, generated_by_role, generated_by_name,
	parameters, date_start, date_end, scope, format, status,
	file_name, file_size, file_path, download_url, expires_at, content_type, checksum,
	started_at, completed_at, execution_time_ms, record_count, error_message,
	is_public, is_recurring, frequency, next_generation, last_generated,
	is_deleted, deleted_at, deleted_by, created_at, updated_at`

// DuckDBStore implements Store on DuckDB. Access lists and download history
// live in child tables so that downloads are plain inserts.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed report store.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the report tables and indexes if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			report_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			category TEXT NOT NULL,
			generated_by TEXT NOT NULL,
			generated_by_role TEXT NOT NULL,
			generated_by_name TEXT,
			parameters JSON,
			date_start TIMESTAMPTZ,
			date_end TIMESTAMPTZ,
			scope JSON,
			format TEXT NOT NULL,
			status TEXT NOT NULL,
			file_name TEXT,
			file_size BIGINT,
			file_path TEXT,
			download_url TEXT,
			expires_at TIMESTAMPTZ,
			content_type TEXT,
			checksum TEXT,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			execution_time_ms BIGINT NOT NULL DEFAULT 0,
			record_count INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
			frequency TEXT,
			next_generation TIMESTAMPTZ,
			last_generated TIMESTAMPTZ,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at TIMESTAMPTZ,
			deleted_by TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS report_access (
			report_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			principal TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS report_downloads (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			user_role TEXT NOT NULL,
			downloaded_at TIMESTAMPTZ NOT NULL,
			ip_address TEXT,
			user_agent TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_reports_type_created ON reports(type, created_at);
		CREATE INDEX IF NOT EXISTS idx_reports_owner_created ON reports(generated_by, created_at);
		CREATE INDEX IF NOT EXISTS idx_reports_status_created ON reports(status, created_at);
		CREATE INDEX IF NOT EXISTS idx_reports_schedule ON reports(is_recurring, next_generation);
		CREATE INDEX IF NOT EXISTS idx_report_access_report ON report_access(report_id);
		CREATE INDEX IF NOT EXISTS idx_report_downloads_report ON report_downloads(report_id, downloaded_at)
	`
	if err := database.ExecStatements(ctx, s.db, schema); err != nil {
		return err
	}
	logging.Info().Msg("Report tables created/verified")
	return nil
}

// Insert implements Store.
func (s *DuckDBStore) Insert(ctx context.Context, r *Report) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "reports", time.Since(start), err) }()

	scope, err := json.Marshal(r.Scope)
	if err != nil {
		return fmt.Errorf("marshal scope: %w", err)
	}
	var dateStart, dateEnd any
	if r.DateRange != nil {
		dateStart, dateEnd = r.DateRange.Start.UTC(), r.DateRange.End.UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report insert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (
			report_id, name, type, category, generated_by, generated_by_role, generated_by_name,
			parameters, date_start, date_end, scope, format, status,
			is_public, is_recurring, frequency, next_generation, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReportID, r.Name, string(r.Type), r.Category, r.GeneratedBy, string(r.GeneratedByRole), nullString(r.GeneratedByName),
		nullJSON(r.Parameters), dateStart, dateEnd, string(scope), string(r.Format), string(r.Status),
		r.AccessControl.IsPublic, r.Schedule.IsRecurring, nullString(string(r.Schedule.Frequency)), nullTime(r.Schedule.NextGeneration),
		r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	if err = insertAccess(ctx, tx, r.ReportID, r.AccessControl); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit report insert: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *DuckDBStore) Get(ctx context.Context, id string) (_ *Report, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "reports", time.Since(start), err) }()

	r, err := scanReport(s.db.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE report_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	reports := []Report{*r}
	if err = s.attachChildren(ctx, reports); err != nil {
		return nil, err
	}
	return &reports[0], nil
}

// List implements Store.
func (s *DuckDBStore) List(ctx context.Context, filter ListFilter, page models.Page) (_ []Report, _ int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "reports", time.Since(start), err) }()

	conds := []string{"NOT r.is_deleted"}
	var args []any
	if v := filter.Viewer; v != nil {
		conds = append(conds, `(r.is_public OR (r.generated_by = ? AND r.generated_by <> '') OR EXISTS (
			SELECT 1 FROM report_access a WHERE a.report_id = r.report_id
			AND ((a.kind = 'role' AND a.principal = ?) OR (a.kind = 'user' AND a.principal = ?))))`)
		args = append(args, v.ID, string(v.Role), v.ID)
	}
	if filter.Type != "" {
		conds = append(conds, "r.type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Start != nil {
		conds = append(conds, "r.created_at >= ?")
		args = append(args, filter.Start.UTC())
	}
	if filter.End != nil {
		conds = append(conds, "r.created_at <= ?")
		args = append(args, filter.End.UTC())
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int64
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports r"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	query := "SELECT " + prefixColumns("r.") + " FROM reports r" + where + " ORDER BY r.created_at DESC, r.report_id DESC"
	pageArgs := append([]any(nil), args...)
	if page.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		pageArgs = append(pageArgs, page.Limit, page.Offset())
	}
	reports, err := s.queryReports(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	if err = s.attachChildren(ctx, reports); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// Transition implements Store.
func (s *DuckDBStore) Transition(ctx context.Context, id string, from Status, t Transition) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "reports", time.Since(start), err) }()

	if !CanTransition(from, t.To) {
		return fmt.Errorf("%w: illegal transition %s -> %s", ErrStatusConflict, from, t.To)
	}

	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{string(t.To), t.At.UTC()}
	g := t.Generation
	if g.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, g.StartedAt.UTC())
	}
	if g.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, g.CompletedAt.UTC())
	}
	if g.ExecutionTimeMs != 0 {
		sets = append(sets, "execution_time_ms = ?")
		args = append(args, g.ExecutionTimeMs)
	}
	if g.RecordCount != 0 {
		sets = append(sets, "record_count = ?")
		args = append(args, g.RecordCount)
	}
	if g.ErrorMessage != "" {
		sets = append(sets, "error_message = ?")
		args = append(args, g.ErrorMessage)
	}
	if f := t.File; f != nil {
		sets = append(sets, "file_name = ?", "file_size = ?", "file_path = ?", "download_url = ?",
			"expires_at = ?", "content_type = ?", "checksum = ?")
		args = append(args, f.FileName, f.FileSize, f.FilePath, f.DownloadURL, f.ExpiresAt.UTC(), f.ContentType, f.Checksum)
	}
	if t.LastGenerated != nil {
		sets = append(sets, "last_generated = ?")
		args = append(args, t.LastGenerated.UTC())
	}
	args = append(args, id, string(from))

	res, err := s.db.ExecContext(ctx,
		"UPDATE reports SET "+strings.Join(sets, ", ")+" WHERE report_id = ? AND status = ?", args...)
	if err != nil {
		if database.IsTransactionConflict(err) {
			return fmt.Errorf("%w: %w", ErrStatusConflict, err)
		}
		return fmt.Errorf("failed to transition report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, "SELECT status FROM reports WHERE report_id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read report status: %w", err)
	}
	return fmt.Errorf("%w: %s is %s, expected %s", ErrStatusConflict, id, current, from)
}

// AppendDownload implements Store. The insert is conditional on the report
// existing and not being deleted; concurrent downloads each insert a row.
func (s *DuckDBStore) AppendDownload(ctx context.Context, id string, entry DownloadEntry) (_ int, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "report_downloads", time.Since(start), err) }()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO report_downloads (id, report_id, user_id, user_role, downloaded_at, ip_address, user_agent)
		SELECT ?, report_id, ?, ?, ?, ?, ?
		FROM reports WHERE report_id = ? AND NOT is_deleted`,
		uuid.NewString(), entry.UserID, string(entry.UserRole), entry.DownloadedAt.UTC(),
		nullString(entry.IPAddress), nullString(entry.UserAgent), id)
	if err != nil {
		return 0, fmt.Errorf("failed to append download: %w", err)
	}
	if n, rerr := res.RowsAffected(); rerr != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", rerr)
	} else if n == 0 {
		return 0, ErrNotFound
	}

	var count int
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM report_downloads WHERE report_id = ?", id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count downloads: %w", err)
	}
	return count, nil
}

// UpdateAccess implements Store.
func (s *DuckDBStore) UpdateAccess(ctx context.Context, id string, ac AccessControl, at time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin access update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "UPDATE reports SET is_public = ?, updated_at = ? WHERE report_id = ? AND NOT is_deleted",
		ac.IsPublic, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update access: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // duckdb always reports rows affected
		err = ErrNotFound
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM report_access WHERE report_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear access: %w", err)
	}
	if err = insertAccess(ctx, tx, id, ac); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit access update: %w", err)
	}
	return nil
}

// SoftDelete implements Store.
func (s *DuckDBStore) SoftDelete(ctx context.Context, id, by string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET is_deleted = TRUE, deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE report_id = ? AND NOT is_deleted`, at.UTC(), by, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ByStatus implements Store.
func (s *DuckDBStore) ByStatus(ctx context.Context, status Status) ([]Report, error) {
	reports, err := s.queryReports(ctx, "SELECT "+reportColumns+" FROM reports WHERE status = ? AND NOT is_deleted ORDER BY created_at", string(status))
	if err != nil {
		return nil, err
	}
	return reports, s.attachChildren(ctx, reports)
}

// DueRecurring implements Store.
func (s *DuckDBStore) DueRecurring(ctx context.Context, now time.Time) ([]Report, error) {
	reports, err := s.queryReports(ctx, `SELECT `+reportColumns+` FROM reports
		WHERE is_recurring AND status = ? AND next_generation IS NOT NULL AND next_generation <= ? AND NOT is_deleted
		ORDER BY next_generation`, string(StatusCompleted), now.UTC())
	if err != nil {
		return nil, err
	}
	return reports, s.attachChildren(ctx, reports)
}

func (s *DuckDBStore) queryReports(ctx context.Context, query string, args ...any) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

// attachChildren loads access lists and download history for reports.
func (s *DuckDBStore) attachChildren(ctx context.Context, reports []Report) error {
	if len(reports) == 0 {
		return nil
	}
	index := make(map[string]int, len(reports))
	ids := make([]any, len(reports))
	for i := range reports {
		index[reports[i].ReportID] = i
		ids[i] = reports[i].ReportID
		reports[i].AccessControl.Roles = []models.Role{}
		reports[i].AccessControl.Users = []string{}
		reports[i].DownloadHistory = []DownloadEntry{}
	}
	in := database.Placeholders(len(ids))

	rows, err := s.db.QueryContext(ctx, "SELECT report_id, kind, principal FROM report_access WHERE report_id IN ("+in+") ORDER BY report_id, kind, principal", ids...)
	if err != nil {
		return fmt.Errorf("failed to query report access: %w", err)
	}
	for rows.Next() {
		var id, kind, principal string
		if err := rows.Scan(&id, &kind, &principal); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan report access: %w", err)
		}
		r := &reports[index[id]]
		if kind == principalRole {
			r.AccessControl.Roles = append(r.AccessControl.Roles, models.Role(principal))
		} else {
			r.AccessControl.Users = append(r.AccessControl.Users, principal)
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("error iterating report access: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT report_id, user_id, user_role, downloaded_at, ip_address, user_agent
		FROM report_downloads WHERE report_id IN (`+in+`) ORDER BY downloaded_at, id`, ids...)
	if err != nil {
		return fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, role string
		var ip, ua sql.NullString
		var e DownloadEntry
		if err := rows.Scan(&id, &e.UserID, &role, &e.DownloadedAt, &ip, &ua); err != nil {
			return fmt.Errorf("failed to scan download: %w", err)
		}
		e.UserRole = models.Role(role)
		e.IPAddress, e.UserAgent = ip.String, ua.String
		r := &reports[index[id]]
		r.DownloadHistory = append(r.DownloadHistory, e)
	}
	return rows.Err()
}

func insertAccess(ctx context.Context, tx *sql.Tx, id string, ac AccessControl) error {
	for _, role := range ac.Roles {
		if _, err := tx.ExecContext(ctx, "INSERT INTO report_access (report_id, kind, principal) VALUES (?, ?, ?)", id, principalRole, string(role)); err != nil {
			return fmt.Errorf("failed to insert role access: %w", err)
		}
	}
	for _, user := range ac.Users {
		if _, err := tx.ExecContext(ctx, "INSERT INTO report_access (report_id, kind, principal) VALUES (?, ?, ?)", id, principalUser, user); err != nil {
			return fmt.Errorf("failed to insert user access: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var (
		r                                              Report
		typ, role, format, status                      string
		genName, params, scope, frequency, deletedBy   sql.NullString
		fileName, filePath, url, contentType, checksum sql.NullString
		errorMessage                                   sql.NullString
		fileSize                                       sql.NullInt64
		dateStart, dateEnd, expiresAt                  sql.NullTime
		startedAt, completedAt, nextGen, lastGen       sql.NullTime
		deletedAt                                      sql.NullTime
	)
	err := row.Scan(
		&r.ReportID, &r.Name, &typ, &r.Category, &r.GeneratedBy, &role, &genName,
		&params, &dateStart, &dateEnd, &scope, &format, &status,
		&fileName, &fileSize, &filePath, &url, &expiresAt, &contentType, &checksum,
		&startedAt, &completedAt, &r.GenerationDetails.ExecutionTimeMs, &r.GenerationDetails.RecordCount, &errorMessage,
		&r.AccessControl.IsPublic, &r.Schedule.IsRecurring, &frequency, &nextGen, &lastGen,
		&r.IsDeleted, &deletedAt, &deletedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	r.Type, r.GeneratedByRole, r.Format, r.Status = Type(typ), models.Role(role), Format(format), Status(status)
	r.GeneratedByName = genName.String
	r.DeletedBy = deletedBy.String
	r.Schedule.Frequency = Frequency(frequency.String)
	r.GenerationDetails.ErrorMessage = errorMessage.String
	if params.Valid && params.String != "" {
		r.Parameters = json.RawMessage(params.String)
	}
	if scope.Valid && scope.String != "" {
		if err := json.Unmarshal([]byte(scope.String), &r.Scope); err != nil {
			return nil, fmt.Errorf("decode scope of %s: %w", r.ReportID, err)
		}
	}
	if dateStart.Valid && dateEnd.Valid {
		r.DateRange = &DateRange{Start: dateStart.Time, End: dateEnd.Time}
	}
	if fileName.Valid {
		r.FileDetails = &FileDetails{
			FileName:    fileName.String,
			FileSize:    fileSize.Int64,
			FilePath:    filePath.String,
			DownloadURL: url.String,
			ExpiresAt:   expiresAt.Time,
			ContentType: contentType.String,
			Checksum:    checksum.String,
		}
	}
	r.GenerationDetails.StartedAt = timePtr(startedAt)
	r.GenerationDetails.CompletedAt = timePtr(completedAt)
	r.Schedule.NextGeneration = timePtr(nextGen)
	r.Schedule.LastGenerated = timePtr(lastGen)
	r.DeletedAt = timePtr(deletedAt)
	return &r, nil
}

func prefixColumns(prefix string) string {
	cols := strings.Split(reportColumns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
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

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderdesk/internal/models"
)

// Action is the closed set of audited operations.
type Action string

const (
	// Reporting
	ActionReportCreated       Action = "REPORT_CREATED"
	ActionReportListed        Action = "REPORT_LISTED"
	ActionReportViewed        Action = "REPORT_VIEWED"
	ActionReportDownloaded    Action = "REPORT_DOWNLOADED"
	ActionReportFileFetched   Action = "REPORT_FILE_FETCHED"
	ActionReportAccessUpdated Action = "REPORT_ACCESS_UPDATED"
	ActionReportDeleted       Action = "REPORT_DELETED"
	ActionReportGenerated     Action = "REPORT_GENERATED"
	ActionReportFailed        Action = "REPORT_FAILED"

	// Audit trail access
	ActionAuditQueried     Action = "AUDIT_QUERIED"
	ActionAuditStatsViewed Action = "AUDIT_STATS_VIEWED"

	// Catalog
	ActionAvailabilitySwept Action = "AVAILABILITY_SWEPT"
)

// TargetType is the kind of entity an action applies to.
type TargetType string

const (
	TargetReport   TargetType = "REPORT"
	TargetAuditLog TargetType = "AUDIT_LOG"
	TargetProduct  TargetType = "PRODUCT"
	TargetOrder    TargetType = "ORDER"
	TargetSystem   TargetType = "SYSTEM"
)

// Category groups actions for filtering and statistics.
type Category string

const (
	CategoryReporting Category = "REPORTING"
	CategoryAudit     Category = "AUDIT"
	CategoryCatalog   Category = "CATALOG"
	CategorySecurity  Category = "SECURITY"
	CategorySystem    Category = "SYSTEM"
)

// Severity of an audit record.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// SeverityForStatus maps an HTTP status code to a record severity.
func SeverityForStatus(status int) Severity {
	if status >= 400 {
		return SeverityHigh
	}
	return SeverityLow
}

// Record is one immutable audit trail entry.
type Record struct {
	ID               string          `json:"id"`
	Action           Action          `json:"action"`
	ActorID          string          `json:"actorId"`
	ActorRole        models.Role     `json:"actorRole"`
	ActorName        string          `json:"actorName,omitempty"`
	TargetType       TargetType      `json:"targetType"`
	TargetID         string          `json:"targetId,omitempty"`
	TargetIdentifier string          `json:"targetIdentifier,omitempty"`
	Details          json.RawMessage `json:"details,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
	Severity         Severity        `json:"severity"`
	Category         Category        `json:"category"`
	ExecutionTimeMs  int64           `json:"executionTimeMs"`
	OldValues        json.RawMessage `json:"oldValues,omitempty"`
	NewValues        json.RawMessage `json:"newValues,omitempty"`
	ErrorDetails     string          `json:"errorDetails,omitempty"`
	BulkOperationID  string          `json:"bulkOperationId,omitempty"`
	FileName         string          `json:"fileName,omitempty"`
	FileSize         int64           `json:"fileSize,omitempty"`

	RequestID string `json:"requestId,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Filter selects records. Zero-valued fields do not constrain.
type Filter struct {
	Action          Action      `json:"action,omitempty"`
	ActorID         string      `json:"actorId,omitempty"`
	ActorRole       models.Role `json:"actorRole,omitempty"`
	TargetType      TargetType  `json:"targetType,omitempty"`
	TargetID        string      `json:"targetId,omitempty"`
	Category        Category    `json:"category,omitempty"`
	Severity        Severity    `json:"severity,omitempty"`
	BulkOperationID string      `json:"bulkOperationId,omitempty"`
	Start           *time.Time  `json:"start,omitempty"`
	End             *time.Time  `json:"end,omitempty"`
}

// Matches reports whether rec satisfies every set field of f.
func (f *Filter) Matches(rec *Record) bool {
	switch {
	case f.Action != "" && rec.Action != f.Action,
		f.ActorID != "" && rec.ActorID != f.ActorID,
		f.ActorRole != "" && rec.ActorRole != f.ActorRole,
		f.TargetType != "" && rec.TargetType != f.TargetType,
		f.TargetID != "" && rec.TargetID != f.TargetID,
		f.Category != "" && rec.Category != f.Category,
		f.Severity != "" && rec.Severity != f.Severity,
		f.BulkOperationID != "" && rec.BulkOperationID != f.BulkOperationID,
		f.Start != nil && rec.Timestamp.Before(*f.Start),
		f.End != nil && rec.Timestamp.After(*f.End):
		return false
	}
	return true
}

// Stats aggregates a filtered window of the trail.
type Stats struct {
	TotalRecords       int64            `json:"totalRecords"`
	DistinctActors     int64            `json:"distinctActors"`
	DistinctActions    int64            `json:"distinctActions"`
	AvgExecutionTimeMs float64          `json:"avgExecutionTimeMs"`
	ErrorCount         int64            `json:"errorCount"`
	BySeverity         map[string]int64 `json:"bySeverity"`
	ByCategory         map[string]int64 `json:"byCategory"`
}

// Store is append-only audit persistence. There is deliberately no update
// or delete.
type Store interface {
	// Append persists rec.
	Append(ctx context.Context, rec *Record) error

	// Query returns one page of matching records ordered by timestamp
	// descending (ties by id descending) and the total match count.
	Query(ctx context.Context, filter Filter, page models.Page) ([]Record, int64, error)

	// Stats aggregates matching records.
	Stats(ctx context.Context, filter Filter) (*Stats, error)
}

// Recorder accepts records for asynchronous persistence. Record never
// blocks and reports whether the record was accepted.
type Recorder interface {
	Record(ctx context.Context, rec *Record) bool
}

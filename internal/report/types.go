// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderdesk/internal/models"
)

// Type selects the dataset a report is built from.
type Type string

const (
	TypeOrderAnalytics     Type = "ORDER_ANALYTICS"
	TypeSalesSummary       Type = "SALES_SUMMARY"
	TypeProductPerformance Type = "PRODUCT_PERFORMANCE"
	TypeInventoryStatus    Type = "INVENTORY_STATUS"
	TypeCategoryBreakdown  Type = "CATEGORY_BREAKDOWN"
	TypeDealerPerformance  Type = "DEALER_PERFORMANCE"
	TypeAuditSummary       Type = "AUDIT_SUMMARY"
)

// Types lists every report type.
var Types = []Type{
	TypeOrderAnalytics,
	TypeSalesSummary,
	TypeProductPerformance,
	TypeInventoryStatus,
	TypeCategoryBreakdown,
	TypeDealerPerformance,
	TypeAuditSummary,
}

// Category groups report types for listing.
func (t Type) Category() string {
	switch t {
	case TypeOrderAnalytics, TypeSalesSummary, TypeDealerPerformance:
		return "SALES"
	case TypeProductPerformance, TypeInventoryStatus, TypeCategoryBreakdown:
		return "CATALOG"
	case TypeAuditSummary:
		return "COMPLIANCE"
	default:
		return "OTHER"
	}
}

// Format is the rendered file format.
type Format string

const (
	FormatCSV   Format = "CSV"
	FormatExcel Format = "EXCEL"
	FormatPDF   Format = "PDF"
	FormatPNG   Format = "PNG"
	FormatJSON  Format = "JSON"
)

// Formats lists every output format.
var Formats = []Format{FormatCSV, FormatExcel, FormatPDF, FormatPNG, FormatJSON}

// Status is the generation state. Transitions are forward only:
// PENDING -> GENERATING -> COMPLETED | FAILED.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusGenerating Status = "GENERATING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"

	// StatusExpired is part of the vocabulary but nothing transitions into it.
	StatusExpired Status = "EXPIRED"
)

// Statuses lists every status value.
var Statuses = []Status{StatusPending, StatusGenerating, StatusCompleted, StatusFailed, StatusExpired}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusGenerating
	case StatusGenerating:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Frequency of a recurring report.
type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// Frequencies lists every recurrence frequency.
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly}

// DateRange bounds the data a report covers. Both ends are inclusive.
type DateRange struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtefield=Start"`
}

// Scope narrows the dataset. Empty slices do not constrain.
type Scope struct {
	Dealers  []string `json:"dealers,omitempty"`
	Regions  []string `json:"regions,omitempty"`
	Products []string `json:"products,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// FileDetails describes the rendered artifact. Populated only on COMPLETED.
type FileDetails struct {
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	FilePath    string    `json:"filePath"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ContentType string    `json:"contentType"`
	Checksum    string    `json:"checksum"`
}

// GenerationDetails records one generation run.
type GenerationDetails struct {
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ExecutionTimeMs int64      `json:"executionTimeMs,omitempty"`
	RecordCount     int        `json:"recordCount,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
}

// AccessControl lists who besides the owner may see a report.
type AccessControl struct {
	Roles    []models.Role `json:"roles"`
	Users    []string      `json:"users"`
	IsPublic bool          `json:"isPublic"`
}

// Schedule holds recurrence data. NextGeneration is computed, never acted on.
type Schedule struct {
	IsRecurring    bool       `json:"isRecurring"`
	Frequency      Frequency  `json:"frequency,omitempty"`
	NextGeneration *time.Time `json:"nextGeneration,omitempty"`
	LastGenerated  *time.Time `json:"lastGenerated,omitempty"`
}

// DownloadEntry is one download event.
type DownloadEntry struct {
	UserID       string      `json:"userId"`
	UserRole     models.Role `json:"userRole"`
	DownloadedAt time.Time   `json:"downloadedAt"`
	IPAddress    string      `json:"ipAddress,omitempty"`
	UserAgent    string      `json:"userAgent,omitempty"`
}

// Report is one requested, asynchronously generated analytical output.
type Report struct {
	ReportID        string          `json:"reportId"`
	Name            string          `json:"name"`
	Type            Type            `json:"type"`
	Category        string          `json:"category"`
	GeneratedBy     string          `json:"generatedBy"`
	GeneratedByRole models.Role     `json:"generatedByRole"`
	GeneratedByName string          `json:"generatedByName,omitempty"`
	Parameters      json.RawMessage `json:"parameters,omitempty"`
	DateRange       *DateRange      `json:"dateRange,omitempty"`
	Scope           Scope           `json:"scope"`
	Format          Format          `json:"format"`
	FileDetails     *FileDetails    `json:"fileDetails,omitempty"`
	Status          Status          `json:"status"`

	GenerationDetails GenerationDetails `json:"generationDetails"`
	AccessControl     AccessControl     `json:"accessControl"`
	Schedule          Schedule          `json:"schedule"`
	DownloadHistory   []DownloadEntry   `json:"downloadHistory"`

	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy string     `json:"deletedBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreateRequest is the create payload. Parameters are stored verbatim.
type CreateRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Type          Type            `json:"type" validate:"required,report_type"`
	Parameters    json.RawMessage `json:"parameters,omitempty"`
	DateRange     *DateRange      `json:"dateRange,omitempty" validate:"omitempty"`
	Scope         Scope           `json:"scope"`
	Format        Format          `json:"format" validate:"required,report_format"`
	IsRecurring   bool            `json:"isRecurring"`
	Frequency     Frequency       `json:"frequency,omitempty" validate:"omitempty,frequency"`
	AccessControl *AccessControl  `json:"accessControl,omitempty"`
}

// CreateResult is returned by Create before generation starts.
type CreateResult struct {
	ReportID string `json:"reportId"`
	Status   Status `json:"status"`
}

// AccessUpdate replaces a report's access control.
type AccessUpdate struct {
	Roles    []string `json:"roles" validate:"dive,role"`
	Users    []string `json:"users" validate:"dive,required"`
	IsPublic bool     `json:"isPublic"`
}

// ListFilter narrows a listing. Viewer scopes results to reports the viewer
// may access; a nil Viewer disables scoping (internal callers only).
type ListFilter struct {
	Viewer *models.Actor
	Type   Type
	Status Status
	Start  *time.Time
	End    *time.Time
}

// DownloadInfo is returned by Download.
type DownloadInfo struct {
	ReportID      string      `json:"reportId"`
	FileDetails   FileDetails `json:"fileDetails"`
	DownloadCount int         `json:"downloadCount"`
}

// Transition is a conditional status change applied by Store.Transition.
type Transition struct {
	To            Status
	Generation    GenerationDetails
	File          *FileDetails
	LastGenerated *time.Time
	At            time.Time
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"time"

	"github.com/tomtom215/orderdesk/internal/models"
)

// Store persists reports. Every mutation is a single conditional write, so
// concurrent callers never overwrite each other's changes.
type Store interface {
	// Insert persists a new report. Duplicate ids are an error.
	Insert(ctx context.Context, r *Report) error

	// Get returns a report including soft-deleted ones; ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Report, error)

	// List returns one page of non-deleted reports matching filter, newest
	// first, and the total match count.
	List(ctx context.Context, filter ListFilter, page models.Page) ([]Report, int64, error)

	// Transition moves a report from status from to t.To and applies t's
	// fields. ErrStatusConflict if the stored status is not from.
	Transition(ctx context.Context, id string, from Status, t Transition) error

	// AppendDownload appends one history entry and returns the new length.
	AppendDownload(ctx context.Context, id string, entry DownloadEntry) (int, error)

	// UpdateAccess replaces the access control of a non-deleted report.
	UpdateAccess(ctx context.Context, id string, ac AccessControl, at time.Time) error

	// SoftDelete marks a report deleted. Deleting twice is ErrNotFound.
	SoftDelete(ctx context.Context, id, by string, at time.Time) error

	// ByStatus returns non-deleted reports in status, oldest first.
	ByStatus(ctx context.Context, status Status) ([]Report, error)

	// DueRecurring returns non-deleted COMPLETED recurring reports whose
	// next generation is at or before now.
	DueRecurring(ctx context.Context, now time.Time) ([]Report, error)
}

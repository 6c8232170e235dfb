// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import "errors"

var (
	// ErrPermissionDenied means the actor's role may not generate the type.
	ErrPermissionDenied = errors.New("permission denied for report type")

	// ErrNotFound covers missing, deleted and inaccessible reports alike.
	ErrNotFound = errors.New("report not found")

	// ErrValidation wraps malformed create or update payloads.
	ErrValidation = errors.New("invalid report request")

	// ErrNotOwner is returned when a visible report is mutated by someone
	// other than its creator.
	ErrNotOwner = errors.New("only the report owner may perform this action")

	// ErrNotReady is returned for downloads of reports that are not COMPLETED.
	ErrNotReady = errors.New("report is not ready for download")

	// ErrStatusConflict means a conditional transition lost: the stored
	// status was not the expected one.
	ErrStatusConflict = errors.New("report status changed concurrently")

	// ErrUnauthenticated is returned when no actor is supplied.
	ErrUnauthenticated = errors.New("no authenticated actor")
)

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/report"
	"github.com/tomtom215/orderdesk/internal/validation"
)

// respondReportError maps report and audit sentinels to HTTP responses.
// Anything unrecognized is logged and reported as a 500.
func respondReportError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
	case errors.Is(err, report.ErrValidation), errors.Is(err, audit.ErrInvalidFilter):
		rw.BadRequest(err.Error())
	case errors.Is(err, report.ErrUnauthenticated):
		rw.Unauthorized("Authentication required")
	case errors.Is(err, report.ErrPermissionDenied):
		rw.Forbidden("Your role may not generate this report type")
	case errors.Is(err, report.ErrNotOwner):
		rw.Forbidden("Only the report owner may perform this action")
	case errors.Is(err, report.ErrNotFound):
		rw.NotFound("Report not found")
	case errors.Is(err, report.ErrNotReady):
		rw.Conflict("Report is not ready for download")
	default:
		rw.InternalError("Internal server error", err)
	}
}

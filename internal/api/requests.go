// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/models"
	"github.com/tomtom215/orderdesk/internal/report"
	"github.com/tomtom215/orderdesk/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// dateOnly is accepted wherever RFC3339 is.
const dateOnly = "2006-01-02"

func invalidParam(name, tag, message string) error {
	return validation.NewRequestValidationError(name, tag, message)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return invalidParam("body", "required", "request body is required")
		case errors.As(err, &maxErr):
			return invalidParam("body", "max", fmt.Sprintf("request body exceeds %d bytes", maxBodyBytes))
		default:
			return invalidParam("body", "json", "request body is not valid JSON")
		}
	}
	return nil
}

// parsePage reads ?page and ?limit. Missing values are left zero for
// models.Page.Normalize; malformed ones are rejected.
func parsePage(q url.Values) (models.Page, error) {
	var p models.Page
	for _, f := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"limit", &p.Limit}} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, invalidParam(f.name, "min", f.name+" must be a positive integer")
		}
		*f.dst = n
	}
	return p, nil
}

// parseTimeParam accepts RFC3339 or a bare date. A bare date used as an
// upper bound covers the whole day.
func parseTimeParam(q url.Values, name string, upper bool) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return nil, invalidParam(name, "datetime", name+" must be RFC3339 or YYYY-MM-DD")
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseRange(q url.Values) (start, end *time.Time, err error) {
	if start, err = parseTimeParam(q, "start", false); err != nil {
		return nil, nil, err
	}
	if end, err = parseTimeParam(q, "end", true); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, invalidParam("end", "gtefield", "end must not be before start")
	}
	return start, end, nil
}

// parseReportFilter reads the listing filters. The viewer is set by the
// caller.
func parseReportFilter(q url.Values) (report.ListFilter, error) {
	var f report.ListFilter
	if v := q.Get("type"); v != "" {
		if !slices.Contains(report.Types, report.Type(v)) {
			return f, invalidParam("type", "report_type", "unknown report type")
		}
		f.Type = report.Type(v)
	}
	if v := q.Get("status"); v != "" {
		if !slices.Contains(report.Statuses, report.Status(v)) {
			return f, invalidParam("status", "oneof", "unknown report status")
		}
		f.Status = report.Status(v)
	}
	var err error
	f.Start, f.End, err = parseRange(q)
	return f, err
}

// parseAuditFilter reads the audit trail filters.
func parseAuditFilter(q url.Values) (audit.Filter, error) {
	f := audit.Filter{
		Action:          audit.Action(q.Get("action")),
		ActorID:         q.Get("actorId"),
		TargetType:      audit.TargetType(q.Get("targetType")),
		TargetID:        q.Get("targetId"),
		Category:        audit.Category(q.Get("category")),
		Severity:        audit.Severity(q.Get("severity")),
		BulkOperationID: q.Get("bulkOperationId"),
	}
	if v := q.Get("actorRole"); v != "" {
		role, err := models.ParseRole(v)
		switch {
		case err == nil:
			f.ActorRole = role
		case strings.EqualFold(v, string(models.RoleSystem)):
			f.ActorRole = models.RoleSystem
		default:
			return f, invalidParam("actorRole", "role", "unknown role")
		}
	}
	var err error
	f.Start, f.End, err = parseRange(q)
	return f, err
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package api

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/orderdesk/internal/models"
	"github.com/tomtom215/orderdesk/internal/report"
)

// CreateReport queues a report for asynchronous generation.
//
// @Summary Request a report
// @Description Validates the request, checks the role permission matrix and queues generation. Poll GET /reports/{id} for completion.
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body report.CreateRequest true "Report request"
// @Success 202 {object} APIResponse{data=report.CreateResult}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Router /reports [post]
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req report.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondReportError(w, r, err)
		return
	}

	res, err := h.reports.Create(r.Context(), models.ActorFromContext(r.Context()), &req)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Accepted("Report generation started", res)
}

// ListReports lists the reports visible to the caller.
//
// @Summary List reports
// @Description Newest first. Only reports the caller owns, was granted, or that are public are returned.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param type query string false "Report type"
// @Param status query string false "Report status"
// @Param start query string false "Created at or after (RFC3339 or YYYY-MM-DD)"
// @Param end query string false "Created at or before (RFC3339 or YYYY-MM-DD)"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} APIResponse{data=[]report.Report}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Router /reports [get]
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseReportFilter(q)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	page, err := parsePage(q)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	page = page.Normalize(h.defaultPageSize, h.maxPageSize)

	reports, total, err := h.reports.List(r.Context(), models.ActorFromContext(r.Context()), filter, page)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithPagination(reports, &PaginationMeta{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
		Pages: models.PageCount(total, page.Limit),
	})
}

// GetReport returns one report.
//
// @Summary Get a report
// @Description Missing, deleted and inaccessible reports all return 404.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} APIResponse{data=report.Report}
// @Failure 401 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /reports/{id} [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.Get(r.Context(), models.ActorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(rep)
}

// DownloadReport records a download and returns the file metadata.
//
// @Summary Download report metadata
// @Description Appends a download history entry and returns fileDetails with the download URL.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} APIResponse{data=report.DownloadInfo}
// @Failure 401 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 409 {object} APIResponse "Report not completed"
// @Router /reports/{id}/download [get]
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	info, err := h.reports.Download(r.Context(), models.ActorFromContext(r.Context()), chi.URLParam(r, "id"), report.DownloadMeta{
		IPAddress: remoteIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(info)
}

// ReportFile streams the rendered artifact.
//
// @Summary Fetch the report file
// @Description Streams the stored artifact with its content type. Does not count as a download.
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {file} file
// @Failure 401 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 409 {object} APIResponse "Report not completed"
// @Router /reports/{id}/file [get]
func (h *Handler) ReportFile(w http.ResponseWriter, r *http.Request) {
	rep, obj, err := h.reports.File(r.Context(), models.ActorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	if rep.FileDetails == nil || obj == nil {
		respondReportError(w, r, report.ErrNotReady)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileDetails.FileName))
	w.Header().Set("X-Content-Checksum", obj.Checksum)
	w.Header().Set("X-Report-ID", rep.ReportID)
	w.Header().Set("X-Record-Count", strconv.Itoa(rep.GenerationDetails.RecordCount))
	http.ServeContent(w, r, rep.FileDetails.FileName, obj.CreatedAt, bytes.NewReader(obj.Data))
}

// UpdateReportAccess replaces the report's access control.
//
// @Summary Update report access
// @Description Owner only. Roles are folded to canonical names; users and roles are de-duplicated.
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param request body report.AccessUpdate true "New access control"
// @Success 200 {object} APIResponse{data=report.Report}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /reports/{id}/access [put]
func (h *Handler) UpdateReportAccess(w http.ResponseWriter, r *http.Request) {
	var upd report.AccessUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		respondReportError(w, r, err)
		return
	}

	rep, err := h.reports.UpdateAccess(r.Context(), models.ActorFromContext(r.Context()), chi.URLParam(r, "id"), &upd)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithMessage("Access control updated", rep)
}

// DeleteReport soft-deletes a report.
//
// @Summary Delete a report
// @Description Owner only. The report disappears from every read path; audit records are kept.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /reports/{id} [delete]
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.reports.Delete(r.Context(), models.ActorFromContext(r.Context()), id); err != nil {
		respondReportError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithMessage("Report deleted", map[string]string{"reportId": id})
}

// remoteIP strips the port from RemoteAddr, which chi's RealIP has
// already rewritten when a proxy header was present.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

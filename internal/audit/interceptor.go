// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tomtom215/orderdesk/internal/models"
)

// maxErrorCapture bounds the response body kept as errorDetails.
const maxErrorCapture = 1024

// Spec names what an instrumented route does.
type Spec struct {
	Action     Action
	TargetType TargetType
	Category   Category

	// TargetID extracts the target id, typically a chi URL param. Optional.
	TargetID func(r *http.Request) string

	// TargetIdentifier extracts a human-readable target label. Optional.
	TargetIdentifier func(r *http.Request) string
}

// Interceptor builds after-response audit middleware.
type Interceptor struct {
	recorder   Recorder
	maxPayload int
	now        func() time.Time
}

// NewInterceptor creates an interceptor handing records to recorder.
// maxPayload bounds the captured request body; 0 disables capture.
func NewInterceptor(recorder Recorder, maxPayload int) *Interceptor {
	return &Interceptor{
		recorder:   recorder,
		maxPayload: maxPayload,
		now:        time.Now,
	}
}

// Instrument returns middleware recording one audit record per request
// that carries a resolved actor. The record is built and enqueued after
// the handler returns and the response is flushed; nothing on this path
// can fail the request.
func (i *Interceptor) Instrument(spec Spec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := i.now()

			var body []byte
			var truncated bool
			if i.maxPayload > 0 && r.Body != nil && r.Body != http.NoBody {
				body, truncated = i.captureBody(r)
			}

			rw := &auditResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

			actor := models.ActorFromContext(r.Context())
			if actor == nil {
				return
			}

			rec := &Record{
				Action:          spec.Action,
				ActorID:         actor.ID,
				ActorRole:       actor.Role,
				ActorName:       actor.Name,
				TargetType:      spec.TargetType,
				Category:        spec.Category,
				Severity:        SeverityForStatus(rw.status),
				Timestamp:       i.now().UTC(),
				ExecutionTimeMs: i.now().Sub(start).Milliseconds(),
				IPAddress:       clientIP(r),
				UserAgent:       r.UserAgent(),
				Details: Details{
					Method:     r.Method,
					Path:       r.URL.Path,
					StatusCode: rw.status,
					Query:      redactQuery(r.URL.Query()),
					Payload:    capturePayload(body, truncated),
					Truncated:  truncated,
				}.Marshal(),
			}
			if spec.TargetID != nil {
				rec.TargetID = spec.TargetID(r)
			}
			if spec.TargetIdentifier != nil {
				rec.TargetIdentifier = spec.TargetIdentifier(r)
			}
			if rw.status >= 400 {
				rec.ErrorDetails = rw.errBody.String()
				if rec.ErrorDetails == "" {
					rec.ErrorDetails = http.StatusText(rw.status)
				}
			}

			i.recorder.Record(r.Context(), rec)
		})
	}
}

// captureBody reads up to maxPayload bytes and restores r.Body so the
// handler still sees the full stream.
func (i *Interceptor) captureBody(r *http.Request) ([]byte, bool) {
	buf := make([]byte, i.maxPayload+1)
	n, err := io.ReadFull(r.Body, buf)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		// body shorter than the cap
	case err != nil:
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf[:n]), r.Body))
		return nil, false
	}
	buf = buf[:n]
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(buf), r.Body), Closer: r.Body}

	if n > i.maxPayload {
		return buf[:i.maxPayload], true
	}
	return buf, false
}

type readCloser struct {
	io.Reader
	io.Closer
}

// auditResponseWriter records the status code and a bounded copy of error
// response bodies.
type auditResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	errBody     bytes.Buffer
}

func (w *auditResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *auditResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	if w.status >= 400 && w.errBody.Len() < maxErrorCapture {
		remaining := maxErrorCapture - w.errBody.Len()
		w.errBody.Write(b[:min(len(b), remaining)])
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (w *auditResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap supports http.ResponseController.
func (w *auditResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

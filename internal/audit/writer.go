// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/metrics"
)

// Writer is the asynchronous audit writer. Record enqueues without
// blocking; Serve drains the queue into the store. A full queue drops the
// record, so the trail is at-most-once.
type Writer struct {
	store        Store
	queue        chan *Record
	writeTimeout time.Duration
	enabled      bool
}

// NewWriter creates a writer over store. Serve must run for records to be
// persisted.
func NewWriter(store Store, cfg config.AuditConfig) *Writer {
	size := cfg.BufferSize
	if size < 1 {
		size = 1000
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		store:        store,
		queue:        make(chan *Record, size),
		writeTimeout: timeout,
		enabled:      cfg.Enabled,
	}
}

// Record stamps missing identity fields and enqueues rec.
func (w *Writer) Record(ctx context.Context, rec *Record) bool {
	if !w.enabled || rec == nil {
		return false
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.RequestID == "" {
		rec.RequestID = logging.RequestIDFromContext(ctx)
	}
	if rec.Severity == "" {
		rec.Severity = SeverityLow
	}

	select {
	case w.queue <- rec:
		metrics.AuditQueueDepth.Set(float64(len(w.queue)))
		return true
	default:
		metrics.RecordAuditDropped("buffer_full")
		logging.Warn().Str("record_id", rec.ID).Str("action", string(rec.Action)).Msg("Audit buffer full, dropping record")
		return false
	}
}

// Serve drains the queue until ctx is cancelled, then flushes whatever is
// still buffered.
func (w *Writer) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case rec := <-w.queue:
			w.write(rec)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (w *Writer) String() string {
	return "audit-writer"
}

// Pending returns the number of queued records.
func (w *Writer) Pending() int {
	return len(w.queue)
}

func (w *Writer) drain() {
	for {
		select {
		case rec := <-w.queue:
			w.write(rec)
		default:
			return
		}
	}
}

func (w *Writer) write(rec *Record) {
	metrics.AuditQueueDepth.Set(float64(len(w.queue)))

	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	if err := w.store.Append(ctx, rec); err != nil {
		metrics.RecordAuditDropped("store_error")
		logging.Error().Err(err).Str("record_id", rec.ID).Str("action", string(rec.Action)).Msg("Failed to persist audit record")
		return
	}
	metrics.AuditRecordsWritten.Inc()
}

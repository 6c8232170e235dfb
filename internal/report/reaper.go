// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"time"
)

// Reaper runs Manager.FailStale every interval so a report stranded in
// GENERATING is failed even when no restart or redelivery follows. It
// implements suture.Service.
type Reaper struct {
	manager  *Manager
	interval time.Duration
}

// NewReaper creates a reaper. A non-positive interval means the manager's
// generation timeout.
func NewReaper(m *Manager, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = m.Timeout()
	}
	return &Reaper{manager: m, interval: interval}
}

// Serve blocks until ctx is canceled.
func (r *Reaper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.manager.FailStale(ctx); err != nil && ctx.Err() == nil {
				r.manager.logger.Error().Err(err).Msg("Stale report pass failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (r *Reaper) String() string {
	return "report-reaper"
}

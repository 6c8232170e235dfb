// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package sweep

import (
	"context"
	"time"

	"github.com/tomtom215/orderdesk/internal/logging"
)

// Scheduler runs a sweep at start and then every interval. It implements
// suture.Service.
type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
}

// NewScheduler creates a scheduler. A non-positive interval means hourly.
func NewScheduler(s *Sweeper, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{sweeper: s, interval: interval}
}

// Serve blocks until ctx is canceled.
func (sc *Scheduler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	sc.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sc.runOnce(ctx)
		}
	}
}

func (sc *Scheduler) runOnce(ctx context.Context) {
	if _, err := sc.sweeper.Run(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Availability sweep failed")
	}
}

// String implements fmt.Stringer for suture logging.
func (sc *Scheduler) String() string {
	return "availability-sweep"
}

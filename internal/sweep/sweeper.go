// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/orderdesk/internal/audit"
	"github.com/tomtom215/orderdesk/internal/catalog"
	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/metrics"
	"github.com/tomtom215/orderdesk/internal/models"
)

const flagField = "unavailable"

// Store is the product access the sweep needs. catalog.MemoryStore and
// catalog.DuckDBStore satisfy it.
type Store interface {
	// ScanAvailability returns up to limit records with id > afterID in id order.
	ScanAvailability(ctx context.Context, afterID string, limit int) ([]catalog.AvailabilityRecord, error)

	// UpdateAvailability sets the flag only if it still equals old and
	// returns the new sweep iteration, or catalog.ErrFlagConflict.
	UpdateAvailability(ctx context.Context, id string, old, updated bool, at time.Time) (int64, error)

	AppendChange(ctx context.Context, change catalog.FlagChange) error
}

// Result summarizes one run.
type Result struct {
	Scanned  int           `json:"scanned"`
	Changed  int           `json:"changed"`
	Failed   int           `json:"failed"`
	Skipped  bool          `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Sweeper recomputes the unavailable flag of every product.
type Sweeper struct {
	store    Store
	local    LocalLocker
	lease    Locker
	recorder audit.Recorder
	window   time.Duration
	batch    int
	now      func() time.Time
	logger   zerolog.Logger
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithLease adds a distributed lock taken after the local guard.
func WithLease(l Locker) Option {
	return func(s *Sweeper) { s.lease = l }
}

// WithRecorder writes one audit record per run that changed flags.
func WithRecorder(r audit.Recorder) Option {
	return func(s *Sweeper) { s.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper creates a sweeper over store.
func NewSweeper(store Store, cfg config.SweepConfig, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:  store,
		window: cfg.FreshnessWindow,
		batch:  cfg.BatchSize,
		now:    time.Now,
		logger: logging.WithComponent("sweep"),
	}
	if s.window <= 0 {
		s.window = 24 * time.Hour
	}
	if s.batch <= 0 {
		s.batch = 500
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one sweep. A run that cannot take the guard returns
// Skipped. Per-product failures are counted in Failed; the returned error
// is reserved for scan failures and context cancellation.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	release, ok, _ := s.local.TryAcquire(ctx)
	if !ok {
		metrics.RecordSweepRun("skipped", 0, 0, 0, 0)
		return Result{Skipped: true}, nil
	}
	defer release()

	if s.lease != nil {
		releaseLease, ok, err := s.lease.TryAcquire(ctx)
		if err != nil {
			metrics.RecordSweepRun("failed", 0, 0, 0, time.Since(start))
			return Result{}, err
		}
		if !ok {
			s.logger.Debug().Msg("Sweep lease held elsewhere, skipping run")
			metrics.RecordSweepRun("skipped", 0, 0, 0, 0)
			return Result{Skipped: true}, nil
		}
		defer releaseLease()
	}

	res, err := s.scan(ctx)
	res.Duration = time.Since(start)

	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	metrics.RecordSweepRun(outcome, res.Scanned, res.Changed, res.Failed, res.Duration)

	ev := s.logger.Info()
	if err != nil {
		ev = s.logger.Error().Err(err)
	}
	ev.Int("scanned", res.Scanned).Int("changed", res.Changed).Int("failed", res.Failed).
		Dur("duration", res.Duration).Msg("Availability sweep finished")

	if res.Changed > 0 || res.Failed > 0 {
		s.audit(ctx, res, err)
	}
	return res, err
}

func (s *Sweeper) scan(ctx context.Context) (Result, error) {
	var res Result
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page, err := s.store.ScanAvailability(ctx, cursor, s.batch)
		if err != nil {
			return res, fmt.Errorf("scan products after %q: %w", cursor, err)
		}
		for i := range page {
			res.Scanned++
			changed, err := s.apply(ctx, &page[i])
			switch {
			case err != nil:
				res.Failed++
				s.logger.Warn().Err(err).Str("product_id", page[i].ProductID).Msg("Failed to update availability flag")
			case changed:
				res.Changed++
			}
		}
		if len(page) < s.batch {
			return res, nil
		}
		cursor = page[len(page)-1].ProductID
	}
}

// apply updates one product if its flag is stale.
func (s *Sweeper) apply(ctx context.Context, rec *catalog.AvailabilityRecord) (bool, error) {
	window := rec.FreshnessWindow
	if window <= 0 {
		window = s.window
	}
	now := s.now()
	want := ShouldFlag(rec.Entries, window, now)
	if want == rec.Unavailable {
		return false, nil
	}

	iteration, err := s.store.UpdateAvailability(ctx, rec.ProductID, rec.Unavailable, want, now)
	if errors.Is(err, catalog.ErrFlagConflict) {
		// Changed concurrently; the next run re-evaluates it.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	change := catalog.FlagChange{
		ID:        uuid.NewString(),
		ProductID: rec.ProductID,
		Field:     flagField,
		OldValue:  rec.Unavailable,
		NewValue:  want,
		Iteration: iteration,
		ChangedAt: now,
	}
	if err := s.store.AppendChange(ctx, change); err != nil {
		s.logger.Warn().Err(err).Str("product_id", rec.ProductID).Msg("Failed to append availability change")
	}
	return true, nil
}

func (s *Sweeper) audit(ctx context.Context, res Result, runErr error) {
	if s.recorder == nil {
		return
	}
	sev := audit.SeverityLow
	errMsg := ""
	if runErr != nil || res.Failed > 0 {
		sev = audit.SeverityMedium
	}
	if runErr != nil {
		errMsg = runErr.Error()
	}
	s.recorder.Record(ctx, &audit.Record{
		ID:         uuid.NewString(),
		Action:     audit.ActionAvailabilitySwept,
		ActorID:    models.SystemActor.ID,
		ActorRole:  models.SystemActor.Role,
		ActorName:  models.SystemActor.Name,
		TargetType: audit.TargetProduct,
		Details: audit.ExtraDetails(map[string]any{
			"scanned": res.Scanned,
			"changed": res.Changed,
			"failed":  res.Failed,
		}),
		Timestamp:       s.now(),
		Severity:        sev,
		Category:        audit.CategoryCatalog,
		ExecutionTimeMs: res.Duration.Milliseconds(),
		ErrorDetails:    errMsg,
	})
}

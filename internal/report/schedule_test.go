// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNextGeneration(t *testing.T) {
	t.Parallel()

	at := func(y int, m time.Month, d, h int) time.Time { return time.Date(y, m, d, h, 30, 0, 0, time.UTC) }

	tests := []struct {
		name string
		freq Frequency
		from time.Time
		want time.Time
	}{
		{"daily", FrequencyDaily, at(2026, 3, 10, 9), at(2026, 3, 11, 9)},
		{"daily across year", FrequencyDaily, at(2025, 12, 31, 23), at(2026, 1, 1, 23)},
		{"weekly", FrequencyWeekly, at(2026, 2, 25, 8), at(2026, 3, 4, 8)},
		{"monthly", FrequencyMonthly, at(2026, 3, 15, 6), at(2026, 4, 15, 6)},
		{"monthly clamps to february", FrequencyMonthly, at(2026, 1, 31, 6), at(2026, 2, 28, 6)},
		{"monthly clamps to leap february", FrequencyMonthly, at(2028, 1, 30, 6), at(2028, 2, 29, 6)},
		{"monthly clamps to 30 days", FrequencyMonthly, at(2026, 5, 31, 6), at(2026, 6, 30, 6)},
		{"monthly across year", FrequencyMonthly, at(2026, 12, 31, 6), at(2027, 1, 31, 6)},
		{"quarterly", FrequencyQuarterly, at(2026, 1, 15, 0), at(2026, 4, 15, 0)},
		{"quarterly clamps", FrequencyQuarterly, at(2026, 11, 30, 0), at(2027, 2, 28, 0)},
		{"yearly", FrequencyYearly, at(2026, 7, 4, 12), at(2027, 7, 4, 12)},
		{"yearly from leap day", FrequencyYearly, at(2028, 2, 29, 12), at(2029, 2, 28, 12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextGeneration(tt.freq, tt.from)
			if err != nil {
				t.Fatalf("NextGeneration() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextGeneration(%s, %v) = %v, want %v", tt.freq, tt.from, got, tt.want)
			}
		})
	}

	if _, err := NextGeneration("HOURLY", at(2026, 1, 1, 0)); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown frequency error = %v, want ErrValidation", err)
	}
}

// Property: DAILY is exactly 24 hours after the trigger, in any zone.
func TestNextGeneration_DailyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	zones := []*time.Location{time.UTC, time.FixedZone("UTC+5:30", 5*3600+1800), time.FixedZone("UTC-8", -8*3600)}

	properties.Property("daily adds exactly 24h", prop.ForAll(
		func(secs int64, zone int) bool {
			from := time.Unix(secs, 0).In(zones[zone])
			next, err := NextGeneration(FrequencyDaily, from)
			return err == nil && next.Sub(from) == 24*time.Hour
		},
		gen.Int64Range(0, 4102444800),
		gen.IntRange(0, len(zones)-1),
	))

	properties.Property("monthly keeps the day or clamps to month end", prop.ForAll(
		func(secs int64) bool {
			from := time.Unix(secs, 0).UTC()
			next, err := NextGeneration(FrequencyMonthly, from)
			if err != nil || !next.After(from) {
				return false
			}
			wantMonth := (int(from.Month()) % 12) + 1
			if int(next.Month()) != wantMonth {
				return false
			}
			if next.Day() == from.Day() {
				return true
			}
			return next.Day() < from.Day() && next.AddDate(0, 0, 1).Day() == 1
		},
		gen.Int64Range(0, 4102444800),
	))

	properties.TestingRun(t)
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := map[[2]Status]bool{
		{StatusPending, StatusGenerating}:   true,
		{StatusGenerating, StatusCompleted}: true,
		{StatusGenerating, StatusFailed}:    true,
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			if got := CanTransition(from, to); got != allowed[[2]Status{from, to}] {
				t.Errorf("CanTransition(%s, %s) = %v", from, to, got)
			}
		}
		wantTerminal := from != StatusPending && from != StatusGenerating
		if from.IsTerminal() != wantTerminal {
			t.Errorf("%s.IsTerminal() = %v", from, from.IsTerminal())
		}
	}
}

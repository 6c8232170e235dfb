// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"fmt"
	"time"
)

// NextGeneration returns when a recurring report would next be generated
// after from. DAILY and WEEKLY add exact durations. MONTHLY, QUARTERLY and
// YEARLY keep the day of month, clamped to the last day of the target month
// (Jan 31 + 1 month = Feb 28/29).
func NextGeneration(freq Frequency, from time.Time) (time.Time, error) {
	switch freq {
	case FrequencyDaily:
		return from.Add(24 * time.Hour), nil
	case FrequencyWeekly:
		return from.Add(7 * 24 * time.Hour), nil
	case FrequencyMonthly:
		return addMonthsClamped(from, 1), nil
	case FrequencyQuarterly:
		return addMonthsClamped(from, 3), nil
	case FrequencyYearly:
		return addMonthsClamped(from, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown frequency %q", ErrValidation, freq)
	}
}

// addMonthsClamped adds n months without the overflow time.AddDate applies
// to short months.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

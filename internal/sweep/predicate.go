// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package sweep

import (
	"time"

	"github.com/tomtom215/orderdesk/internal/catalog"
)

// ShouldFlag reports whether a product is unavailable: it has no inventory
// entries, or none of them has stock and was updated within window of now.
func ShouldFlag(entries []catalog.InventoryEntry, window time.Duration, now time.Time) bool {
	cutoff := now.Add(-window)
	for _, e := range entries {
		if e.Quantity > 0 && !e.LastUpdate.Before(cutoff) {
			return false
		}
	}
	return true
}

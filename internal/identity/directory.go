// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package identity resolves actor IDs to profiles through the external
// identity directory. Callers treat every failure as "no attribution": a
// lookup error never fails the request that triggered it.
package identity

import (
	"context"
	"sort"

	"github.com/tomtom215/orderdesk/internal/models"
)

// Profile is the directory's view of an actor.
type Profile struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email,omitempty"`
	Role   models.Role `json:"role,omitempty"`
	Active bool        `json:"active"`
}

// Directory resolves a batch of actor IDs in one call. Unknown IDs are
// absent from the result. On error the returned map may still hold the
// profiles that were resolved (e.g. from cache).
type Directory interface {
	ResolveActors(ctx context.Context, ids []string) (map[string]Profile, error)
}

// StaticDirectory serves profiles from memory. It backs tests and
// deployments without a directory service.
type StaticDirectory map[string]Profile

// ResolveActors implements Directory.
func (d StaticDirectory) ResolveActors(_ context.Context, ids []string) (map[string]Profile, error) {
	out := make(map[string]Profile, len(ids))
	for _, id := range ids {
		if p, ok := d[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// Name returns the display name for id, or "" when unresolved.
func Name(ctx context.Context, dir Directory, id string) string {
	if dir == nil || id == "" {
		return ""
	}
	profiles, _ := dir.ResolveActors(ctx, []string{id}) //nolint:errcheck // best effort
	return profiles[id].Name
}

// uniqueIDs returns the distinct non-empty ids in sorted order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

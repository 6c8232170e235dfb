// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import "github.com/tomtom215/orderdesk/internal/models"

// CanAccess reports whether actor may see r: role listed, user listed,
// public, or owner. Soft-deleted reports are visible to nobody.
func CanAccess(actor *models.Actor, r *Report) bool {
	if actor == nil || r == nil || r.IsDeleted {
		return false
	}
	if r.AccessControl.IsPublic || IsOwner(actor, r) {
		return true
	}
	for _, role := range r.AccessControl.Roles {
		if role == actor.Role {
			return true
		}
	}
	for _, id := range r.AccessControl.Users {
		if id == actor.ID {
			return true
		}
	}
	return false
}

// IsOwner reports whether actor created r.
func IsOwner(actor *models.Actor, r *Report) bool {
	return actor != nil && r != nil && actor.ID != "" && actor.ID == r.GeneratedBy
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a canonical role name. The string values match the subjects in
// internal/authz/policy.csv.
type Role string

const (
	// RoleSuperAdmin inherits every admin permission.
	RoleSuperAdmin Role = "super_admin"

	// RoleAdmin has full access, including the audit trail.
	RoleAdmin Role = "admin"

	RoleManager Role = "manager"
	RoleAnalyst Role = "analyst"
	RoleDealer  Role = "dealer"
	RoleStaff   Role = "staff"

	// RoleSystem attributes records written by background jobs. It is never
	// accepted from a bearer token.
	RoleSystem Role = "system"
)

// ErrUnknownRole is returned by ParseRole for names outside the enum.
var ErrUnknownRole = errors.New("unknown role")

// ValidRoles lists the roles a user may hold.
var ValidRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleAnalyst, RoleDealer, RoleStaff}

// ParseRole normalizes a role name to its canonical form. Case, surrounding
// whitespace, and the separators '-', ' ' and '_' are ignored, so
// "Super-admin", "Super Admin" and "SUPER_ADMIN" all yield RoleSuperAdmin.
func ParseRole(s string) (Role, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for strings.Contains(norm, "__") {
		norm = strings.ReplaceAll(norm, "__", "_")
	}
	for _, r := range ValidRoles {
		if string(r) == norm {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// IsValid reports whether r is one of ValidRoles.
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// IsElevated reports whether r may read the audit trail.
func (r Role) IsElevated() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

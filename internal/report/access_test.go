// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"testing"

	"github.com/tomtom215/orderdesk/internal/models"
)

func TestCanAccess(t *testing.T) {
	t.Parallel()

	owner := &models.Actor{ID: "owner", Role: models.RoleAnalyst}
	base := Report{
		GeneratedBy: "owner",
		AccessControl: AccessControl{
			Roles: []models.Role{models.RoleManager},
			Users: []string{"friend"},
		},
	}

	tests := []struct {
		name   string
		actor  *models.Actor
		mutate func(r *Report)
		want   bool
	}{
		{"owner", owner, nil, true},
		{"role listed", &models.Actor{ID: "x", Role: models.RoleManager}, nil, true},
		{"user listed", &models.Actor{ID: "friend", Role: models.RoleStaff}, nil, true},
		{"unlisted", &models.Actor{ID: "x", Role: models.RoleStaff}, nil, false},
		{"same role as owner", &models.Actor{ID: "x", Role: models.RoleAnalyst}, nil, false},
		{"admin not listed", &models.Actor{ID: "x", Role: models.RoleAdmin}, nil, false},
		{"public", &models.Actor{ID: "x", Role: models.RoleStaff}, func(r *Report) { r.AccessControl.IsPublic = true }, true},
		{"deleted owner", owner, func(r *Report) { r.IsDeleted = true }, false},
		{"deleted public", &models.Actor{ID: "x"}, func(r *Report) { r.IsDeleted, r.AccessControl.IsPublic = true, true }, false},
		{"nil actor", nil, nil, false},
		{"empty id does not match owner", &models.Actor{Role: models.RoleStaff}, func(r *Report) { r.GeneratedBy = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			r.AccessControl = cloneAccess(base.AccessControl)
			if tt.mutate != nil {
				tt.mutate(&r)
			}
			if got := CanAccess(tt.actor, &r); got != tt.want {
				t.Errorf("CanAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Access is independent of status: a stranger never sees any status.
func TestCanAccess_AnyStatus(t *testing.T) {
	t.Parallel()

	stranger := &models.Actor{ID: "s", Role: models.RoleDealer}
	for _, st := range Statuses {
		r := &Report{GeneratedBy: "o", Status: st, AccessControl: AccessControl{Roles: []models.Role{models.RoleAdmin}}}
		if CanAccess(stranger, r) {
			t.Errorf("stranger can access %s report", st)
		}
	}
}

func TestIsOwner(t *testing.T) {
	t.Parallel()

	r := &Report{GeneratedBy: "u1"}
	if !IsOwner(&models.Actor{ID: "u1"}, r) {
		t.Error("owner not recognised")
	}
	if IsOwner(&models.Actor{ID: "u2"}, r) || IsOwner(nil, r) {
		t.Error("non-owner recognised as owner")
	}
}

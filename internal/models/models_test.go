// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package models

import (
	"context"
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"super_admin", RoleSuperAdmin, false},
		{"Super-admin", RoleSuperAdmin, false},
		{"Super Admin", RoleSuperAdmin, false},
		{"Super-Admin", RoleSuperAdmin, false},
		{"SUPER_ADMIN", RoleSuperAdmin, false},
		{"  admin ", RoleAdmin, false},
		{"Manager", RoleManager, false},
		{"analyst", RoleAnalyst, false},
		{"DEALER", RoleDealer, false},
		{"staff", RoleStaff, false},
		{"system", "", true},
		{"superadmin", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRole) {
					t.Errorf("ParseRole(%q) error = %v, want ErrUnknownRole", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole_IsElevated(t *testing.T) {
	t.Parallel()

	for _, r := range ValidRoles {
		want := r == RoleSuperAdmin || r == RoleAdmin
		if r.IsElevated() != want {
			t.Errorf("%s.IsElevated() = %v, want %v", r, r.IsElevated(), want)
		}
	}
	if RoleSystem.IsValid() {
		t.Error("system role must not be a valid user role")
	}
}

func TestActorContext(t *testing.T) {
	t.Parallel()

	if ActorFromContext(context.Background()) != nil {
		t.Error("expected nil actor on empty context")
	}

	a := &Actor{ID: "u1", Role: RoleAnalyst, Name: "Ana"}
	ctx := ContextWithActor(context.Background(), a)
	if got := ActorFromContext(ctx); got != a {
		t.Errorf("ActorFromContext = %+v, want %+v", got, a)
	}
}

func TestPage_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero value", Page{}, Page{Page: 1, Limit: 20}},
		{"over max", Page{Page: 3, Limit: 500}, Page{Page: 3, Limit: 100}},
		{"negative page", Page{Page: -2, Limit: 10}, Page{Page: 1, Limit: 10}},
		{"unchanged", Page{Page: 2, Limit: 50}, Page{Page: 2, Limit: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.in.Normalize(20, 100); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPage_OffsetAndCount(t *testing.T) {
	t.Parallel()

	if off := (Page{Page: 3, Limit: 25}).Offset(); off != 50 {
		t.Errorf("Offset() = %d, want 50", off)
	}
	if off := (Page{}).Offset(); off != 0 {
		t.Errorf("Offset() of zero page = %d", off)
	}

	counts := map[int64]int{0: 0, 1: 1, 25: 1, 26: 2, 100: 4}
	for total, want := range counts {
		if got := PageCount(total, 25); got != want {
			t.Errorf("PageCount(%d, 25) = %d, want %d", total, got, want)
		}
	}
}

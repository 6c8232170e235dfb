// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package authz

import (
	"net/http"

	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/metrics"
	"github.com/tomtom215/orderdesk/internal/models"
)

// DenyFunc writes a rejection. status is 401, 403 or 500.
type DenyFunc func(w http.ResponseWriter, r *http.Request, status int, message string)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
	deny     DenyFunc
}

// NewMiddleware creates a new authorization middleware. A nil deny falls
// back to http.Error.
func NewMiddleware(enforcer *Enforcer, deny DenyFunc) *Middleware {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, status int, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{enforcer: enforcer, deny: deny}
}

// Authorize enforces (object, action) against the resolved actor's role.
// Requests without an actor are rejected with 401.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := models.ActorFromContext(r.Context())
			if actor == nil {
				m.deny(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}

			allowed, err := m.enforcer.Enforce(string(actor.Role), object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("object", object).Msg("Authorization error")
				m.deny(w, r, http.StatusInternalServerError, "Internal server error")
				return
			}
			metrics.RecordAuthzDecision(object, allowed)

			if !allowed {
				m.deny(w, r, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

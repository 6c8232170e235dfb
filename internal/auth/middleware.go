// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package auth

import (
	"context"
	"net/http"

	"github.com/tomtom215/orderdesk/internal/logging"
	"github.com/tomtom215/orderdesk/internal/models"
)

// UnauthorizedFunc writes a 401 response.
type UnauthorizedFunc func(w http.ResponseWriter, r *http.Request, message string)

// Middleware resolves the actor and stores it in the request context.
type Middleware struct {
	resolver     Resolver
	unauthorized UnauthorizedFunc
}

// NewMiddleware creates an authentication middleware. A nil unauthorized
// falls back to http.Error.
func NewMiddleware(resolver Resolver, unauthorized UnauthorizedFunc) *Middleware {
	if unauthorized == nil {
		unauthorized = func(w http.ResponseWriter, _ *http.Request, message string) {
			http.Error(w, message, http.StatusUnauthorized)
		}
	}
	return &Middleware{resolver: resolver, unauthorized: unauthorized}
}

// Authenticate rejects requests without a valid actor.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := m.resolver.Resolve(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Authentication failed")
			m.unauthorized(w, r, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r, actor)))
	})
}

// Optional attaches the actor when one resolves and passes anonymous
// requests through untouched.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := m.resolver.Resolve(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r, actor)))
	})
}

func withActor(r *http.Request, actor *models.Actor) context.Context {
	ctx := models.ContextWithActor(r.Context(), actor)
	return logging.ContextWithActorID(ctx, actor.ID)
}

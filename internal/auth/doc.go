// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package auth resolves the calling actor for protected API routes.

Authentication itself happens upstream; this package only consumes the
result. Two modes are supported (AUTH_MODE):

  - jwt: "Authorization: Bearer <token>", HS256 signed with JWT_SECRET.
    The subject claim is the actor id, "role" and "name" are custom claims.
  - none: X-Actor-ID, X-Actor-Role and X-Actor-Name headers are trusted
    as-is. Rejected in production by config validation.

Roles are folded to the canonical enum with models.ParseRole, so "Admin",
"ADMIN" and "admin" resolve identically. Unknown roles fail resolution.

Usage:

	resolver, err := auth.NewResolver(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(resolver, api.WriteUnauthorized)
	r.With(mw.Authenticate).Get("/reports", h.ListReports)
*/
package auth

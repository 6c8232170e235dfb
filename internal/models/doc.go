// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package models defines the types shared by every Orderdesk subsystem.

Key Components:

  - Role: the one canonical role enum (super_admin, admin, manager, analyst,
    dealer, staff). ParseRole folds the casing and separator variants seen in
    upstream identity data onto it.
  - Actor: the resolved {id, role, name} handed over by the authentication
    layer. A request without an Actor is anonymous.
  - Context helpers: ContextWithActor / ActorFromContext carry the actor from
    the API router into audit instrumentation and report handlers.

Usage:
  - Actor resolution in internal/api/auth.go
  - Audit attribution in internal/audit/interceptor.go
  - Permission checks in internal/authz and internal/report
*/
package models

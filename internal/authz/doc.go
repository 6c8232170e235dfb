// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package authz provides authorization functionality using Casbin.
//
// It holds the static role to report-type permission matrix and the
// elevated-role rule guarding the audit endpoints. Both are plain Casbin
// policies evaluated by one RBAC model:
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[matchers]
//	m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
//
// Subjects are canonical role names (see models.Role). Objects are
// "report:<TYPE>" with action "generate", and "audit" with action "read".
//
// # Policy
//
// The default policy is embedded (policy.csv). A deployment can point
// EnforcerConfig.PolicyPath at its own file:
//
//	g, super_admin, admin
//	p, admin, *, *
//	p, analyst, report:SALES_SUMMARY, generate
//
// # Usage
//
//	enforcer, err := authz.NewEnforcer(nil)
//	if err != nil {
//	    return err
//	}
//	defer enforcer.Close()
//
//	ok, err := enforcer.CanGenerate(actor.Role, "SALES_SUMMARY")
//
// Decisions are cached in a TTL-bounded LRU; policy mutations clear it.
package authz

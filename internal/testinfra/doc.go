// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package testinfra provides container helpers for integration tests.
//
// Files in this package carry the integration build tag, so they only
// compile under:
//
//	go test -tags integration ./...
//
// # Redis Container
//
// RedisContainer backs the distributed sweep lease tests:
//
//	func TestSweepLease(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//	    // connect with go-redis to redis.Addr
//	}
//
// Tests are skipped when Docker is unavailable. The first run pulls the
// image.
package testinfra

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/orderdesk/internal/logging"
)

// Locker grants exclusive sweep runs. TryAcquire returns ok=false when
// another run holds the lock; release must be called once when ok.
type Locker interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// LocalLocker is an in-process single-flight guard.
type LocalLocker struct {
	held atomic.Bool
}

// TryAcquire implements Locker.
func (l *LocalLocker) TryAcquire(context.Context) (func(), bool, error) {
	if !l.held.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	return func() { l.held.Store(false) }, true, nil
}

// RedisLocker holds a Redis lease so one instance sweeps at a time across
// a deployment. The lease is refreshed at half its TTL while held.
type RedisLocker struct {
	client *redislock.Client
	key    string
	ttl    time.Duration
}

// NewRedisLocker creates a lease locker on an existing client.
func NewRedisLocker(rdb redis.UniversalClient, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = "orderdesk:sweep"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocker{client: redislock.New(rdb), key: key, ttl: ttl}
}

// TryAcquire implements Locker.
func (l *RedisLocker) TryAcquire(ctx context.Context) (func(), bool, error) {
	lock, err := l.client.Obtain(ctx, l.key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtain sweep lease: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(l.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := lock.Refresh(context.Background(), l.ttl, nil); err != nil {
					logging.Warn().Err(err).Str("key", l.key).Msg("Failed to refresh sweep lease")
					return
				}
			}
		}
	}()

	release := func() {
		close(stop)
		<-done
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logging.Warn().Err(err).Str("key", l.key).Msg("Failed to release sweep lease")
		}
	}
	return release, true, nil
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// QueueRunner is the lifecycle of eventprocessor.Queue.
type QueueRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	Done() <-chan struct{}
}

// errQueueStopped is reported when the router dies under a live context.
// A queue cannot be restarted, so the service is not restarted either;
// readiness then reports the worker down.
var errQueueStopped = errors.New("report queue stopped unexpectedly")

// QueueService adapts the report job queue's Start/Shutdown to Serve.
type QueueService struct {
	queue           QueueRunner
	shutdownTimeout time.Duration
}

// NewQueueService wraps queue. A non-positive timeout means 10s.
func NewQueueService(queue QueueRunner, shutdownTimeout time.Duration) *QueueService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &QueueService{queue: queue, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *QueueService) Serve(ctx context.Context) error {
	if err := s.queue.Start(ctx); err != nil {
		return fmt.Errorf("report queue start failed: %w", err)
	}

	var result error
	select {
	case <-ctx.Done():
		result = ctx.Err()
	case <-s.queue.Done():
		result = fmt.Errorf("%w: %w", errQueueStopped, suture.ErrDoNotRestart)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	s.queue.Shutdown(shutdownCtx)
	return result
}

// String implements fmt.Stringer for suture logging.
func (s *QueueService) String() string {
	return "report-queue"
}

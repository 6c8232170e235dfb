// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package eventprocessor

import "errors"

var (
	// ErrInvalidConfig is returned when the queue configuration cannot be used.
	ErrInvalidConfig = errors.New("invalid queue configuration")

	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrNilPublisher is returned when a wrapper is given no underlying publisher.
	ErrNilPublisher = errors.New("publisher cannot be nil")

	// ErrNoHandler is returned by Start when no job handler was registered.
	ErrNoHandler = errors.New("no job handler registered")

	// ErrAlreadyStarted is returned by Start on a running queue.
	ErrAlreadyStarted = errors.New("queue already started")
)

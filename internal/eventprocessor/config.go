// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/orderdesk/internal/config"
)

// Backend names accepted in config.QueueConfig.Backend.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// PublisherConfig holds NATS publisher connection settings.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool
}

// SubscriberConfig holds JetStream consumer settings.
type SubscriberConfig struct {
	URL              string
	QueueGroup       string
	DurableName      string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
	MaxDeliver       int
	MaxAckPending    int
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// RouterConfig holds watermill router settings.
type RouterConfig struct {
	CloseTimeout time.Duration

	// Retry applies to errors returned by the job handler.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// CircuitBreakerConfig configures the publish breaker.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultRouterConfig returns production defaults for the router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// DefaultCircuitBreakerConfig returns defaults for the job publish breaker.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "report-jobs",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// publisherConfig returns publisher settings for a NATS URL.
func publisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024,
		EnableTrackMsgID: true,
	}
}

// subscriberConfig derives consumer settings from the queue configuration.
func subscriberConfig(q config.QueueConfig, url string) SubscriberConfig {
	group := q.QueueGroup
	if group == "" {
		group = "report-workers"
	}
	return SubscriberConfig{
		URL:              url,
		QueueGroup:       group,
		DurableName:      group,
		SubscribersCount: max(q.SubscribersCount, 1),
		AckWaitTimeout:   q.AckWaitTimeout,
		CloseTimeout:     q.CloseTimeout,
		MaxDeliver:       q.RetryCount + 2,
		MaxAckPending:    max(q.SubscribersCount, 1) * 4,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// serverConfig derives embedded server settings. Port -1 picks a free port.
func serverConfig(q config.QueueConfig) ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1,
		StoreDir:          q.StoreDir,
		JetStreamMaxMem:   64 * 1024 * 1024,
		JetStreamMaxStore: 1024 * 1024 * 1024,
	}
}

// routerConfig derives router settings from the queue configuration.
func routerConfig(q config.QueueConfig) RouterConfig {
	cfg := DefaultRouterConfig()
	if q.CloseTimeout > 0 {
		cfg.CloseTimeout = q.CloseTimeout
	}
	if q.RetryCount >= 0 {
		cfg.RetryMaxRetries = q.RetryCount
	}
	if q.RetryInitialInterval > 0 {
		cfg.RetryInitialInterval = q.RetryInitialInterval
	}
	return cfg
}

func validate(q config.QueueConfig) error {
	if q.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}
	switch q.Backend {
	case BackendMemory:
	case BackendNATS:
		if q.NATSURL == "" && !q.EmbeddedServer {
			return fmt.Errorf("%w: NATS URL is required without an embedded server", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, q.Backend)
	}
	return nil
}

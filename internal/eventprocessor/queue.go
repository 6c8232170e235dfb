// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/logging"
)

const handlerName = "report-generator"

// Queue owns the report job transport: an optional embedded NATS server,
// the publisher, the subscriber and the router that feeds jobs to a
// Generator. A Queue runs once; Shutdown is terminal.
type Queue struct {
	topic      string
	server     *EmbeddedServer
	publisher  *Publisher
	subscriber message.Subscriber
	router     *Router
	jobs       *JobPublisher
	logger     zerolog.Logger

	mu      sync.Mutex
	handled bool
	started bool
	onReady func(ctx context.Context)
	done    chan struct{}
}

// NewQueue builds the transport selected by cfg.Backend.
func NewQueue(cfg config.QueueConfig) (*Queue, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	logger := logging.WithComponent("job-queue")
	wmLogger := logging.NewWatermillAdapterWithLogger(logger)

	q := &Queue{topic: cfg.Topic, logger: logger, done: make(chan struct{})}

	var (
		pub message.Publisher
		err error
	)
	switch cfg.Backend {
	case BackendMemory:
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(max(cfg.SubscribersCount, 1) * 4),
		}, wmLogger)
		pub, q.subscriber = ch, ch
	case BackendNATS:
		pub, err = q.openNATS(cfg, wmLogger)
		if err != nil {
			q.closeServer()
			return nil, err
		}
	}

	q.publisher, err = NewPublisher(pub, NewCircuitBreaker(DefaultCircuitBreakerConfig()))
	if err != nil {
		q.closeServer()
		return nil, err
	}
	q.jobs = NewJobPublisher(q.publisher, cfg.Topic)

	rc := routerConfig(cfg)
	q.router, err = NewRouter(&rc, wmLogger)
	if err != nil {
		_ = q.publisher.Close()
		q.closeServer()
		return nil, err
	}
	return q, nil
}

func (q *Queue) openNATS(cfg config.QueueConfig, wmLogger watermill.LoggerAdapter) (message.Publisher, error) {
	url := cfg.NATSURL
	if cfg.EmbeddedServer {
		sc := serverConfig(cfg)
		srv, err := NewEmbeddedServer(&sc)
		if err != nil {
			return nil, err
		}
		q.server = srv
		url = srv.ClientURL()
		q.logger.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	pub, err := newNATSPublisher(publisherConfig(url), wmLogger)
	if err != nil {
		return nil, err
	}
	sc := subscriberConfig(cfg, url)
	sub, err := newNATSSubscriber(&sc, wmLogger)
	if err != nil {
		_ = pub.Close()
		return nil, err
	}
	q.subscriber = sub
	return pub, nil
}

// Jobs returns the publisher that report.Manager enqueues through.
func (q *Queue) Jobs() *JobPublisher {
	return q.jobs
}

// Handle registers gen as the consumer of the job topic. Only the first
// call has effect.
func (q *Queue) Handle(gen Generator) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handled {
		return
	}
	q.handled = true
	q.router.AddConsumerHandler(handlerName, q.topic, q.subscriber, NewJobHandler(gen, q.logger))
}

// OnReady sets a callback run once the handler is subscribed. Startup
// recovery uses it so republished jobs are not lost on the in-memory
// transport.
func (q *Queue) OnReady(fn func(ctx context.Context)) {
	q.mu.Lock()
	q.onReady = fn
	q.mu.Unlock()
}

// Start runs the router in the background and returns once it is
// subscribed.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if !q.handled {
		q.mu.Unlock()
		return ErrNoHandler
	}
	if q.started {
		q.mu.Unlock()
		return ErrAlreadyStarted
	}
	q.started = true
	onReady := q.onReady
	q.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		defer close(q.done)
		if err := q.router.Run(ctx); err != nil {
			q.logger.Error().Err(err).Msg("Job router stopped")
			errCh <- err
		}
	}()

	select {
	case <-q.router.Running():
	case err := <-errCh:
		return fmt.Errorf("job router failed to start: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}

	q.logger.Info().Str("topic", q.topic).Msg("Report job queue running")
	if onReady != nil {
		onReady(ctx)
	}
	return nil
}

// Done is closed when the router has stopped.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Shutdown stops the router, then closes the transport.
func (q *Queue) Shutdown(ctx context.Context) {
	if err := q.router.Close(); err != nil {
		q.logger.Warn().Err(err).Msg("Job router close failed")
	}

	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if started {
		select {
		case <-q.done:
		case <-ctx.Done():
			q.logger.Warn().Msg("Timed out waiting for job router")
		}
	}

	var errs []error
	if err := q.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := q.subscriber.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		q.logger.Warn().Err(err).Msg("Job transport close failed")
	}
	if q.server != nil {
		if err := q.server.Shutdown(ctx); err != nil {
			q.logger.Warn().Err(err).Msg("Embedded NATS shutdown failed")
		}
	}
}

// IsRunning reports whether jobs are being consumed.
func (q *Queue) IsRunning() bool {
	if q.server != nil && !q.server.IsRunning() {
		return false
	}
	return q.router.IsRunning()
}

func (q *Queue) closeServer() {
	if q.server != nil {
		_ = q.server.Shutdown(context.Background())
	}
}

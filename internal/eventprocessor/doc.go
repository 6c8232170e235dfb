// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package eventprocessor carries report generation jobs from the API to the
workers using Watermill.

Two transports are available, selected by REPORT_QUEUE_BACKEND:

  - memory: a gochannel pub/sub inside the process
  - nats: NATS JetStream, either external (NATS_URL) or an embedded server
    (NATS_EMBEDDED) storing its stream under NATS_STORE_DIR

# Flow

	report.Manager.Create
	    -> JobPublisher.PublishJob (circuit breaker, Nats-Msg-Id)
	    -> topic
	    -> Router (Recoverer, Retry)
	    -> NewJobHandler -> Generator.Generate

Delivery is at least once. The report row's conditional PENDING to
GENERATING claim makes a duplicate delivery a no-op. The handler returns
an error only for infrastructure failures, which the router retries and
then nacks for redelivery.

# Usage

	q, err := eventprocessor.NewQueue(cfg.Reports.Queue)
	mgr := report.NewManager(report.Deps{Publisher: q.Jobs(), ...}, cfg.Reports)
	q.Handle(mgr)
	q.OnReady(func(ctx context.Context) { mgr.Recover(ctx) })
	tree.AddMessagingService(services.NewQueueService(q))
*/
package eventprocessor

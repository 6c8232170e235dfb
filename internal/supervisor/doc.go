// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package supervisor runs Orderdesk's long-lived components under a suture v4
supervision tree with three layers (data, worker, api).

Every component is a suture.Service: Serve(ctx) blocks until ctx is
canceled and returns an error to request a restart. Restarts back off
after FailureThreshold failures decaying at FailureDecay per second.
Supervisor events are logged through sutureslog into the zerolog-backed
slog handler.

Adapters for components with Start/Shutdown lifecycles live in the
services subpackage.

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	tree.AddDataService(auditWriter)
	tree.AddWorkerService(services.NewQueueService(queue, 10*time.Second))
	tree.AddWorkerService(sweep.NewScheduler(sweeper, cfg.Sweep.Interval))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err := tree.Serve(ctx)
*/
package supervisor

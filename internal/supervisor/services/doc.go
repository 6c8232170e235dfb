// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

// Package services adapts components with blocking or Start/Shutdown
// lifecycles to suture.Service.
//
//   - HTTPServerService: *http.Server (ListenAndServe / Shutdown)
//   - QueueService: eventprocessor.Queue (Start / Shutdown / Done)
//
// The audit writer and the sweep scheduler implement Serve themselves and
// are added to the tree directly.
package services

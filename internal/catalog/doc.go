// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

/*
Package catalog holds the order and product read model that report datasets,
the public KPI summary, and the availability sweep operate on.

Two stores implement the same method set:
  - MemoryStore: tests and demo mode
  - DuckDBStore: products, inventory entries, orders, order lines, dealers
    and the product change log in DuckDB

Money is carried as shopspring/decimal and persisted as DECIMAL(18,2).

The Unavailable flag on Product is derived. Only the availability sweep
writes it, through the conditional UpdateAvailability call, and every flip
is recorded with AppendChange.
*/
package catalog

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFreshnessWindow applies to products without their own window.
const DefaultFreshnessWindow = 24 * time.Hour

// Dealer sells through the catalog.
type Dealer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

// InventoryEntry is one stock position of a product.
type InventoryEntry struct {
	Location   string    `json:"location"`
	Quantity   int       `json:"quantity"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// Product is a catalog item. Unavailable is derived by the availability
// sweep and never written by anything else.
type Product struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`

	// FreshnessWindow overrides DefaultFreshnessWindow when non-zero.
	FreshnessWindow time.Duration `json:"freshnessWindow,omitempty"`

	Unavailable    bool       `json:"unavailable"`
	SweepIteration int64      `json:"sweepIteration"`
	FlagUpdatedAt  *time.Time `json:"flagUpdatedAt,omitempty"`

	Inventory []InventoryEntry `json:"inventory,omitempty"`
}

// Window returns the effective freshness window.
func (p *Product) Window() time.Duration {
	if p.FreshnessWindow > 0 {
		return p.FreshnessWindow
	}
	return DefaultFreshnessWindow
}

// StockQuantity sums all inventory entries.
func (p *Product) StockQuantity() int {
	total := 0
	for _, e := range p.Inventory {
		total += e.Quantity
	}
	return total
}

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "PLACED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// OrderLine is one product position of an order.
type OrderLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Amount returns quantity * unit price.
func (l OrderLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a placed order.
type Order struct {
	ID        string      `json:"id"`
	DealerID  string      `json:"dealerId"`
	Region    string      `json:"region"`
	Channel   string      `json:"channel"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Lines     []OrderLine `json:"lines"`
}

// Total returns the order value. Cancelled orders are worth zero.
func (o *Order) Total() decimal.Decimal {
	if o.Status == OrderCancelled {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

// Units returns the number of items ordered.
func (o *Order) Units() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// AvailabilityRecord is the projection the sweep reads: only what the
// availability predicate needs.
type AvailabilityRecord struct {
	ProductID       string
	Unavailable     bool
	FreshnessWindow time.Duration
	Entries         []InventoryEntry
}

// FlagChange is one change-log entry written when a derived flag flips.
type FlagChange struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Field     string    `json:"field"`
	OldValue  bool      `json:"oldValue"`
	NewValue  bool      `json:"newValue"`
	Iteration int64     `json:"iteration"`
	ChangedAt time.Time `json:"changedAt"`
}

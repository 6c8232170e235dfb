// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package catalog

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// SeedData is a batch of catalog rows.
type SeedData struct {
	Dealers  []Dealer
	Products []Product
	Orders   []Order
}

var (
	seedRegions    = []string{"NORTH", "SOUTH", "EAST", "WEST"}
	seedChannels   = []string{"ONLINE", "RETAIL", "WHOLESALE"}
	seedCategories = []string{"Electronics", "Furniture", "Appliances", "Accessories"}
)

// NewSeedData builds deterministic demo data relative to now: a handful of
// dealers, a product range with a mix of fresh, stale, empty and missing
// inventory, and 90 days of orders.
func NewSeedData(now time.Time) *SeedData {
	rng := rand.New(rand.NewSource(42)) //nolint:gosec // demo data, not security sensitive
	data := &SeedData{}

	for i, region := range seedRegions {
		data.Dealers = append(data.Dealers, Dealer{
			ID:     fmt.Sprintf("dealer-%02d", i+1),
			Name:   fmt.Sprintf("%s Distribution", region),
			Region: region,
		})
	}

	for i := 0; i < 16; i++ {
		p := Product{
			ID:       fmt.Sprintf("prod-%03d", i+1),
			SKU:      fmt.Sprintf("SKU-%05d", 10000+i*7),
			Name:     fmt.Sprintf("%s Item %d", seedCategories[i%len(seedCategories)], i+1),
			Category: seedCategories[i%len(seedCategories)],
			Price:    decimal.NewFromInt(int64(20 + rng.Intn(480))).Add(decimal.New(99, -2)),
		}
		switch i % 4 {
		case 0: // fresh stock
			p.Inventory = []InventoryEntry{{Location: "WH-1", Quantity: 5 + rng.Intn(50), LastUpdate: now.Add(-2 * time.Hour)}}
		case 1: // stale stock
			p.Inventory = []InventoryEntry{{Location: "WH-2", Quantity: 10, LastUpdate: now.Add(-72 * time.Hour)}}
		case 2: // fresh but empty
			p.Inventory = []InventoryEntry{{Location: "WH-1", Quantity: 0, LastUpdate: now.Add(-time.Hour)}}
		case 3: // no entries; every eighth product has a longer window and fresh stock
			if i%8 == 7 {
				p.FreshnessWindow = 7 * 24 * time.Hour
				p.Inventory = []InventoryEntry{{Location: "WH-3", Quantity: 3, LastUpdate: now.Add(-96 * time.Hour)}}
			}
		}
		data.Products = append(data.Products, p)
	}

	statuses := []OrderStatus{OrderPlaced, OrderShipped, OrderDelivered, OrderDelivered, OrderCancelled}
	for i := 0; i < 120; i++ {
		dealer := data.Dealers[rng.Intn(len(data.Dealers))]
		o := Order{
			ID:        fmt.Sprintf("ord-%05d", i+1),
			DealerID:  dealer.ID,
			Region:    dealer.Region,
			Channel:   seedChannels[rng.Intn(len(seedChannels))],
			Status:    statuses[rng.Intn(len(statuses))],
			CreatedAt: now.Add(-time.Duration(rng.Intn(90*24)) * time.Hour).UTC().Truncate(time.Second),
		}
		for n := 1 + rng.Intn(3); n > 0; n-- {
			p := data.Products[rng.Intn(len(data.Products))]
			o.Lines = append(o.Lines, OrderLine{ProductID: p.ID, Quantity: 1 + rng.Intn(5), UnitPrice: p.Price})
		}
		data.Orders = append(data.Orders, o)
	}
	return data
}

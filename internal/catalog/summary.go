// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the role-free KPI view served to unauthenticated callers. It
// carries counts and totals only, never per-dealer or per-order detail.
type Summary struct {
	TotalOrders         int             `json:"totalOrders"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue   decimal.Decimal `json:"averageOrderValue"`
	ActiveProducts      int             `json:"activeProducts"`
	UnavailableProducts int             `json:"unavailableProducts"`
	Dealers             int             `json:"dealers"`
	Since               time.Time       `json:"since"`
	GeneratedAt         time.Time       `json:"generatedAt"`
}

// Summarize computes the KPI view over orders created at or after since.
// Cancelled orders count toward TotalOrders but not toward revenue.
func Summarize(ctx context.Context, src Source, since, now time.Time) (*Summary, error) {
	orders, err := src.Orders(ctx, OrderFilter{Start: &since, End: &now})
	if err != nil {
		return nil, fmt.Errorf("summary orders: %w", err)
	}
	products, err := src.Products(ctx, ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("summary products: %w", err)
	}
	dealers, err := src.Dealers(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary dealers: %w", err)
	}

	s := &Summary{
		TotalOrders:  len(orders),
		TotalRevenue: decimal.Zero,
		Dealers:      len(dealers),
		Since:        since.UTC(),
		GeneratedAt:  now.UTC(),
	}
	billable := 0
	for i := range orders {
		if orders[i].Status == OrderCancelled {
			continue
		}
		billable++
		s.TotalRevenue = s.TotalRevenue.Add(orders[i].Total())
	}
	s.AverageOrderValue = decimal.Zero
	if billable > 0 {
		s.AverageOrderValue = s.TotalRevenue.DivRound(decimal.NewFromInt(int64(billable)), 2)
	}
	for i := range products {
		if products[i].Unavailable {
			s.UnavailableProducts++
		} else {
			s.ActiveProducts++
		}
	}
	return s, nil
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrFlagConflict is returned by UpdateAvailability when the stored flag no
// longer matches the expected old value.
var ErrFlagConflict = errors.New("availability flag changed concurrently")

// ErrProductNotFound is returned for unknown product ids.
var ErrProductNotFound = errors.New("product not found")

// OrderFilter narrows order reads. Empty slices do not constrain.
type OrderFilter struct {
	Start    *time.Time
	End      *time.Time
	Dealers  []string
	Regions  []string
	Products []string
	Channels []string
}

// Matches reports whether o passes the filter. A product filter keeps
// orders with at least one matching line.
func (f *OrderFilter) Matches(o *Order) bool {
	if f.Start != nil && o.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && o.CreatedAt.After(*f.End) {
		return false
	}
	if !in(f.Dealers, o.DealerID) || !in(f.Regions, o.Region) || !in(f.Channels, o.Channel) {
		return false
	}
	if len(f.Products) > 0 {
		for _, l := range o.Lines {
			if in(f.Products, l.ProductID) {
				return true
			}
		}
		return false
	}
	return true
}

// ProductFilter narrows product reads.
type ProductFilter struct {
	IDs        []string
	Categories []string
}

// Matches reports whether p passes the filter.
func (f *ProductFilter) Matches(p *Product) bool {
	return in(f.IDs, p.ID) && in(f.Categories, p.Category)
}

// Source is the read-only catalog view used by report datasets and KPIs.
type Source interface {
	Orders(ctx context.Context, filter OrderFilter) ([]Order, error)
	Products(ctx context.Context, filter ProductFilter) ([]Product, error)
	Dealers(ctx context.Context) ([]Dealer, error)
}

// in reports whether v is in set; an empty set admits everything.
func in(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

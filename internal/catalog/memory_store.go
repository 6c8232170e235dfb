// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory catalog for tests and demo mode.
type MemoryStore struct {
	mu       sync.RWMutex
	dealers  []Dealer
	products map[string]*Product
	orders   []Order
	changes  []FlagChange
}

// NewMemoryStore creates an empty catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]*Product)}
}

// Load appends the given rows.
func (s *MemoryStore) Load(_ context.Context, data *SeedData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dealers = append(s.dealers, data.Dealers...)
	for i := range data.Products {
		p := cloneProduct(&data.Products[i])
		s.products[p.ID] = &p
	}
	s.orders = append(s.orders, data.Orders...)
	return nil
}

// PutProduct inserts or replaces a product.
func (s *MemoryStore) PutProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneProduct(&p)
	s.products[p.ID] = &c
}

// Product returns one product by id.
func (s *MemoryStore) Product(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	c := cloneProduct(p)
	return &c, nil
}

// Orders returns matching orders sorted by creation time.
func (s *MemoryStore) Orders(_ context.Context, filter OrderFilter) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, 0, len(s.orders))
	for i := range s.orders {
		if filter.Matches(&s.orders[i]) {
			o := s.orders[i]
			o.Lines = append([]OrderLine(nil), o.Lines...)
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Products returns matching products sorted by id.
func (s *MemoryStore) Products(_ context.Context, filter ProductFilter) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, id := range s.sortedIDs() {
		p := s.products[id]
		if filter.Matches(p) {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

// Dealers returns every dealer sorted by id.
func (s *MemoryStore) Dealers(_ context.Context) ([]Dealer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Dealer(nil), s.dealers...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ScanAvailability returns up to limit availability projections with
// product id > afterID, ordered by id.
func (s *MemoryStore) ScanAvailability(_ context.Context, afterID string, limit int) ([]AvailabilityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []AvailabilityRecord
	for _, id := range s.sortedIDs() {
		if id <= afterID {
			continue
		}
		p := s.products[id]
		out = append(out, AvailabilityRecord{
			ProductID:       p.ID,
			Unavailable:     p.Unavailable,
			FreshnessWindow: p.FreshnessWindow,
			Entries:         append([]InventoryEntry(nil), p.Inventory...),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// UpdateAvailability sets the flag if it still equals old, bumping the
// sweep iteration. It returns the new iteration.
func (s *MemoryStore) UpdateAvailability(_ context.Context, id string, old, updated bool, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if p.Unavailable != old {
		return 0, ErrFlagConflict
	}
	p.Unavailable = updated
	p.SweepIteration++
	t := at
	p.FlagUpdatedAt = &t
	return p.SweepIteration, nil
}

// AppendChange records a flag change.
func (s *MemoryStore) AppendChange(_ context.Context, change FlagChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	s.changes = append(s.changes, change)
	return nil
}

// Changes returns the change log for productID, or all when empty.
func (s *MemoryStore) Changes(_ context.Context, productID string) ([]FlagChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FlagChange
	for _, c := range s.changes {
		if productID == "" || c.ProductID == productID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneProduct(p *Product) Product {
	c := *p
	c.Inventory = append([]InventoryEntry(nil), p.Inventory...)
	if p.FlagUpdatedAt != nil {
		t := *p.FlagUpdatedAt
		c.FlagUpdatedAt = &t
	}
	return c
}

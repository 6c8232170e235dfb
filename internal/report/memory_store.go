// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package report

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/orderdesk/internal/models"
)

// MemoryStore is an in-memory Store for tests and demo mode.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*Report)}
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[r.ReportID]; exists {
		return fmt.Errorf("report %s already exists", r.ReportID)
	}
	c := cloneReport(r)
	s.reports[r.ReportID] = &c
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneReport(r)
	return &c, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, filter ListFilter, page models.Page) ([]Report, int64, error) {
	s.mu.RLock()
	var matched []Report
	for _, r := range s.reports {
		if matchesList(&filter, r) {
			matched = append(matched, cloneReport(r))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ReportID > matched[j].ReportID
	})

	total := int64(len(matched))
	start := min(page.Offset(), len(matched))
	end := len(matched)
	if page.Limit > 0 {
		end = min(start+page.Limit, len(matched))
	}
	return matched[start:end], total, nil
}

// Transition implements Store.
func (s *MemoryStore) Transition(_ context.Context, id string, from Status, t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != from || !CanTransition(from, t.To) {
		return fmt.Errorf("%w: %s is %s, expected %s", ErrStatusConflict, id, r.Status, from)
	}
	applyTransition(r, t)
	return nil
}

// AppendDownload implements Store.
func (s *MemoryStore) AppendDownload(_ context.Context, id string, entry DownloadEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.IsDeleted {
		return 0, ErrNotFound
	}
	r.DownloadHistory = append(r.DownloadHistory, entry)
	r.UpdatedAt = entry.DownloadedAt
	return len(r.DownloadHistory), nil
}

// UpdateAccess implements Store.
func (s *MemoryStore) UpdateAccess(_ context.Context, id string, ac AccessControl, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.IsDeleted {
		return ErrNotFound
	}
	r.AccessControl = cloneAccess(ac)
	r.UpdatedAt = at
	return nil
}

// SoftDelete implements Store.
func (s *MemoryStore) SoftDelete(_ context.Context, id, by string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.IsDeleted {
		return ErrNotFound
	}
	r.IsDeleted = true
	r.DeletedAt = &at
	r.DeletedBy = by
	r.UpdatedAt = at
	return nil
}

// ByStatus implements Store.
func (s *MemoryStore) ByStatus(_ context.Context, status Status) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Report
	for _, r := range s.reports {
		if !r.IsDeleted && r.Status == status {
			out = append(out, cloneReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DueRecurring implements Store.
func (s *MemoryStore) DueRecurring(_ context.Context, now time.Time) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Report
	for _, r := range s.reports {
		next := r.Schedule.NextGeneration
		if !r.IsDeleted && r.Status == StatusCompleted && r.Schedule.IsRecurring && next != nil && !next.After(now) {
			out = append(out, cloneReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Schedule.NextGeneration.Before(*out[j].Schedule.NextGeneration) })
	return out, nil
}

func matchesList(f *ListFilter, r *Report) bool {
	switch {
	case r.IsDeleted,
		f.Viewer != nil && !CanAccess(f.Viewer, r),
		f.Type != "" && r.Type != f.Type,
		f.Status != "" && r.Status != f.Status,
		f.Start != nil && r.CreatedAt.Before(*f.Start),
		f.End != nil && r.CreatedAt.After(*f.End):
		return false
	}
	return true
}

func applyTransition(r *Report, t Transition) {
	r.Status = t.To
	g := t.Generation
	if g.StartedAt != nil {
		r.GenerationDetails.StartedAt = g.StartedAt
	}
	if g.CompletedAt != nil {
		r.GenerationDetails.CompletedAt = g.CompletedAt
	}
	if g.ExecutionTimeMs != 0 {
		r.GenerationDetails.ExecutionTimeMs = g.ExecutionTimeMs
	}
	if g.RecordCount != 0 {
		r.GenerationDetails.RecordCount = g.RecordCount
	}
	if g.ErrorMessage != "" {
		r.GenerationDetails.ErrorMessage = g.ErrorMessage
	}
	if t.File != nil {
		f := *t.File
		r.FileDetails = &f
	}
	if t.LastGenerated != nil {
		r.Schedule.LastGenerated = t.LastGenerated
	}
	r.UpdatedAt = t.At
}

func cloneAccess(ac AccessControl) AccessControl {
	return AccessControl{
		Roles:    append([]models.Role{}, ac.Roles...),
		Users:    append([]string{}, ac.Users...),
		IsPublic: ac.IsPublic,
	}
}

func cloneReport(r *Report) Report {
	c := *r
	c.Parameters = append([]byte(nil), r.Parameters...)
	if r.DateRange != nil {
		dr := *r.DateRange
		c.DateRange = &dr
	}
	c.Scope = Scope{
		Dealers:  append([]string(nil), r.Scope.Dealers...),
		Regions:  append([]string(nil), r.Scope.Regions...),
		Products: append([]string(nil), r.Scope.Products...),
		Channels: append([]string(nil), r.Scope.Channels...),
	}
	if r.FileDetails != nil {
		f := *r.FileDetails
		c.FileDetails = &f
	}
	c.AccessControl = cloneAccess(r.AccessControl)
	c.DownloadHistory = append([]DownloadEntry{}, r.DownloadHistory...)
	return c
}

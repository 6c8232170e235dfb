// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tomtom215/orderdesk/internal/models"
)

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append persists an audit record.
func (s *MemoryStore) Append(_ context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStore) Query(_ context.Context, filter Filter, page models.Page) ([]Record, int64, error) {
	matched := s.matching(&filter)
	sortNewestFirst(matched)

	total := int64(len(matched))
	offset := page.Offset()
	if offset >= len(matched) {
		return []Record{}, total, nil
	}
	end := len(matched)
	if page.Limit > 0 && offset+page.Limit < end {
		end = offset + page.Limit
	}
	return matched[offset:end], total, nil
}

// Stats aggregates matching records.
func (s *MemoryStore) Stats(_ context.Context, filter Filter) (*Stats, error) {
	matched := s.matching(&filter)

	stats := &Stats{
		BySeverity: make(map[string]int64),
		ByCategory: make(map[string]int64),
	}
	actors := make(map[string]struct{})
	actions := make(map[Action]struct{})
	var execTotal int64

	for i := range matched {
		rec := &matched[i]
		stats.TotalRecords++
		actors[rec.ActorID] = struct{}{}
		actions[rec.Action] = struct{}{}
		execTotal += rec.ExecutionTimeMs
		if rec.ErrorDetails != "" {
			stats.ErrorCount++
		}
		stats.BySeverity[string(rec.Severity)]++
		stats.ByCategory[string(rec.Category)]++
	}

	stats.DistinctActors = int64(len(actors))
	stats.DistinctActions = int64(len(actions))
	if stats.TotalRecords > 0 {
		stats.AvgExecutionTimeMs = float64(execTotal) / float64(stats.TotalRecords)
	}
	return stats, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) matching(filter *Filter) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for i := range s.records {
		if filter.Matches(&s.records[i]) {
			out = append(out, s.records[i])
		}
	}
	return out
}

func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
}

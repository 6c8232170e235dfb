// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package artifact

import (
	"context"
	"sync"
)

// MemoryStore keeps artifacts in process memory. Not persistent.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// NewMemoryStore creates an empty in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]*Object)}
}

// Put stores a copy of data under key, replacing any previous artifact.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (*Info, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	info := newInfo(key, data, contentType)
	obj := &Object{Info: *info, Data: append([]byte(nil), data...)}

	s.mu.Lock()
	s.objects[key] = obj
	s.mu.Unlock()

	return info, nil
}

// Get returns a copy of the artifact stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &Object{Info: obj.Info, Data: append([]byte(nil), obj.Data...)}, nil
}

// Delete removes the artifact under key. Missing keys are not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored artifacts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

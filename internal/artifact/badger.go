// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	dataKeyPrefix = "artifact:"
	metaKeyPrefix = "artifact_meta:"
)

// BadgerStore persists artifacts in BadgerDB. Metadata and bytes live under
// separate keys and are written in one transaction.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open BadgerDB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Put stores data under key, replacing any previous artifact.
func (s *BadgerStore) Put(ctx context.Context, key string, data []byte, contentType string) (*Info, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := newInfo(key, data, contentType)
	meta, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshal artifact info: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataKeyPrefix+key), data); err != nil {
			return fmt.Errorf("set artifact data: %w", err)
		}
		if err := txn.Set([]byte(metaKeyPrefix+key), meta); err != nil {
			return fmt.Errorf("set artifact meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Get returns the artifact stored under key.
func (s *BadgerStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var obj Object
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get artifact meta: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &obj.Info)
		}); err != nil {
			return fmt.Errorf("decode artifact meta: %w", err)
		}

		item, err = txn.Get([]byte(dataKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get artifact data: %w", err)
		}
		obj.Data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// Delete removes the artifact under key. Missing keys are not an error.
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range []string{dataKeyPrefix + key, metaKeyPrefix + key} {
			if err := txn.Delete([]byte(k)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}

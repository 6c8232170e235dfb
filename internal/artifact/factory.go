// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package artifact

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/logging"
)

// Backend names accepted in ArtifactConfig.Backend.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Factory owns the storage handle behind an artifact Store.
type Factory struct {
	db *badger.DB
}

// NewFactory opens the configured backend. The badger backend opens a
// database at cfg.Path; memory opens nothing.
func NewFactory(cfg config.ArtifactConfig) (*Factory, error) {
	f := &Factory{}

	switch cfg.Backend {
	case BackendBadger:
		opts := badger.DefaultOptions(cfg.Path)
		opts.Logger = nil

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for artifacts: %w", err)
		}
		f.db = db
		logging.Info().Str("path", cfg.Path).Msg("Artifact store opened (badger)")
	case BackendMemory, "":
		logging.Warn().Msg("Artifact store is in-memory; rendered reports are lost on restart")
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
	return f, nil
}

// CreateStore returns a Store over the factory's backend.
func (f *Factory) CreateStore() Store {
	if f.db != nil {
		return NewBadgerStore(f.db)
	}
	return NewMemoryStore()
}

// Close closes the underlying BadgerDB if one was opened.
func (f *Factory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}

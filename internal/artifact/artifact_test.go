// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package artifact

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/orderdesk/internal/config"
)

func newInMemoryBadger(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestChecksum(t *testing.T) {
	t.Parallel()

	a := Checksum([]byte("report"))
	if !strings.HasPrefix(a, "blake2b-256:") || len(a) != len("blake2b-256:")+64 {
		t.Errorf("Checksum() = %q", a)
	}
	if a != Checksum([]byte("report")) {
		t.Error("Checksum() not deterministic")
	}
	if a == Checksum([]byte("report2")) {
		t.Error("different inputs share a checksum")
	}
}

func TestStores(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"badger": func(t *testing.T) Store { return NewBadgerStore(newInMemoryBadger(t)) },
	}

	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := mk(t)
			ctx := context.Background()

			data := []byte("id,total\n1,10.00\n")
			info, err := s.Put(ctx, "reports/r1.csv", data, "text/csv")
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if info.Size != int64(len(data)) || info.Checksum != Checksum(data) || info.ContentType != "text/csv" {
				t.Errorf("Put() info = %+v", info)
			}

			obj, err := s.Get(ctx, "reports/r1.csv")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(obj.Data) != string(data) || !Verify(obj) {
				t.Errorf("Get() = %q, verify=%v", obj.Data, Verify(obj))
			}

			// returned bytes are a copy
			obj.Data[0] = 'X'
			again, _ := s.Get(ctx, "reports/r1.csv")
			if again.Data[0] != 'i' {
				t.Error("Get() returned shared bytes")
			}

			if _, err := s.Put(ctx, "", data, "text/csv"); !errors.Is(err, ErrEmptyKey) {
				t.Errorf("Put(empty key) error = %v", err)
			}
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}

			if err := s.Delete(ctx, "reports/r1.csv"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := s.Get(ctx, "reports/r1.csv"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after delete error = %v", err)
			}
			if err := s.Delete(ctx, "reports/r1.csv"); err != nil {
				t.Errorf("second Delete() error = %v", err)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	t.Parallel()

	mem, err := NewFactory(config.ArtifactConfig{Backend: BackendMemory})
	if err != nil {
		t.Fatalf("NewFactory(memory) error = %v", err)
	}
	if _, ok := mem.CreateStore().(*MemoryStore); !ok {
		t.Error("memory factory should create a MemoryStore")
	}
	if err := mem.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	bf, err := NewFactory(config.ArtifactConfig{Backend: BackendBadger, Path: filepath.Join(t.TempDir(), "artifacts")})
	if err != nil {
		t.Fatalf("NewFactory(badger) error = %v", err)
	}
	if _, ok := bf.CreateStore().(*BadgerStore); !ok {
		t.Error("badger factory should create a BadgerStore")
	}
	if err := bf.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, err := NewFactory(config.ArtifactConfig{Backend: "s3"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package artifact

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned when no artifact exists under a key.
var ErrNotFound = errors.New("artifact not found")

// ErrEmptyKey is returned for an empty artifact key.
var ErrEmptyKey = errors.New("artifact key is empty")

// checksumPrefix names the digest algorithm in stored checksums.
const checksumPrefix = "blake2b-256:"

// Info describes a stored artifact.
type Info struct {
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Object is an artifact with its bytes.
type Object struct {
	Info
	Data []byte
}

// Store persists rendered report files.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*Info, error)
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// Checksum returns the BLAKE2b-256 digest of data as "blake2b-256:<hex>".
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return checksumPrefix + hex.EncodeToString(sum[:])
}

// Verify reports whether obj's bytes still match its recorded checksum.
func Verify(obj *Object) bool {
	return obj != nil && Checksum(obj.Data) == obj.Checksum
}

func newInfo(key string, data []byte, contentType string) *Info {
	return &Info{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Checksum:    Checksum(data),
		CreatedAt:   time.Now().UTC(),
	}
}

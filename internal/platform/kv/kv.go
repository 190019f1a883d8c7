// Package kv defines the durable record store the storefront persists to.
//
// Records are opaque JSON documents addressed by (collection, key). Every Put
// is a single atomic upsert, so a crash never leaves a half-written record.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Store persists records by collection and key.
type Store interface {
	// Get returns the record stored at key, or ErrNotFound.
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Put inserts or replaces the record stored at key.
	Put(ctx context.Context, collection, key string, value []byte) error

	// Delete removes the record stored at key, or returns ErrNotFound.
	Delete(ctx context.Context, collection, key string) error

	// DeleteAll removes every record of a collection and reports how many were removed.
	DeleteAll(ctx context.Context, collection string) (int, error)

	// List returns every record of a collection in unspecified order.
	List(ctx context.Context, collection string) ([][]byte, error)

	Close() error
}

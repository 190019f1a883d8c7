// Package memory provides a process-local kv.Store used by tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/matheusmosca/blueprint-storefront/internal/platform/kv"
)

// Store keeps records in maps guarded by a RWMutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]map[string][]byte)}
}

func (s *Store) withWrite(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) withRead(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

// Get returns a copy of the stored record.
func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var out []byte
	err := s.withRead(ctx, func() error {
		value, ok := s.collections[collection][key]
		if !ok {
			return kv.ErrNotFound
		}
		out = append([]byte(nil), value...)
		return nil
	})
	return out, err
}

// Put stores a copy of value.
func (s *Store) Put(ctx context.Context, collection, key string, value []byte) error {
	return s.withWrite(ctx, func() error {
		records, ok := s.collections[collection]
		if !ok {
			records = make(map[string][]byte)
			s.collections[collection] = records
		}
		records[key] = append([]byte(nil), value...)
		return nil
	})
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	return s.withWrite(ctx, func() error {
		if _, ok := s.collections[collection][key]; !ok {
			return kv.ErrNotFound
		}
		delete(s.collections[collection], key)
		return nil
	})
}

// DeleteAll drops a whole collection.
func (s *Store) DeleteAll(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.withWrite(ctx, func() error {
		n = len(s.collections[collection])
		delete(s.collections, collection)
		return nil
	})
	return n, err
}

// List returns copies of every record in a collection.
func (s *Store) List(ctx context.Context, collection string) ([][]byte, error) {
	var out [][]byte
	err := s.withRead(ctx, func() error {
		for _, value := range s.collections[collection] {
			out = append(out, append([]byte(nil), value...))
		}
		return nil
	})
	return out, err
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

var _ kv.Store = (*Store)(nil)

// Package memstore provides an in-memory store implementation.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/genepile/prerank/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

// Store holds uncompressed libraries in memory.
type Store struct {
	mu        sync.RWMutex
	libraries map[string][]byte
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		libraries: make(map[string][]byte),
	}
}

// SetLibrary sets the GMT content of a library.
// The data is copied to prevent caller mutations from affecting the store.
func (s *Store) SetLibrary(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.libraries[name] = slices.Clone(data)
}

// ReadLibrary reads a library from memory.
func (s *Store) ReadLibrary(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.libraries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	return data, nil
}

// ListLibraries returns the stored library names in lexical order.
func (s *Store) ListLibraries(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.libraries)), nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

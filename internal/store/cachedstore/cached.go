package cachedstore

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/genepile/prerank/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

// Store wraps another Store with caching. Concurrent misses on the same
// library share one underlying read.
type Store struct {
	underlying store.Store
	backend    Backend
	group      singleflight.Group
}

// New creates a new cached store wrapping the given store.
func New(underlying store.Store, backend Backend) *Store {
	return &Store{
		underlying: underlying,
		backend:    backend,
	}
}

// ReadLibrary reads a library, checking the cache first.
func (s *Store) ReadLibrary(ctx context.Context, name string) ([]byte, error) {
	if data, ok := s.backend.Get(name); ok {
		return data, nil
	}

	// The shared read outlives any one caller; each caller still stops
	// waiting when its own context is done.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(name, func() (any, error) {
		data, err := s.underlying.ReadLibrary(shared, name)
		if err != nil {
			return nil, err
		}
		s.backend.Set(name, data)
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil
	}
}

// ListLibraries delegates to the underlying store. It returns
// store.ErrNotListable when the underlying store cannot list.
func (s *Store) ListLibraries(ctx context.Context) ([]string, error) {
	l, ok := s.underlying.(store.Lister)
	if !ok {
		return nil, fmt.Errorf("%w: %T", store.ErrNotListable, s.underlying)
	}
	return l.ListLibraries(ctx)
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}

// Package gcsstore implements a Google Cloud Storage backend.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/genepile/prerank/internal/codec"
	"github.com/genepile/prerank/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

// Store reads libraries from gs://<bucket>/<prefix>libraries/.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	codec  codec.Codec
}

// New creates a new GCS store.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Store{
		client: client,
		bucket: client.Bucket(bucketName),
		codec:  c,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = normalizePrefix(prefix)
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// ReadLibrary reads and decompresses the named library.
func (s *Store) ReadLibrary(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}

	reader, err := s.bucket.Object(s.libraryKey(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	defer reader.Close()

	data, err := codec.Decode(s.codec, reader)
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", name, err)
	}
	return data, nil
}

// ListLibraries lists the library objects under the prefix.
func (s *Store) ListLibraries(ctx context.Context) ([]string, error) {
	dir := s.prefix + store.LibrariesDir + "/"
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: dir, Delimiter: "/"})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing libraries: %w", err)
		}
		if attrs.Name == "" {
			// Synthetic directory entry.
			continue
		}
		if name, ok := store.LibraryName(path.Base(attrs.Name), s.codec.Extension()); ok {
			names = append(names, name)
		}
	}
	// GCS lists in lexical key order, which matches name order.
	return names, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// libraryKey returns the full object key for a library.
func (s *Store) libraryKey(name string) string {
	return s.prefix + store.LibrariesDir + "/" + store.LibraryFile(name, s.codec.Extension())
}

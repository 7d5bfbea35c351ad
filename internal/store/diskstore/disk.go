// Package diskstore implements a disk-based filesystem storage backend.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/genepile/prerank/internal/codec"
	"github.com/genepile/prerank/internal/store"
)

// Compile-time checks that Store implements the store interfaces.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

// Store reads libraries from <root>/libraries/<name>.gmt[.ext].
type Store struct {
	root  string
	codec codec.Codec
}

// New creates a new disk store rooted at the given directory.
// The directory must exist. The codec handles decompression.
func New(root string, c codec.Codec) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Store{
		root:  root,
		codec: c,
	}, nil
}

// ReadLibrary reads and decompresses the named library.
func (s *Store) ReadLibrary(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(s.libraryPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
		}
		return nil, fmt.Errorf("opening library: %w", err)
	}
	defer f.Close()

	data, err := codec.Decode(s.codec, f)
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", name, err)
	}
	return data, nil
}

// ListLibraries returns the names of every library file stored with this
// store's codec.
func (s *Store) ListLibraries(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, store.LibrariesDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing libraries: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := store.LibraryName(e.Name(), s.codec.Extension()); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

// libraryPath returns the filesystem path for a library.
func (s *Store) libraryPath(name string) string {
	return filepath.Join(s.root, store.LibrariesDir, store.LibraryFile(name, s.codec.Extension()))
}

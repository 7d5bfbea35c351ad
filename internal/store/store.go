// Package store defines the storage backend interface for reading gene set
// libraries.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a library does not exist in the store.
	ErrNotFound = errors.New("store: library not found")

	// ErrInvalidName is returned for library names that cannot be mapped to
	// a single object key.
	ErrInvalidName = errors.New("store: invalid library name")

	// ErrNotListable is returned when a store cannot enumerate its
	// libraries.
	ErrNotListable = errors.New("store: listing not supported")
)

// Store defines the interface for storage backends.
// Implementations handle path formats and storage details internally.
type Store interface {
	// ReadLibrary reads the GMT content of the named library, already
	// decompressed.
	ReadLibrary(ctx context.Context, name string) ([]byte, error)

	// Close releases any resources held by the store.
	Close() error
}

// Lister is implemented by stores that can enumerate their libraries.
type Lister interface {
	// ListLibraries returns the library names in lexical order.
	ListLibraries(ctx context.Context) ([]string, error)
}

// LibrariesDir is the directory (or key prefix) holding library objects.
const LibrariesDir = "libraries"

// libraryExt is the uncompressed library file extension.
const libraryExt = ".gmt"

// ValidateName rejects names that are empty or would escape the libraries
// directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LibraryFile returns the file name of a library, e.g. "hallmark.gmt.zst".
// codecExt is the codec extension without dot, or empty for none.
func LibraryFile(name, codecExt string) string {
	file := name + libraryExt
	if codecExt != "" {
		file += "." + codecExt
	}
	return file
}

// LibraryName is the inverse of LibraryFile. It reports false for files that
// are not libraries stored with codecExt.
func LibraryName(file, codecExt string) (string, bool) {
	suffix := libraryExt
	if codecExt != "" {
		suffix += "." + codecExt
	}
	name, ok := strings.CutSuffix(file, suffix)
	if !ok || ValidateName(name) != nil {
		return "", false
	}
	return name, true
}

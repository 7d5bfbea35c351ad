package memstore

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/genepile/prerank/internal/store"
)

func TestStore_SetRead(t *testing.T) {
	s := New()
	data := []byte("SET\tna\tA\tB\n")
	s.SetLibrary("hallmark", data)
	data[0] = 'X'

	got, err := s.ReadLibrary(context.Background(), "hallmark")
	if err != nil {
		t.Fatalf("ReadLibrary() error = %v", err)
	}
	if string(got) != "SET\tna\tA\tB\n" {
		t.Errorf("ReadLibrary() = %q, caller mutation leaked", got)
	}
}

func TestStore_NotFound(t *testing.T) {
	_, err := New().ReadLibrary(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReadLibrary() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListLibraries(t *testing.T) {
	s := New()
	s.SetLibrary("kegg", nil)
	s.SetLibrary("biocarta", nil)
	got, err := s.ListLibraries(context.Background())
	if err != nil {
		t.Fatalf("ListLibraries() error = %v", err)
	}
	if want := []string{"biocarta", "kegg"}; !slices.Equal(got, want) {
		t.Errorf("ListLibraries() = %v, want %v", got, want)
	}
}

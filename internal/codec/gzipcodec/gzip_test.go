package gzipcodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/genepile/prerank/internal/codec"
)

func TestCodec_Extension(t *testing.T) {
	if got := New().Extension(); got != "gz" {
		t.Errorf("Extension() = %q, want %q", got, "gz")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		c    *Codec
		data []byte
	}{
		{"library", New(), []byte("KEGG_APOPTOSIS\thttp://x\tTP53\tBAX\tCASP3\n")},
		{"empty", New(), []byte{}},
		{"best speed", NewLevel(1), []byte(strings.Repeat("GENE\t", 2000))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := codec.Encode(tt.c, tt.data)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := codec.Decode(tt.c, bytes.NewReader(compressed))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("round-trip = %q, want %q", got, tt.data)
			}
		})
	}
}

func TestCodec_CompressesRepetitiveData(t *testing.T) {
	original := bytes.Repeat([]byte("ABCDEFGHIJ"), 10000)
	compressed, err := codec.Encode(New(), original)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(compressed) >= len(original) {
		t.Errorf("expected compression, got %d bytes from %d bytes", len(compressed), len(original))
	}
}

func TestCodec_Reader_InvalidData(t *testing.T) {
	_, err := New().Reader(bytes.NewReader([]byte("not gzip data")))
	if err == nil {
		t.Error("Reader() expected error for invalid gzip data, got nil")
	}
}

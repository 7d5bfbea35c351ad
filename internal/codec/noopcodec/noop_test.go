package noopcodec

import (
	"bytes"
	"testing"

	"github.com/genepile/prerank/internal/codec"
)

func TestCodec_PassThrough(t *testing.T) {
	data := []byte("SET\tdesc\tA\tB\n")
	enc, err := codec.Encode(New(), data)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(enc, data) {
		t.Errorf("Encode() = %q, want unchanged %q", enc, data)
	}
	got, err := codec.Decode(New(), bytes.NewReader(enc))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Decode() = %q, want %q", got, data)
	}
}

func TestCodec_Extension(t *testing.T) {
	if got := New().Extension(); got != "" {
		t.Errorf("Extension() = %q, want empty", got)
	}
}

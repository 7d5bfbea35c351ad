// Package codecs resolves codecs by configuration name or file extension.
package codecs

import (
	"fmt"
	"strings"

	"github.com/genepile/prerank/internal/codec"
	"github.com/genepile/prerank/internal/codec/gzipcodec"
	"github.com/genepile/prerank/internal/codec/noopcodec"
	"github.com/genepile/prerank/internal/codec/zstdcodec"
)

// ByName returns the codec for a configuration name: "zstd", "gzip" or
// "none". The empty name selects zstd.
func ByName(name string) (codec.Codec, error) {
	switch strings.ToLower(name) {
	case "", "zstd", "zst":
		return zstdcodec.New(), nil
	case "gzip", "gz":
		return gzipcodec.New(), nil
	case "none", "noop":
		return noopcodec.New(), nil
	default:
		return nil, fmt.Errorf("unknown compression %q (want zstd, gzip or none)", name)
	}
}

// ForPath picks the codec that decodes a file from its name, so that
// "hallmark.gmt.gz" is read as gzip and "hallmark.gmt" as plain text.
func ForPath(path string) codec.Codec {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return zstdcodec.New()
	case strings.HasSuffix(path, ".gz"):
		return gzipcodec.New()
	default:
		return noopcodec.New()
	}
}

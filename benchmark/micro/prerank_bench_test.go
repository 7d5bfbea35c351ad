package micro

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/catalog"
	"github.com/genepile/prerank/internal/codec/zstdcodec"
	"github.com/genepile/prerank/internal/gmt"
	"github.com/genepile/prerank/internal/store/cachedstore"
	"github.com/genepile/prerank/internal/store/cachedstore/cachestrategy/lru"
	"github.com/genepile/prerank/internal/store/cachedstore/memory"
	"github.com/genepile/prerank/internal/store/diskstore"
)

const benchLibrary = "synthetic"

// study generates a sorted ranking of n genes and a library of sets
// drawn from it.
func study(n, sets int) (prerank.Ranking, *gmt.Library) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := prerank.Ranking{Genes: make([]string, n), Metric: make([]float64, n)}
	for i := range n {
		r.Genes[i] = fmt.Sprintf("GENE%05d", i)
		r.Metric[i] = rng.NormFloat64()
	}
	r = r.SortedByMetric()

	lib := &gmt.Library{}
	for s := range sets {
		size := 15 + rng.IntN(100)
		genes := make([]string, 0, size)
		for _, idx := range rng.Perm(n)[:size] {
			genes = append(genes, r.Genes[idx])
		}
		lib.Sets = append(lib.Sets, gmt.Set{Name: fmt.Sprintf("SET_%04d", s), Description: "na", Genes: genes})
	}
	return r, lib
}

// buildCatalog writes lib as a zstd catalog under a temp dir. DATA_DIR
// points at an existing catalog instead.
func buildCatalog(b *testing.B, lib *gmt.Library) string {
	b.Helper()
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}

	src := filepath.Join(b.TempDir(), benchLibrary+".gmt")
	var buf bytes.Buffer
	if err := gmt.Write(&buf, lib); err != nil {
		b.Fatalf("writing library: %v", err)
	}
	if err := os.WriteFile(src, buf.Bytes(), 0644); err != nil {
		b.Fatalf("writing library: %v", err)
	}

	out := b.TempDir()
	builder := catalog.NewBuilder(catalog.WithOutputDir(out), catalog.WithCodec(zstdcodec.New()))
	if _, err := builder.Build(context.Background(), []catalog.Source{{Name: benchLibrary, Location: src}}); err != nil {
		b.Fatalf("building catalog: %v", err)
	}
	return out
}

// BenchmarkPrerank measures a full run across worker counts and
// permutation counts.
func BenchmarkPrerank(b *testing.B) {
	r, lib := study(5000, 200)
	sets := prerank.GeneSets(lib.Map())

	for _, nperm := range []int{0, 100, 1000} {
		for _, workers := range []int{1, 4, 16} {
			b.Run(fmt.Sprintf("perm=%d/workers=%d", nperm, workers), func(b *testing.B) {
				client, err := prerank.New(
					prerank.WithPermutations(nperm),
					prerank.WithWorkers(workers),
				)
				if err != nil {
					b.Fatalf("creating client: %v", err)
				}
				defer client.Close()

				ctx := context.Background()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := client.Prerank(ctx, r, sets); err != nil {
						b.Fatalf("prerank error: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkLoadLibrary_ColdCache measures library loads with no cache.
func BenchmarkLoadLibrary_ColdCache(b *testing.B) {
	_, lib := study(5000, 200)
	dir := buildCatalog(b, lib)

	st, err := diskstore.New(dir, zstdcodec.New())
	if err != nil {
		b.Fatalf("creating store: %v", err)
	}

	client, err := prerank.New(
		prerank.WithStore(st),
		// No cache - decode from disk every time.
	)
	if err != nil {
		b.Fatalf("creating client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := client.LoadLibrary(ctx, benchLibrary); err != nil {
			b.Fatalf("load error: %v", err)
		}
	}
}

// BenchmarkLoadLibrary_WarmCache measures library loads through a warm
// LRU cache.
func BenchmarkLoadLibrary_WarmCache(b *testing.B) {
	_, lib := study(5000, 200)
	dir := buildCatalog(b, lib)

	baseStore, err := diskstore.New(dir, zstdcodec.New())
	if err != nil {
		b.Fatalf("creating store: %v", err)
	}

	lruStrategy, err := lru.New(16)
	if err != nil {
		b.Fatalf("creating LRU strategy: %v", err)
	}
	st := cachedstore.New(baseStore, memory.New(lruStrategy, nil))

	client, err := prerank.New(
		prerank.WithStore(st),
	)
	if err != nil {
		b.Fatalf("creating client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	// Warm up the cache.
	_, _ = client.LoadLibrary(ctx, benchLibrary)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := client.LoadLibrary(ctx, benchLibrary); err != nil {
			b.Fatalf("load error: %v", err)
		}
	}
}

// BenchmarkZstdDecompress measures zstd decompression speed on a built
// library file.
func BenchmarkZstdDecompress(b *testing.B) {
	_, lib := study(5000, 200)
	dir := buildCatalog(b, lib)

	data, err := os.ReadFile(filepath.Join(dir, "libraries", benchLibrary+".gmt.zst"))
	if err != nil {
		b.Skipf("could not read library: %v", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		b.Fatalf("creating decoder: %v", err)
	}
	defer decoder.Close()

	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := decoder.DecodeAll(data, nil); err != nil {
			b.Fatalf("decode error: %v", err)
		}
	}
}

// BenchmarkParseGMT measures parsing a decompressed library.
func BenchmarkParseGMT(b *testing.B) {
	_, lib := study(5000, 200)
	var buf bytes.Buffer
	if err := gmt.Write(&buf, lib); err != nil {
		b.Fatalf("writing library: %v", err)
	}
	data := buf.Bytes()

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := gmt.Parse(bytes.NewReader(data)); err != nil {
			b.Fatalf("parse error: %v", err)
		}
	}
}

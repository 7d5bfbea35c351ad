package prerank

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/genepile/prerank/internal/catalog"
	"github.com/genepile/prerank/internal/codec/codecs"
	"github.com/genepile/prerank/internal/stats"
	"github.com/genepile/prerank/internal/store"
	"github.com/genepile/prerank/internal/store/diskstore"
)

// Default run parameters.
const (
	DefaultWeight       = 1.0
	DefaultMinSize      = 15
	DefaultMaxSize      = 500
	DefaultPermutations = 1000
	DefaultSeed         = 123

	// DefaultCacheSize is the number of decoded libraries kept in memory
	// by a catalog-backed client.
	DefaultCacheSize = 16
)

// Option configures a Client.
type Option interface {
	apply(*options)
}

// options holds the client configuration.
type options struct {
	params    Params
	workers   int
	strict    bool
	store     store.Store
	catalog   bool
	cacheSize int // -1 until set
	stats     stats.Collector
	logger    *zap.Logger
}

// effectiveCacheSize resolves the cache size after all options applied.
func (o *options) effectiveCacheSize() int {
	if o.cacheSize >= 0 {
		return o.cacheSize
	}
	if o.catalog {
		return DefaultCacheSize
	}
	return 0
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		params: Params{
			Weight:       DefaultWeight,
			MinSize:      DefaultMinSize,
			MaxSize:      DefaultMaxSize,
			Permutations: DefaultPermutations,
			Seed:         DefaultSeed,
		},
		workers:   runtime.GOMAXPROCS(0),
		cacheSize: -1,
		stats:     stats.NewNoop(),
		logger:    zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithWeight sets the exponent applied to metric magnitudes.
// Default is 1. Zero gives the unweighted statistic.
func WithWeight(w float64) Option {
	return optionFunc(func(o *options) {
		o.params.Weight = w
	})
}

// WithMinSize sets the smallest overlap between a gene set and the ranking
// that is scored. Default is 15.
func WithMinSize(n int) Option {
	return optionFunc(func(o *options) {
		o.params.MinSize = n
	})
}

// WithMaxSize sets the largest overlap that is scored. Default is 500.
func WithMaxSize(n int) Option {
	return optionFunc(func(o *options) {
		o.params.MaxSize = n
	})
}

// WithPermutations sets the number of permutations. Default is 1000.
// Zero skips significance estimation.
func WithPermutations(n int) Option {
	return optionFunc(func(o *options) {
		o.params.Permutations = n
	})
}

// WithSeed sets the permutation seed. Default is 123.
func WithSeed(seed uint64) Option {
	return optionFunc(func(o *options) {
		o.params.Seed = seed
	})
}

// WithParams sets every run parameter at once.
func WithParams(p Params) Option {
	return optionFunc(func(o *options) {
		o.params = p
	})
}

// WithWorkers sets how many gene sets are scored concurrently.
// Default is GOMAXPROCS. Results do not depend on it.
func WithWorkers(n int) Option {
	return optionFunc(func(o *options) {
		o.workers = n
	})
}

// WithStrict makes a degenerate gene set fail the whole run instead of
// being skipped.
func WithStrict(strict bool) Option {
	return optionFunc(func(o *options) {
		o.strict = strict
	})
}

// WithStore sets the storage backend gene set libraries are read from.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithCacheSize keeps up to n decoded libraries in an LRU cache in front of
// the store. n <= 0 disables the cache. Catalog-backed clients default to
// DefaultCacheSize, other stores to no cache.
func WithCacheSize(n int) Option {
	return optionFunc(func(o *options) {
		o.cacheSize = max(n, 0)
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithCatalogDir configures the client from a catalog directory built by
// "prerank build". It reads manifest.json to pick the codec and opens a
// disk store behind an LRU cache.
func WithCatalogDir(dir string) (Option, error) {
	manifest, err := catalog.ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	c, err := codecs.ByName(manifest.Compression)
	if err != nil {
		return nil, fmt.Errorf("manifest compression: %w", err)
	}

	st, err := diskstore.New(dir, c)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	return optionFunc(func(o *options) {
		o.store = st
		o.catalog = true
	}), nil
}

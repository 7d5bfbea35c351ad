// Package prerank runs preranked gene set enrichment analysis: for a ranked
// gene list and a collection of gene sets it computes each set's enrichment
// score, a permutation null distribution, and pooled normalized scores,
// nominal p-values, family-wise error rates and false discovery rates.
//
// Example usage:
//
//	client, err := prerank.New(
//	    prerank.WithPermutations(1000),
//	    prerank.WithSeed(42),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Prerank(ctx, ranking, prerank.GeneSets{
//	    "APOPTOSIS": {"CASP3", "BAX", "BCL2"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range res.Summaries {
//	    fmt.Printf("%s nes=%.3f fdr=%.3g\n", s.Term, s.NES, s.FDR)
//	}
//
// All gene sets in a run are scored against the same permutations, so their
// null distributions are correlated. The pooled FWER and FDR estimates are
// computed over that shared pool as it is.
package prerank

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/genepile/prerank/internal/enrichment"
	"github.com/genepile/prerank/internal/gmt"
	"github.com/genepile/prerank/internal/significance"
	"github.com/genepile/prerank/internal/stats"
	"github.com/genepile/prerank/internal/store"
	"github.com/genepile/prerank/internal/store/cachedstore"
	"github.com/genepile/prerank/internal/store/cachedstore/cachestrategy/lru"
	"github.com/genepile/prerank/internal/store/cachedstore/memory"
	"github.com/genepile/prerank/internal/universe"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrEmptyRanking indicates a ranking without genes.
	ErrEmptyRanking = errors.New("prerank: empty ranking")

	// ErrLengthMismatch indicates genes and metric of different lengths.
	ErrLengthMismatch = errors.New("prerank: genes and metric differ in length")

	// ErrDuplicateGene indicates a gene ranked twice.
	ErrDuplicateGene = errors.New("prerank: duplicate gene in ranking")

	// ErrNonFiniteMetric indicates a NaN or infinite metric value.
	ErrNonFiniteMetric = errors.New("prerank: non-finite metric value")

	// ErrNegativeWeight indicates a negative or non-finite weight.
	ErrNegativeWeight = errors.New("prerank: weight must be finite and non-negative")

	// ErrInvalidSizeBounds indicates min size below 1 or above max size.
	ErrInvalidSizeBounds = errors.New("prerank: invalid gene set size bounds")

	// ErrNegativePermutations indicates a negative permutation count.
	ErrNegativePermutations = errors.New("prerank: negative permutation count")

	// ErrDegenerateGeneSet indicates, in strict mode, a gene set that cannot
	// be scored.
	ErrDegenerateGeneSet = errors.New("prerank: degenerate gene set")

	// ErrNoStore indicates a library operation on a client without a store.
	ErrNoStore = errors.New("prerank: no store provided")

	// ErrLibraryNotFound indicates the store has no such library.
	ErrLibraryNotFound = errors.New("prerank: library not found")

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("prerank: client closed")
)

// Validate reports the first invalid parameter.
func (p Params) Validate() error {
	if math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) || p.Weight < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeWeight, p.Weight)
	}
	if p.MinSize < 1 || p.MaxSize < p.MinSize {
		return fmt.Errorf("%w: min %d, max %d", ErrInvalidSizeBounds, p.MinSize, p.MaxSize)
	}
	if p.Permutations < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePermutations, p.Permutations)
	}
	return nil
}

// Client runs enrichment analyses with fixed parameters.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	params  Params
	workers int
	strict  bool
	store   store.Store
	stats   stats.Collector
	logger  *zap.Logger
	closed  atomic.Bool
}

// New creates a new Client with the given options.
// If no options are provided, sensible defaults are used.
func New(opts ...Option) (*Client, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if err := cfg.params.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		params:  cfg.params,
		workers: max(cfg.workers, 1),
		strict:  cfg.strict,
		store:   cfg.store,
		stats:   cfg.stats,
		logger:  cfg.logger,
	}

	if size := cfg.effectiveCacheSize(); c.store != nil && size > 0 {
		strategy, err := lru.New(size)
		if err != nil {
			return nil, fmt.Errorf("creating cache: %w", err)
		}
		c.store = cachedstore.New(c.store, memory.New(strategy, c.stats))
	}

	c.logger.Debug("client initialized",
		zap.Float64("weight", c.params.Weight),
		zap.Int("minSize", c.params.MinSize),
		zap.Int("maxSize", c.params.MaxSize),
		zap.Int("permutations", c.params.Permutations),
		zap.Uint64("seed", c.params.Seed),
		zap.Int("workers", c.workers),
		zap.Bool("store", c.store != nil),
	)

	return c, nil
}

// Prerank computes enrichment for every gene set against ranking.
//
// Gene sets whose overlap with the ranking falls outside the size bounds are
// listed in Result.Filtered. Sets that cannot be scored (every ranked gene a
// member, or no weight on the members under some arrangement) are listed in
// Result.Skipped, or fail the run with ErrDegenerateGeneSet in strict mode.
// Summaries are ordered by term and identical for any worker count.
func (c *Client) Prerank(ctx context.Context, ranking Ranking, sets GeneSets) (*Result, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := ranking.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	p := c.params
	c.stats.IncCounter(stats.MetricRuns, 1)

	u, err := universe.New(ranking.Genes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateGene, err)
	}

	weighted := make([]float64, len(ranking.Metric))
	for i, m := range ranking.Metric {
		weighted[i] = math.Pow(math.Abs(m), p.Weight)
		if math.IsInf(weighted[i], 0) {
			return nil, fmt.Errorf("%w: |%v|^%v overflows for %q", ErrNonFiniteMetric, m, p.Weight, ranking.Genes[i])
		}
	}
	engine := enrichment.NewEngine(weighted, enrichment.Permutations(u.Size(), p.Permutations, p.Seed))

	res := &Result{Params: p}
	type candidate struct {
		term string
		hits []int
	}
	var candidates []candidate
	for _, term := range sets.Terms() {
		hits := u.Positions(sets[term])
		if len(hits) < p.MinSize || len(hits) > p.MaxSize {
			res.Filtered = append(res.Filtered, term)
			continue
		}
		candidates = append(candidates, candidate{term: term, hits: hits})
	}

	evals := make([]enrichment.Evaluation, len(candidates))
	failures := make([]error, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, cand := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := engine.Evaluate(cand.hits)
			if err != nil {
				if c.strict {
					return fmt.Errorf("%w: %s: %w", ErrDegenerateGeneSet, cand.term, err)
				}
				failures[i] = err
				return nil
			}
			evals[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	observed := make([]significance.Observed, 0, len(candidates))
	for i, cand := range candidates {
		if err := failures[i]; err != nil {
			res.Skipped = append(res.Skipped, Skipped{Term: cand.term, Size: len(cand.hits), Reason: err.Error()})
			c.logger.Debug("gene set skipped",
				zap.String("term", cand.term),
				zap.Int("size", len(cand.hits)),
				zap.Error(err),
			)
			continue
		}
		ev := evals[i]
		res.Summaries = append(res.Summaries, Summary{
			Term:   cand.term,
			ES:     ev.ES,
			RunES:  ev.RunES,
			Hits:   cand.hits,
			ESNull: ev.ESNull,
		})
		observed = append(observed, significance.Observed{ES: ev.ES, ESNull: ev.ESNull})
	}

	if p.Permutations > 0 && len(observed) > 0 {
		pooled, err := significance.Reduce(observed)
		if err != nil {
			return nil, fmt.Errorf("pooled reduction: %w", err)
		}
		for i, s := range pooled {
			res.Summaries[i].NES = s.NES
			res.Summaries[i].PValue = s.PValue
			res.Summaries[i].FWER = s.FWER
			res.Summaries[i].FDR = s.FDR
		}
	}

	elapsed := time.Since(start)
	c.stats.IncCounter(stats.MetricPermutations, int64(p.Permutations))
	c.stats.IncCounter(stats.MetricGeneSetsScored, int64(len(res.Summaries)))
	c.stats.IncCounter(stats.MetricGeneSetsFiltered, int64(len(res.Filtered)))
	c.stats.IncCounter(stats.MetricGeneSetsDegenerate, int64(len(res.Skipped)))
	c.stats.ObserveHistogram(stats.MetricRunSeconds, elapsed.Seconds())

	c.logger.Debug("prerank complete",
		zap.Int("genes", u.Size()),
		zap.Int("sets", len(sets)),
		zap.Int("scored", len(res.Summaries)),
		zap.Int("filtered", len(res.Filtered)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

// LoadLibrary reads and parses the named gene set library from the store.
func (c *Client) LoadLibrary(ctx context.Context, name string) (GeneSets, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if c.store == nil {
		return nil, ErrNoStore
	}

	data, err := c.store.ReadLibrary(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
		}
		return nil, fmt.Errorf("reading library %s: %w", name, err)
	}
	c.stats.IncCounter(stats.MetricLibraryLoads, 1)

	lib, err := gmt.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing library %s: %w", name, err)
	}
	return GeneSets(lib.Map()), nil
}

// PrerankLibrary loads the named library from the store and runs Prerank
// against it.
func (c *Client) PrerankLibrary(ctx context.Context, ranking Ranking, name string) (*Result, error) {
	sets, err := c.LoadLibrary(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.Prerank(ctx, ranking, sets)
}

// Libraries lists the libraries available in the store.
func (c *Client) Libraries(ctx context.Context) ([]string, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if c.store == nil {
		return nil, ErrNoStore
	}
	l, ok := c.store.(store.Lister)
	if !ok {
		return nil, fmt.Errorf("prerank: %w: %T", store.ErrNotListable, c.store)
	}
	return l.ListLibraries(ctx)
}

// Params returns the run parameters of this client.
func (c *Client) Params() Params {
	return c.params
}

// Store returns the storage backend used by this client, or nil.
func (c *Client) Store() store.Store {
	return c.store
}

// Close releases all resources associated with the client.
// After Close, the client should not be used.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			return fmt.Errorf("closing store: %w", err)
		}
	}
	return nil
}

// Prerank runs a single analysis with a temporary client. A store passed
// through the options is closed on return.
func Prerank(ranking Ranking, sets GeneSets, opts ...Option) (*Result, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Prerank(context.Background(), ranking, sets)
}

// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Run metrics.
	MetricRuns               = "prerank_runs_total"
	MetricGeneSetsScored     = "prerank_gene_sets_scored_total"
	MetricGeneSetsFiltered   = "prerank_gene_sets_filtered_total"
	MetricGeneSetsDegenerate = "prerank_gene_sets_degenerate_total"
	MetricPermutations       = "prerank_permutations_total"
	MetricRunSeconds         = "prerank_run_seconds"

	// Library metrics.
	MetricLibraryLoads = "prerank_library_loads_total"

	// Cache metrics.
	MetricCacheHits   = "prerank_cache_hits_total"
	MetricCacheMisses = "prerank_cache_misses_total"
	MetricCacheSize   = "prerank_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}

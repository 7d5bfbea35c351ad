// Package numeric provides the small numeric helpers shared by the
// enrichment and significance packages.
package numeric

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of xs, or NaN when xs is empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// Argsort sorts a copy of xs and returns the original index of every sorted
// element along with the sorted values. Ties keep their input order in
// either direction.
func Argsort(xs []float64, ascending bool) ([]int, []float64) {
	indices := make([]int, len(xs))
	for i := range indices {
		indices[i] = i
	}
	slices.SortStableFunc(indices, func(a, b int) int {
		if ascending {
			return cmp.Compare(xs[a], xs[b])
		}
		return cmp.Compare(xs[b], xs[a])
	})

	sorted := make([]float64, len(xs))
	for i, idx := range indices {
		sorted[i] = xs[idx]
	}
	return indices, sorted
}

// PartitionPoint returns the index of the first element of xs for which pred
// is false. xs must be partitioned: pred true for a prefix, false after.
func PartitionPoint(xs []float64, pred func(float64) bool) int {
	return sort.Search(len(xs), func(i int) bool {
		return !pred(xs[i])
	})
}

// NullSummary describes a null distribution of enrichment scores.
type NullSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P5     float64 `json:"p5"`
	P95    float64 `json:"p95"`
}

// Summarize computes a NullSummary. An empty input gives a zero summary.
func Summarize(xs []float64) (NullSummary, error) {
	if len(xs) == 0 {
		return NullSummary{}, nil
	}
	data := stats.Float64Data(xs)

	s := NullSummary{Count: len(xs)}
	var err error
	if s.Mean, err = data.Mean(); err != nil {
		return NullSummary{}, err
	}
	if s.StdDev, err = data.StandardDeviation(); err != nil {
		return NullSummary{}, err
	}
	if s.Min, err = data.Min(); err != nil {
		return NullSummary{}, err
	}
	if s.Max, err = data.Max(); err != nil {
		return NullSummary{}, err
	}
	if s.Median, err = data.Median(); err != nil {
		return NullSummary{}, err
	}

	// stats.Percentile rejects ranks below the first sample, so small nulls
	// go through gonum's empirical quantile instead.
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	s.P5 = stat.Quantile(0.05, stat.Empirical, sorted, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return s, nil
}

package prerank

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Ranking is a ranked gene list: Genes[i] carries Metric[i]. The order of
// the slices is the order of the walk, top first. Prerank never re-sorts;
// use SortedByMetric to rank by descending score.
type Ranking struct {
	Genes  []string
	Metric []float64
}

// Len returns the number of ranked genes.
func (r Ranking) Len() int { return len(r.Genes) }

// Validate reports the first input-shape problem with r.
func (r Ranking) Validate() error {
	if len(r.Genes) == 0 {
		return ErrEmptyRanking
	}
	if len(r.Genes) != len(r.Metric) {
		return fmt.Errorf("%w: %d genes, %d metric values", ErrLengthMismatch, len(r.Genes), len(r.Metric))
	}
	seen := make(map[string]int, len(r.Genes))
	for i, g := range r.Genes {
		if j, ok := seen[g]; ok {
			return fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateGene, g, j, i)
		}
		seen[g] = i
	}
	for i, m := range r.Metric {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: %v for %q", ErrNonFiniteMetric, m, r.Genes[i])
		}
	}
	return nil
}

// SortedByMetric returns a copy of r ordered by descending metric. Ties keep
// their input order.
func (r Ranking) SortedByMetric() Ranking {
	order := make([]int, len(r.Metric))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(r.Metric[b], r.Metric[a])
	})

	out := Ranking{
		Genes:  make([]string, len(order)),
		Metric: make([]float64, len(order)),
	}
	for i, idx := range order {
		out.Genes[i] = r.Genes[idx]
		out.Metric[i] = r.Metric[idx]
	}
	return out
}

// GeneSets maps a term to its member genes. Members need not appear in the
// ranking.
type GeneSets map[string][]string

// Terms returns the set names in lexical order.
func (s GeneSets) Terms() []string {
	return slices.Sorted(maps.Keys(s))
}

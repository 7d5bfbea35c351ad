// Package enrichment computes weighted running-sum enrichment scores and the
// shared permutation set used to build their null distributions.
package enrichment

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoHits indicates a walk with no member positions.
	ErrNoHits = errors.New("enrichment: gene set has no hits")

	// ErrNoMisses indicates a walk where every position is a member.
	ErrNoMisses = errors.New("enrichment: gene set covers the whole ranking")

	// ErrZeroHitWeight indicates the weighted metric over the hits sums to
	// zero (or is not finite), which leaves the walk undefined.
	ErrZeroHitWeight = errors.New("enrichment: hits carry zero weight")

	// ErrLengthMismatch indicates an indicator that does not match the metric.
	ErrLengthMismatch = errors.New("enrichment: indicator length does not match metric")
)

// RunningScore returns the cumulative walk over the whole ranking. At a hit
// the walk rises by metric[i]/H, at a miss it falls by 1/M, where H is the
// summed metric of the hits and M the number of misses.
func RunningScore(metric []float64, indicator []bool) ([]float64, error) {
	if len(indicator) != len(metric) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(indicator), len(metric))
	}

	var k int
	var h float64
	for i, hit := range indicator {
		if hit {
			k++
			h += metric[i]
		}
	}
	normHit, normMiss, err := norms(len(metric), k, h)
	if err != nil {
		return nil, err
	}

	path := make([]float64, len(metric))
	var acc float64
	for i, hit := range indicator {
		if hit {
			acc += metric[i] * normHit
		} else {
			acc -= normMiss
		}
		path[i] = acc
	}
	return path, nil
}

// Score is the streaming form of RunningScore. It returns the signed value of
// the walk with the largest magnitude.
func Score(metric []float64, indicator []bool) (float64, error) {
	if len(indicator) != len(metric) {
		return 0, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(indicator), len(metric))
	}
	hits := make([]int, 0, len(indicator))
	for i, hit := range indicator {
		if hit {
			hits = append(hits, i)
		}
	}
	return ScoreHits(metric, hits)
}

// ScoreHits scores a walk given its hit positions, which must be strictly
// increasing. Only the hits are visited: the misses between two hits are
// applied as one step.
func ScoreHits(metric []float64, hits []int) (float64, error) {
	var h float64
	for _, pos := range hits {
		h += metric[pos]
	}
	normHit, normMiss, err := norms(len(metric), len(hits), h)
	if err != nil {
		return 0, err
	}

	var res, cur float64
	last := -1
	for _, pos := range hits {
		cur -= normMiss * float64(pos-last-1)
		if math.Abs(cur) > math.Abs(res) {
			res = cur
		}
		cur += normHit * metric[pos]
		if math.Abs(cur) > math.Abs(res) {
			res = cur
		}
		last = pos
	}
	return res, nil
}

// ScoreAll scores every indicator and returns the running path of the first
// one, which is always the observed arrangement.
func ScoreAll(metric []float64, indicators [][]bool) ([]float64, []float64, error) {
	if len(indicators) == 0 {
		return nil, nil, nil
	}
	scores := make([]float64, len(indicators))
	for i, indicator := range indicators {
		es, err := Score(metric, indicator)
		if err != nil {
			return nil, nil, fmt.Errorf("indicator %d: %w", i, err)
		}
		scores[i] = es
	}
	path, err := RunningScore(metric, indicators[0])
	if err != nil {
		return nil, nil, err
	}
	return scores, path, nil
}

// norms returns 1/H and 1/M for a walk of length n with k hits of total
// weight h.
func norms(n, k int, h float64) (float64, float64, error) {
	switch {
	case k == 0:
		return 0, 0, ErrNoHits
	case k == n:
		return 0, 0, ErrNoMisses
	case h == 0 || math.IsNaN(h) || math.IsInf(h, 0):
		return 0, 0, ErrZeroHitWeight
	}
	return 1 / h, 1 / float64(n-k), nil
}

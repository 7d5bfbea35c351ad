package significance

import (
	"fmt"
	"slices"

	"github.com/genepile/prerank/internal/numeric"
)

// Observed is the phase-one result of one gene set.
type Observed struct {
	ES     float64
	ESNull []float64
}

// Stats is the phase-two result of one gene set.
type Stats struct {
	NES    float64
	PValue float64
	FWER   float64
	FDR    float64
}

// Reduce runs the pooled reduction over every retained gene set. All sets
// must carry the same number of null scores, scored against the same
// permutations; because the permutations are shared the pooled nulls are
// correlated across sets, and FWER and FDR are estimated over that pool as
// it is.
func Reduce(sets []Observed) ([]Stats, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	nperm := len(sets[0].ESNull)
	if nperm == 0 {
		return nil, fmt.Errorf("significance: no null scores")
	}

	out := make([]Stats, len(sets))
	nes := make([]float64, len(sets))
	nesnull := make([]float64, 0, len(sets)*nperm)
	for i, s := range sets {
		if len(s.ESNull) != nperm {
			return nil, fmt.Errorf("significance: set %d has %d null scores, want %d", i, len(s.ESNull), nperm)
		}
		out[i].PValue = PValue(s.ES, s.ESNull)
		n, nn := Normalize(s.ES, s.ESNull)
		out[i].NES = n
		nes[i] = n
		nesnull = append(nesnull, nn...)
	}

	fwer := FWER(nes, nesnull, nperm)
	fdr := FDR(nes, nesnull)
	for i := range out {
		out[i].FWER = fwer[i]
		out[i].FDR = fdr[i]
	}
	return out, nil
}

// FWER estimates, for each observed normalized score, the probability that
// some gene set reaches at least that extreme a score by chance. nesnull is
// laid out set by set, nperm scores per set. For each permutation the most
// extreme positive and most extreme negative normalized null across sets is
// kept; a negative observed score with no negative extremes at all gets 1.
func FWER(nes, nesnull []float64, nperm int) []float64 {
	out := make([]float64, len(nes))
	if nperm == 0 {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	maxPos := make([]float64, nperm)
	minNeg := make([]float64, nperm)
	for i, x := range nesnull {
		j := i % nperm
		if x >= 0 {
			maxPos[j] = max(maxPos[j], x)
		} else {
			minNeg[j] = min(minNeg[j], x)
		}
	}

	var negExtremes int
	for _, x := range minNeg {
		if x < 0 {
			negExtremes++
		}
	}

	for i, e := range nes {
		var count int
		if e < 0 {
			if negExtremes == 0 {
				out[i] = 1.0
				continue
			}
			for _, x := range minNeg {
				if x < e {
					count++
				}
			}
			out[i] = float64(count) / float64(negExtremes)
			continue
		}
		for _, x := range maxPos {
			if x >= e {
				count++
			}
		}
		out[i] = float64(count) / float64(nperm)
	}
	return out
}

// FDR returns the q-value of every observed normalized score: the fraction
// of same-signed pooled nulls at least as extreme, over the fraction of
// same-signed observed scores at least as extreme, capped at 1. When the
// observed fraction is zero the q-value is 1. Results are in [0, 1] and in
// the order of nes.
func FDR(nes, nesnull []float64) []float64 {
	nulls := slices.Clone(nesnull)
	slices.Sort(nulls)
	order, observed := numeric.Argsort(nes, true)

	nullNeg := numeric.PartitionPoint(nulls, func(x float64) bool { return x < 0 })
	obsNeg := numeric.PartitionPoint(observed, func(x float64) bool { return x < 0 })

	out := make([]float64, len(nes))
	for k, e := range observed {
		var nullTail, nullSide, obsTail, obsSide int
		if e < 0 {
			nullTail = numeric.PartitionPoint(nulls, func(x float64) bool { return x <= e })
			nullSide = nullNeg
			obsTail = numeric.PartitionPoint(observed, func(x float64) bool { return x <= e })
			obsSide = obsNeg
		} else {
			nullTail = len(nulls) - numeric.PartitionPoint(nulls, func(x float64) bool { return x < e })
			nullSide = len(nulls) - nullNeg
			obsTail = len(observed) - numeric.PartitionPoint(observed, func(x float64) bool { return x < e })
			obsSide = len(observed) - obsNeg
		}
		out[order[k]] = tailRatio(nullTail, nullSide, obsTail, obsSide)
	}
	return out
}

// tailRatio computes clamp(phiNorm/phiObs, 0, 1) with empty sides counted
// as a zero fraction.
func tailRatio(nullTail, nullSide, obsTail, obsSide int) float64 {
	var phiNorm, phiObs float64
	if nullSide > 0 {
		phiNorm = float64(nullTail) / float64(nullSide)
	}
	if obsSide > 0 {
		phiObs = float64(obsTail) / float64(obsSide)
	}
	if phiObs == 0 {
		return 1.0
	}
	return min(max(phiNorm/phiObs, 0), 1.0)
}

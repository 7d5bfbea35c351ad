// Package significance turns observed enrichment scores and their null
// distributions into normalized scores, nominal p-values and the pooled
// family-wise and false-discovery error estimates.
package significance

import (
	"math"

	"github.com/genepile/prerank/internal/numeric"
)

// PValue returns the one-sided empirical p-value of es against esnull. The
// side is chosen by the sign of es; with no null scores on that side the
// p-value is 1.
func PValue(es float64, esnull []float64) float64 {
	var deno, nomi int
	for _, x := range esnull {
		if es < 0 {
			if x < 0 {
				deno++
			}
			if x <= es {
				nomi++
			}
		} else {
			if x >= 0 {
				deno++
			}
			if x >= es {
				nomi++
			}
		}
	}
	if deno == 0 {
		return 1.0
	}
	return float64(nomi) / float64(deno)
}

// Normalize divides es and every null score by the mean magnitude of the
// same-signed null scores. The means run over strictly positive and strictly
// negative nulls; a side with no samples falls back to es itself. A zero
// divisor normalizes to 0.
func Normalize(es float64, esnull []float64) (float64, []float64) {
	var pos, neg []float64
	for _, x := range esnull {
		switch {
		case x > 0:
			pos = append(pos, x)
		case x < 0:
			neg = append(neg, x)
		}
	}

	posMean, negMean := es, es
	if len(pos) > 0 {
		posMean = numeric.Mean(pos)
	}
	if len(neg) > 0 {
		negMean = numeric.Mean(neg)
	}

	scale := func(x float64) float64 {
		d := posMean
		if x < 0 {
			d = math.Abs(negMean)
		}
		if d == 0 {
			return 0
		}
		return x / d
	}

	nesnull := make([]float64, len(esnull))
	for i, x := range esnull {
		nesnull[i] = scale(x)
	}
	return scale(es), nesnull
}

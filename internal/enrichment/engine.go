package enrichment

import (
	"math/rand/v2"

	"github.com/genepile/prerank/internal/universe"
)

// Permutations returns nperm+1 arrangements of n items. Index 0 is the
// identity. Index j is the state of one arrangement after its j-th shuffle,
// all driven by a single PCG generator seeded with (seed, seed), so the same
// (n, nperm, seed) always yields the same set.
func Permutations(n, nperm int, seed uint64) []universe.Permutation {
	rng := rand.New(rand.NewPCG(seed, seed))

	live := universe.Identity(n)
	perms := make([]universe.Permutation, 0, nperm+1)
	perms = append(perms, live.Snapshot())
	for range nperm {
		live.Shuffle(rng)
		perms = append(perms, live.Snapshot())
	}
	return perms
}

// Evaluation is the walk result of one gene set over every arrangement.
type Evaluation struct {
	// ES is the score under the identity arrangement.
	ES float64

	// ESNull holds the scores under arrangements 1..nperm.
	ESNull []float64

	// RunES is the running path under the identity arrangement.
	RunES []float64
}

// Engine scores gene sets against a weighted metric and a fixed permutation
// set. An Engine is read-only after construction and safe for concurrent use.
type Engine struct {
	metric []float64
	perms  []universe.Permutation
}

// NewEngine creates an engine. perms[0] must be the identity arrangement.
func NewEngine(metric []float64, perms []universe.Permutation) *Engine {
	return &Engine{metric: metric, perms: perms}
}

// Permutations returns the number of shuffled arrangements.
func (e *Engine) Permutations() int {
	return len(e.perms) - 1
}

// Evaluate scores the gene set whose members sit at hits (strictly
// increasing ranked positions) under every arrangement.
func (e *Engine) Evaluate(hits []int) (Evaluation, error) {
	indicator := e.perms[0].Membership(hits)
	runES, err := RunningScore(e.metric, indicator)
	if err != nil {
		return Evaluation{}, err
	}
	es, err := ScoreHits(e.metric, hits)
	if err != nil {
		return Evaluation{}, err
	}

	esnull := make([]float64, 0, len(e.perms)-1)
	mapped := make([]int, 0, len(hits))
	for _, perm := range e.perms[1:] {
		mapped = perm.Map(hits, mapped)
		score, err := ScoreHits(e.metric, mapped)
		if err != nil {
			return Evaluation{}, err
		}
		esnull = append(esnull, score)
	}

	return Evaluation{ES: es, ESNull: esnull, RunES: runES}, nil
}

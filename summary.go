package prerank

import "math"

// Summary is the enrichment result of one gene set.
//
// ES, Hits and RunES describe the observed ranking. ESNull holds one score
// per permutation. NES, PValue, FWER and FDR are zero when the run used no
// permutations.
type Summary struct {
	Term   string    `json:"term"`
	ES     float64   `json:"es"`
	NES    float64   `json:"nes"`
	PValue float64   `json:"pval"`
	FWER   float64   `json:"fwerp"`
	FDR    float64   `json:"fdr"`
	RunES  []float64 `json:"run_es"`
	Hits   []int     `json:"hits"`
	ESNull []float64 `json:"esnull"`
}

// Peak returns the ranked position where the running score reaches ES, the
// first maximum by magnitude. It returns -1 for an empty path.
func (s *Summary) Peak() int {
	peak, best := -1, -1.0
	for i, v := range s.RunES {
		if a := math.Abs(v); a > best {
			peak, best = i, a
		}
	}
	return peak
}

// LeadingEdge returns the hits that drive the score: those at or before the
// peak for a positive ES, at or after it for a negative one.
func (s *Summary) LeadingEdge() []int {
	peak := s.Peak()
	if peak < 0 {
		return nil
	}
	var edge []int
	for _, h := range s.Hits {
		if (s.ES >= 0 && h <= peak) || (s.ES < 0 && h >= peak) {
			edge = append(edge, h)
		}
	}
	return edge
}

// LeadingEdgeGenes maps LeadingEdge to gene identifiers of r, which must be
// the ranking the summary was computed from.
func (s *Summary) LeadingEdgeGenes(r Ranking) []string {
	edge := s.LeadingEdge()
	genes := make([]string, 0, len(edge))
	for _, h := range edge {
		if h < len(r.Genes) {
			genes = append(genes, r.Genes[h])
		}
	}
	return genes
}

// Skipped records a gene set that passed the size filter but could not be
// scored.
type Skipped struct {
	Term   string `json:"term"`
	Size   int    `json:"size"`
	Reason string `json:"reason"`
}

// Params are the run parameters.
type Params struct {
	Weight       float64 `json:"weight"`
	MinSize      int     `json:"min_size"`
	MaxSize      int     `json:"max_size"`
	Permutations int     `json:"permutations"`
	Seed         uint64  `json:"seed"`
}

// Result is the outcome of one run.
type Result struct {
	// Summaries holds one entry per scored gene set, ordered by term.
	Summaries []Summary `json:"summaries"`

	// Skipped lists degenerate gene sets left out of the results.
	Skipped []Skipped `json:"skipped,omitempty"`

	// Filtered lists the terms whose overlap with the ranking fell outside
	// the size bounds.
	Filtered []string `json:"filtered,omitempty"`

	Params Params `json:"params"`
}

// Summary returns the summary for term.
func (r *Result) Summary(term string) (*Summary, bool) {
	for i := range r.Summaries {
		if r.Summaries[i].Term == term {
			return &r.Summaries[i], true
		}
	}
	return nil, false
}

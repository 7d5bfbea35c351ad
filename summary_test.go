package prerank

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
)

func TestSummary_LeadingEdge(t *testing.T) {
	tests := []struct {
		name  string
		s     Summary
		peak  int
		edge  []int
		genes []string
	}{
		{
			name:  "positive",
			s:     Summary{ES: 1, RunES: []float64{2.0 / 3, 1, 2.0 / 3, 1.0 / 3, 0}, Hits: []int{0, 1}},
			peak:  1,
			edge:  []int{0, 1},
			genes: []string{"g1", "g2"},
		},
		{
			name:  "negative",
			s:     Summary{ES: -1, RunES: []float64{-1.0 / 3, -2.0 / 3, -1, -2.0 / 3, 0}, Hits: []int{3, 4}},
			peak:  2,
			edge:  []int{3, 4},
			genes: []string{"g4", "g5"},
		},
		{
			name:  "partial",
			s:     Summary{ES: 0.5, RunES: []float64{0.5, 0.25, 0, 0.25, 0}, Hits: []int{0, 3}},
			peak:  0,
			edge:  []int{0},
			genes: []string{"g1"},
		},
		{
			name: "empty path",
			s:    Summary{},
			peak: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Peak(); got != tt.peak {
				t.Errorf("Peak() = %d, want %d", got, tt.peak)
			}
			if got := tt.s.LeadingEdge(); !slices.Equal(got, tt.edge) {
				t.Errorf("LeadingEdge() = %v, want %v", got, tt.edge)
			}
			if got := tt.s.LeadingEdgeGenes(scenarioRanking()); len(tt.genes) > 0 && !slices.Equal(got, tt.genes) {
				t.Errorf("LeadingEdgeGenes() = %v, want %v", got, tt.genes)
			}
		})
	}
}

func TestSummary_JSONFields(t *testing.T) {
	data, err := json.Marshal(Summary{Term: "A", ESNull: []float64{}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, field := range []string{`"term"`, `"es"`, `"nes"`, `"pval"`, `"fwerp"`, `"fdr"`, `"run_es"`, `"hits"`, `"esnull":[]`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("JSON %s missing %s", data, field)
		}
	}
}

func TestRanking_SortedByMetric(t *testing.T) {
	r := Ranking{
		Genes:  []string{"a", "b", "c", "d"},
		Metric: []float64{-1, 3, 0.5, 3},
	}
	got := r.SortedByMetric()
	if want := []string{"b", "d", "c", "a"}; !slices.Equal(got.Genes, want) {
		t.Errorf("Genes = %v, want %v", got.Genes, want)
	}
	if want := []float64{3, 3, 0.5, -1}; !slices.Equal(got.Metric, want) {
		t.Errorf("Metric = %v, want %v", got.Metric, want)
	}
	if r.Genes[0] != "a" {
		t.Error("SortedByMetric() modified its receiver")
	}
}

func TestGeneSets_Terms(t *testing.T) {
	gs := GeneSets{"KEGG": nil, "BIOCARTA": nil, "HALLMARK": nil}
	if got := gs.Terms(); !slices.Equal(got, []string{"BIOCARTA", "HALLMARK", "KEGG"}) {
		t.Errorf("Terms() = %v", got)
	}
}

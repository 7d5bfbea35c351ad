// Package report writes enrichment results as TSV, JSON or Markdown.
package report

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/genepile/prerank"
)

// Formats.
const (
	FormatTSV      = "tsv"
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// RunManifest records how a result was produced.
type RunManifest struct {
	Tool      string         `json:"tool"`
	Ranking   string         `json:"ranking"`
	Library   string         `json:"library"`
	Genes     int            `json:"genes"`
	GeneSets  int            `json:"gene_sets"`
	Scored    int            `json:"scored"`
	Filtered  int            `json:"filtered"`
	Skipped   int            `json:"skipped"`
	Params    prerank.Params `json:"params"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration_ns"`
}

// NewRunManifest fills the count fields from res.
func NewRunManifest(ranking, library string, genes, sets int, res *prerank.Result, started time.Time, elapsed time.Duration) RunManifest {
	return RunManifest{
		Tool:      "prerank",
		Ranking:   ranking,
		Library:   library,
		Genes:     genes,
		GeneSets:  sets,
		Scored:    len(res.Summaries),
		Filtered:  len(res.Filtered),
		Skipped:   len(res.Skipped),
		Params:    res.Params,
		StartedAt: started,
		Duration:  elapsed,
	}
}

// Writer renders one result.
type Writer func(w io.Writer, m RunManifest, res *prerank.Result, r prerank.Ranking) error

// ByName returns the writer for a format name.
func ByName(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatTSV, "tab":
		return WriteTSV, nil
	case FormatJSON:
		return func(w io.Writer, m RunManifest, res *prerank.Result, _ prerank.Ranking) error {
			return WriteJSON(w, m, res, false)
		}, nil
	case FormatMarkdown, "markdown":
		return WriteMarkdown, nil
	default:
		return nil, fmt.Errorf("report: unknown format %q", format)
	}
}

// FormatForPath picks a format from a file extension, defaulting to TSV.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatTSV
	}
}

// Row is the flattened view of one summary used by every format.
type Row struct {
	Term        string   `json:"term"`
	ES          float64  `json:"es"`
	NES         float64  `json:"nes"`
	PValue      float64  `json:"pval"`
	FWER        float64  `json:"fwerp"`
	FDR         float64  `json:"fdr"`
	Size        int      `json:"size"`
	TagPercent  float64  `json:"tag_pct"`
	ListPercent float64  `json:"list_pct"`
	LeadingEdge []string `json:"leading_edge"`
}

// NewRow flattens s. TagPercent is the share of hits in the leading edge;
// ListPercent is the share of the ranking walked before the peak.
func NewRow(s *prerank.Summary, r prerank.Ranking) Row {
	row := Row{
		Term:        s.Term,
		ES:          s.ES,
		NES:         s.NES,
		PValue:      s.PValue,
		FWER:        s.FWER,
		FDR:         s.FDR,
		Size:        len(s.Hits),
		LeadingEdge: s.LeadingEdgeGenes(r),
	}
	if len(s.Hits) > 0 {
		row.TagPercent = float64(len(s.LeadingEdge())) / float64(len(s.Hits))
	}
	if n := len(s.RunES); n > 0 {
		peak := s.Peak()
		if s.ES >= 0 {
			row.ListPercent = float64(peak+1) / float64(n)
		} else {
			row.ListPercent = float64(n-peak) / float64(n)
		}
	}
	return row
}

// Ranked returns the summaries ordered for display: by FDR then by |NES|
// when the run used permutations, by |ES| otherwise. Ties keep term order.
func Ranked(res *prerank.Result) []*prerank.Summary {
	out := make([]*prerank.Summary, len(res.Summaries))
	for i := range res.Summaries {
		out[i] = &res.Summaries[i]
	}
	permuted := res.Params.Permutations > 0
	slices.SortStableFunc(out, func(a, b *prerank.Summary) int {
		if permuted {
			if c := cmp.Compare(a.FDR, b.FDR); c != 0 {
				return c
			}
			return cmp.Compare(math.Abs(b.NES), math.Abs(a.NES))
		}
		return cmp.Compare(math.Abs(b.ES), math.Abs(a.ES))
	})
	return out
}

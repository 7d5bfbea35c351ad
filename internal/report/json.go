package report

import (
	"encoding/json"
	"io"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/numeric"
)

// Document is the JSON report layout.
type Document struct {
	Manifest  RunManifest                    `json:"manifest"`
	Summaries []prerank.Summary              `json:"summaries"`
	Nulls     map[string]numeric.NullSummary `json:"nulls,omitempty"`
	Skipped   []prerank.Skipped              `json:"skipped"`
	Filtered  []string                       `json:"filtered"`
}

// WriteJSON writes res as an indented Document. Unless full is set the
// running paths and null scores are dropped and each null distribution is
// replaced by its summary.
func WriteJSON(w io.Writer, m RunManifest, res *prerank.Result, full bool) error {
	doc := Document{
		Manifest:  m,
		Summaries: make([]prerank.Summary, len(res.Summaries)),
		Skipped:   res.Skipped,
		Filtered:  res.Filtered,
	}
	if doc.Skipped == nil {
		doc.Skipped = []prerank.Skipped{}
	}
	if doc.Filtered == nil {
		doc.Filtered = []string{}
	}
	copy(doc.Summaries, res.Summaries)

	if !full {
		doc.Nulls = make(map[string]numeric.NullSummary, len(res.Summaries))
		for i := range doc.Summaries {
			s := &doc.Summaries[i]
			if len(s.ESNull) > 0 {
				ns, err := numeric.Summarize(s.ESNull)
				if err != nil {
					return err
				}
				doc.Nulls[s.Term] = ns
			}
			s.RunES = nil
			s.ESNull = nil
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

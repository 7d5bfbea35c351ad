package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/numeric"
)

// DefaultTopSets is the number of sets listed in the Markdown summary table.
const DefaultTopSets = 25

// MarkdownReport writes result reports in Markdown format.
type MarkdownReport struct {
	w   io.Writer
	err error
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w}
}

// Err returns the first write error.
func (r *MarkdownReport) Err() error {
	return r.err
}

func (r *MarkdownReport) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string, generated time.Time) {
	r.printf("# %s\n\n", title)
	r.printf("Generated: %s\n\n", generated.Format(time.RFC3339))
}

// WriteParameters writes the run section.
func (r *MarkdownReport) WriteParameters(m RunManifest) {
	r.printf("## Run\n\n")
	if m.Ranking != "" {
		r.printf("- **Ranking:** %s (%d genes)\n", m.Ranking, m.Genes)
	}
	if m.Library != "" {
		r.printf("- **Library:** %s (%d gene sets)\n", m.Library, m.GeneSets)
	}
	p := m.Params
	r.printf("- **Weight:** %g\n", p.Weight)
	r.printf("- **Size bounds:** %d to %d\n", p.MinSize, p.MaxSize)
	r.printf("- **Permutations:** %d (seed %d)\n", p.Permutations, p.Seed)
	r.printf("- **Scored / filtered / skipped:** %d / %d / %d\n", m.Scored, m.Filtered, m.Skipped)
	if m.Duration > 0 {
		r.printf("- **Duration:** %s\n", m.Duration.Round(time.Millisecond))
	}
	r.printf("\n")
}

// WriteSummaryTable writes the top limit summaries in display order.
func (r *MarkdownReport) WriteSummaryTable(res *prerank.Result, ranking prerank.Ranking, limit int) {
	r.printf("## Summary\n\n")
	if len(res.Summaries) == 0 {
		r.printf("No gene sets were scored.\n\n")
		return
	}
	r.printf("| Term | Size | ES | NES | P-value | FWER | FDR | Leading edge |\n")
	r.printf("|------|------|----|-----|---------|------|-----|--------------|\n")

	ranked := Ranked(res)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for _, s := range ranked {
		row := NewRow(s, ranking)
		r.printf("| %s | %d | %.4f | %.4f | %.2e | %.2e | %.2e | %d (%.0f%%) |\n",
			escapeCell(row.Term), row.Size, row.ES, row.NES, row.PValue, row.FWER, row.FDR,
			len(row.LeadingEdge), row.TagPercent*100)
	}
	r.printf("\n")
}

// WriteNullSummary writes descriptive statistics of each null distribution
// for the top limit summaries.
func (r *MarkdownReport) WriteNullSummary(res *prerank.Result, limit int) {
	if res.Params.Permutations == 0 || len(res.Summaries) == 0 {
		return
	}
	r.printf("## Null distributions\n\n")
	r.printf("| Term | Mean | Std Dev | Min | P5 | Median | P95 | Max |\n")
	r.printf("|------|------|---------|-----|----|--------|-----|-----|\n")

	ranked := Ranked(res)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for _, s := range ranked {
		ns, err := numeric.Summarize(s.ESNull)
		if err != nil {
			if r.err == nil {
				r.err = fmt.Errorf("summarizing %s: %w", s.Term, err)
			}
			return
		}
		r.printf("| %s | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			escapeCell(s.Term), ns.Mean, ns.StdDev, ns.Min, ns.P5, ns.Median, ns.P95, ns.Max)
	}
	r.printf("\n")
}

// WriteDistributionChart writes an ASCII histogram of data with the
// observed value marked.
func (r *MarkdownReport) WriteDistributionChart(name string, data []float64, observed float64, buckets int) {
	if len(data) == 0 || buckets <= 0 {
		return
	}
	r.printf("### %s null distribution\n\n", name)
	r.printf("```\n")

	lo, hi := bounds(data, observed)
	hist, width := makeHistogram(data, lo, hi, buckets)
	maxCount := 0
	for _, count := range hist {
		maxCount = max(maxCount, count)
	}

	observedBucket := min(max(int((observed-lo)/width), 0), buckets-1)

	const barWidth = 40
	for i, count := range hist {
		barLen := 0
		if maxCount > 0 {
			barLen = count * barWidth / maxCount
		}
		from, to := lo+float64(i)*width, lo+float64(i+1)*width
		mark := ""
		if i == observedBucket {
			mark = " <- observed"
		}
		r.printf("%+7.3f..%+7.3f │ %s %d%s\n", from, to, strings.Repeat("█", barLen), count, mark)
	}

	r.printf("```\n\n")
}

// bounds returns the range covering data and extra.
func bounds(data []float64, extra ...float64) (float64, float64) {
	lo, hi := data[0], data[0]
	for _, v := range slices.Concat(data, extra) {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// makeHistogram buckets data into equal-width bins over [lo, hi] and
// returns the counts and the bin width.
func makeHistogram(data []float64, lo, hi float64, buckets int) ([]int, float64) {
	hist := make([]int, buckets)
	width := (hi - lo) / float64(buckets)
	for _, v := range data {
		bucket := int((v - lo) / width)
		bucket = min(max(bucket, 0), buckets-1)
		hist[bucket]++
	}
	return hist, width
}

// WriteSkipped lists sets that could not be scored.
func (r *MarkdownReport) WriteSkipped(res *prerank.Result) {
	if len(res.Skipped) == 0 {
		return
	}
	r.printf("## Skipped gene sets\n\n")
	for _, s := range res.Skipped {
		r.printf("- %s (%d genes): %s\n", s.Term, s.Size, s.Reason)
	}
	r.printf("\n")
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	r.printf("---\n\n")
	r.printf("*Report generated by prerank*\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteMarkdown writes the full Markdown report: run parameters, the top
// summaries, their null statistics and a chart for the leading set.
func WriteMarkdown(w io.Writer, m RunManifest, res *prerank.Result, ranking prerank.Ranking) error {
	r := NewMarkdownReport(w)
	generated := m.StartedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	r.WriteHeader("Preranked enrichment report", generated)
	r.WriteParameters(m)
	r.WriteSummaryTable(res, ranking, DefaultTopSets)
	r.WriteNullSummary(res, DefaultTopSets)
	if ranked := Ranked(res); len(ranked) > 0 && len(ranked[0].ESNull) > 0 {
		r.WriteDistributionChart(ranked[0].Term, ranked[0].ESNull, ranked[0].ES, 10)
	}
	r.WriteSkipped(res)
	r.WriteFooter()
	return r.Err()
}

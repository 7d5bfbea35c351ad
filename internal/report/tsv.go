package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/genepile/prerank"
)

var tsvHeader = []string{
	"term", "es", "nes", "pval", "fwerp", "fdr", "size", "tag_pct", "list_pct", "leading_edge",
}

// WriteTSV writes one tab-separated row per summary in term order. The
// leading edge is a comma-separated gene list.
func WriteTSV(w io.Writer, _ RunManifest, res *prerank.Result, r prerank.Ranking) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(tsvHeader, "\t"))
	bw.WriteByte('\n')

	for i := range res.Summaries {
		row := NewRow(&res.Summaries[i], r)
		fields := []string{
			row.Term,
			formatFloat(row.ES),
			formatFloat(row.NES),
			formatFloat(row.PValue),
			formatFloat(row.FWER),
			formatFloat(row.FDR),
			strconv.Itoa(row.Size),
			formatFloat(row.TagPercent),
			formatFloat(row.ListPercent),
			strings.Join(row.LeadingEdge, ","),
		}
		bw.WriteString(strings.Join(fields, "\t"))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

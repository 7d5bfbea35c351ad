package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/genepile/prerank"
)

func testRanking() prerank.Ranking {
	return prerank.Ranking{
		Genes:  []string{"g1", "g2", "g3", "g4", "g5"},
		Metric: []float64{2, 1, 0, -1, -2},
	}
}

func testResult() *prerank.Result {
	return &prerank.Result{
		Params: prerank.Params{Weight: 1, MinSize: 1, MaxSize: 5, Permutations: 4, Seed: 42},
		Summaries: []prerank.Summary{
			{
				Term: "DOWN", ES: -1, NES: -1.8, PValue: 0.25, FWER: 0.5, FDR: 0.4,
				RunES:  []float64{-1.0 / 3, -2.0 / 3, -1, -2.0 / 3, 0},
				Hits:   []int{3, 4},
				ESNull: []float64{-0.5, 0.2, -0.7, 0.4},
			},
			{
				Term: "UP", ES: 1, NES: 2.1, PValue: 0, FWER: 0, FDR: 0,
				RunES:  []float64{2.0 / 3, 1, 2.0 / 3, 1.0 / 3, 0},
				Hits:   []int{0, 1},
				ESNull: []float64{0.3, -0.2, 0.5, 0.1},
			},
		},
		Skipped:  []prerank.Skipped{{Term: "ALL", Size: 5, Reason: "enrichment: every ranked gene is a hit"}},
		Filtered: []string{"TINY"},
	}
}

func testManifest(res *prerank.Result) RunManifest {
	return NewRunManifest("study.rnk", "hallmark", 5, 4, res,
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 1500*time.Millisecond)
}

func TestNewRunManifest(t *testing.T) {
	m := testManifest(testResult())
	if m.Scored != 2 || m.Filtered != 1 || m.Skipped != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", m.Scored, m.Filtered, m.Skipped)
	}
	if m.Params.Permutations != 4 {
		t.Errorf("Params.Permutations = %d, want 4", m.Params.Permutations)
	}
}

func TestNewRow(t *testing.T) {
	res := testResult()
	tests := []struct {
		name    string
		summary *prerank.Summary
		edge    []string
		tagPct  float64
		listPct float64
	}{
		{"negative", &res.Summaries[0], []string{"g4", "g5"}, 1, 0.6},
		{"positive", &res.Summaries[1], []string{"g1", "g2"}, 1, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewRow(tt.summary, testRanking())
			if strings.Join(row.LeadingEdge, ",") != strings.Join(tt.edge, ",") {
				t.Errorf("LeadingEdge = %v, want %v", row.LeadingEdge, tt.edge)
			}
			if math.Abs(row.TagPercent-tt.tagPct) > 1e-12 {
				t.Errorf("TagPercent = %v, want %v", row.TagPercent, tt.tagPct)
			}
			if math.Abs(row.ListPercent-tt.listPct) > 1e-12 {
				t.Errorf("ListPercent = %v, want %v", row.ListPercent, tt.listPct)
			}
		})
	}
}

func TestRanked(t *testing.T) {
	res := testResult()
	got := Ranked(res)
	if got[0].Term != "UP" || got[1].Term != "DOWN" {
		t.Errorf("Ranked() = [%s %s], want [UP DOWN]", got[0].Term, got[1].Term)
	}

	res.Params.Permutations = 0
	res.Summaries[0].ES = -1.5
	got = Ranked(res)
	if got[0].Term != "DOWN" {
		t.Errorf("Ranked() without permutations first = %s, want DOWN", got[0].Term)
	}
	if res.Summaries[0].Term != "DOWN" || res.Summaries[1].Term != "UP" {
		t.Error("Ranked() reordered the result")
	}
}

func TestWriteTSV(t *testing.T) {
	res := testResult()
	var buf bytes.Buffer
	if err := WriteTSV(&buf, testManifest(res), res, testRanking()); err != nil {
		t.Fatalf("WriteTSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "term\tes\tnes\tpval\tfwerp\tfdr\t") {
		t.Errorf("header = %q", lines[0])
	}
	fields := strings.Split(lines[2], "\t")
	if len(fields) != len(tsvHeader) {
		t.Fatalf("row has %d fields, want %d", len(fields), len(tsvHeader))
	}
	if fields[0] != "UP" || fields[1] != "1" || fields[2] != "2.1" || fields[6] != "2" || fields[9] != "g1,g2" {
		t.Errorf("UP row = %q", lines[2])
	}
}

func TestWriteJSON(t *testing.T) {
	res := testResult()

	tests := []struct {
		name string
		full bool
	}{
		{"compact", false},
		{"full", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteJSON(&buf, testManifest(res), res, tt.full); err != nil {
				t.Fatalf("WriteJSON() error = %v", err)
			}
			var doc Document
			if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(doc.Summaries) != 2 || doc.Manifest.Library != "hallmark" {
				t.Fatalf("doc = %+v", doc)
			}
			if tt.full {
				if len(doc.Summaries[0].ESNull) != 4 || doc.Nulls != nil {
					t.Errorf("full document should keep null scores and omit summaries")
				}
				return
			}
			if doc.Summaries[0].ESNull != nil || doc.Summaries[0].RunES != nil {
				t.Error("compact document kept running paths or null scores")
			}
			if ns := doc.Nulls["UP"]; ns.Count != 4 || math.Abs(ns.Mean-0.175) > 1e-12 {
				t.Errorf("Nulls[UP] = %+v, want count 4 mean 0.175", ns)
			}
		})
	}

	if len(res.Summaries[0].ESNull) != 4 {
		t.Error("WriteJSON() modified the result")
	}
}

func TestWriteMarkdown(t *testing.T) {
	res := testResult()
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, testManifest(res), res, testRanking()); err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Preranked enrichment report",
		"Generated: 2026-03-01T12:00:00Z",
		"- **Library:** hallmark (4 gene sets)",
		"- **Permutations:** 4 (seed 42)",
		"| UP | 2 | 1.0000 | 2.1000 |",
		"## Null distributions",
		"### UP null distribution",
		"<- observed",
		"- ALL (5 genes):",
		"*Report generated by prerank*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Index(out, "| UP |") > strings.Index(out, "| DOWN |") {
		t.Error("UP should be listed before DOWN")
	}
}

func TestWriteMarkdown_NoPermutations(t *testing.T) {
	res := &prerank.Result{Params: prerank.Params{Weight: 1, MinSize: 1, MaxSize: 5}}
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, RunManifest{}, res, testRanking()); err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No gene sets were scored.") {
		t.Error("empty report missing placeholder")
	}
	if strings.Contains(buf.String(), "Null distributions") {
		t.Error("report without permutations should not list null distributions")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestMarkdownReport_Err(t *testing.T) {
	res := testResult()
	if err := WriteMarkdown(failingWriter{}, testManifest(res), res, testRanking()); err == nil {
		t.Error("WriteMarkdown() should report write errors")
	}
}

func TestMakeHistogram(t *testing.T) {
	data := []float64{0, 0.1, 0.5, 0.9, 1}
	lo, hi := bounds(data)
	hist, width := makeHistogram(data, lo, hi, 2)
	if lo != 0 || hi != 1 || width != 0.5 {
		t.Errorf("lo, hi, width = %v, %v, %v, want 0, 1, 0.5", lo, hi, width)
	}
	if hist[0] != 2 || hist[1] != 3 {
		t.Errorf("hist = %v, want [2 3]", hist)
	}

	if lo, hi := bounds(data, 2); lo != 0 || hi != 2 {
		t.Errorf("bounds() with extra = %v, %v, want 0, 2", lo, hi)
	}

	constant := []float64{3, 3, 3}
	lo, hi = bounds(constant)
	hist, _ = makeHistogram(constant, lo, hi, 4)
	if hist[0] != 3 {
		t.Errorf("constant data hist = %v, want all in first bucket", hist)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"tsv", "TSV", "json", "md", "markdown"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q) error = %v", name, err)
		}
	}
	if _, err := ByName("xlsx"); err == nil {
		t.Error("ByName(xlsx) should return error")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"out.json", FormatJSON},
		{"out.md", FormatMarkdown},
		{"out.tsv", FormatTSV},
		{"-", FormatTSV},
	}
	for _, tt := range tests {
		if got := FormatForPath(tt.path); got != tt.want {
			t.Errorf("FormatForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

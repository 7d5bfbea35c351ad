package gmt

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
)

const hallmark = `HALLMARK_APOPTOSIS	http://www.gsea-msigdb.org/gsea/msigdb/HALLMARK_APOPTOSIS	CASP3	BAX	BCL2	CASP3
# comment line

HALLMARK_HYPOXIA	na	HIF1A	VEGFA		LDHA
HALLMARK_EMPTY	na
`

func TestParse(t *testing.T) {
	lib, err := Parse(strings.NewReader(hallmark))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(lib.Sets) != 3 {
		t.Fatalf("len(Sets) = %d, want 3", len(lib.Sets))
	}

	tests := []struct {
		name  string
		genes []string
	}{
		{"HALLMARK_APOPTOSIS", []string{"CASP3", "BAX", "BCL2"}},
		{"HALLMARK_HYPOXIA", []string{"HIF1A", "VEGFA", "LDHA"}},
		{"HALLMARK_EMPTY", []string{}},
	}
	for i, tt := range tests {
		if lib.Sets[i].Name != tt.name {
			t.Errorf("Sets[%d].Name = %q, want %q", i, lib.Sets[i].Name, tt.name)
		}
		if !slices.Equal(lib.Sets[i].Genes, tt.genes) {
			t.Errorf("Sets[%d].Genes = %v, want %v", i, lib.Sets[i].Genes, tt.genes)
		}
	}
	if got := lib.Genes(); got != 6 {
		t.Errorf("Genes() = %d, want 6", got)
	}
	if m := lib.Map(); len(m) != 3 || len(m["HALLMARK_HYPOXIA"]) != 3 {
		t.Errorf("Map() = %v", m)
	}
}

func TestParse_CRLF(t *testing.T) {
	lib, err := Parse(strings.NewReader("SET\tna\tA\tB\r\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := lib.Sets[0].Genes; !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("Genes = %q, want [A B]", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
		line  string
	}{
		{"no description", "SET_A\tna\tG1\nSET_B\n", ErrMalformed, "line 2"},
		{"empty name", "\tna\tG1\n", ErrMalformed, "line 1"},
		{"duplicate", "S\tna\tA\nT\tna\tB\nS\tna\tC\n", ErrDuplicateSet, "lines 1 and 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.want)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("Parse() error = %q, want it to mention %q", err, tt.line)
			}
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	lib, err := Parse(strings.NewReader(hallmark))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, lib); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := "HALLMARK_APOPTOSIS\thttp://www.gsea-msigdb.org/gsea/msigdb/HALLMARK_APOPTOSIS\tCASP3\tBAX\tBCL2\n" +
		"HALLMARK_HYPOXIA\tna\tHIF1A\tVEGFA\tLDHA\n" +
		"HALLMARK_EMPTY\tna\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}

	again, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse(Write()) error = %v", err)
	}
	if len(again.Sets) != len(lib.Sets) {
		t.Errorf("round trip lost sets: %d vs %d", len(again.Sets), len(lib.Sets))
	}
}

func TestWrite_RejectsTabInName(t *testing.T) {
	lib := &Library{Sets: []Set{{Name: "A\tB", Description: "na"}}}
	if err := Write(&bytes.Buffer{}, lib); !errors.Is(err, ErrMalformed) {
		t.Errorf("Write() error = %v, want ErrMalformed", err)
	}
}

// Package rnk reads and writes pre-ranked gene lists: one "gene<TAB>score"
// pair per line.
package rnk

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMalformed is returned for lines without exactly two fields.
	ErrMalformed = errors.New("rnk: malformed line")

	// ErrBadScore is returned when a score is not a finite number.
	ErrBadScore = errors.New("rnk: invalid score")

	// ErrDuplicateGene is returned when a gene appears twice.
	ErrDuplicateGene = errors.New("rnk: duplicate gene")
)

// List is a parsed ranked list in file order.
type List struct {
	Genes  []string
	Scores []float64
}

// Len returns the number of genes.
func (l *List) Len() int { return len(l.Genes) }

// Parse reads a ranked list. Lines starting with '#' and blank lines are
// skipped. A first data line whose score does not parse is taken as a header
// and skipped. Fields may be separated by tabs or, failing that, runs of
// spaces.
func Parse(r io.Reader) (*List, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	list := &List{}
	seen := make(map[string]int)
	line, data := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		data++

		fields := strings.Split(text, "\t")
		if len(fields) == 1 {
			fields = strings.Fields(text)
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want 2 fields, got %d", ErrMalformed, line, len(fields))
		}
		gene := strings.TrimSpace(fields[0])
		raw := strings.TrimSpace(fields[1])

		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if data == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: %q", ErrBadScore, line, raw)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, fmt.Errorf("%w: line %d: %q is not finite", ErrBadScore, line, raw)
		}
		if gene == "" {
			return nil, fmt.Errorf("%w: line %d: empty gene", ErrMalformed, line)
		}
		if prev, ok := seen[gene]; ok {
			return nil, fmt.Errorf("%w: %q on lines %d and %d", ErrDuplicateGene, gene, prev, line)
		}
		seen[gene] = line

		list.Genes = append(list.Genes, gene)
		list.Scores = append(list.Scores, score)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("rnk: reading line %d: %w", line+1, err)
	}
	return list, nil
}

// Write writes genes and scores as a ranked list. Scores use the shortest
// representation that parses back to the same value.
func Write(w io.Writer, genes []string, scores []float64) error {
	if len(genes) != len(scores) {
		return fmt.Errorf("rnk: %d genes but %d scores", len(genes), len(scores))
	}
	bw := bufio.NewWriter(w)
	for i, g := range genes {
		bw.WriteString(g)
		bw.WriteByte('\t')
		bw.WriteString(strconv.FormatFloat(scores[i], 'g', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

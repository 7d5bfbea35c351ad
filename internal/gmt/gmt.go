// Package gmt reads and writes gene set libraries in the GMT format: one set
// per line, tab separated as name, description, then member genes.
package gmt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMalformed is returned for lines that do not carry a name and a
	// description.
	ErrMalformed = errors.New("gmt: malformed line")

	// ErrDuplicateSet is returned when two lines share a set name.
	ErrDuplicateSet = errors.New("gmt: duplicate gene set")
)

// Set is one gene set as stored in a library.
type Set struct {
	Name        string
	Description string
	Genes       []string
}

// Library is an ordered gene set library.
type Library struct {
	Sets []Set
}

// Map returns the library as term -> members.
func (l *Library) Map() map[string][]string {
	m := make(map[string][]string, len(l.Sets))
	for _, s := range l.Sets {
		m[s.Name] = s.Genes
	}
	return m
}

// Genes returns the number of distinct genes across all sets.
func (l *Library) Genes() int {
	seen := make(map[string]struct{})
	for _, s := range l.Sets {
		for _, g := range s.Genes {
			seen[g] = struct{}{}
		}
	}
	return len(seen)
}

// Parse reads a GMT library. Blank lines and lines starting with '#' are
// skipped. Empty gene fields are dropped and repeated genes within a set are
// kept once, in first-seen order. Errors carry the 1-based line number.
func Parse(r io.Reader) (*Library, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lib := &Library{}
	names := make(map[string]int)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: want name and description", ErrMalformed, line)
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: empty set name", ErrMalformed, line)
		}
		if prev, ok := names[name]; ok {
			return nil, fmt.Errorf("%w: %q on lines %d and %d", ErrDuplicateSet, name, prev, line)
		}
		names[name] = line

		lib.Sets = append(lib.Sets, Set{
			Name:        name,
			Description: fields[1],
			Genes:       dedupe(fields[2:]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("gmt: reading line %d: %w", line+1, err)
	}
	return lib, nil
}

func dedupe(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	genes := make([]string, 0, len(fields))
	for _, f := range fields {
		g := strings.TrimSpace(f)
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		genes = append(genes, g)
	}
	return genes
}

// Write writes lib in GMT format, one set per line in library order.
func Write(w io.Writer, lib *Library) error {
	bw := bufio.NewWriter(w)
	for _, s := range lib.Sets {
		if strings.ContainsAny(s.Name, "\t\n") || strings.ContainsAny(s.Description, "\t\n") {
			return fmt.Errorf("%w: set %q has a tab or newline in its name or description", ErrMalformed, s.Name)
		}
		bw.WriteString(s.Name)
		bw.WriteByte('\t')
		bw.WriteString(s.Description)
		for _, g := range s.Genes {
			bw.WriteByte('\t')
			bw.WriteString(g)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

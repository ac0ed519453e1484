// Package cathref resolves CATH node identifiers to human-readable names.
//
// Two reference files from a CATH release carry the mapping: cath-names.txt
// covers every node of the hierarchy (class down to homologous superfamily)
// and cath-superfamily-list.txt fills gaps for superfamilies added between
// releases. Lookups consult the names file first.
package cathref

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cathapult/tsv"
)

// Reference file names inside a CATH data directory.
const (
	NamesFile       = "cath-names.txt"
	SuperfamilyFile = "cath-superfamily-list.txt"
)

// ParseError reports a malformed entry in a reference file.
type ParseError struct {
	Path string
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cathref: %s: line %d: malformed entry %q", e.Path, e.Line, e.Text)
}

// Table maps CATH node identifiers to names.
type Table struct {
	names  map[string]string
	supers map[string]string
}

// Load reads both reference files from dir.
func Load(dir string) (*Table, error) {
	names, err := parseNames(filepath.Join(dir, NamesFile))
	if err != nil {
		return nil, err
	}
	supers, err := parseSuperfamilies(filepath.Join(dir, SuperfamilyFile))
	if err != nil {
		return nil, err
	}
	return &Table{names: names, supers: supers}, nil
}

// Name returns the name recorded for a CATH node. The names file takes
// precedence; superfamilies missing from it fall back to the superfamily
// list.
func (t *Table) Name(id string) (string, bool) {
	if n, ok := t.names[id]; ok {
		return n, true
	}
	n, ok := t.supers[id]
	return n, ok
}

// Class returns the name of the top-level class an identifier belongs to.
func (t *Table) Class(id string) (string, bool) {
	c, _, _ := strings.Cut(id, ".")
	if c == "" {
		return "", false
	}
	return t.Name(c)
}

// Counts reports how many identifiers each reference file contributed.
func (t *Table) Counts() (names, superfamilies int) {
	return len(t.names), len(t.supers)
}

// parseNames reads cath-names.txt. Each entry looks like
//
//	1.10.8.10    1oksA01    :Helicase, Ruva Protein; domain 3
//
// with blank lines and # comments in between. Lines without a colon are
// ignored; a node listed twice keeps its first name.
func parseNames(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := make(map[string]string)
	s := bufio.NewScanner(f)
	for line := 1; s.Scan(); line++ {
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		left, name, ok := strings.Cut(text, ":")
		if !ok {
			continue
		}
		fields := strings.Fields(left)
		if len(fields) < 2 {
			return nil, &ParseError{Path: path, Line: line, Text: text}
		}
		id := fields[len(fields)-2]
		if _, dup := m[id]; !dup {
			m[id] = strings.TrimSpace(name)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("cathref: read %s: %w", path, err)
	}
	return m, nil
}

// parseSuperfamilies reads the tab-separated superfamily list. Its header
// names the identifier column "# CATH_ID".
func parseSuperfamilies(path string) (map[string]string, error) {
	rc, err := tsv.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := tsv.NewReader(rc, nil)
	if err != nil {
		return nil, fmt.Errorf("cathref: %s: %w", path, err)
	}
	idIdx, nameIdx := -1, -1
	for i, col := range r.Header() {
		switch col {
		case "# CATH_ID":
			idIdx = i
		case "NAME":
			nameIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("cathref: %s: missing %q column", path, "# CATH_ID")
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("cathref: %s: missing %q column", path, "NAME")
	}

	m := make(map[string]string)
	for r.Next() {
		row := r.Row()
		id := row[idIdx]
		if id == "" {
			continue
		}
		if _, dup := m[id]; !dup {
			m[id] = row[nameIdx]
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("cathref: %s: %w", path, err)
	}
	return m, nil
}

// Package tsv streams tab-separated files with a header row.
//
// Values are raw text: no quoting or escaping is applied, matching the bulk
// TED consensus-domain files this library consumes. A value therefore must
// not contain a tab or newline.
package tsv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxLineBytes caps the size of a single record. Lines beyond this abort the
// read with bufio.ErrTooLong rather than silently truncating.
const MaxLineBytes = 16 * 1024 * 1024

// ErrNoHeader is returned when the input is empty or the header row is missing.
var ErrNoHeader = errors.New("tsv: missing header row")

// RowError reports a record whose field count does not match the header.
type RowError struct {
	Line int // 1-based line number in the source
	Want int
	Got  int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("tsv: line %d: %d fields, header has %d", e.Line, e.Got, e.Want)
}

// Reader streams records from a tab-separated file one row at a time.
// It never holds more than a single record in memory.
type Reader struct {
	s       *bufio.Scanner
	header  []string
	pending []string // first record of a sniffed headerless source
	line    int
	row     []string
	err     error
}

// NewReader wraps r and consumes the header row.
//
// If columns is non-nil the input is treated as headerless and columns is
// used as the schema; bulk TED files ship without a header row.
func NewReader(r io.Reader, columns []string) (*Reader, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), MaxLineBytes)

	tr := &Reader{s: s}
	if columns != nil {
		tr.header = columns
		return tr, nil
	}

	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoHeader
	}
	tr.line = 1

	line := s.Text()
	if line == "" {
		return nil, ErrNoHeader
	}
	tr.header = strings.Split(line, "\t")
	return tr, nil
}

// NewSniffReader wraps r like NewReader but detects whether the input
// carries a header row: when the first record's leading field equals
// fallback[0] that record is the header, otherwise the input is headerless
// with fallback as its schema and the record is yielded as data. Bulk TED
// downloads ship without a header while TSVs written by this tool carry
// one; sniffing serves both without the caller knowing which it has.
func NewSniffReader(r io.Reader, fallback []string) (*Reader, error) {
	if len(fallback) == 0 {
		return NewReader(r, nil)
	}
	tr, err := NewReader(r, nil)
	if err != nil {
		return nil, err
	}
	first := tr.header
	if first[0] == fallback[0] {
		return tr, nil
	}
	if len(first) != len(fallback) {
		return nil, &RowError{Line: 1, Want: len(fallback), Got: len(first)}
	}
	tr.header = fallback
	tr.pending = first
	return tr, nil
}

// Header returns the column names.
func (r *Reader) Header() []string { return r.header }

// Next advances to the next record. It returns false at EOF or on error;
// check Err afterwards.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	if r.pending != nil {
		r.row = r.pending
		r.pending = nil
		return true
	}
	if !r.s.Scan() {
		r.err = r.s.Err() // nil at clean EOF
		return false
	}
	r.line++

	fields := strings.Split(r.s.Text(), "\t")
	if len(fields) != len(r.header) {
		r.err = &RowError{Line: r.line, Want: len(r.header), Got: len(fields)}
		return false
	}
	r.row = fields
	return true
}

// Row returns the current record. The returned slice is not reused; callers
// may retain it.
func (r *Reader) Row() []string { return r.row }

// Line returns the 1-based source line number of the current record.
func (r *Reader) Line() int { return r.line }

// Err returns the first error encountered, or nil after a clean EOF.
func (r *Reader) Err() error { return r.err }

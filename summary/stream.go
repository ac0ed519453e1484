package summary

import (
	"context"
	"io"

	"cathapult/tsv"
)

// StreamOptions configures NewScanner.
type StreamOptions struct {
	// Columns treats the source as headerless with this schema.
	// Bulk TED files ship without a header row.
	Columns []string

	// SniffColumns treats the source as headerless with this schema unless
	// its first record already carries it as a header (matched on the first
	// column name). Takes precedence over Columns. See tsv.NewSniffReader.
	SniffColumns []string
}

// StreamStats counts scanner progress.
type StreamStats struct {
	Records int64 // records read from the source
	Matched int64 // records that satisfied the predicate
}

// Scanner streams a raw summary file and yields the records matching a
// predicate, one at a time and in source order. It is the fallback path when
// no columnar store has been built: every call re-reads the whole file,
// trading per-call latency for zero setup cost.
type Scanner struct {
	ctx    context.Context
	rc     io.ReadCloser
	r      *tsv.Reader
	bp     *BoundPredicate
	header []string
	row    []string
	err    error
	stats  StreamStats
}

// NewScanner opens the summary file at path and compiles pred against its
// schema. The source may be gzip-compressed; memory use is bounded by a
// single record regardless of file size.
func NewScanner(ctx context.Context, path string, spec KeySpec, pred Predicate, opts StreamOptions) (*Scanner, error) {
	rc, err := tsv.Open(path)
	if err != nil {
		return nil, err
	}
	return NewScannerFrom(ctx, rc, spec, pred, opts)
}

// NewScannerFrom is NewScanner over an already-open stream, for sources
// that are not files, such as object-store blobs. The stream must be
// decompressed (see tsv.Decompress); closing the scanner closes it.
func NewScannerFrom(ctx context.Context, rc io.ReadCloser, spec KeySpec, pred Predicate, opts StreamOptions) (*Scanner, error) {
	var r *tsv.Reader
	var err error
	if opts.SniffColumns != nil {
		r, err = tsv.NewSniffReader(rc, opts.SniffColumns)
	} else {
		r, err = tsv.NewReader(rc, opts.Columns)
	}
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	bp, err := pred.Bind(r.Header(), spec)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}

	header := r.Header()
	if bp.Appends() {
		header = append(append(make([]string, 0, len(header)+1), header...), spec.Column)
	}
	return &Scanner{ctx: ctx, rc: rc, r: r, bp: bp, header: header}, nil
}

// Header returns the output schema: the source columns, plus the derived key
// column when the source lacks one.
func (s *Scanner) Header() []string { return s.header }

// Next advances to the next matching record. It returns false at EOF or on
// error; check Err afterwards.
func (s *Scanner) Next() bool {
	if s.err != nil || s.bp.Empty() {
		return false
	}
	for s.r.Next() {
		s.stats.Records++
		if s.stats.Records&0x0fff == 0 {
			if err := s.ctx.Err(); err != nil {
				s.err = err
				return false
			}
		}

		fields := s.r.Row()
		key := s.bp.Key(fields)
		if !s.bp.MatchKey(key) || !s.bp.MatchKeyword(fields) {
			continue
		}
		if s.bp.Appends() {
			fields = append(fields, key)
		}
		s.row = fields
		s.stats.Matched++
		return true
	}
	s.err = s.r.Err()
	return false
}

// Row returns the current matching record.
func (s *Scanner) Row() []string { return s.row }

// Err returns the first error encountered, or nil after a clean EOF.
func (s *Scanner) Err() error { return s.err }

// Stats returns scan progress counters.
func (s *Scanner) Stats() StreamStats { return s.stats }

// Close releases the underlying file.
func (s *Scanner) Close() error { return s.rc.Close() }

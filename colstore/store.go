package colstore

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/RoaringBitmap/roaring/v2"

	"cathapult/codec"
	"cathapult/summary"
)

// OpenOptions configures Open.
type OpenOptions struct {
	// Codec decodes the footer. Defaults to codec.Default.
	Codec codec.Codec
}

// Store is a read-only handle to a columnar summary store. A Store is safe
// for concurrent use; cursors opened from it become invalid after Close.
type Store struct {
	f      *os.File
	path   string
	hdr    FileHeader
	foot   footer
	comp   Compression
	keyIdx int
}

// Open opens and validates a store file. The header and footer checksums
// are verified here; block checksums are verified lazily as blocks are
// scanned.
func Open(path string, optFns ...func(*OpenOptions)) (*Store, error) {
	opts := OpenOptions{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	s := &Store{f: f, path: path}
	if _, err := s.hdr.ReadFrom(f); err != nil {
		f.Close()
		return nil, err
	}
	s.comp = Compression(s.hdr.Codec)
	if s.comp != CompressionZSTD && s.comp != CompressionLZ4 && s.comp != CompressionNone {
		f.Close()
		return nil, fmt.Errorf("%w: unknown block compression %d", ErrInvalidVersion, s.hdr.Codec)
	}

	if err := s.readFooter(opts.Codec); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) readFooter(cdc codec.Codec) error {
	section := make([]byte, s.hdr.FooterLen)
	if _, err := s.f.ReadAt(section, int64(s.hdr.FooterOff)); err != nil {
		return fmt.Errorf("%w: read footer: %v", ErrCorrupted, err)
	}
	if got := crc32.ChecksumIEEE(section); got != s.hdr.FooterCRC {
		return fmt.Errorf("%w: footer checksum mismatch (got 0x%08X, want 0x%08X)", ErrCorrupted, got, s.hdr.FooterCRC)
	}
	raw, err := decompressSection(section, s.comp)
	if err != nil {
		return err
	}
	if err := cdc.Unmarshal(raw, &s.foot); err != nil {
		return fmt.Errorf("%w: decode footer: %v", ErrCorrupted, err)
	}
	if _, ok := codec.ByName(s.foot.Codec); !ok {
		return fmt.Errorf("%w: footer written by unknown codec %q", ErrInvalidVersion, s.foot.Codec)
	}
	if uint64(len(s.foot.Blocks)) != s.hdr.BlockCount {
		return fmt.Errorf("%w: footer lists %d blocks, header says %d", ErrCorrupted, len(s.foot.Blocks), s.hdr.BlockCount)
	}

	s.keyIdx = -1
	for i, c := range s.foot.Schema {
		if c == s.foot.Key {
			s.keyIdx = i
			break
		}
	}
	if s.keyIdx < 0 {
		return fmt.Errorf("%w: key column %q not in stored schema", ErrCorrupted, s.foot.Key)
	}
	return nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.f.Close()
}

// Path returns the store file path.
func (s *Store) Path() string { return s.path }

// Schema returns the stored column names, including a derived key column
// when Derived reports true.
func (s *Store) Schema() []string { return append([]string(nil), s.foot.Schema...) }

// Types returns the logical column types ("text", "int" or "float"),
// aligned with Schema.
func (s *Store) Types() []string { return append([]string(nil), s.foot.Types...) }

// Key returns the name of the key column.
func (s *Store) Key() string { return s.foot.Key }

// Derived reports whether the key column was derived at build time rather
// than present in the source.
func (s *Store) Derived() bool { return s.hdr.Flags&FlagDerivedKey != 0 }

// RowCount returns the total number of stored rows.
func (s *Store) RowCount() uint64 { return s.hdr.RowCount }

// BlockCount returns the number of row blocks.
func (s *Store) BlockCount() uint64 { return s.hdr.BlockCount }

// Compression returns the block compression algorithm.
func (s *Store) Compression() Compression { return s.comp }

// Query starts a pruned scan for rows whose key is in pred.IDs, optionally
// narrowed by pred.Keyword. Results stream in store order through the
// returned cursor; memory stays bounded by one decoded block.
func (s *Store) Query(ctx context.Context, pred summary.Predicate) (*Rows, error) {
	bp, err := pred.Bind(s.foot.Schema, summary.KeySpec{Column: s.foot.Key})
	if err != nil {
		return nil, err
	}
	return &Rows{
		ctx:     ctx,
		s:       s,
		bp:      bp,
		targets: bp.SortedIDs(),
		stats:   QueryStats{BlocksTotal: len(s.foot.Blocks)},
	}, nil
}

// QueryStats reports how much work a query did. The skip counters are the
// observable face of block pruning: a selective query on a large store
// should scan a small fraction of BlocksTotal.
type QueryStats struct {
	BlocksTotal        int   // blocks in the store
	BlocksSkippedRange int   // pruned by key min/max range
	BlocksSkippedBloom int   // pruned by the key Bloom filter
	BlocksScanned      int   // decoded and row-filtered
	RowsDecoded        int64 // rows in scanned blocks
	RowsMatched        int64 // rows returned
}

// Rows is a forward-only cursor over query results.
type Rows struct {
	ctx     context.Context
	s       *Store
	bp      *summary.BoundPredicate
	targets []string

	bi      int        // next block index
	pending [][]string // matches from the current block
	pi      int
	row     []string
	err     error
	closed  bool
	stats   QueryStats
}

// Next advances to the next matching row. It returns false when the scan is
// done or failed; check Err afterwards.
func (r *Rows) Next() bool {
	if r.err != nil || r.closed {
		return false
	}
	for {
		if r.pi < len(r.pending) {
			r.row = r.pending[r.pi]
			r.pi++
			r.stats.RowsMatched++
			return true
		}
		if r.bp.Empty() || r.bi >= len(r.s.foot.Blocks) {
			return false
		}
		if err := r.ctx.Err(); err != nil {
			r.err = err
			return false
		}

		meta := &r.s.foot.Blocks[r.bi]
		r.bi++

		window := meta.targetWindow(r.targets)
		if len(window) == 0 {
			r.stats.BlocksSkippedRange++
			continue
		}
		bf, err := r.s.readBloom(meta)
		if err != nil {
			r.err = err
			return false
		}
		hit := false
		for _, t := range window {
			if bf.MayContain(t) {
				hit = true
				break
			}
		}
		if !hit {
			r.stats.BlocksSkippedBloom++
			continue
		}

		pending, err := r.s.scanBlock(meta, r.bp)
		if err != nil {
			r.err = err
			return false
		}
		r.stats.BlocksScanned++
		r.stats.RowsDecoded += int64(meta.Rows)
		r.pending = pending
		r.pi = 0
	}
}

// Row returns the current row. The slice is owned by the caller.
func (r *Rows) Row() []string { return r.row }

// Err returns the first error encountered by Next.
func (r *Rows) Err() error { return r.err }

// Stats returns scan counters accumulated so far.
func (r *Rows) Stats() QueryStats { return r.stats }

// Close marks the cursor done. It never fails; it exists so callers can
// defer it symmetrically with other cursors.
func (r *Rows) Close() error {
	r.closed = true
	r.pending = nil
	return nil
}

func (s *Store) readBloom(meta *blockMeta) (*BloomFilter, error) {
	buf := make([]byte, meta.BloomLen)
	if _, err := s.f.ReadAt(buf, meta.BloomOff); err != nil {
		return nil, fmt.Errorf("%w: read bloom filter: %v", ErrCorrupted, err)
	}
	return ReadBloomFilter(bytes.NewReader(buf))
}

// scanBlock decodes one block and returns its matching rows in block order.
// The key column is decoded first and matched against the target set; the
// keyword column, when present, narrows the selection before any other
// column is materialized.
func (s *Store) scanBlock(meta *blockMeta, bp *summary.BoundPredicate) ([][]string, error) {
	section := make([]byte, meta.Length)
	if _, err := s.f.ReadAt(section, meta.Offset); err != nil {
		return nil, fmt.Errorf("%w: read block: %v", ErrCorrupted, err)
	}
	if got := crc32.ChecksumIEEE(section); got != meta.CRC {
		return nil, fmt.Errorf("%w: block checksum mismatch (got 0x%08X, want 0x%08X)", ErrCorrupted, got, meta.CRC)
	}
	data, err := decompressSection(section, s.comp)
	if err != nil {
		return nil, err
	}
	blk, err := decodeBlock(data)
	if err != nil {
		return nil, err
	}
	if blk.rows != int(meta.Rows) || blk.cols != len(s.foot.Schema) {
		return nil, fmt.Errorf("%w: block shape mismatch (%dx%d, want %dx%d)", ErrCorrupted, blk.rows, blk.cols, meta.Rows, len(s.foot.Schema))
	}

	keys, err := blk.column(s.keyIdx)
	if err != nil {
		return nil, err
	}
	sel := roaring.New()
	for i, key := range keys {
		if bp.MatchKey(key) {
			sel.Add(uint32(i))
		}
	}
	if sel.IsEmpty() {
		return nil, nil
	}

	if kwIdx := bp.KeywordIndex(); kwIdx >= 0 {
		ords := sel.ToArray()
		vals, err := blk.gather(ords, kwIdx)
		if err != nil {
			return nil, err
		}
		narrowed := roaring.New()
		for j, v := range vals {
			if bp.MatchKeywordValue(v) {
				narrowed.Add(ords[j])
			}
		}
		sel = narrowed
		if sel.IsEmpty() {
			return nil, nil
		}
	}

	ords := sel.ToArray()
	out := make([][]string, len(ords))
	for j := range out {
		out[j] = make([]string, blk.cols)
	}
	for c := 0; c < blk.cols; c++ {
		if c == s.keyIdx {
			for j, ord := range ords {
				out[j][c] = keys[ord]
			}
			continue
		}
		vals, err := blk.gather(ords, c)
		if err != nil {
			return nil, err
		}
		for j := range out {
			out[j][c] = vals[j]
		}
	}
	return out, nil
}

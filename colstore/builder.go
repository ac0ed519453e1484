package colstore

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cathapult/codec"
	"cathapult/summary"
	"cathapult/tsv"
)

const (
	// DefaultBlockRows is the default number of rows per block.
	DefaultBlockRows = 8192

	// DefaultExt is the conventional store file extension.
	DefaultExt = ".colstore"
)

// DefaultPath returns the conventional store path for a summary source:
// the source path with .gz and .tsv suffixes stripped and DefaultExt added.
func DefaultPath(sourcePath string) string {
	base := strings.TrimSuffix(sourcePath, ".gz")
	base = strings.TrimSuffix(base, ".tsv")
	return base + DefaultExt
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Key resolves the filter-key column. When Key.Column is absent from
	// the source schema the key is derived from Key.DeriveFrom per record
	// and materialized as the last store column.
	Key summary.KeySpec

	// Columns treats the source as headerless with this schema.
	Columns []string

	// SniffColumns treats the source as headerless with this schema unless
	// its first record already carries it as a header (matched on the first
	// column name). Takes precedence over Columns. See tsv.NewSniffReader.
	SniffColumns []string

	// BlockRows caps rows per block. Defaults to DefaultBlockRows.
	BlockRows int

	// Compression selects the block compression algorithm.
	Compression Compression

	// FalsePositiveRate tunes the per-block key Bloom filters.
	// Defaults to 1%.
	FalsePositiveRate float64

	// Overwrite rebuilds an existing store instead of reusing it.
	Overwrite bool

	// Codec encodes the footer. Defaults to codec.Default.
	Codec codec.Codec
}

// BuildResult reports what Build produced or reused.
type BuildResult struct {
	Path    string
	Reused  bool // existing store kept because Overwrite was false
	Rows    uint64
	Blocks  uint64
	Bytes   int64
	Schema  []string
	Types   []string
	Derived bool
}

// Build creates a columnar store at storePath from the summary TSV at
// sourcePath. When storePath already exists and Overwrite is false, the
// existing store is validated and reused without reading the source.
//
// The store is staged in a temp file and renamed into place, so a failed
// build never damages an existing store and concurrent readers keep seeing
// a complete file.
func Build(ctx context.Context, sourcePath, storePath string, optFns ...func(*BuildOptions)) (*BuildResult, error) {
	opts, comp, cdc, err := resolveBuildOptions(optFns)
	if err != nil {
		return nil, err
	}
	if res, err := reuseExisting(storePath, cdc, opts.Overwrite); err != nil || res != nil {
		return res, err
	}

	src, err := tsv.Open(sourcePath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return build(ctx, src, filepath.Base(sourcePath), storePath, opts, comp, cdc)
}

// BuildFrom is Build over an already-open stream, for sources that are not
// local files, such as object-store blobs. The stream must be decompressed
// (see tsv.Decompress) and is not closed; sourceName is recorded in the
// store footer. When an existing store is reused the stream is not read.
func BuildFrom(ctx context.Context, src io.Reader, sourceName, storePath string, optFns ...func(*BuildOptions)) (*BuildResult, error) {
	opts, comp, cdc, err := resolveBuildOptions(optFns)
	if err != nil {
		return nil, err
	}
	if res, err := reuseExisting(storePath, cdc, opts.Overwrite); err != nil || res != nil {
		return res, err
	}
	return build(ctx, src, sourceName, storePath, opts, comp, cdc)
}

func resolveBuildOptions(optFns []func(*BuildOptions)) (BuildOptions, Compression, codec.Codec, error) {
	opts := BuildOptions{
		BlockRows: DefaultBlockRows,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Key.Column == "" {
		return opts, 0, nil, ErrNoKey
	}
	if opts.BlockRows <= 0 {
		opts.BlockRows = DefaultBlockRows
	}
	comp := opts.Compression
	if comp == CompressionDefault {
		comp = CompressionZSTD
	}
	if comp != CompressionZSTD && comp != CompressionLZ4 && comp != CompressionNone {
		return opts, 0, nil, fmt.Errorf("colstore: unsupported compression type: %d", comp)
	}
	cdc := opts.Codec
	if cdc == nil {
		cdc = codec.Default
	}
	return opts, comp, cdc, nil
}

// reuseExisting validates and reports an existing store, or returns
// (nil, nil) when a build is needed.
func reuseExisting(storePath string, cdc codec.Codec, overwrite bool) (*BuildResult, error) {
	if overwrite {
		return nil, nil
	}
	fi, err := os.Stat(storePath)
	if err != nil {
		return nil, nil
	}
	s, err := Open(storePath, func(o *OpenOptions) { o.Codec = cdc })
	if err != nil {
		return nil, fmt.Errorf("existing store %s: %w", storePath, err)
	}
	defer s.Close()
	return &BuildResult{
		Path:    storePath,
		Reused:  true,
		Rows:    s.RowCount(),
		Blocks:  s.BlockCount(),
		Bytes:   fi.Size(),
		Schema:  s.Schema(),
		Types:   s.Types(),
		Derived: s.Derived(),
	}, nil
}

func build(ctx context.Context, src io.Reader, sourceName, storePath string, opts BuildOptions, comp Compression, cdc codec.Codec) (*BuildResult, error) {
	var r *tsv.Reader
	var err error
	if opts.SniffColumns != nil {
		r, err = tsv.NewSniffReader(src, opts.SniffColumns)
	} else {
		r, err = tsv.NewReader(src, opts.Columns)
	}
	if err != nil {
		return nil, err
	}
	bp, err := summary.Predicate{}.Bind(r.Header(), opts.Key)
	if err != nil {
		return nil, err
	}
	derived := bp.Appends()
	schema := append([]string(nil), r.Header()...)
	if derived {
		schema = append(schema, opts.Key.Column)
	}
	cols := len(schema)

	dir := filepath.Dir(storePath)
	tmpFile, err := os.CreateTemp(dir, filepath.Base(storePath)+".tmp.*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmpFile.Name()

	// Clean up the temp file on any failure
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriterSize(tmpFile, 1<<20)

	// The header is patched in place after the last section lands; a
	// zeroed placeholder keeps the write path single-pass.
	if _, err := bw.Write(make([]byte, HeaderSize)); err != nil {
		return nil, fmt.Errorf("write header placeholder: %w", err)
	}
	offset := int64(HeaderSize)

	var (
		rows           = make([][]string, 0, opts.BlockRows)
		distinct       = make(map[string]struct{}, opts.BlockRows)
		minKey, maxKey string
		metas          []blockMeta
		kinds          []uint8
		total          uint64
	)

	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		data, blockKinds := encodeBlock(rows, cols)
		if kinds == nil {
			kinds = blockKinds
		} else {
			for i := range kinds {
				kinds[i] = widenKind(kinds[i], blockKinds[i])
			}
		}
		section, err := compressSection(data, comp)
		if err != nil {
			return err
		}
		meta := blockMeta{
			Offset: offset,
			Length: uint32(len(section)),
			Rows:   uint32(len(rows)),
			MinKey: minKey,
			MaxKey: maxKey,
			CRC:    crc32.ChecksumIEEE(section),
		}
		if _, err := bw.Write(section); err != nil {
			return fmt.Errorf("write block: %w", err)
		}
		offset += int64(len(section))

		numBits, k := BloomFilterSize(len(distinct), opts.FalsePositiveRate)
		bf := NewBloomFilter(numBits, k)
		for key := range distinct {
			bf.Add(key)
		}
		meta.BloomOff = offset
		n, err := bf.WriteTo(bw)
		if err != nil {
			return fmt.Errorf("write bloom filter: %w", err)
		}
		meta.BloomLen = uint32(n)
		offset += n

		metas = append(metas, meta)
		rows = rows[:0]
		clear(distinct)
		return nil
	}

	for r.Next() {
		if total&0x0fff == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields := r.Row()
		key := bp.Key(fields)
		if derived {
			fields = append(fields, key)
		}
		if len(rows) == 0 {
			minKey, maxKey = key, key
		} else {
			if key < minKey {
				minKey = key
			}
			if key > maxKey {
				maxKey = key
			}
		}
		rows = append(rows, fields)
		distinct[key] = struct{}{}
		total++
		if len(rows) >= opts.BlockRows {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	types := make([]string, cols)
	for i := range types {
		if kinds == nil {
			types[i] = kindName(kindText)
		} else {
			types[i] = kindName(kinds[i])
		}
	}

	foot := footer{
		Schema:  schema,
		Types:   types,
		Key:     opts.Key.Column,
		Derived: derived,
		Source:  sourceName,
		Codec:   cdc.Name(),
		Blocks:  metas,
	}
	rawFoot, err := cdc.Marshal(foot)
	if err != nil {
		return nil, fmt.Errorf("encode footer: %w", err)
	}
	footSection, err := compressSection(rawFoot, comp)
	if err != nil {
		return nil, err
	}
	footOff := offset
	if _, err := bw.Write(footSection); err != nil {
		return nil, fmt.Errorf("write footer: %w", err)
	}
	offset += int64(len(footSection))

	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush store: %w", err)
	}

	hdr := FileHeader{
		Magic:      FormatMagic,
		Version:    FormatVersion,
		Codec:      uint32(comp),
		RowCount:   total,
		BlockCount: uint64(len(metas)),
		FooterOff:  uint64(footOff),
		FooterLen:  uint64(len(footSection)),
		FooterCRC:  crc32.ChecksumIEEE(footSection),
	}
	if derived {
		hdr.Flags |= FlagDerivedKey
	}
	var hb bytes.Buffer
	if _, err := hdr.WriteTo(&hb); err != nil {
		return nil, err
	}
	if _, err := tmpFile.WriteAt(hb.Bytes(), 0); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return nil, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		tmpFile = nil
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	tmpFile = nil
	if err := os.Rename(tmpName, storePath); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("rename temp file: %w", err)
	}
	// Best-effort directory sync so the rename itself is durable
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	return &BuildResult{
		Path:    storePath,
		Rows:    total,
		Blocks:  uint64(len(metas)),
		Bytes:   offset,
		Schema:  schema,
		Types:   types,
		Derived: derived,
	}, nil
}

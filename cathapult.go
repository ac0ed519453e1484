package cathapult

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"cathapult/blobstore"
	"cathapult/blobstore/minio"
	"cathapult/blobstore/s3"
	"cathapult/cathref"
	"cathapult/codec"
	"cathapult/colstore"
	"cathapult/summary"
	"cathapult/ted"
	"cathapult/tsv"
)

// Version is the cathapult release version.
const Version = "0.4.0"

// Cathapult binds the TED dataset conventions to the generic store,
// scanner, blob and API layers, so library callers and the CLI share one
// set of defaults: the uniprot_acc key derived from ted_id, headerless
// bulk schemas recognized by sniffing, and sources addressable by path or
// object-store reference.
type Cathapult struct {
	logger  *Logger
	metrics Collector
	codec   codec.Codec
	client  *ted.Client
}

// New returns a facade with TED conventions applied.
func New(optFns ...Option) *Cathapult {
	opts := applyOptions(optFns)
	client := opts.client
	if client == nil {
		client = ted.NewClient()
	}
	return &Cathapult{
		logger:  opts.logger,
		metrics: opts.metrics,
		codec:   opts.codec,
		client:  client,
	}
}

// Result is a filtered set of summary records: the output schema and the
// matching rows in source order. Both query paths produce identical
// results for the same predicate.
type Result struct {
	Header []string
	Rows   [][]string
}

// WriteTSV writes the result with its header to path. A ".gz" path is
// gzip-compressed, "-" writes to stdout.
func (r *Result) WriteTSV(path string) (err error) {
	wc, err := tsv.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := tsv.NewWriter(wc)
	if err := w.Write(r.Header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadResult loads a headered TSV, such as one written by Result.WriteTSV.
func ReadResult(path string) (*Result, error) {
	rc, err := tsv.Open(path)
	if err != nil {
		return nil, translateError(err)
	}
	defer rc.Close()

	r, err := tsv.NewReader(rc, nil)
	if err != nil {
		return nil, translateError(err)
	}
	res := &Result{Header: r.Header()}
	for r.Next() {
		res.Rows = append(res.Rows, r.Row())
	}
	if err := r.Err(); err != nil {
		return nil, translateError(err)
	}
	return res, nil
}

// BuildStore builds (or reuses) a columnar store for a summary source.
// TED defaults are applied before optFns run, so callers only override
// what differs. source may be a local path or an object-store reference;
// storePath defaults to the source base name with the .colstore extension,
// placed next to a local source or in the working directory for a remote
// one.
func (c *Cathapult) BuildStore(ctx context.Context, source, storePath string, optFns ...func(*colstore.BuildOptions)) (*colstore.BuildResult, error) {
	ref, err := blobstore.ParseRef(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if storePath == "" {
		if ref.Remote() {
			storePath = colstore.DefaultPath(ref.Base())
		} else {
			storePath = colstore.DefaultPath(ref.Path)
		}
	}

	start := time.Now()
	var res *colstore.BuildResult
	if ref.Remote() {
		var rc io.ReadCloser
		rc, err = c.openSource(ctx, ref)
		if err == nil {
			res, err = colstore.BuildFrom(ctx, rc, ref.Base(), storePath, c.buildOptions(optFns))
			if cerr := rc.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	} else {
		res, err = colstore.Build(ctx, ref.Path, storePath, c.buildOptions(optFns))
	}
	err = translateError(err)

	var rows uint64
	var reused bool
	if res != nil {
		rows, reused = res.Rows, res.Reused
	}
	c.metrics.RecordBuild(time.Since(start), rows, reused, err)
	c.logger.LogBuild(ctx, source, storePath, res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// buildOptions layers TED defaults under caller options.
func (c *Cathapult) buildOptions(optFns []func(*colstore.BuildOptions)) func(*colstore.BuildOptions) {
	return func(o *colstore.BuildOptions) {
		o.Key = ted.Key()
		o.SniffColumns = ted.SummaryColumns
		o.Codec = c.codec
		for _, fn := range optFns {
			if fn != nil {
				fn(o)
			}
		}
	}
}

// QueryStore answers pred from a built store, pruning blocks by key range
// and Bloom filter before decoding. The result header is the store schema,
// including the materialized key column of derived-key stores. A keyword
// without a named column matches against ted.DefaultKeywordColumn.
func (c *Cathapult) QueryStore(ctx context.Context, storePath string, pred summary.Predicate) (*Result, error) {
	pred = withPredicateDefaults(pred)
	start := time.Now()
	st, err := colstore.Open(storePath, func(o *colstore.OpenOptions) { o.Codec = c.codec })
	if err != nil {
		return nil, c.queryFailed(ctx, storePath, start, err)
	}
	defer st.Close()

	rows, err := st.Query(ctx, pred)
	if err != nil {
		return nil, c.queryFailed(ctx, storePath, start, err)
	}
	defer rows.Close()

	res := &Result{Header: st.Schema()}
	for rows.Next() {
		res.Rows = append(res.Rows, rows.Row())
	}
	stats := rows.Stats()
	if err := rows.Err(); err != nil {
		return nil, c.queryFailed(ctx, storePath, start, err)
	}

	c.metrics.RecordQuery(time.Since(start), stats, nil)
	c.logger.LogQuery(ctx, storePath, stats, nil)
	return res, nil
}

func (c *Cathapult) queryFailed(ctx context.Context, storePath string, start time.Time, err error) error {
	err = translateError(err)
	c.metrics.RecordQuery(time.Since(start), colstore.QueryStats{}, err)
	c.logger.LogQuery(ctx, storePath, colstore.QueryStats{}, err)
	return err
}

// FilterStream answers pred by scanning the raw source, local or remote,
// without building anything. It returns the same rows QueryStore returns
// from a store built over the same source.
func (c *Cathapult) FilterStream(ctx context.Context, source string, pred summary.Predicate) (*Result, error) {
	pred = withPredicateDefaults(pred)
	ref, err := blobstore.ParseRef(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	start := time.Now()
	rc, err := c.openSource(ctx, ref)
	if err != nil {
		return nil, c.streamFailed(ctx, source, start, err)
	}
	sc, err := summary.NewScannerFrom(ctx, rc, ted.Key(), pred, summary.StreamOptions{
		SniffColumns: ted.SummaryColumns,
	})
	if err != nil {
		// NewScannerFrom closes rc on error.
		return nil, c.streamFailed(ctx, source, start, err)
	}
	defer sc.Close()

	res := &Result{Header: sc.Header()}
	for sc.Next() {
		res.Rows = append(res.Rows, sc.Row())
	}
	stats := sc.Stats()
	if err := sc.Err(); err != nil {
		return nil, c.streamFailed(ctx, source, start, err)
	}

	c.metrics.RecordStream(time.Since(start), stats, nil)
	c.logger.LogStream(ctx, source, stats, nil)
	return res, nil
}

// withPredicateDefaults fills the keyword column when a keyword was given
// without naming one.
func withPredicateDefaults(pred summary.Predicate) summary.Predicate {
	if pred.Keyword != "" && pred.KeywordColumn == "" {
		pred.KeywordColumn = ted.DefaultKeywordColumn
	}
	return pred
}

func (c *Cathapult) streamFailed(ctx context.Context, source string, start time.Time, err error) error {
	err = translateError(err)
	c.metrics.RecordStream(time.Since(start), summary.StreamStats{}, err)
	c.logger.LogStream(ctx, source, summary.StreamStats{}, err)
	return err
}

// Fetch retrieves domain summaries for each accession with at most
// concurrency requests in flight. Per-accession failures are reported in
// the results, not as the error; the error is non-nil only when the whole
// batch aborts.
func (c *Cathapult) Fetch(ctx context.Context, ids []string, concurrency int) ([]ted.FetchResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no accessions to fetch", ErrValidation)
	}

	start := time.Now()
	results, err := c.client.FetchBatch(ctx, ids, concurrency)
	err = translateError(err)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	c.metrics.RecordFetch(time.Since(start), len(ids), failed, err)
	c.logger.LogFetch(ctx, len(ids), failed, err)
	return results, err
}

// Mirror copies the blob behind rawRef to the local path dest, staging
// through a temp file so dest is never half-written. dest defaults to the
// ref base name in the working directory.
func (c *Cathapult) Mirror(ctx context.Context, rawRef, dest string) (int64, error) {
	ref, err := blobstore.ParseRef(rawRef)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if dest == "" {
		dest = ref.Base()
	}
	store, name, err := openRef(ctx, ref)
	if err != nil {
		return 0, translateError(err)
	}

	start := time.Now()
	n, err := blobstore.Download(ctx, store, name, dest)
	err = translateError(err)
	c.metrics.RecordDownload(time.Since(start), n, err)
	c.logger.LogDownload(ctx, rawRef, dest, n, err)
	return n, err
}

// LoadReference loads the CATH reference tables used for annotation from
// dir (cath-names.txt and cath-superfamily-list.txt).
func (c *Cathapult) LoadReference(dir string) (*cathref.Table, error) {
	t, err := cathref.Load(dir)
	if err != nil {
		return nil, translateError(err)
	}
	names, supers := t.Counts()
	c.logger.Debug("reference tables loaded", "dir", dir, "names", names, "superfamilies", supers)
	return t, nil
}

// openSource resolves a parsed reference to a decompressed record stream.
func (c *Cathapult) openSource(ctx context.Context, ref blobstore.Ref) (io.ReadCloser, error) {
	store, name, err := openRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return tsv.Decompress(blob)
}

// openRef maps a parsed reference onto a blob store and blob name.
// Credentials and regions come from the ambient environment (AWS config
// chain, MINIO_ACCESS_KEY/MINIO_SECRET_KEY).
func openRef(ctx context.Context, ref blobstore.Ref) (blobstore.Store, string, error) {
	switch ref.Scheme {
	case "s3":
		st, err := s3.New(ctx, ref.Bucket)
		if err != nil {
			return nil, "", err
		}
		return st, ref.Key, nil
	case "minio":
		st, err := minio.New(ref.Endpoint, ref.Bucket)
		if err != nil {
			return nil, "", err
		}
		return st, ref.Key, nil
	default:
		return blobstore.NewLocal(filepath.Dir(ref.Path)), filepath.Base(ref.Path), nil
	}
}

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cathapult"
	"cathapult/analyze"
	"cathapult/cathref"
	"cathapult/colstore"
	"cathapult/enrich"
	"cathapult/internal/cli"
	"cathapult/summary"
	"cathapult/ted"
	"cathapult/tsv"
)

func runFetch(ctx context.Context, c *cathapult.Cathapult, opt cli.FetchOptions, out, stderr io.Writer) int {
	ids, err := readIDs(opt.IDsFile)
	if err != nil {
		return fail(stderr, err)
	}

	results, err := c.Fetch(ctx, ids, opt.Concurrency)
	if err != nil {
		return fail(stderr, err)
	}

	var summaries []ted.Summary
	var failures []string
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", r.ID, r.Err))
			continue
		}
		summaries = append(summaries, r.Summaries...)
	}

	res := &cathapult.Result{Header: ted.SummaryColumns, Rows: ted.Records(summaries)}
	if err := writeResult(res, opt.Output, out); err != nil {
		return fail(stderr, err)
	}
	if opt.Output != "-" {
		fmt.Fprintf(out, "fetched %d domains for %d of %d accessions, saved to %s\n",
			len(summaries), len(ids)-len(failures), len(ids), opt.Output)
	}

	if len(failures) > 0 {
		fmt.Fprintf(stderr, "%d of %d accessions failed:\n", len(failures), len(ids))
		for _, f := range failures {
			fmt.Fprintf(stderr, "  %s\n", f)
		}
		if len(failures) == len(ids) {
			return exitError
		}
	}
	return exitOK
}

func runSetupDB(ctx context.Context, c *cathapult.Cathapult, opt cli.SetupDBOptions, out, stderr io.Writer) int {
	res, err := c.BuildStore(ctx, opt.Source, opt.DB, func(o *colstore.BuildOptions) {
		o.Overwrite = opt.Overwrite
		o.Compression = opt.Codec
		if opt.BlockRows > 0 {
			o.BlockRows = opt.BlockRows
		}
		if opt.KeyColumn != ted.KeyColumn {
			o.Key = summary.KeySpec{Column: opt.KeyColumn}
		}
	})
	if err != nil {
		return fail(stderr, err)
	}
	if res.Reused {
		fmt.Fprintf(out, "store %s is up to date: %d rows in %d blocks\n", res.Path, res.Rows, res.Blocks)
	} else {
		fmt.Fprintf(out, "built %s: %d rows in %d blocks, %d bytes\n", res.Path, res.Rows, res.Blocks, res.Bytes)
	}
	return exitOK
}

func runQuery(ctx context.Context, c *cathapult.Cathapult, opt cli.QueryOptions, out, stderr io.Writer) int {
	pred, err := predicate(opt.Selection)
	if err != nil {
		return fail(stderr, err)
	}
	res, err := c.QueryStore(ctx, opt.Store, pred)
	if err != nil {
		return fail(stderr, err)
	}
	return emit(res, opt.Output, out, stderr)
}

func runFilter(ctx context.Context, c *cathapult.Cathapult, opt cli.FilterOptions, out, stderr io.Writer) int {
	pred, err := predicate(opt.Selection)
	if err != nil {
		return fail(stderr, err)
	}
	res, err := c.FilterStream(ctx, opt.Source, pred)
	if err != nil {
		return fail(stderr, err)
	}
	return emit(res, opt.Output, out, stderr)
}

func runAnalyze(c *cathapult.Cathapult, opt cli.AnalyzeOptions, out, stderr io.Writer) int {
	in, err := cathapult.ReadResult(opt.Input)
	if err != nil {
		return fail(stderr, err)
	}
	table, err := loadTable(c, opt.DataDir)
	if err != nil {
		return fail(stderr, err)
	}
	counts, err := analyze.Counts(in.Header, in.Rows, table)
	if err != nil {
		return fail(stderr, err)
	}

	if opt.Output == "-" {
		if err := analyze.Write(out, counts); err != nil {
			return fail(stderr, err)
		}
		return exitOK
	}
	if err := analyze.WriteFile(opt.Output, counts); err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(out, "wrote %d counts to %s\n", len(counts), opt.Output)
	return exitOK
}

func runOddsRatio(c *cathapult.Cathapult, opt cli.OddsRatioOptions, out, stderr io.Writer) int {
	g1, err := cathapult.ReadResult(opt.Group1)
	if err != nil {
		return fail(stderr, err)
	}
	g2, err := cathapult.ReadResult(opt.Group2)
	if err != nil {
		return fail(stderr, err)
	}
	table, err := loadTable(c, opt.DataDir)
	if err != nil {
		return fail(stderr, err)
	}

	results, err := enrich.OddsRatios(
		enrich.Group{Header: g1.Header, Rows: g1.Rows},
		enrich.Group{Header: g2.Header, Rows: g2.Rows},
		enrich.Options{UniqueFeatures: opt.UniqueFeatures, Table: table},
	)
	if err != nil {
		return fail(stderr, err)
	}

	if opt.Output == "-" {
		if err := enrich.Write(out, results); err != nil {
			return fail(stderr, err)
		}
	} else {
		if err := enrich.WriteFile(opt.Output, results); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(out, "scored %d features, wrote %s\n", len(results), opt.Output)
	}

	if opt.Plot != "" {
		if err := enrich.WriteForestFile(opt.Plot, results, opt.Alpha); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(out, "plot written to %s\n", opt.Plot)
	}
	return exitOK
}

func runMirror(ctx context.Context, c *cathapult.Cathapult, opt cli.MirrorOptions, out, stderr io.Writer) int {
	n, err := c.Mirror(ctx, opt.Ref, opt.Dest)
	if err != nil {
		return fail(stderr, err)
	}
	if opt.Dest != "" {
		fmt.Fprintf(out, "mirrored %s to %s: %d bytes\n", opt.Ref, opt.Dest, n)
	} else {
		fmt.Fprintf(out, "mirrored %s: %d bytes\n", opt.Ref, n)
	}
	return exitOK
}

// fail reports an operational error. Validation failures count as usage
// errors; everything else exits 1.
func fail(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, err)
	if errors.Is(err, cathapult.ErrValidation) {
		return exitUsage
	}
	return exitError
}

// readIDs loads accessions from a file, one per line, blank lines and
// surrounding whitespace ignored.
func readIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no accessions in %s", path)
	}
	return ids, nil
}

// predicate assembles the selection flags into a summary.Predicate,
// merging --id values with the --ids file.
func predicate(sel cli.Selection) (summary.Predicate, error) {
	ids := append([]string(nil), sel.IDs...)
	if sel.IDsFile != "" {
		fromFile, err := readIDs(sel.IDsFile)
		if err != nil {
			return summary.Predicate{}, err
		}
		ids = append(ids, fromFile...)
	}
	return summary.Predicate{
		IDs:           ids,
		Keyword:       sel.Keyword,
		KeywordColumn: sel.KeywordColumn,
		Fold:          sel.FoldCase,
	}, nil
}

// loadTable loads the CATH reference tables, or returns nil when no data
// directory is configured so annotation is skipped.
func loadTable(c *cathapult.Cathapult, dir string) (*cathref.Table, error) {
	if dir == "" {
		return nil, nil
	}
	return c.LoadReference(dir)
}

// writeResult writes a result table to path, or through out when path
// is "-" so command output stays capturable.
func writeResult(res *cathapult.Result, path string, out io.Writer) error {
	if path == "" || path == "-" {
		w := tsv.NewWriter(out)
		if err := w.Write(res.Header); err != nil {
			return err
		}
		for _, row := range res.Rows {
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return w.Flush()
	}
	return res.WriteTSV(path)
}

// emit writes the result and reports the row count for file targets.
func emit(res *cathapult.Result, path string, out, stderr io.Writer) int {
	if err := writeResult(res, path, out); err != nil {
		return fail(stderr, err)
	}
	if path != "-" && path != "" {
		fmt.Fprintf(out, "wrote %d rows to %s\n", len(res.Rows), path)
	}
	return exitOK
}

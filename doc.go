// Package cathapult annotates proteins with their structural domains.
//
// It works with the TED (The Encyclopedia of Domains) consensus-domain
// dataset: per-protein summaries fetched from the public API, and bulk
// TSV downloads turned into a columnar store that answers accession
// queries without rescanning the file.
//
// # Quick Start
//
// Fetch summaries for a handful of proteins:
//
//	cp := cathapult.New()
//	results, err := cp.Fetch(ctx, []string{"P12345", "Q67890"}, 4)
//
// Build a store from a bulk download once, then query it:
//
//	res, err := cp.BuildStore(ctx, "ted_365m.domain_summary.tsv.gz", "")
//	out, err := cp.QueryStore(ctx, res.Path, summary.Predicate{
//	    IDs: []string{"P12345"},
//	})
//
// One-off filters skip the store and scan the file directly:
//
//	out, err := cp.FilterStream(ctx, "ted_365m.domain_summary.tsv.gz", pred)
//
// Both paths return identical rows for the same predicate; the store is
// purely an access-path optimization. Sources may be local paths or
// object-store references ("s3://bucket/key", "minio://host:9000/bucket/key").
//
// Downstream analysis lives in the analyze (per-level domain counting) and
// enrich (odds-ratio statistics, forest plot) packages; cathref loads the
// CATH names used to annotate both.
package cathapult

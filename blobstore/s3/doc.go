// Package s3 serves bulk-file blobs from Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "ted-mirror",
//	    s3.WithPrefix("bulk/"),
//	    s3.WithRegion("eu-west-1"),
//	)
//	blob, err := store.Open(ctx, "ted_365m.domain_summary.tsv.gz")
//
// Blobs stream with a single GetObject, so a multi-gigabyte summary file is
// scanned without ever being held in memory. Credentials and region fall
// back to the ambient AWS configuration chain.
package s3

// Package blobstore abstracts where bulk TED summary files live.
//
// A Store hands out read-only streaming blobs by name. The local filesystem
// and an in-memory map are built in; the s3 and minio subpackages cover
// object storage, so labs can mirror the multi-gigabyte consensus-domain
// files instead of shipping them to every machine.
//
// A Ref names a blob together with the store holding it:
//
//	/data/ted_365m.domain_summary.tsv.gz       local file
//	s3://ted-mirror/ted_365m.tsv.gz            S3 bucket and key
//	minio://nas:9000/ted/ted_365m.tsv.gz       MinIO endpoint, bucket, key
//
// Blobs stream sequentially. The consumers here scan or copy whole files,
// so there is no random access in the contract; a gzip blob is decompressed
// by the reader side (see tsv.Decompress).
package blobstore

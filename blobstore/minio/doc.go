// Package minio serves bulk-file blobs from MinIO and other S3-compatible
// object stores (Ceph, SeaweedFS, Garage).
//
// # Usage
//
//	store, err := minio.New("nas:9000", "ted",
//	    minio.WithCredentials("lab", "hunter2"),
//	)
//	blob, err := store.Open(ctx, "ted_365m.domain_summary.tsv.gz")
//
// Without explicit credentials the MINIO_ACCESS_KEY / MINIO_SECRET_KEY
// environment variables are used. Blobs stream; nothing is buffered beyond
// the transport.
package minio

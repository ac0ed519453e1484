package blobstore

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Ref locates a blob: a plain filesystem path, an S3 URL, or a MinIO URL.
type Ref struct {
	// Scheme is "s3", "minio", or "" for a local path.
	Scheme string

	// Endpoint is the MinIO host[:port]. Empty for other schemes.
	Endpoint string

	Bucket string
	Key    string

	// Path is the filesystem path of a local ref.
	Path string
}

// Remote reports whether the ref names an object-storage blob.
func (r Ref) Remote() bool { return r.Scheme != "" }

// Base returns the file name component of the ref.
func (r Ref) Base() string {
	if r.Remote() {
		return path.Base(r.Key)
	}
	return filepath.Base(r.Path)
}

func (r Ref) String() string {
	switch r.Scheme {
	case "s3":
		return "s3://" + r.Bucket + "/" + r.Key
	case "minio":
		return "minio://" + r.Endpoint + "/" + r.Bucket + "/" + r.Key
	}
	return r.Path
}

// ParseRef resolves a source reference of the form
//
//	s3://bucket/key
//	minio://endpoint/bucket/key
//
// Anything else is a local path.
func ParseRef(s string) (Ref, error) {
	switch {
	case strings.HasPrefix(s, "s3://"):
		rest := strings.TrimPrefix(s, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return Ref{}, fmt.Errorf("blobstore: malformed ref %q, want s3://bucket/key", s)
		}
		return Ref{Scheme: "s3", Bucket: bucket, Key: key}, nil

	case strings.HasPrefix(s, "minio://"):
		rest := strings.TrimPrefix(s, "minio://")
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return Ref{}, fmt.Errorf("blobstore: malformed ref %q, want minio://endpoint/bucket/key", s)
		}
		return Ref{Scheme: "minio", Endpoint: parts[0], Bucket: parts[1], Key: parts[2]}, nil
	}
	if s == "" {
		return Ref{}, errors.New("blobstore: empty ref")
	}
	return Ref{Path: s}, nil
}

package blobstore

import (
	"context"
	"os"
	"path/filepath"
)

// Local serves blobs from a directory tree.
type Local struct {
	root string
}

// NewLocal creates a store rooted at dir. Names are joined beneath it.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Open opens the named file. A missing file satisfies
// errors.Is(err, ErrNotFound).
func (s *Local) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &localBlob{File: f, size: info.Size()}, nil
}

type localBlob struct {
	*os.File
	size int64
}

func (b *localBlob) Size() int64 { return b.size }

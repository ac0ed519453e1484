package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	data := []byte("ted_id\tcath_label\n")
	store.Put("summary.tsv", data)
	data[0] = 'X' // the store must hold its own copy

	blob, err := store.Open(ctx, "summary.tsv")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(18), blob.Size())
	got, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, "ted_id\tcath_label\n", string(got))

	_, err = store.Open(ctx, "missing.tsv")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.tsv"), []byte("hello"), 0o644))

	store := NewLocal(dir)
	blob, err := store.Open(ctx, "summary.tsv")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(5), blob.Size())
	got, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = store.Open(ctx, "missing.tsv")
	assert.True(t, errors.Is(err, ErrNotFound))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Open(canceled, "summary.tsv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("s3://ted-mirror/bulk/summary.tsv.gz")
	require.NoError(t, err)
	assert.Equal(t, Ref{Scheme: "s3", Bucket: "ted-mirror", Key: "bulk/summary.tsv.gz"}, ref)
	assert.True(t, ref.Remote())
	assert.Equal(t, "summary.tsv.gz", ref.Base())
	assert.Equal(t, "s3://ted-mirror/bulk/summary.tsv.gz", ref.String())

	ref, err = ParseRef("minio://nas:9000/ted/summary.tsv.gz")
	require.NoError(t, err)
	assert.Equal(t, Ref{Scheme: "minio", Endpoint: "nas:9000", Bucket: "ted", Key: "summary.tsv.gz"}, ref)
	assert.Equal(t, "minio://nas:9000/ted/summary.tsv.gz", ref.String())

	ref, err = ParseRef("/data/summary.tsv")
	require.NoError(t, err)
	assert.False(t, ref.Remote())
	assert.Equal(t, "/data/summary.tsv", ref.Path)
	assert.Equal(t, "summary.tsv", ref.Base())
	assert.Equal(t, "/data/summary.tsv", ref.String())

	for _, bad := range []string{"", "s3://bucket", "s3://", "minio://nas:9000/bucket", "minio://"} {
		_, err := ParseRef(bad)
		assert.Error(t, err, "ref %q", bad)
	}
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	payload := []byte("ted_id\tcath_label\nAF-P12345-F1-TED01\t3.40.50.720\n")
	store.Put("summary.tsv", payload)

	dir := t.TempDir()
	dest := filepath.Join(dir, "summary.tsv")

	n, err := Download(ctx, store, "summary.tsv", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// No temp files left behind.
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestDownloadMissingBlob(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "summary.tsv")

	_, err := Download(context.Background(), NewMemory(), "summary.tsv", dest)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadCanceled(t *testing.T) {
	store := NewMemory()
	store.Put("summary.tsv", []byte("data"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	dest := filepath.Join(dir, "summary.tsv")
	_, err := Download(ctx, store, "summary.tsv", dest)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

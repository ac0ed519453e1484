package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cathapult/tsv"
)

func writeTSV(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	wc, err := tsv.Create(path)
	require.NoError(t, err)
	for _, l := range lines {
		_, err := wc.Write([]byte(l + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, wc.Close())
	return path
}

func collect(t *testing.T, s *Scanner) [][]string {
	t.Helper()
	var rows [][]string
	for s.Next() {
		rows = append(rows, s.Row())
	}
	require.NoError(t, s.Err())
	return rows
}

func TestScanner_FilterByIDSet(t *testing.T) {
	path := writeTSV(t, "summary.tsv",
		"uniprot_acc\tdomain",
		"P12345\tdomainA",
		"P12345\tdomainB",
		"Q67890\tdomainA",
	)

	s, err := NewScanner(context.Background(), path, testKey,
		Predicate{IDs: []string{"P12345"}}, StreamOptions{})
	require.NoError(t, err)
	defer s.Close()

	rows := collect(t, s)
	// Matching rows come back in original relative order.
	require.Equal(t, [][]string{
		{"P12345", "domainA"},
		{"P12345", "domainB"},
	}, rows)

	stats := s.Stats()
	assert.Equal(t, int64(3), stats.Records)
	assert.Equal(t, int64(2), stats.Matched)
}

func TestScanner_KeywordFilter(t *testing.T) {
	path := writeTSV(t, "summary.tsv",
		"uniprot_acc\tdomain",
		"P12345\tdomainA",
		"P12345\tdomainB",
		"Q67890\tdomainA",
	)

	s, err := NewScanner(context.Background(), path, testKey, Predicate{
		IDs:           []string{"P12345"},
		Keyword:       "B",
		KeywordColumn: "domain",
	}, StreamOptions{})
	require.NoError(t, err)
	defer s.Close()

	rows := collect(t, s)
	require.Equal(t, [][]string{{"P12345", "domainB"}}, rows)
}

func TestScanner_AbsentID(t *testing.T) {
	path := writeTSV(t, "summary.tsv",
		"uniprot_acc\tdomain",
		"P12345\tdomainA",
	)

	s, err := NewScanner(context.Background(), path, testKey,
		Predicate{IDs: []string{"Z99999"}}, StreamOptions{})
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, collect(t, s))
}

func TestScanner_EmptyIDSet(t *testing.T) {
	path := writeTSV(t, "summary.tsv",
		"uniprot_acc\tdomain",
		"P12345\tdomainA",
	)

	s, err := NewScanner(context.Background(), path, testKey, Predicate{}, StreamOptions{})
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, collect(t, s))
	assert.Equal(t, int64(0), s.Stats().Records)
}

func TestScanner_DerivedKeyAppended(t *testing.T) {
	path := writeTSV(t, "summary.tsv.gz",
		"ted_id\tcath_label",
		"AF-P12345-F1-TED01\t3.40.50.300",
		"AF-Q67890-F1-TED01\t1.10.8.10",
	)

	s, err := NewScanner(context.Background(), path, testKey,
		Predicate{IDs: []string{"P12345"}}, StreamOptions{})
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, []string{"ted_id", "cath_label", "uniprot_acc"}, s.Header())

	rows := collect(t, s)
	require.Equal(t, [][]string{
		{"AF-P12345-F1-TED01", "3.40.50.300", "P12345"},
	}, rows)
}

func TestScanner_HeaderlessSource(t *testing.T) {
	path := writeTSV(t, "summary.tsv",
		"AF-P12345-F1-TED01\t3.40.50.300",
		"AF-Q67890-F1-TED01\t1.10.8.10",
	)

	s, err := NewScanner(context.Background(), path, testKey,
		Predicate{IDs: []string{"Q67890"}},
		StreamOptions{Columns: []string{"ted_id", "cath_label"}})
	require.NoError(t, err)
	defer s.Close()

	rows := collect(t, s)
	require.Equal(t, [][]string{
		{"AF-Q67890-F1-TED01", "1.10.8.10", "Q67890"},
	}, rows)
}

func TestScanner_MissingSource(t *testing.T) {
	_, err := NewScanner(context.Background(),
		filepath.Join(t.TempDir(), "missing.tsv"), testKey,
		Predicate{IDs: []string{"P12345"}}, StreamOptions{})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestScanner_ContextCancellation(t *testing.T) {
	// Enough records that the batched context check fires mid-scan.
	lines := make([]string, 0, 10001)
	lines = append(lines, "uniprot_acc\tdomain")
	for i := 0; i < 10000; i++ {
		lines = append(lines, fmt.Sprintf("P%06d\tdomainA", i))
	}
	path := writeTSV(t, "big.tsv", lines...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewScanner(ctx, path, testKey,
		Predicate{IDs: []string{"nope"}}, StreamOptions{})
	require.NoError(t, err)
	defer s.Close()

	for s.Next() {
	}
	require.ErrorIs(t, s.Err(), context.Canceled)
}

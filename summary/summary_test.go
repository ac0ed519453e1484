package summary

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = KeySpec{
	Column:     "uniprot_acc",
	DeriveFrom: "ted_id",
	Pattern:    regexp.MustCompile(`AF-([A-Z0-9]+)`),
}

func TestKeySpec_Derive(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "alphafold id", in: "AF-P12345-F1-TED01", want: "P12345"},
		{name: "no match", in: "X-12345", want: ""},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testKey.Derive(tt.in))
		})
	}

	// Without a pattern the source value is the key.
	plain := KeySpec{Column: "id", DeriveFrom: "raw"}
	assert.Equal(t, "P12345", plain.Derive("P12345"))
}

func TestPredicate_Bind_NativeKey(t *testing.T) {
	schema := []string{"uniprot_acc", "cath_label", "tax_common_name"}

	bp, err := Predicate{IDs: []string{"P12345", "P12345", "Q67890"}}.Bind(schema, testKey)
	require.NoError(t, err)

	assert.False(t, bp.Appends())
	assert.False(t, bp.Empty())

	row := []string{"P12345", "3.40.50.300", "Human"}
	assert.Equal(t, "P12345", bp.Key(row))
	assert.True(t, bp.Match(row))
	assert.False(t, bp.Match([]string{"X00000", "1.10", "Mouse"}))

	// Duplicate IDs collapse to a set.
	assert.Equal(t, []string{"P12345", "Q67890"}, bp.SortedIDs())
}

func TestPredicate_Bind_DerivedKey(t *testing.T) {
	schema := []string{"ted_id", "cath_label"}

	bp, err := Predicate{IDs: []string{"P12345"}}.Bind(schema, testKey)
	require.NoError(t, err)

	assert.True(t, bp.Appends())

	row := []string{"AF-P12345-F1-TED01", "3.40.50.300"}
	assert.Equal(t, "P12345", bp.Key(row))
	assert.True(t, bp.Match(row))
	assert.False(t, bp.Match([]string{"AF-Q99999-F1-TED01", "3.40.50.300"}))
}

func TestPredicate_Bind_MissingColumns(t *testing.T) {
	// Neither the key column nor the derivation source exists.
	_, err := Predicate{IDs: []string{"P12345"}}.Bind([]string{"a", "b"}, testKey)
	var ce *ColumnError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ted_id", ce.Column)

	// Key column absent and no derivation configured.
	_, err = Predicate{IDs: []string{"P12345"}}.Bind([]string{"a"}, KeySpec{Column: "uniprot_acc"})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "uniprot_acc", ce.Column)

	// Keyword column absent.
	_, err = Predicate{
		IDs:           []string{"P12345"},
		Keyword:       "Human",
		KeywordColumn: "tax_common_name",
	}.Bind([]string{"uniprot_acc"}, testKey)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "tax_common_name", ce.Column)
}

func TestPredicate_Bind_KeywordWithoutColumn(t *testing.T) {
	_, err := Predicate{IDs: []string{"P12345"}, Keyword: "Human"}.
		Bind([]string{"uniprot_acc"}, testKey)
	require.ErrorIs(t, err, ErrNoKeywordColumn)
}

func TestPredicate_Keyword_CaseSensitivity(t *testing.T) {
	schema := []string{"uniprot_acc", "tax_common_name"}
	row := []string{"P12345", "Human (Homo sapiens)"}

	// Default containment is case-sensitive.
	bp, err := Predicate{
		IDs:           []string{"P12345"},
		Keyword:       "human",
		KeywordColumn: "tax_common_name",
	}.Bind(schema, testKey)
	require.NoError(t, err)
	assert.False(t, bp.Match(row))

	// Fold makes it case-insensitive.
	bp, err = Predicate{
		IDs:           []string{"P12345"},
		Keyword:       "human",
		KeywordColumn: "tax_common_name",
		Fold:          true,
	}.Bind(schema, testKey)
	require.NoError(t, err)
	assert.True(t, bp.Match(row))

	// Matching case always passes.
	bp, err = Predicate{
		IDs:           []string{"P12345"},
		Keyword:       "Human",
		KeywordColumn: "tax_common_name",
	}.Bind(schema, testKey)
	require.NoError(t, err)
	assert.True(t, bp.Match(row))
}

func TestPredicate_EmptyIDSet(t *testing.T) {
	bp, err := Predicate{}.Bind([]string{"uniprot_acc"}, testKey)
	require.NoError(t, err)

	assert.True(t, bp.Empty())
	assert.False(t, bp.Match([]string{"P12345"}))
}

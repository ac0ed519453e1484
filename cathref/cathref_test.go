package cathref

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNames = `# CATH names file
# FORMAT: node representative :name

1    1oaiA00    :Mainly Alpha
1.10    1oksA00    :Orthogonal Bundle
1.10.8    1gabA00    :Helix Hairpins
1.10.8.10    1oksA01    :Helicase, Ruva Protein; domain 3
1.10.8.10    9zzzZ99    :Duplicate That Must Lose
3    1ivoA02    :Alpha Beta
`

const testSupers = "# CATH_ID\tCount\tNAME\n" +
	"1.10.8.10\t41\tShadowed By Names File\n" +
	"3.40.50.720\t1755\tNAD(P)-binding Rossmann-like Domain\n" +
	"3.40.50.720\t1\tDuplicate Rossmann\n"

func writeRefDir(t *testing.T, names, supers string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, NamesFile), []byte(names), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SuperfamilyFile), []byte(supers), 0o644))
	return dir
}

func TestLoadAndName(t *testing.T) {
	tbl, err := Load(writeRefDir(t, testNames, testSupers))
	require.NoError(t, err)

	// The names file wins over both its own duplicate and the superfamily list.
	name, ok := tbl.Name("1.10.8.10")
	require.True(t, ok)
	assert.Equal(t, "Helicase, Ruva Protein; domain 3", name)

	// Superfamily fallback, first occurrence wins.
	name, ok = tbl.Name("3.40.50.720")
	require.True(t, ok)
	assert.Equal(t, "NAD(P)-binding Rossmann-like Domain", name)

	_, ok = tbl.Name("2.60.40.10")
	assert.False(t, ok)

	names, supers := tbl.Counts()
	assert.Equal(t, 5, names)
	assert.Equal(t, 2, supers)
}

func TestClass(t *testing.T) {
	tbl, err := Load(writeRefDir(t, testNames, testSupers))
	require.NoError(t, err)

	class, ok := tbl.Class("1.10.8.10")
	require.True(t, ok)
	assert.Equal(t, "Mainly Alpha", class)

	class, ok = tbl.Class("3")
	require.True(t, ok)
	assert.Equal(t, "Alpha Beta", class)

	_, ok = tbl.Class("9.10.20.30")
	assert.False(t, ok)

	_, ok = tbl.Class("")
	assert.False(t, ok)
}

func TestNamesSkipsNonEntries(t *testing.T) {
	names := "# comment\n\nno colon on this line\n1    1oaiA00    :Mainly Alpha\n"
	tbl, err := Load(writeRefDir(t, names, testSupers))
	require.NoError(t, err)

	n, _ := tbl.Counts()
	assert.Equal(t, 1, n)
}

func TestNamesParseError(t *testing.T) {
	names := "1    1oaiA00    :Mainly Alpha\nbogus :entry with a single token\n"
	_, err := Load(writeRefDir(t, names, testSupers))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
	assert.Contains(t, perr.Text, "bogus")
}

func TestSuperfamilyMissingColumn(t *testing.T) {
	_, err := Load(writeRefDir(t, testNames, "CATH_ID\tNAME\n1.10.8.10\tX\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "# CATH_ID")
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

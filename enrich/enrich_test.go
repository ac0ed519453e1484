package enrich

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cathapult/cathref"
	"cathapult/summary"
)

var groupHeader = []string{"uniprot_acc", "cath_label", "nres_domain"}

func refTable(t *testing.T) *cathref.Table {
	t.Helper()
	dir := t.TempDir()
	names := "1.10.8.10    1oksA01    :Helicase, Ruva Protein; domain 3\n"
	supers := "# CATH_ID\tCount\tNAME\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, cathref.NamesFile), []byte(names), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, cathref.SuperfamilyFile), []byte(supers), 0o644))
	tbl, err := cathref.Load(dir)
	require.NoError(t, err)
	return tbl
}

func TestOddsRatios(t *testing.T) {
	group1 := Group{Header: groupHeader, Rows: [][]string{
		{"X1", "1.10.8.10", "50"},
		{"X2", "-", "10"},
	}}
	group2 := Group{Header: groupHeader, Rows: [][]string{
		{"Y1", "3.40.50.720", "80"},
		{"Y2", "1.10.8.10", "60"},
	}}

	results, err := OddsRatios(group1, group2, Options{Table: refTable(t)})
	require.NoError(t, err)
	require.Len(t, results, 8)

	var features []string
	for _, r := range results {
		features = append(features, r.Feature)
	}
	assert.Equal(t, []string{
		"1", "1.10", "1.10.8", "1.10.8.10",
		"3", "3.40", "3.40.50", "3.40.50.720",
	}, features)

	// Every "1" prefix sits in both groups: a=1 b=1 c=1 d=1.
	r := results[0]
	assert.Equal(t, 1, r.Grp1Count)
	assert.Equal(t, 1, r.Grp1Rest)
	assert.Equal(t, 1, r.Grp2Count)
	assert.Equal(t, 1, r.Grp2Rest)
	assert.Equal(t, 1.0, r.OddsRatio)
	assert.Equal(t, 0.0, r.Log2OR)
	assert.InDelta(t, 1.0, r.PValue, 1e-12)
	assert.InDelta(t, 1.0, r.PAdjusted, 1e-12)
	assert.InDelta(t, -5.65536, r.CILower, 1e-4)
	assert.InDelta(t, 5.65536, r.CIUpper, 1e-4)
	assert.Empty(t, r.Name)

	// The "3" prefixes only occur in group 2: a=0 b=2 c=1 d=1.
	r = results[4]
	assert.Equal(t, "3", r.Feature)
	assert.Equal(t, 0, r.Grp1Count)
	assert.Equal(t, 2, r.Grp1Rest)
	assert.Equal(t, 1, r.Grp2Count)
	assert.Equal(t, 1, r.Grp2Rest)
	assert.Equal(t, 0.0, r.OddsRatio)
	assert.True(t, math.IsInf(r.Log2OR, -1))
	assert.True(t, math.IsNaN(r.CILower))
	assert.True(t, math.IsNaN(r.CIUpper))
	assert.InDelta(t, 1.0, r.PValue, 1e-12)
	assert.Equal(t, 0.0, r.Grp1Odds)
	assert.Equal(t, 1.0, r.Grp2Odds)

	// Annotation reaches the named node only.
	assert.Equal(t, "Helicase, Ruva Protein; domain 3", results[3].Name)
	assert.Empty(t, results[7].Name)
}

func TestOddsRatiosPinnedTable(t *testing.T) {
	// Eight of ten group-1 rows carry the label against one of six in
	// group 2, giving [[8 2] [1 5]] at every level.
	var rows1, rows2 [][]string
	for i := 0; i < 8; i++ {
		rows1 = append(rows1, []string{"A1", "9.10.20.30", "1"})
	}
	rows1 = append(rows1, []string{"A2", "-", "1"}, []string{"A3", "-", "1"})
	rows2 = append(rows2, []string{"B1", "9.10.20.30", "1"})
	for i := 0; i < 5; i++ {
		rows2 = append(rows2, []string{"B2", "-", "1"})
	}

	results, err := OddsRatios(Group{Header: groupHeader, Rows: rows1}, Group{Header: groupHeader, Rows: rows2}, Options{})
	require.NoError(t, err)
	require.Len(t, results, 4)

	for _, r := range results {
		assert.Equal(t, 8, r.Grp1Count)
		assert.Equal(t, 2, r.Grp1Rest)
		assert.Equal(t, 1, r.Grp2Count)
		assert.Equal(t, 5, r.Grp2Rest)
		assert.Equal(t, 20.0, r.OddsRatio)
		assert.InDelta(t, math.Log2(20), r.Log2OR, 1e-12)
		assert.InDelta(t, 400.0/11440.0, r.PValue, 1e-12)
		assert.InDelta(t, r.PValue, r.PAdjusted, 1e-12) // four identical p-values
		assert.InDelta(t, 0.50194, r.CILower, 1e-4)
		assert.InDelta(t, 8.14192, r.CIUpper, 1e-4)
		assert.Equal(t, 4.0, r.Grp1Odds)
		assert.InDelta(t, 0.2, r.Grp2Odds, 1e-15)
	}
}

func TestOddsRatiosUniqueFeatures(t *testing.T) {
	group1 := Group{Header: groupHeader, Rows: [][]string{
		{"X1", "1.10.8.10", "50"},
		{"X1", "1.10.8.10", "42"},
	}}
	group2 := Group{Header: groupHeader, Rows: [][]string{
		{"Y1", "3.40.50.720", "80"},
	}}

	results, err := OddsRatios(group1, group2, Options{})
	require.NoError(t, err)
	require.Equal(t, "1", results[0].Feature)
	assert.Equal(t, 2, results[0].Grp1Count)
	assert.Equal(t, 0, results[0].Grp1Rest)

	results, err = OddsRatios(group1, group2, Options{UniqueFeatures: true})
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Grp1Count)
	assert.Equal(t, 1, results[0].Grp1Rest)
}

func TestOddsRatiosOvercounted(t *testing.T) {
	// A one-part label is a feature at both the class and the full-label
	// level, so two such rows count it four times against two group rows.
	group1 := Group{Header: groupHeader, Rows: [][]string{
		{"X1", "3", "10"},
		{"X1", "3", "12"},
	}}
	group2 := Group{Header: groupHeader, Rows: [][]string{
		{"Y1", "1.10.8.10", "80"},
	}}

	_, err := OddsRatios(group1, group2, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique features")

	_, err = OddsRatios(group1, group2, Options{UniqueFeatures: true})
	require.NoError(t, err)
}

func TestOddsRatiosMissingColumn(t *testing.T) {
	var colErr *summary.ColumnError

	bad := Group{Header: []string{"cath_label"}, Rows: nil}
	good := Group{Header: groupHeader, Rows: nil}

	_, err := OddsRatios(bad, good, Options{})
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "uniprot_acc", colErr.Column)

	bad = Group{Header: []string{"uniprot_acc"}, Rows: nil}
	_, err = OddsRatios(good, bad, Options{})
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "cath_label", colErr.Column)
}

func TestOddsRatiosEmptyGroups(t *testing.T) {
	results, err := OddsRatios(Group{Header: groupHeader}, Group{Header: groupHeader}, Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestResultRecordAndWrite(t *testing.T) {
	results := []Result{
		{
			Feature: "3.40.50.720", Grp1Count: 8, Grp1Rest: 2, Grp2Count: 1, Grp2Rest: 5,
			Grp1Odds: 4, Grp2Odds: 0.2, OddsRatio: 20, Log2OR: math.Log2(20),
			PValue: 0.0349650349650349, PAdjusted: 0.0349650349650349,
			CILower: 0.50194, CIUpper: 8.14192, Name: "Rossmann-like",
		},
		{
			Feature: "2.60", Grp1Count: 0, Grp1Rest: 10, Grp2Count: 3, Grp2Rest: 3,
			Grp1Odds: 0, Grp2Odds: 1, OddsRatio: 0, Log2OR: math.Inf(-1),
			PValue: 0.25, PAdjusted: 0.25,
			CILower: math.NaN(), CIUpper: math.NaN(),
		},
	}

	var sb strings.Builder
	require.NoError(t, Write(&sb, results))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(Header, "\t"), lines[0])

	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, len(Header))
	assert.Equal(t, "3.40.50.720", fields[0])
	assert.Equal(t, "3.40.50.720", fields[12]) // domain column repeats the feature
	assert.Equal(t, "20", fields[7])
	assert.Equal(t, "Rossmann-like", fields[14])

	fields = strings.Split(lines[2], "\t")
	assert.Equal(t, "-inf", fields[8])
	assert.Equal(t, "", fields[10]) // NaN bounds render empty
	assert.Equal(t, "", fields[11])
}

func TestWriteForestSVG(t *testing.T) {
	results := []Result{
		{Feature: "3.40.50.720", Name: "Rossmann", Log2OR: 2, CILower: 1, CIUpper: 3, PValue: 0.001},
		{Feature: "1.10.8.10", Name: "Helicase & Ruva <domain>", Log2OR: -1, CILower: -2, CIUpper: 0.5, PValue: 0.9},
		{Feature: "2.60", Log2OR: math.Inf(-1), CILower: math.NaN(), CIUpper: math.NaN(), PValue: 0.01},
	}

	var sb strings.Builder
	require.NoError(t, WriteForestSVG(&sb, results, DefaultAlpha))
	svg := sb.String()

	assert.True(t, strings.HasPrefix(svg, "<svg xmlns="))
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
	assert.Equal(t, 2, strings.Count(svg, "<circle"), "undefined-interval feature must be dropped")
	assert.Equal(t, 1, strings.Count(svg, "#d62728"))
	assert.Contains(t, svg, `fill="grey"`)
	assert.Contains(t, svg, "3.40.50.720 Rossmann")
	assert.Contains(t, svg, "Helicase &amp; Ruva &lt;domain&gt;")
	assert.NotContains(t, svg, "2.60")
	assert.Contains(t, svg, "stroke-dasharray")
}

func TestWriteForestSVGAlphaIsStrict(t *testing.T) {
	results := []Result{
		{Feature: "1.10", Log2OR: 1, CILower: 0.5, CIUpper: 1.5, PValue: 0.05},
	}
	var sb strings.Builder
	require.NoError(t, WriteForestSVG(&sb, results, 0.05))
	assert.NotContains(t, sb.String(), "#d62728")
}

func TestWriteForestSVGNothingToPlot(t *testing.T) {
	results := []Result{
		{Feature: "1.10", Log2OR: math.Inf(1), CILower: math.NaN(), CIUpper: math.NaN(), PValue: 0.01},
	}
	var sb strings.Builder
	require.Error(t, WriteForestSVG(&sb, results, DefaultAlpha))
}

func TestWriteForestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forest.svg")
	results := []Result{
		{Feature: "3.40", Log2OR: 1, CILower: 0.2, CIUpper: 1.8, PValue: 0.01},
	}
	require.NoError(t, WriteForestFile(path, results, DefaultAlpha))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg"))
}

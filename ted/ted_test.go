package ted

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cathapult/tsv"
)

func TestAccession(t *testing.T) {
	tests := []struct {
		tedID string
		want  string
	}{
		{"AF-P12345-F1-TED01", "P12345"},
		{"AF-A0A0A0A0A0-F1-TED03", "A0A0A0A0A0"},
		{"not-a-ted-id", ""},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Accession(tc.tedID), "tedID %q", tc.tedID)
	}
}

func TestGene(t *testing.T) {
	tests := []struct {
		tedID string
		want  string
	}{
		{"AF-P12345-F1-TED01", "P12345"},
		{"AF-Q67890-F1-TED02", "Q67890"},
		{"P12345", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Gene(tc.tedID), "tedID %q", tc.tedID)
	}
}

func TestKeySpec(t *testing.T) {
	spec := Key()
	assert.Equal(t, "uniprot_acc", spec.Column)
	assert.Equal(t, "ted_id", spec.DeriveFrom)
	assert.Equal(t, "P12345", spec.Derive("AF-P12345-F1-TED01"))
}

func TestSummaryRecordAlignment(t *testing.T) {
	s := Summary{
		TedID:                "AF-P12345-F1-TED01",
		MD5Domain:            "d41d8cd98f00b204e9800998ecf8427e",
		ConsensusLevel:       "high",
		Chopping:             "12-118",
		NresDomain:           107,
		NumSegments:          1,
		PLDDT:                92.5,
		NumHelixStrandTurn:   9,
		NumHelix:             4,
		NumStrand:            5,
		NumHelixStrand:       9,
		NumTurn:              0,
		ProteomeID:           "UP000005640",
		CathLabel:            "3.40.50.720",
		CathAssignmentLevel:  "H",
		CathAssignmentMethod: "foldseek",
		PackingDensity:       0.82,
		NormRG:               0.31,
		TaxCommonName:        "Human",
		TaxScientificName:    "Homo sapiens",
		TaxLineage:           "cellular organisms>Eukaryota",
	}

	rec := s.Record()
	require.Len(t, rec, len(SummaryColumns))

	byName := make(map[string]string, len(rec))
	for i, col := range SummaryColumns {
		byName[col] = rec[i]
	}
	assert.Equal(t, "AF-P12345-F1-TED01", byName["ted_id"])
	assert.Equal(t, "107", byName["nres_domain"])
	assert.Equal(t, "92.5", byName["plddt"])
	assert.Equal(t, "UP000005640", byName["proteome-id"])
	assert.Equal(t, "3.40.50.720", byName["cath_label"])
	assert.Equal(t, "Human", byName["tax_common_name"])

	assert.Equal(t, "P12345", s.Accession())
}

func TestWriteSummaryTSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.tsv.gz")

	summaries := []Summary{
		{TedID: "AF-P12345-F1-TED01", CathLabel: "1.10.10.10", TaxCommonName: "Human"},
		{TedID: "AF-Q67890-F1-TED01", CathLabel: "-", TaxCommonName: "Mouse"},
	}
	require.NoError(t, WriteSummaryTSV(path, summaries))

	rc, err := tsv.Open(path)
	require.NoError(t, err)
	defer rc.Close()
	r, err := tsv.NewReader(rc, nil)
	require.NoError(t, err)

	assert.Equal(t, SummaryColumns, r.Header())

	var rows [][]string
	for r.Next() {
		rows = append(rows, r.Row())
	}
	require.NoError(t, r.Err())
	require.Len(t, rows, 2)
	assert.Equal(t, "AF-P12345-F1-TED01", rows[0][0])
	assert.Equal(t, "-", rows[1][13])
}

func TestWriteSummaryTSVEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.tsv")

	require.NoError(t, WriteSummaryTSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ted_id\t", "header is written even with no records")
}

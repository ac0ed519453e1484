package ted

import (
	"fmt"
	"strconv"

	"cathapult/tsv"
)

// Summary is one structural-domain record as returned by the TED API.
// Field order mirrors SummaryColumns.
type Summary struct {
	TedID                string  `json:"ted_id"`
	MD5Domain            string  `json:"md5_domain"`
	ConsensusLevel       string  `json:"consensus_level"`
	Chopping             string  `json:"chopping"`
	NresDomain           int     `json:"nres_domain"`
	NumSegments          int     `json:"num_segments"`
	PLDDT                float64 `json:"plddt"`
	NumHelixStrandTurn   int     `json:"num_helix_strand_turn"`
	NumHelix             int     `json:"num_helix"`
	NumStrand            int     `json:"num_strand"`
	NumHelixStrand       int     `json:"num_helix_strand"`
	NumTurn              int     `json:"num_turn"`
	ProteomeID           string  `json:"proteome_id"`
	CathLabel            string  `json:"cath_label"`
	CathAssignmentLevel  string  `json:"cath_assignment_level"`
	CathAssignmentMethod string  `json:"cath_assignment_method"`
	PackingDensity       float64 `json:"packing_density"`
	NormRG               float64 `json:"norm_rg"`
	TaxCommonName        string  `json:"tax_common_name"`
	TaxScientificName    string  `json:"tax_scientific_name"`
	TaxLineage           string  `json:"tax_lineage"`
}

// Accession returns the UniProt accession derived from the record's TED ID.
func (s *Summary) Accession() string {
	return Accession(s.TedID)
}

// Record renders the summary as a TSV record in SummaryColumns order.
func (s *Summary) Record() []string {
	return []string{
		s.TedID,
		s.MD5Domain,
		s.ConsensusLevel,
		s.Chopping,
		strconv.Itoa(s.NresDomain),
		strconv.Itoa(s.NumSegments),
		formatFloat(s.PLDDT),
		strconv.Itoa(s.NumHelixStrandTurn),
		strconv.Itoa(s.NumHelix),
		strconv.Itoa(s.NumStrand),
		strconv.Itoa(s.NumHelixStrand),
		strconv.Itoa(s.NumTurn),
		s.ProteomeID,
		s.CathLabel,
		s.CathAssignmentLevel,
		s.CathAssignmentMethod,
		formatFloat(s.PackingDensity),
		formatFloat(s.NormRG),
		s.TaxCommonName,
		s.TaxScientificName,
		s.TaxLineage,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Records materializes summaries as TSV records in SummaryColumns order.
func Records(summaries []Summary) [][]string {
	out := make([][]string, len(summaries))
	for i := range summaries {
		out[i] = summaries[i].Record()
	}
	return out
}

// WriteSummaryTSV writes summaries in the bulk file layout: SummaryColumns
// header then one record per domain. A ".gz" path or "-" (stdout) behaves
// as in tsv.Create.
func WriteSummaryTSV(path string, summaries []Summary) (err error) {
	wc, err := tsv.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := tsv.NewWriter(wc)
	if err := w.Write(SummaryColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range summaries {
		if err := w.Write(summaries[i].Record()); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return w.Flush()
}

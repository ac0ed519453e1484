// Package ted carries the conventions of the TED (The Encyclopedia of
// Domains) dataset and a polite client for its public API.
//
// The conventions are shared by every consumer: the store builder, the
// streaming filter and the fetch client all resolve the UniProt accession
// key the same way, so bulk files and API results stay interchangeable.
package ted

import (
	"regexp"

	"cathapult/summary"
)

const (
	// DefaultBaseURL is the public TED API root.
	DefaultBaseURL = "https://ted.cathdb.info/api/v1"

	// KeyColumn is the UniProt accession column both query paths filter on.
	// Bulk summary files lack it; it is derived from DeriveColumn.
	KeyColumn = "uniprot_acc"

	// DeriveColumn is the column the key is derived from.
	DeriveColumn = "ted_id"

	// DefaultKeywordColumn is the column keyword filters match against.
	DefaultKeywordColumn = "tax_common_name"

	// LabelColumn holds the consensus CATH assignment of a domain. "-"
	// marks domains without one.
	LabelColumn = "cath_label"
)

var (
	// accessionPattern extracts the UniProt accession from a TED domain ID
	// such as "AF-P12345-F1-TED01".
	accessionPattern = regexp.MustCompile(`AF-([A-Z0-9]+)`)

	// genePattern extracts the AlphaFold model ID up to the fragment
	// marker, e.g. "P12345" from "AF-P12345-F1-TED01".
	genePattern = regexp.MustCompile(`AF-(.*)-F1`)
)

// Key returns the key spec shared by the store builder and the stream
// filter.
func Key() summary.KeySpec {
	return summary.KeySpec{
		Column:     KeyColumn,
		DeriveFrom: DeriveColumn,
		Pattern:    accessionPattern,
	}
}

// Accession extracts the UniProt accession from a TED domain ID.
// It returns "" when the ID does not follow the AlphaFold naming scheme.
func Accession(tedID string) string {
	return Key().Derive(tedID)
}

// Gene extracts the gene/model identifier from a TED domain ID, or ""
// when the ID does not carry one.
func Gene(tedID string) string {
	m := genePattern.FindStringSubmatch(tedID)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// SummaryColumns is the canonical column order of TED bulk summary files
// and of TSVs written by WriteSummaryTSV. The "proteome-id" spelling is the
// published header of the bulk dataset.
var SummaryColumns = []string{
	"ted_id",
	"md5_domain",
	"consensus_level",
	"chopping",
	"nres_domain",
	"num_segments",
	"plddt",
	"num_helix_strand_turn",
	"num_helix",
	"num_strand",
	"num_helix_strand",
	"num_turn",
	"proteome-id",
	"cath_label",
	"cath_assignment_level",
	"cath_assignment_method",
	"packing_density",
	"norm_rg",
	"tax_common_name",
	"tax_scientific_name",
	"tax_lineage",
}

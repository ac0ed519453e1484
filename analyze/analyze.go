// Package analyze tabulates CATH domain occurrences in a filtered TED
// summary table.
//
// Each assigned domain is counted at four slices of the CATH hierarchy,
// from the full H-level label down to the class digit, once over all
// occurrences and once with repeats within a gene collapsed. The result is
// a long-format table ready for downstream comparison.
package analyze

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"cathapult/cathref"
	"cathapult/summary"
	"cathapult/ted"
	"cathapult/tsv"
)

// Hierarchy slices a CATH label is counted at. LevelDomain is the label as
// assigned; the others are its first one, two, or three dot-separated parts.
const (
	LevelDomain = "domain"
	LevelFirst  = "domain.first.level"
	LevelTwo    = "domain.two.levels"
	LevelThree  = "domain.three.levels"
)

// Levels lists the hierarchy slices in output order.
var Levels = []string{LevelDomain, LevelFirst, LevelTwo, LevelThree}

// Header is the column order Write emits.
var Header = []string{"domain", "count", "domain.type", "deduplicated", "domain.name"}

// Count is one row of the long-format count table.
type Count struct {
	Domain       string // hierarchy node, e.g. "3.40.50.720" or "3.40"
	Count        int
	Type         string // the Levels entry that produced this row
	Deduplicated bool   // repeats within a gene collapsed
	Name         string // CATH annotation, empty when unknown
}

// Record renders the count in Header order.
func (c Count) Record() []string {
	dedup := ""
	if c.Deduplicated {
		dedup = "deduped"
	}
	return []string{c.Domain, strconv.Itoa(c.Count), c.Type, dedup, c.Name}
}

type pair struct{ gene, label string }

// Counts tabulates domain occurrences at every hierarchy level, with and
// without per-gene deduplication, in Levels order with the raw block before
// the deduplicated one. Within a block rows are ordered by descending count,
// then by domain.
//
// Rows with no CATH assignment or with a domain ID the gene cannot be read
// from are skipped. table annotates each node with its CATH name and may be
// nil.
func Counts(header []string, rows [][]string, table *cathref.Table) ([]Count, error) {
	tedIdx, labelIdx := -1, -1
	for i, col := range header {
		switch col {
		case ted.DeriveColumn:
			tedIdx = i
		case ted.LabelColumn:
			labelIdx = i
		}
	}
	if tedIdx < 0 {
		return nil, &summary.ColumnError{Column: ted.DeriveColumn}
	}
	if labelIdx < 0 {
		return nil, &summary.ColumnError{Column: ted.LabelColumn}
	}

	pairs := make([]pair, 0, len(rows))
	for _, row := range rows {
		label := row[labelIdx]
		if label == "" || label == "-" {
			continue
		}
		gene := ted.Gene(row[tedIdx])
		if gene == "" {
			continue
		}
		pairs = append(pairs, pair{gene: gene, label: label})
	}

	var counts []Count
	for _, level := range Levels {
		for _, dedup := range []bool{false, true} {
			counts = append(counts, countLevel(pairs, level, dedup, table)...)
		}
	}
	return counts, nil
}

func countLevel(pairs []pair, level string, dedup bool, table *cathref.Table) []Count {
	tally := make(map[string]int)
	var seen map[pair]struct{}
	if dedup {
		seen = make(map[pair]struct{})
	}
	for _, p := range pairs {
		v := LevelValue(p.label, level)
		if v == "" {
			continue
		}
		if dedup {
			k := pair{gene: p.gene, label: v}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
		}
		tally[v]++
	}

	out := make([]Count, 0, len(tally))
	for v, n := range tally {
		c := Count{Domain: v, Count: n, Type: level, Deduplicated: dedup}
		if table != nil {
			c.Name, _ = table.Name(v)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// LevelValue slices label to the given hierarchy level. Labels with fewer
// parts than the level needs yield "".
func LevelValue(label, level string) string {
	if level == LevelDomain {
		return label
	}
	var n int
	switch level {
	case LevelFirst:
		n = 1
	case LevelTwo:
		n = 2
	case LevelThree:
		n = 3
	}
	parts := strings.Split(label, ".")
	if len(parts) < n {
		return ""
	}
	return strings.Join(parts[:n], ".")
}

// Write emits counts as a tab-separated table with a header row.
func Write(w io.Writer, counts []Count) error {
	tw := tsv.NewWriter(w)
	if err := tw.Write(Header); err != nil {
		return err
	}
	for _, c := range counts {
		if err := tw.Write(c.Record()); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteFile writes counts to path. A .gz suffix compresses the output.
func WriteFile(path string, counts []Count) (err error) {
	wc, err := tsv.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(wc, counts)
}

// Package enrich compares CATH domain occurrence between two protein groups.
//
// Every assigned domain in a group contributes its label at four hierarchy
// levels; each distinct level value is a feature. Features are scored with a
// per-feature 2x2 contingency table, Fisher's exact test, a Woolf interval,
// and a Benjamini-Hochberg correction, the shape of a case/control
// enrichment screen.
package enrich

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"cathapult/analyze"
	"cathapult/cathref"
	"cathapult/summary"
	"cathapult/ted"
	"cathapult/tsv"
)

// DefaultAlpha is the significance threshold the forest plot highlights at.
const DefaultAlpha = 0.05

// Group is one side of the comparison: a filtered summary table.
type Group struct {
	Header []string
	Rows   [][]string
}

// Options adjust the comparison.
type Options struct {
	// UniqueFeatures counts each (feature, accession) pair once per group.
	UniqueFeatures bool

	// Table annotates features with CATH names. May be nil.
	Table *cathref.Table
}

// Result is the enrichment score of one feature.
//
// The contingency table is [[a b] [c d]] with a = Grp1Count occurrences of
// the feature in group 1, b = Grp1Rest the group's row total minus a, and
// c, d likewise for group 2.
type Result struct {
	Feature   string
	Grp1Count int
	Grp1Rest  int
	Grp2Count int
	Grp2Rest  int
	Grp1Odds  float64 // a/b
	Grp2Odds  float64 // c/d
	OddsRatio float64 // sample odds ratio (a*d)/(b*c)
	Log2OR    float64
	PValue    float64
	PAdjusted float64
	CILower   float64 // log2 Woolf bound, NaN when any cell is zero
	CIUpper   float64
	Name      string // CATH annotation of the feature
}

// Header is the column order Write emits. grp1_total and grp2_total carry
// the complement counts b and d, and domain repeats the feature, matching
// the layout downstream notebooks consume.
var Header = []string{
	"feature", "grp1_count", "grp1_total", "grp2_count", "grp2_total",
	"grp1_proportion", "grp2_proportion", "odds.ratio", "log.odds.ratio",
	"p.value", "ci.lower", "ci.upper", "domain", "p.adj", "domain.name",
}

// Record renders the result in Header order. NaN renders empty, infinities
// as "inf" and "-inf".
func (r Result) Record() []string {
	return []string{
		r.Feature,
		strconv.Itoa(r.Grp1Count),
		strconv.Itoa(r.Grp1Rest),
		strconv.Itoa(r.Grp2Count),
		strconv.Itoa(r.Grp2Rest),
		formatFloat(r.Grp1Odds),
		formatFloat(r.Grp2Odds),
		formatFloat(r.OddsRatio),
		formatFloat(r.Log2OR),
		formatFloat(r.PValue),
		formatFloat(r.CILower),
		formatFloat(r.CIUpper),
		r.Feature,
		formatFloat(r.PAdjusted),
		r.Name,
	}
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// collapseLevels is the order features are extracted in, finest prefix
// first.
var collapseLevels = []string{
	analyze.LevelFirst, analyze.LevelTwo, analyze.LevelThree, analyze.LevelDomain,
}

// OddsRatios scores every feature seen in either group, ordered by feature.
//
// Group totals count all rows, assigned or not, so a feature's complement
// cell includes proteins without any CATH assignment.
func OddsRatios(group1, group2 Group, opts Options) ([]Result, error) {
	f1, err := collapse(group1, opts.UniqueFeatures)
	if err != nil {
		return nil, err
	}
	f2, err := collapse(group2, opts.UniqueFeatures)
	if err != nil {
		return nil, err
	}

	features := make([]string, 0, len(f1)+len(f2))
	for f := range f1 {
		features = append(features, f)
	}
	for f := range f2 {
		if _, ok := f1[f]; !ok {
			features = append(features, f)
		}
	}
	sort.Strings(features)

	total1, total2 := len(group1.Rows), len(group2.Rows)

	results := make([]Result, 0, len(features))
	for _, f := range features {
		a, c := f1[f], f2[f]
		b, d := total1-a, total2-c
		if b < 0 || d < 0 {
			return nil, fmt.Errorf("enrich: feature %q counted more often than its group has rows; rerun with unique features", f)
		}

		or := sampleOddsRatio(a, b, c, d)
		ciLo, ciHi := woolfInterval(a, b, c, d, or)
		r := Result{
			Feature:   f,
			Grp1Count: a,
			Grp1Rest:  b,
			Grp2Count: c,
			Grp2Rest:  d,
			Grp1Odds:  float64(a) / float64(b),
			Grp2Odds:  float64(c) / float64(d),
			OddsRatio: or,
			Log2OR:    math.Log2(or),
			PValue:    fisherExact(a, b, c, d),
			CILower:   ciLo,
			CIUpper:   ciHi,
		}
		if opts.Table != nil {
			r.Name, _ = opts.Table.Name(f)
		}
		results = append(results, r)
	}

	ps := make([]float64, len(results))
	for i, r := range results {
		ps[i] = r.PValue
	}
	for i, adj := range benjaminiHochberg(ps) {
		results[i].PAdjusted = adj
	}
	return results, nil
}

// collapse expands a group into per-feature occurrence counts.
func collapse(g Group, unique bool) (map[string]int, error) {
	accIdx, labelIdx := -1, -1
	for i, col := range g.Header {
		switch col {
		case ted.KeyColumn:
			accIdx = i
		case ted.LabelColumn:
			labelIdx = i
		}
	}
	if accIdx < 0 {
		return nil, &summary.ColumnError{Column: ted.KeyColumn}
	}
	if labelIdx < 0 {
		return nil, &summary.ColumnError{Column: ted.LabelColumn}
	}

	counts := make(map[string]int)
	var seen map[[2]string]struct{}
	if unique {
		seen = make(map[[2]string]struct{})
	}
	for _, row := range g.Rows {
		label := row[labelIdx]
		if label == "" || label == "-" {
			continue
		}
		acc := row[accIdx]
		for _, level := range collapseLevels {
			v := analyze.LevelValue(label, level)
			if v == "" {
				continue
			}
			if unique {
				k := [2]string{v, acc}
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
			}
			counts[v]++
		}
	}
	return counts, nil
}

// Write emits results as a tab-separated table with a header row.
func Write(w io.Writer, results []Result) error {
	tw := tsv.NewWriter(w)
	if err := tw.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		if err := tw.Write(r.Record()); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteFile writes results to path. A .gz suffix compresses the output.
func WriteFile(path string, results []Result) (err error) {
	wc, err := tsv.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(wc, results)
}

// WriteForestFile writes the forest plot to path.
func WriteForestFile(path string, results []Result, alpha float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteForestSVG(f, results, alpha)
}

package enrich

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// WriteForestSVG renders results as a forest plot: one row per feature
// ordered by ascending log2 odds ratio, a whisker spanning the Woolf
// interval, a point at the ratio colored by whether the raw p-value clears
// alpha, and a dashed reference line at log2(OR) = 0.
//
// Features with a zero contingency cell have no defined interval and are
// left out; an input with none left is an error.
func WriteForestSVG(w io.Writer, results []Result, alpha float64) error {
	rows := make([]Result, 0, len(results))
	for _, r := range results {
		if finite(r.Log2OR) && finite(r.CILower) && finite(r.CIUpper) {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return errors.New("enrich: no feature has a defined confidence interval to plot")
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Log2OR < rows[j].Log2OR })

	xMin, xMax := 0.0, 0.0
	for _, r := range rows {
		xMin = math.Min(xMin, r.CILower)
		xMax = math.Max(xMax, r.CIUpper)
	}
	pad := 0.05 * (xMax - xMin)
	if pad == 0 {
		pad = 1
	}
	xMin -= pad
	xMax += pad

	const (
		leftPad   = 260.0
		plotWidth = 520.0
		rowH      = 22.0
		topPad    = 56.0
		bottomPad = 46.0
		width     = 800.0
	)
	axisY := topPad + rowH*float64(len(rows))
	height := axisY + bottomPad
	xpos := func(v float64) float64 {
		return leftPad + (v-xMin)/(xMax-xMin)*plotWidth
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%.0f\" height=\"%.0f\" viewBox=\"0 0 %.0f %.0f\" font-family=\"Helvetica, Arial, sans-serif\">\n",
		width, height, width, height)
	fmt.Fprintf(bw, "<rect width=\"100%%\" height=\"100%%\" fill=\"white\"/>\n")
	fmt.Fprintf(bw, "<text x=\"%.0f\" y=\"24\" text-anchor=\"middle\" font-size=\"14\" font-weight=\"bold\">Feature Enrichment Odds Ratio</text>\n",
		leftPad+plotWidth/2)

	step := tickStep(xMax - xMin)
	for t := int(math.Ceil(xMin)); float64(t) <= xMax; t += step {
		x := xpos(float64(t))
		fmt.Fprintf(bw, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"#dddddd\"/>\n", x, topPad, x, axisY)
		fmt.Fprintf(bw, "<text x=\"%.1f\" y=\"%.1f\" text-anchor=\"middle\" font-size=\"10\">%d</text>\n", x, axisY+16, t)
	}

	zero := xpos(0)
	fmt.Fprintf(bw, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"black\" stroke-dasharray=\"4 3\"/>\n",
		zero, topPad, zero, axisY)

	// Rows are placed bottom-up so the largest ratio lands on top.
	for i, r := range rows {
		y := axisY - rowH*float64(i) - rowH/2
		label := r.Feature
		if r.Name != "" {
			label += " " + r.Name
		}
		fmt.Fprintf(bw, "<text x=\"%.1f\" y=\"%.1f\" text-anchor=\"end\" font-size=\"10\" dominant-baseline=\"middle\">%s</text>\n",
			leftPad-8, y, xmlEscaper.Replace(label))
		fmt.Fprintf(bw, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"black\"/>\n",
			xpos(r.CILower), y, xpos(r.CIUpper), y)
		fill := "grey"
		if r.PValue < alpha {
			fill = "#d62728"
		}
		fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"5\" fill=\"%s\" stroke=\"black\" stroke-width=\"0.7\"/>\n",
			xpos(r.Log2OR), y, fill)
	}

	fmt.Fprintf(bw, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"black\"/>\n",
		leftPad, axisY, leftPad+plotWidth, axisY)
	fmt.Fprintf(bw, "<text x=\"%.0f\" y=\"%.1f\" text-anchor=\"middle\" font-size=\"12\">Odds ratio (log2 scale), group 1 vs group 2</text>\n",
		leftPad+plotWidth/2, axisY+36)
	fmt.Fprintf(bw, "</svg>\n")
	return bw.Flush()
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func tickStep(span float64) int {
	for _, s := range []int{1, 2, 5, 10, 20, 50} {
		if span/float64(s) <= 12 {
			return s
		}
	}
	return 100
}

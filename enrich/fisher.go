package enrich

import (
	"math"
	"sort"
)

// logChoose returns log C(n, k).
func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln, _ := math.Lgamma(float64(n + 1))
	lk, _ := math.Lgamma(float64(k + 1))
	lnk, _ := math.Lgamma(float64(n - k + 1))
	return ln - lk - lnk
}

// fisherExact returns the two-sided p-value of Fisher's exact test on the
// 2x2 table [[a b] [c d]]: the total probability, under the hypergeometric
// null with the observed margins, of every table at most as likely as the
// observed one.
func fisherExact(a, b, c, d int) float64 {
	r1, r2 := a+b, c+d
	k := a + c
	n := r1 + r2
	if n == 0 {
		return 1
	}

	logDenom := logChoose(n, k)
	pmf := func(x int) float64 {
		return math.Exp(logChoose(r1, x) + logChoose(r2, k-x) - logDenom)
	}

	// Tables on the other tail can be equally likely up to rounding, so the
	// cutoff carries a small relative slack.
	cutoff := pmf(a) * (1 + 1e-7)
	var p float64
	for x := max(0, k-r2); x <= min(k, r1); x++ {
		if px := pmf(x); px <= cutoff {
			p += px
		}
	}
	return math.Min(p, 1)
}

// sampleOddsRatio returns the sample odds ratio (a*d)/(b*c) of a 2x2 table.
// IEEE division carries the degenerate cases: Inf when only the denominator
// is zero, NaN when both terms are.
func sampleOddsRatio(a, b, c, d int) float64 {
	return (float64(a) * float64(d)) / (float64(b) * float64(c))
}

// woolfInterval returns the Woolf 95% confidence interval of the odds ratio
// on a log2 scale. The interval is undefined (NaN, NaN) when any cell of the
// table is zero.
func woolfInterval(a, b, c, d int, or float64) (lo, hi float64) {
	if a == 0 || b == 0 || c == 0 || d == 0 {
		return math.NaN(), math.NaN()
	}
	logOR := math.Log(or)
	se := math.Sqrt(1/float64(a) + 1/float64(b) + 1/float64(c) + 1/float64(d))
	return (logOR - 1.96*se) / math.Ln2, (logOR + 1.96*se) / math.Ln2
}

// benjaminiHochberg adjusts p-values for multiple testing with the
// Benjamini-Hochberg step-up procedure.
func benjaminiHochberg(ps []float64) []float64 {
	n := len(ps)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return ps[order[i]] < ps[order[j]] })

	adj := make([]float64, n)
	run := math.Inf(1)
	for i := n - 1; i >= 0; i-- {
		v := ps[order[i]] * float64(n) / float64(i+1)
		if v < run {
			run = v
		}
		adj[order[i]] = math.Min(run, 1)
	}
	return adj
}

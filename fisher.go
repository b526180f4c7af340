package atlas

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var chisqSrc = rand.NewSource(rand.Uint64())

// fisherCombinedP combines per-tissue p-values with Fisher's method:
// -2 Σ ln(p) follows a chi-squared distribution with 2k degrees of
// freedom under the null. Inputs are clamped to [1e-300, 1] so a
// reported p of exactly zero doesn't blow up the log.
func fisherCombinedP(pvals []float64) float64 {
	if len(pvals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, p := range pvals {
		if math.IsNaN(p) {
			return math.NaN()
		}
		if p < 1e-300 {
			p = 1e-300
		} else if p > 1 {
			p = 1
		}
		sum += math.Log(p)
	}
	dist := distuv.ChiSquared{K: float64(2 * len(pvals)), Src: chisqSrc}
	return dist.Survival(-2 * sum)
}

package stats

import "gonum.org/v1/gonum/stat/distuv"

// ZVal is the two-tailed standard normal critical value for a confidence
// level given in percent.
func ZVal(pct float64) float64 {
	std := distuv.Normal{Mu: 0, Sigma: 1}
	return std.Quantile((1 + pct/100) / 2)
}

package dataset

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile (0 <= p <= 1) of vals, ignoring NaN, using
// linear interpolation between the closest ranks: the value at position
// (n-1)*p of the sorted sample. It returns NaN when no finite-or-infinite
// value is present.
func Quantile(vals []float64, p float64) float64 {
	sorted := nonMissingSorted(vals)
	return quantileSorted(sorted, p)
}

// Median returns the 0.5 quantile of vals, ignoring NaN.
func Median(vals []float64) float64 {
	return Quantile(vals, 0.5)
}

func nonMissingSorted(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := float64(n-1) * p
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// sim/metrics_utils.go
package sim

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// CalculatePercentile returns the p-th percentile of data using linear
// interpolation between closest ranks. data need not be sorted; it is not modified.
// Returns 0 for empty input.
func CalculatePercentile(data []float64, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if upperIdx >= n {
		return sorted[n-1]
	}
	if lowerIdx == upperIdx {
		return sorted[lowerIdx]
	}
	return sorted[lowerIdx] + (sorted[upperIdx]-sorted[lowerIdx])*(rank-float64(lowerIdx))
}

// JainFairness returns Jain's fairness index (Σx)²/(n·Σx²), 1 when all values are
// equal and 1/n when one value takes everything. Returns 0 for empty or all-zero input.
func JainFairness(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := floats.Sum(values)
	sumSq := floats.Dot(values, values)
	if sumSq == 0 {
		return 0
	}
	return sum * sum / (float64(len(values)) * sumSq)
}

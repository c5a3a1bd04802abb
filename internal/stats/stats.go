// Package stats computes descriptive statistics over scalar samples.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Summary holds the descriptive statistics of one sample sequence.
// Min, Max and Median are nil when there were no samples.
type Summary struct {
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Count  int      `json:"count"`
	Sum    float64  `json:"sum"`
	Median *float64 `json:"median"`
}

// Compute returns min, max, count, sum and median of samples.
// The input slice is not modified.
func Compute(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	min := floats.Min(samples)
	max := floats.Max(samples)
	median := Median(samples)

	return Summary{
		Min:    &min,
		Max:    &max,
		Count:  len(samples),
		Sum:    floats.Sum(samples),
		Median: &median,
	}
}

// Median returns the statistical median of samples, averaging the two
// middle values for even counts. It returns 0 for an empty slice.
func Median(samples []float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Mean returns the arithmetic mean of samples. ok is false when samples is empty.
func Mean(samples []float64) (mean float64, ok bool) {
	if len(samples) == 0 {
		return 0, false
	}
	return floats.Sum(samples) / float64(len(samples)), true
}

// Package stats holds the pure aggregation functions applied to fetched
// warehouse rows: timelines, rollups, descriptive statistics, rolling
// averages and partial-sum merging. Everything here is deterministic and
// total over its documented inputs; empty samples yield zeros, never NaN.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Descriptive summarises a numeric sample. Lower and Upper are the values at
// the floor(N*0.25) and floor(N*0.75) positions of the ascending-sorted
// sample: a nearest-rank selection, deliberately not an interpolated
// percentile. StdDev is the population form (divide by N).
type Descriptive struct {
	Mean   float64 `json:"mean"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	StdDev float64 `json:"std_dev"`
}

// Describe computes the descriptive summary of a sample.
// An empty sample yields the zero summary.
func Describe(sample []float64) Descriptive {
	if len(sample) == 0 {
		return Descriptive{}
	}

	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	// Second central moment with unit weights is the population variance
	variance := stat.MomentAbout(2, sorted, mean, nil)

	n := float64(len(sorted))
	lower := sorted[int(math.Floor(n*0.25))]
	upper := sorted[int(math.Floor(n*0.75))]

	return Descriptive{
		Mean:   mean,
		Lower:  lower,
		Upper:  upper,
		StdDev: math.Sqrt(variance),
	}
}

// Mean returns the arithmetic mean, 0 for an empty sample
func Mean(sample []float64) float64 {
	if len(sample) == 0 {
		return 0
	}
	return stat.Mean(sample, nil)
}

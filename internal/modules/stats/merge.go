package stats

// Partial is a pre-aggregated group: a sum of values and how many values it
// covers.
type Partial struct {
	Sum   float64
	Count int64
}

// MergeAverage combines partial sums into the overall average:
// sum(all sums) / sum(all counts). An unweighted mean of per-group averages
// would be wrong whenever group sizes differ. Zero total count yields 0.
func MergeAverage(parts []Partial) float64 {
	var sum float64
	var count int64

	for _, p := range parts {
		sum += p.Sum
		count += p.Count
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

package stats

// RollingAverage produces a same-length sequence where position i is the mean
// of the trailing min(i+1, window) values. The first window-1 outputs use a
// shrinking window instead of being undefined; no future values are averaged.
// A window below 1 is treated as 1.
func RollingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}

	out := make([]float64, len(values))
	var sum float64

	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}

		span := i + 1
		if span > window {
			span = window
		}
		out[i] = sum / float64(span)
	}

	return out
}

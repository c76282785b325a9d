package features

import "math"

// Summary holds basic descriptive statistics over a sample.
type Summary struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	CV   float64
}

// Summarize computes mean, sample standard deviation, min, max and the
// coefficient of variation. A single-element sample has Std 0 and CV 0; CV is
// also 0 when the mean is 0 (rather than a division blowup).
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	var sum float64
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var ss float64
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	var cv float64
	if mean != 0 {
		cv = std / mean
	}

	return Summary{Mean: mean, Std: std, Min: min, Max: max, CV: cv}
}

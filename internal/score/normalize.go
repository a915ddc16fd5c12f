package score

import "math"

// Normalize converts raw per-bucket scores into a distribution. A vector
// with no positive total becomes uniform. With normalize false the raw
// vector is returned unchanged.
func Normalize(scores []float64, normalize bool) []float64 {
	if !normalize || len(scores) == 0 {
		return scores
	}

	total := 0.0
	for _, s := range scores {
		total += s
	}

	out := make([]float64, len(scores))
	if total <= 0 {
		for i := range out {
			out[i] = 1 / float64(len(scores))
		}
		return out
	}

	for i, s := range scores {
		out[i] = s / total
	}
	return out
}

// AveragePercent averages the positive buckets as a percentage rounded to
// two decimals. With no positive bucket it returns the uniform share.
func AveragePercent(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	sum, count := 0.0, 0
	for _, s := range scores {
		if s > 0 {
			sum += s
			count++
		}
	}

	if count == 0 {
		return Round2(100 / float64(len(scores)))
	}
	return Round2(sum / float64(count) * 100)
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}

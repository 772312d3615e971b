package analysis

import (
	"math"
	"time"
)

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// clampScore bounds a raw score to [0, 100]
func clampScore(x float64) float64 {
	return clip(x, 0, 100)
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// ratio returns n/total; callers branch on total == 0 before scoring
func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

// populationStdDev is the standard deviation over the whole population
func populationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	variance := 0.0
	for _, v := range xs {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(xs)))
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// wholeDays floors a duration to whole days, negative durations round down
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

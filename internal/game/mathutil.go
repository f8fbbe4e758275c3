package game

import "math"

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// round100 rounds a dollar amount to the nearest $100.
func round100(v float64) float64 {
	return math.Round(v/100) * 100
}

func ceil100(v float64) float64 {
	return math.Ceil(v/100) * 100
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func safeDiv(num, den float64) float64 {
	return num / math.Max(1, den)
}

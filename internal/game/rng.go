package game

import (
	"math"
	"time"
)

const (
	lehmerModulus    = int64(2147483647)
	lehmerMultiplier = int64(16807)
	maxSeed          = lehmerModulus - 1
)

// RNG is a Park-Miller (Lehmer) generator. Every stochastic decision in the
// simulation draws from one RNG owned by the engine, so a fixed seed replays a
// run exactly as long as the draw order does not change.
type RNG struct {
	seed int64
}

// NewRNG returns a generator for seed. A seed <= 0 is replaced by a
// time-derived one.
func NewRNG(seed int64) *RNG {
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}
	return &RNG{seed: normalizeSeed(seed)}
}

func normalizeSeed(seed int64) int64 {
	s := seed % maxSeed
	if s < 0 {
		s += maxSeed
	}
	if s == 0 {
		s = maxSeed
	}
	return s
}

// Next advances the generator and returns the new state in [1, 2147483646].
func (r *RNG) Next() int64 {
	r.seed = (r.seed * lehmerMultiplier) % lehmerModulus
	return r.seed
}

// Float returns a draw in [0, 1).
func (r *RNG) Float() float64 {
	return float64(r.Next()-1) / float64(maxSeed)
}

// Range returns a draw in [lo, hi).
func (r *RNG) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float()
}

// Intn returns an int in [0, n). n <= 0 yields 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.Pick(n)
}

// Pick selects an index into a list of length n, clamped into bounds.
func (r *RNG) Pick(n int) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(r.Float() * float64(n)))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// Chance is a single Bernoulli draw against p.
func (r *RNG) Chance(p float64) bool {
	return r.Float() < p
}

// WeightedIndex picks an index with probability proportional to its weight.
// Non-positive weights are never picked; if no weight is positive it falls
// back to a uniform pick.
func (r *RNG) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return r.Pick(len(weights))
	}
	target := r.Float() * total
	acc := 0.0
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if target < acc {
			return i
		}
	}
	return last
}

// State exposes the current generator state so a snapshot can resume the
// sequence.
func (r *RNG) State() int64 {
	return r.seed
}

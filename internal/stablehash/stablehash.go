// Package stablehash provides deterministic pseudo-variation derived from
// string seeds. It is an explicit substitute for a PRNG: the same seed always
// produces the same value, across calls and across processes, so repeated
// searches show stable prices and tests are reproducible.
package stablehash

import "hash/fnv"

// Score maps a seed string to [0, 1) with three decimal digits of
// resolution.
func Score(seed string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return float64(h.Sum32()%1000) / 1000
}

// Interpolate maps a seed into [lo, hi).
func Interpolate(seed string, lo, hi float64) float64 {
	return lo + Score(seed)*(hi-lo)
}

// Variation returns a multiplier in [1-pct, 1+pct) for the given seed.
// pct is a fraction: 0.10 means ±10%.
func Variation(seed string, pct float64) float64 {
	return Interpolate(seed, 1-pct, 1+pct)
}

// Bucket maps a seed to an integer in [0, n). n must be positive.
func Bucket(seed string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return int(h.Sum32() % uint32(n))
}

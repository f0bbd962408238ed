// Package dice is the randomness source threaded through level, HP and loot rolls.
package dice

import "math/rand/v2"

// Rand is the subset of *rand.Rand the engine draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// New returns a seeded generator; the same seed yields the same rolls.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Upto returns a uniform integer in [0, n]. Upto(r, 0) is always 0.
func Upto(r Rand, n int) int {
	if n <= 0 {
		return 0
	}
	return r.IntN(n + 1)
}

// Between returns a uniform float in [lo, hi).
func Between(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// Chance reports true with probability p.
func Chance(r Rand, p float64) bool {
	return r.Float64() < p
}

// Fixed is a scripted Rand for tests: Float64 and IntN replay their queues and
// then repeat the last value.
type Fixed struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

func (f *Fixed) Float64() float64 {
	if len(f.Floats) == 0 {
		return 0
	}
	v := f.Floats[min(f.fi, len(f.Floats)-1)]
	f.fi++
	return v
}

func (f *Fixed) IntN(n int) int {
	if len(f.Ints) == 0 || n <= 0 {
		return 0
	}
	v := f.Ints[min(f.ii, len(f.Ints)-1)]
	f.ii++
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

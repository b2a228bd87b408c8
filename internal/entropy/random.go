// Package entropy provides the random sources injected into the tick.
// The simulation never touches a global generator; every stochastic draw
// goes through a Source so that a seed fully determines a run.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is the random stream consumed by evolution, fire and bridges.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// Seeded is a reproducible Source backed by math/rand.
type Seeded struct {
	seed int64
	rng  *mrand.Rand
}

// NewSeeded creates a Source from seed. A zero seed draws one from crypto/rand.
func NewSeeded(seed int64) *Seeded {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Seeded{seed: seed, rng: mrand.New(mrand.NewSource(seed))}
}

// Seed returns the seed the stream was created with.
func (s *Seeded) Seed() int64 { return s.seed }

// Float64 returns a value in [0, 1).
func (s *Seeded) Float64() float64 { return s.rng.Float64() }

// Intn returns a value in [0, n).
func (s *Seeded) Intn(n int) int { return s.rng.Intn(n) }

// Constant always returns the same draw. Useful for forcing or suppressing
// every probabilistic branch in tests.
type Constant float64

// Float64 returns the constant.
func (c Constant) Float64() float64 { return float64(c) }

// Intn scales the constant onto [0, n).
func (c Constant) Intn(n int) int {
	v := int(float64(c) * float64(n))
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Chance performs one Bernoulli trial with probability p.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return src.Float64() < p
}

// Between returns a uniform value in [lo, hi).
func Between(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return 1
	}
	s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if s == 0 {
		s = 1
	}
	return s
}

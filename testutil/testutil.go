package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// GridValues generates nx*ny*nz values in linear order (X fastest),
// uniform in [0, 100), with holeRatio of the cells set to NaN.
func (r *RNG) GridValues(nx, ny, nz int, holeRatio float64) []float64 {
	values := make([]float64, nx*ny*nz)
	for i := range values {
		if r.Float64() < holeRatio {
			values[i] = math.NaN()
		} else {
			values[i] = r.Float64() * 100
		}
	}
	return values
}

// LinearValues generates nx*ny*nz values where cell i holds
// float64(i + 1), so every cell's value encodes its linear index.
func LinearValues(nx, ny, nz int) []float64 {
	values := make([]float64, nx*ny*nz)
	for i := range values {
		values[i] = float64(i + 1)
	}
	return values
}

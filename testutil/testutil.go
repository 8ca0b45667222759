// Package testutil provides deterministic helpers for tests and benchmarks.
package testutil

import (
	"math/rand/v2"
	"sync"
)

// RNG is a seeded random source safe for concurrent use in tests.
type RNG struct {
	mu  sync.Mutex
	src *rand.Rand
}

// NewRNG creates a generator with a fixed seed so test data is reproducible.
func NewRNG(seed uint64) *RNG {
	return &RNG{src: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float32 returns a pseudo-random number in [0, 1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float32()
}

// IntN returns a pseudo-random number in [0, n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

// Vectors generates count vectors of the given dimension with components
// in [0, 1), backed by a single allocation.
func (r *RNG) Vectors(count, dim int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, count*dim)
	for i := range data {
		data[i] = r.src.Float32()
	}

	vectors := make([][]float32, count)
	for i := range vectors {
		vectors[i] = data[i*dim : (i+1)*dim]
	}
	return vectors
}

package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// NewStreamRNG creates a deterministic RNG for an independent stream derived
// from seed, so several tables built from one seed do not share sequences.
func NewStreamRNG(seed int64, stream uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), stream))}
}

// Float32 returns a value in [0, 1).
func (r *RNG) Float32() float32 {
	return r.r.Float32()
}

// Jitter3 returns three independent values in [0, 1).
func (r *RNG) Jitter3() [3]float32 {
	return [3]float32{r.r.Float32(), r.r.Float32(), r.r.Float32()}
}

// Package rng derives labelled deterministic random streams from a run seed,
// so map generation, shops and blessing selection each draw from their own
// reproducible sequence.
package rng

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// SeedValue hashes rootSeed and label into a non-zero seed.
func SeedValue(rootSeed int64, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(strconv.FormatInt(rootSeed, 10)))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// New returns a stream for label under rootSeed.
func New(rootSeed int64, label string) *rand.Rand {
	return rand.New(rand.NewSource(SeedValue(rootSeed, label)))
}

// Float returns a float in [0,1) from r, falling back to a fixed stream when
// r is nil.
func Float(r *rand.Rand) float64 {
	if r == nil {
		return New(0, "fallback").Float64()
	}
	return r.Float64()
}

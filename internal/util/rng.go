// Package util holds the seeded randomness shared by the simulation binaries.
package util

import "math/rand"

// jobStride spreads neighbouring batch jobs across the seed space.
const jobStride = 7919

// New returns a deterministic generator. Seed 0 maps to 1.
func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}

// JobSeed is the seed of batch job i, whichever worker runs it.
func JobSeed(base int64, i int) int64 {
	return base + int64(i)*jobStride
}

// Package randutil centralises how the repository derives random sources so
// that every component can be made reproducible from a single int64 seed.
package randutil

import (
	"fmt"
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Both PCG state words are derived from the seed so equal seeds always yield
// equal sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns a fresh seed derived from the wall clock. Callers that want
// reproducible runs log the returned value and feed it back through New.
func Seed() int64 {
	return int64(mix(uint64(time.Now().UnixNano())) >> 1)
}

// Sample returns k distinct integers drawn uniformly from [0, n) using a
// partial Fisher-Yates shuffle. It always terminates in O(n) time regardless
// of how close k is to n.
func Sample(rng *rand.Rand, n, k int) []int {
	if n < 0 || k < 0 || k > n {
		panic(fmt.Sprintf("randutil: cannot sample %d of %d", k, n))
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k:k]
}

// mix is the splitmix64 finaliser.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

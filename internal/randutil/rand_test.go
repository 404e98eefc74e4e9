package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDeterministic(t *testing.T) {
	t.Parallel()

	a := New(42)
	b := New(42)
	for i := 0; i < 16; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}

	c := New(43)
	assert.NotEqual(t, New(42).Uint64(), c.Uint64())
}

func TestSample(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n, k int
	}{
		{"empty", 0, 0},
		{"none", 10, 0},
		{"some", 81, 10},
		{"all but one", 9, 8},
		{"all", 9, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sample(New(7), tt.n, tt.k)
			require.Len(t, got, tt.k)

			seen := make(map[int]bool, len(got))
			for _, v := range got {
				assert.GreaterOrEqual(t, v, 0)
				assert.Less(t, v, tt.n)
				assert.False(t, seen[v], "duplicate value %d", v)
				seen[v] = true
			}
		})
	}
}

func TestSampleCoversEveryIndex(t *testing.T) {
	t.Parallel()

	rng := New(1)
	hits := make([]int, 9)
	for i := 0; i < 2000; i++ {
		for _, v := range Sample(rng, 9, 1) {
			hits[v]++
		}
	}
	for i, h := range hits {
		assert.Greater(t, h, 100, "index %d drawn only %d times", i, h)
	}
}

func TestSamplePanicsOnImpossibleRequest(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { Sample(New(1), 3, 4) })
	assert.Panics(t, func() { Sample(New(1), 3, -1) })
}

package gameid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRandSource struct {
	values []int
	index  int
}

func (m *mockRandSource) Intn(n int) int {
	if m.index >= len(m.values) {
		return 0
	}
	v := m.values[m.index] % n
	m.index++
	return v
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	id := Generate()
	assert.Len(t, id, 26)
	assert.NoError(t, Validate(id))
}

func TestGenerateUnique(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := Generate()
		require.False(t, ids[id], "duplicate ID %s", id)
		ids[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)
	g := NewGenerator(&mockRandSource{})
	g.now = func() time.Time { return now }

	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, g.Generate())
		now = now.Add(time.Millisecond)
	}

	for i := 1; i < len(ids); i++ {
		assert.Negative(t, strings.Compare(ids[i-1], ids[i]), "%s >= %s", ids[i-1], ids[i])
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)
	values := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	a := NewGenerator(&mockRandSource{values: values})
	a.now = func() time.Time { return now }
	b := NewGenerator(&mockRandSource{values: values})
	b.now = func() time.Time { return now }

	assert.Equal(t, a.Generate(), b.Generate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Generate()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"generated", valid, false},
		{"too short", valid[:20], true},
		{"too long", valid + "ab", true},
		{"invalid character", valid[:25] + "u", true},
		{"uppercase", strings.ToUpper(valid), true},
		{"not version 7", "00000000000000000000000000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAlphabet(t *testing.T) {
	t.Parallel()

	require.Len(t, alphabet, 32)
	seen := make(map[rune]bool)
	for _, ch := range alphabet {
		assert.False(t, seen[ch], "duplicate %c", ch)
		seen[ch] = true
	}
	for _, ch := range "ilou" {
		assert.NotContains(t, alphabet, string(ch))
	}
}

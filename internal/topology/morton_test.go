package topology

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/crystalgeo/internal/element"
)

func randomAtoms(n int, seed int64) []element.Atom {
	r := rand.New(rand.NewSource(seed))
	atoms := make([]element.Atom, n)
	for i := range atoms {
		atoms[i] = element.Atom{
			X:      float32(r.Float64() * 10),
			Y:      float32(r.Float64() * 10),
			Z:      float32(r.Float64() * 10),
			Number: element.C,
		}
	}
	return atoms
}

func TestMortonSortIsPermutation(t *testing.T) {
	atoms := randomAtoms(50, 1)
	sorted, perm := mortonSortAtoms(atoms)
	require.Len(t, perm, len(atoms))

	seen := make(map[int]bool, len(perm))
	for i, orig := range perm {
		require.False(t, seen[orig], "index %d appears twice in permutation", orig)
		seen[orig] = true
		assert.Equal(t, atoms[orig], sorted[i])
	}
	assert.Len(t, seen, len(atoms))
}

func TestMortonSortIdempotent(t *testing.T) {
	atoms := randomAtoms(80, 2)
	sorted, _ := mortonSortAtoms(atoms)
	_, perm2 := mortonSortAtoms(sorted)
	for i, p := range perm2 {
		assert.Equal(t, i, p, "re-sorting a sorted set must be the identity permutation")
	}
}

func TestMortonSortSkippedBelowThreshold(t *testing.T) {
	atoms := randomAtoms(5, 3)
	sorted, perm := mortonSortAtoms(atoms)
	assert.Len(t, sorted, 5)
	assert.Len(t, perm, 5)

	idx := buildTargetIndex(atoms)
	assert.Equal(t, atoms, idx.atoms)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, idx.orig)
}

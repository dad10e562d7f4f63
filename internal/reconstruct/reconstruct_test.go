package reconstruct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/lattice"
	"github.com/arxos/crystalgeo/internal/topology"
)

// TestReconstructLinearChainRemovesEverything exercises the degenerate
// case: a cloud where every atom has exactly one neighbor must be fully
// removed by the pathological-atom pass, yielding an empty topology rather
// than a Divergence error.
func TestReconstructLinearChainRemovesEverything(t *testing.T) {
	material := element.Elemental(element.C)
	bond := material.BulkBondLength()
	atoms := []element.Atom{
		{X: 0, Y: 0, Z: 0, Number: element.C},
		{X: float32(bond), Y: 0, Z: 0, Number: element.C},
	}
	result, err := Reconstruct(atoms, Options{Material: material})
	require.NoError(t, err)
	assert.Empty(t, result.Topology.Atoms)
	assert.Empty(t, result.Topology.Bonds)
}

// TestReconstructDiamondCubeSatisfiesBondInvariants materializes a small
// diamond-cubic block via the lattice evaluator and runs reconstruction
// with element passivation, then checks the valence invariant:
// every non-H atom has exactly 4 bonds, every passivator H has exactly 1.
func TestReconstructDiamondCubeSatisfiesBondInvariants(t *testing.T) {
	material := element.Elemental(element.C)
	lat := lattice.New(element.Cubic)
	atoms, err := lat.Evaluate(lattice.Bounds{H: 3, K: 3, L: 3}, material, nil)
	require.NoError(t, err)
	require.NotEmpty(t, atoms)

	result, err := Reconstruct(atoms, Options{Material: material, Passivation: PassivationElement, Passivator: element.H})
	require.NoError(t, err)

	adjacency, err := result.Topology.Map(topology.MapAtoms)
	require.NoError(t, err)

	for i, a := range result.Topology.Atoms {
		if a.Number == element.H {
			assert.Equal(t, 1, adjacency[i].Count, "passivator %d must have exactly one bond", i)
		} else {
			assert.Equal(t, 4, adjacency[i].Count, "non-H atom %d must have exactly four bonds", i)
		}
	}
}

// TestReconstructCheckerboardCSiCounts reconstructs a passivated (4,4,4)
// C-Si checkerboard block and checks the documented reference counts: 577
// group-IV atoms survive the pathological pass, 232 hydrogens are placed,
// 1270 bonds close every valence, and no two placed passivators sit within
// the 0.010 nm collision radius.
func TestReconstructCheckerboardCSiCounts(t *testing.T) {
	material := element.Checkerboard(element.C, element.Si)
	lat := lattice.New(element.Cubic)
	atoms, err := lat.Evaluate(lattice.Bounds{H: 4, K: 4, L: 4}, material, nil)
	require.NoError(t, err)
	require.Len(t, atoms, 621)

	result, err := Reconstruct(atoms, Options{Material: material, Passivation: PassivationElement, Passivator: element.H})
	require.NoError(t, err)

	var heavy int
	var hydrogens []element.Atom
	for _, a := range result.Topology.Atoms {
		if a.Number == element.H {
			hydrogens = append(hydrogens, a)
		} else {
			heavy++
		}
	}
	assert.Equal(t, 577, heavy)
	assert.Len(t, hydrogens, 232)
	assert.Len(t, result.Topology.Bonds, 1270)

	matches, err := topology.Match(hydrogens, hydrogens, topology.AbsoluteRadius(0.010), topology.MaxNeighbors)
	require.NoError(t, err)
	for i, m := range matches {
		assert.Equal(t, 1, m.Count, "hydrogen %d collides with another passivator", i)
	}
}

func TestMajorityElementChecksCheckerboard(t *testing.T) {
	material := element.Checkerboard(element.C, element.Si)
	atoms := []element.Atom{
		{Number: element.C}, {Number: element.C}, {Number: element.Si},
	}
	got := majorityElement(atoms, []int{0, 1, 2}, material)
	assert.Equal(t, element.C, got)
}

func TestMajorityElementElementalIgnoresAtoms(t *testing.T) {
	material := element.Elemental(element.Si)
	atoms := []element.Atom{{Number: element.C}, {Number: element.C}}
	got := majorityElement(atoms, []int{0, 1}, material)
	assert.Equal(t, element.Si, got)
}

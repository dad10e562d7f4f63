package topology

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/crystalgeo/internal/element"
)

func unit(v Vec3) bool { return math.Abs(v.Len()-1) < 1e-3 }

func TestDeriveOrbitalsSP3FromTwoBonds(t *testing.T) {
	// Two bonds at the ideal tetrahedral angle from atom 0.
	atoms := []element.Atom{
		{X: 0, Y: 0, Z: 0, Number: element.C},
		{X: 0.15, Y: 0, Z: 0, Number: element.C},
		{X: float32(0.15 * math.Cos(109.47 * math.Pi / 180)), Y: float32(0.15 * math.Sin(109.47 * math.Pi / 180)), Z: 0, Number: element.C},
	}
	bonds := []element.Bond{{I: 0, J: 1}, {I: 0, J: 2}}
	storages, err := DeriveOrbitals(atoms, bonds, SP3)
	require.NoError(t, err)

	o := storages[0]
	require.Equal(t, 2, o.Count)
	assert.True(t, unit(o.Dirs[0]))
	assert.True(t, unit(o.Dirs[1]))
	assert.LessOrEqual(t, o.Dirs[0].X, o.Dirs[1].X, "ordered by ascending X projection")
}

func TestDeriveOrbitalsBridgeheadOneRemaining(t *testing.T) {
	atoms := []element.Atom{
		{X: 0, Y: 0, Z: 0, Number: element.C},
		{X: 1, Y: 0, Z: 0, Number: element.C},
		{X: 0, Y: 1, Z: 0, Number: element.C},
		{X: 0, Y: 0, Z: 1, Number: element.C},
	}
	bonds := []element.Bond{{I: 0, J: 1}, {I: 0, J: 2}, {I: 0, J: 3}}
	storages, err := DeriveOrbitals(atoms, bonds, SP3)
	require.NoError(t, err)
	require.Equal(t, 1, storages[0].Count)
	assert.True(t, unit(storages[0].Dirs[0]))
}

func TestDeriveOrbitalsNoOrbitalWhenSaturated(t *testing.T) {
	atoms := []element.Atom{
		{X: 0, Y: 0, Z: 0, Number: element.C},
		{X: 1, Y: 0, Z: 0, Number: element.C},
		{X: 0, Y: 1, Z: 0, Number: element.C},
		{X: 0, Y: 0, Z: 1, Number: element.C},
		{X: 1, Y: 1, Z: 1, Number: element.C},
	}
	bonds := []element.Bond{{I: 0, J: 1}, {I: 0, J: 2}, {I: 0, J: 3}, {I: 0, J: 4}}
	storages, err := DeriveOrbitals(atoms, bonds, SP3)
	require.NoError(t, err)
	assert.Equal(t, 0, storages[0].Count)
}

func TestDeriveOrbitalsUnderdeterminedBelowTwoNeighbors(t *testing.T) {
	atoms := []element.Atom{
		{X: 0, Y: 0, Z: 0, Number: element.C},
		{X: 1, Y: 0, Z: 0, Number: element.C},
	}
	bonds := []element.Bond{{I: 0, J: 1}}
	storages, err := DeriveOrbitals(atoms, bonds, SP3)
	require.NoError(t, err)
	assert.Equal(t, 0, storages[0].Count, "single-neighbor sp3 placement is underdetermined")
}

func TestDeriveOrbitalsAcetyleneRadicalSP(t *testing.T) {
	atoms := []element.Atom{
		{X: 0, Y: 0, Z: 0, Number: element.C},
		{X: 1, Y: 0, Z: 0, Number: element.C},
	}
	bonds := []element.Bond{{I: 0, J: 1}}
	storages, err := DeriveOrbitals(atoms, bonds, SP)
	require.NoError(t, err)
	require.Equal(t, 1, storages[0].Count)
	assert.InDelta(t, -1, storages[0].Dirs[0].X, 1e-6)
}

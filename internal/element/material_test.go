package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialValidateElemental(t *testing.T) {
	require.NoError(t, Elemental(C).Validate(Cubic))
	require.NoError(t, Elemental(Au).Validate(Cubic))
	require.Error(t, Elemental(Au).Validate(Hexagonal))
	require.Error(t, Elemental(N).Validate(Cubic))
}

func TestMaterialValidateCheckerboard(t *testing.T) {
	require.NoError(t, Checkerboard(C, Si).Validate(Cubic))
	require.NoError(t, Checkerboard(Si, C).Validate(Cubic)) // unordered
	require.Error(t, Checkerboard(C, N).Validate(Cubic))
}

func TestCubicConstantDiamondCarbon(t *testing.T) {
	a := Elemental(C).CubicConstant()
	assert.InDelta(t, 0.3508, a, 0.001)
}

func TestAtAtomicParity(t *testing.T) {
	m := Checkerboard(C, Si)
	assert.Equal(t, C, m.AtAtomicParity(0))
	assert.Equal(t, Si, m.AtAtomicParity(1))
	assert.Equal(t, Si, m.AtAtomicParity(3))
}

func TestBulkBondLength(t *testing.T) {
	bl := Elemental(C).BulkBondLength()
	assert.InDelta(t, 0.152, bl, 0.002)
}

package lattice

import (
	"math"

	"github.com/arxos/crystalgeo/internal/element"
)

// Bounds is the hkl-space (or h, h+2k, l for hexagonal) extent of the
// region to materialize. Components must be integer-valued;
// validate enforces that within a 0.001 nm-equivalent tolerance.
type Bounds struct {
	H, K, L float64
}

const boundsTolerance = 0.001

func (b Bounds) validate() error {
	for _, v := range []float64{b.H, b.K, b.L} {
		if math.Abs(v-math.Round(v)) > boundsTolerance {
			return newErr(InvalidBounds, "lattice", "bounds component %.6f is not integer-valued within tolerance %.3f", v, boundsTolerance)
		}
		if v < 0 {
			return newErr(InvalidBounds, "lattice", "bounds component %.6f is negative", v)
		}
	}
	return nil
}

func (b Bounds) ints() (h, k, l int64) {
	return int64(math.Round(b.H)), int64(math.Round(b.K)), int64(math.Round(b.L))
}

// grid is the voxel engine shared by the cubic and hexagonal evaluators. It
// owns two parallel arrays: cells (atomic numbers per slot, mutated in
// place by Replace) and the scope stack, whose root accumulator is seeded
// with the bounding-box clip.
type grid struct {
	basis        element.Basis
	nx, ny, nz   int64 // voxel dimensions, already padded/ceiled
	slotsPerCell int
	offsets      []vec3i
	scaleOrigin  vec3
	scaleNormal  vec3
	cells        []element.Number // len = cellCount*slotsPerCell
	scopes       *scopeStack
	material     element.Material
	declaredH, declaredK, declaredL int64 // un-padded bound, for the bounding clip
}

func (g *grid) cellCount() int64 { return g.nx * g.ny * g.nz }

// cellIndex returns the flat cell index for voxel corner (x,y,z) in
// (z,y,x)-major order, matching the deterministic emission order.
func (g *grid) cellIndex(x, y, z int64) int64 {
	return (z*g.ny+y)*g.nx + x
}

func (g *grid) slotSlice(cellIdx int64) []element.Number {
	start := cellIdx * int64(g.slotsPerCell)
	return g.cells[start : start+int64(g.slotsPerCell)]
}

// seedMaterial fills every cell's slots with the material's species,
// honoring checkerboard parity by slot index, then clips to the declared
// bounds via the six bounding planes before any user script runs.
func (g *grid) seedMaterial() {
	for slot := 0; slot < g.slotsPerCell; slot++ {
		species := g.material.AtAtomicParity(slot % 2)
		for c := int64(0); c < g.cellCount(); c++ {
			g.cells[c*int64(g.slotsPerCell)+int64(slot)] = species
		}
	}
	initial := make([]uint16, g.cellCount())
	allOnes := allOnesMask(g.slotsPerCell)
	for i := range initial {
		initial[i] = allOnes
	}
	g.clipToBounds(initial)

	// The clip must reach the slots themselves, not just the mask: emission
	// walks atomic numbers, so a padding cell left seeded would leak atoms
	// outside the declared bounds.
	for c := int64(0); c < g.cellCount(); c++ {
		mask := initial[c]
		if mask == allOnes {
			continue
		}
		slots := g.slotSlice(c)
		for s := range slots {
			if mask&(1<<uint(s)) == 0 {
				slots[s] = element.Empty
			}
		}
	}

	g.scopes = newScopeStack(allOnes)
	g.scopes.initAccum(initial)
}

func allOnesMask(slots int) uint16 {
	return uint16(1<<uint(slots)) - 1
}

// clipToBounds ANDs the six axis-aligned bounding planes into initial,
// zeroing slots of padding cells and of any slot whose scaled coordinate
// runs past the closed bounds box [0, bounds·scale]. Far-face atoms sit
// exactly on the boundary and are kept.
func (g *grid) clipToBounds(initial []uint16) {
	hiScaled := vec3i{
		X: g.declaredH * int64(g.scaleOrigin.X),
		Y: g.declaredK * int64(g.scaleOrigin.Y),
		Z: g.declaredL * int64(g.scaleOrigin.Z),
	}
	for z := int64(0); z < g.nz; z++ {
		for y := int64(0); y < g.ny; y++ {
			for x := int64(0); x < g.nx; x++ {
				idx := g.cellIndex(x, y, z)
				corner := vec3i{x, y, z}.scale(vec3i{int64(g.scaleOrigin.X), int64(g.scaleOrigin.Y), int64(g.scaleOrigin.Z)})
				var mask uint16
				for s, off := range g.offsets {
					global := vec3i{corner.X + off.X, corner.Y + off.Y, corner.Z + off.Z}
					if global.X <= hiScaled.X &&
						global.Y <= hiScaled.Y &&
						global.Z <= hiScaled.Z {
						mask |= 1 << uint(s)
					}
				}
				initial[idx] &= mask
			}
		}
	}
}

package lattice

import (
	"runtime"

	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/parallel"
)

// cubicBlockSizes are the hierarchical acceleration tiers, largest first.
// The recursion bottoms out at per-cell (size 1)
// evaluation.
var cubicBlockSizes = []int64{32, 16, 8, 4, 2}

func newCubicGrid(bounds Bounds, material element.Material) (*grid, error) {
	h, k, l := bounds.ints()
	// The bounds box is closed: atoms on the far faces belong to the region,
	// so the grid carries one extra cell per axis to hold them (x additionally
	// padded to a multiple of 4 for the block recursion stride).
	nx := ceilToMultiple(h+1, 4)
	ny := k + 1
	nz := l + 1
	g := &grid{
		basis:        element.Cubic,
		nx:           nx,
		ny:           ny,
		nz:           nz,
		slotsPerCell: 8,
		offsets:      cubicOffsets[:],
		scaleOrigin:  cubicScaleOrigin,
		scaleNormal:  cubicScaleNormal,
		material:     material,
		declaredH:    h,
		declaredK:    k,
		declaredL:    l,
	}
	g.cells = make([]element.Number, g.cellCount()*int64(g.slotsPerCell))
	g.seedMaterial()
	if material.AtAtomicParity(0) == element.Au || (!material.IsElemental() && (material.E1 == element.Au || material.E2 == element.Au)) {
		g.restrictToGoldSlots()
	}
	return g, nil
}

func ceilToMultiple(v, m int64) int64 {
	if v%m == 0 {
		return v
	}
	return v + (m - v%m)
}

// restrictToGoldSlots zeroes the tetrahedral sub-lattice slots, realizing
// gold as a face-centered-cubic subset of the diamond-cubic slot set.
// Both the cells and the root accumulator are narrowed so
// the dead slots can neither be emitted nor re-selected by Replace.
func (g *grid) restrictToGoldSlots() {
	root := g.scopes.records[0].accum
	for i := range root {
		root[i] &= goldSlotMask
	}
	for c := int64(0); c < g.cellCount(); c++ {
		slots := g.slotSlice(c)
		for s := range slots {
			if goldSlotMask&(1<<uint(s)) == 0 {
				slots[s] = element.Empty
			}
		}
	}
}

// evaluateCubicPlane folds a half-space against every cell's slot set into
// the current scope's accumulator, using the 5-tier hierarchical block
// test to skip the per-slot dot product wherever a whole block lies
// entirely on one side of the plane.
func (g *grid) evaluateCubicPlane(n vec3) {
	origin := g.scopes.currentOrigin()
	scaledOrigin := origin.scaleToInt(cubicScaleOrigin)
	scaledNormal := n.scaleToInt(cubicScaleNormal)

	outerSize := cubicBlockSizes[0]
	bx := ceilDiv(g.nx, outerSize)
	by := ceilDiv(g.ny, outerSize)
	bz := ceilDiv(g.nz, outerSize)
	outerCount := bx * by * bz

	visit := func(bi int64) {
		x := (bi % bx) * outerSize
		y := ((bi / bx) % by) * outerSize
		z := (bi / (bx * by)) * outerSize
		g.evalCubicBlock(x, y, z, outerSize, 0, scaledOrigin, scaledNormal)
	}

	if outerCount >= 4 {
		workers := clampWorkers(int(outerCount))
		parallel.Run(workers, int(outerCount), func(i int) { visit(int64(i)) })
	} else {
		for i := int64(0); i < outerCount; i++ {
			visit(i)
		}
	}
}

func clampWorkers(tasks int) int {
	w := runtime.GOMAXPROCS(0)
	if w < 1 {
		w = 1
	}
	if w > 8 {
		w = 8
	}
	if w > tasks {
		w = tasks
	}
	return w
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// evalCubicBlock tests the 8-corner bound of the voxel block
// [x,x+size)×[y,y+size)×[z,z+size), recursing through cubicBlockSizes
// until it can classify the block as wholly inside, wholly outside, or
// (at size 1) falls through to the exact per-slot test.
func (g *grid) evalCubicBlock(x, y, z, size, tier int64, origin, normal vec3i) {
	x1, y1, z1 := minI(x+size, g.nx), minI(y+size, g.ny), minI(z+size, g.nz)
	if x >= x1 || y >= y1 || z >= z1 {
		return
	}
	if size == 1 {
		g.evalCubicCell(x, y, z, origin, normal)
		return
	}

	corners := [8][3]int64{
		{x, y, z}, {x1, y, z}, {x, y1, z}, {x1, y1, z},
		{x, y, z1}, {x1, y, z1}, {x, y1, z1}, {x1, y1, z1},
	}
	allPos, allNeg := true, true
	for _, c := range corners {
		d := cornerDot(c, origin, normal)
		if d > 0 {
			allNeg = false
		} else {
			allPos = false
		}
	}

	switch {
	case allPos:
		g.fillBlock(x, x1, y, y1, z, z1, allOnesMask(8))
	case allNeg:
		g.fillBlock(x, x1, y, y1, z, z1, 0)
	default:
		next := int64(1)
		for _, s := range cubicBlockSizes {
			if s < size {
				next = s
				break
			}
		}
		if next == size {
			next = size / 2
			if next < 1 {
				next = 1
			}
		}
		for zz := z; zz < z1; zz += next {
			for yy := y; yy < y1; yy += next {
				for xx := x; xx < x1; xx += next {
					g.evalCubicBlock(xx, yy, zz, next, tier+1, origin, normal)
				}
			}
		}
	}
}

func cornerDot(c [3]int64, origin, normal vec3i) int64 {
	gx := c[0]*4 - origin.X
	gy := c[1]*4 - origin.Y
	gz := c[2]*4 - origin.Z
	return gx*normal.X + gy*normal.Y + gz*normal.Z
}

func minI(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// fillBlock applies a uniform cell mask (all slots in or all slots out) to
// every cell in the block without visiting per-slot offsets.
func (g *grid) fillBlock(x0, x1, y0, y1, z0, z1 int64, mask uint16) {
	for z := z0; z < z1; z++ {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				g.scopes.applyCellMask(int(g.cellIndex(x, y, z)), mask)
			}
		}
	}
}

// evalCubicCell performs the exact per-slot dot product for one voxel.
func (g *grid) evalCubicCell(x, y, z int64, origin, normal vec3i) {
	var mask uint16
	base := vec3i{x * 4, y * 4, z * 4}
	for s, off := range g.offsets {
		global := vec3i{base.X + off.X, base.Y + off.Y, base.Z + off.Z}
		delta := global.sub(origin)
		if delta.dot(normal) > 0 {
			mask |= 1 << uint(s)
		}
	}
	g.scopes.applyCellMask(int(g.cellIndex(x, y, z)), mask)
}

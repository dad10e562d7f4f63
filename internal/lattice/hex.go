package lattice

import (
	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/parallel"
)

// hexTileSize is the hexagonal grid's single-level tiling size.
const hexTileSize = 32

func newHexGrid(bounds Bounds, material element.Material) (*grid, error) {
	h, k, l := bounds.ints()
	// Closed bounds box, as in the cubic grid: one extra cell per axis holds
	// the far-face atoms.
	g := &grid{
		basis:        element.Hexagonal,
		nx:           h + 1,
		ny:           k + 1,
		nz:           l + 1,
		slotsPerCell: 12,
		offsets:      hexOffsets[:],
		scaleOrigin:  hexScaleOrigin,
		scaleNormal:  hexScaleNormal,
		material:     material,
		declaredH:    h,
		declaredK:    k,
		declaredL:    l,
	}
	g.cells = make([]element.Number, g.cellCount()*int64(g.slotsPerCell))
	g.seedMaterial()
	return g, nil
}

// evaluateHexPlane mirrors evaluateCubicPlane but with a single 32-voxel
// tile test instead of a 5-level recursion, and the hex normal/origin
// metric adjustment.
func (g *grid) evaluateHexPlane(n vec3) {
	origin := g.scopes.currentOrigin()
	adjNormal := hexAdjustNormal(n)
	scaledOrigin := origin.scaleToInt(hexScaleOrigin)
	scaledNormal := adjNormal.scaleToInt(hexScaleNormal)

	bx := ceilDiv(g.nx, hexTileSize)
	by := ceilDiv(g.ny, hexTileSize)
	bz := ceilDiv(g.nz, hexTileSize)
	tileCount := bx * by * bz

	visit := func(ti int64) {
		x := (ti % bx) * hexTileSize
		y := ((ti / bx) % by) * hexTileSize
		z := (ti / (bx * by)) * hexTileSize
		g.evalHexTile(x, y, z, scaledOrigin, scaledNormal)
	}

	if tileCount >= 4 {
		workers := clampWorkers(int(tileCount))
		parallel.Run(workers, int(tileCount), func(i int) { visit(int64(i)) })
	} else {
		for i := int64(0); i < tileCount; i++ {
			visit(i)
		}
	}
}

func (g *grid) evalHexTile(x, y, z int64, origin, normal vec3i) {
	x1, y1, z1 := minI(x+hexTileSize, g.nx), minI(y+hexTileSize, g.ny), minI(z+hexTileSize, g.nz)
	if x >= x1 || y >= y1 || z >= z1 {
		return
	}
	corners := [8][3]int64{
		{x, y, z}, {x1, y, z}, {x, y1, z}, {x1, y1, z},
		{x, y, z1}, {x1, y, z1}, {x, y1, z1}, {x1, y1, z1},
	}
	allPos, allNeg := true, true
	for _, c := range corners {
		d := hexCornerDot(c, origin, normal)
		if d > 0 {
			allNeg = false
		} else {
			allPos = false
		}
	}
	switch {
	case allPos:
		g.fillBlock(x, x1, y, y1, z, z1, allOnesMask(12))
	case allNeg:
		g.fillBlock(x, x1, y, y1, z, z1, 0)
	default:
		for zz := z; zz < z1; zz++ {
			for yy := y; yy < y1; yy++ {
				for xx := x; xx < x1; xx++ {
					g.evalHexCell(xx, yy, zz, origin, normal)
				}
			}
		}
	}
}

func hexCornerDot(c [3]int64, origin, normal vec3i) int64 {
	gx := c[0]*3 - origin.X
	gy := c[1]*3 - origin.Y
	gz := c[2]*8 - origin.Z
	return gx*normal.X + gy*normal.Y + gz*normal.Z
}

func (g *grid) evalHexCell(x, y, z int64, origin, normal vec3i) {
	var mask uint16
	base := vec3i{x * 3, y * 3, z * 8}
	for s, off := range g.offsets {
		global := vec3i{base.X + off.X, base.Y + off.Y, base.Z + off.Z}
		delta := global.sub(origin)
		if delta.dot(normal) > 0 {
			mask |= 1 << uint(s)
		}
	}
	g.scopes.applyCellMask(int(g.cellIndex(x, y, z)), mask)
}

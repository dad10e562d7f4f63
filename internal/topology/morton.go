package topology

import (
	"math"
	"sort"

	"github.com/arxos/crystalgeo/internal/element"
)

// mortonBits is the per-axis key width: 10 bits per axis, interleaved
// into a 30-bit z-order key.
const mortonBits = 10
const mortonScale = (1 << mortonBits) - 1

// mortonKeys computes the bounding box of atoms, rounds its side to a
// power-of-two, and returns one 30-bit Morton key per atom in input order.
func mortonKeys(atoms []element.Atom) []uint32 {
	keys := make([]uint32, len(atoms))
	if len(atoms) == 0 {
		return keys
	}
	minX, minY, minZ := atoms[0].X, atoms[0].Y, atoms[0].Z
	maxX, maxY, maxZ := atoms[0].X, atoms[0].Y, atoms[0].Z
	for _, a := range atoms {
		if a.X < minX {
			minX = a.X
		}
		if a.Y < minY {
			minY = a.Y
		}
		if a.Z < minZ {
			minZ = a.Z
		}
		if a.X > maxX {
			maxX = a.X
		}
		if a.Y > maxY {
			maxY = a.Y
		}
		if a.Z > maxZ {
			maxZ = a.Z
		}
	}
	extent := maxX - minX
	if e := maxY - minY; e > extent {
		extent = e
	}
	if e := maxZ - minZ; e > extent {
		extent = e
	}
	side := powerOfTwoSide(float64(extent))

	for i, a := range atoms {
		nx := normalizeCoord(float64(a.X-minX), side)
		ny := normalizeCoord(float64(a.Y-minY), side)
		nz := normalizeCoord(float64(a.Z-minZ), side)
		keys[i] = interleave3(nx, ny, nz)
	}
	return keys
}

func powerOfTwoSide(extent float64) float64 {
	if extent <= 0 {
		return 1
	}
	return math.Pow(2, math.Ceil(math.Log2(extent)))
}

func normalizeCoord(v, side float64) uint32 {
	if side <= 0 {
		return 0
	}
	f := v / side
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	d := uint32(f * mortonScale)
	if d > mortonScale {
		d = mortonScale
	}
	return d
}

// interleave3 interleaves the low 10 bits of x, y, z into a 30-bit z-order
// key: bit i of x goes to position 3i, y to 3i+1, z to 3i+2.
func interleave3(x, y, z uint32) uint32 {
	return spread3(x) | (spread3(y) << 1) | (spread3(z) << 2)
}

func spread3(v uint32) uint32 {
	v &= 0x3FF
	v = (v | (v << 16)) & 0x30000FF
	v = (v | (v << 8)) & 0x300F00F
	v = (v | (v << 4)) & 0x30C30C3
	v = (v | (v << 2)) & 0x09249249
	return v
}

// mortonSortAtoms returns atoms reordered by ascending Morton key (stable:
// ties keep input order, which makes re-sorting an already-sorted set an
// identity permutation) and the
// permutation vector perm such that sorted[k] == atoms[perm[k]].
func mortonSortAtoms(atoms []element.Atom) (sorted []element.Atom, perm []int) {
	keys := mortonKeys(atoms)
	perm = make([]int, len(atoms))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return keys[perm[a]] < keys[perm[b]]
	})
	sorted = make([]element.Atom, len(atoms))
	for k, orig := range perm {
		sorted[k] = atoms[orig]
	}
	return sorted, perm
}

// mortonSortThreshold is the population below which sorting is skipped.
const mortonSortThreshold = 10000

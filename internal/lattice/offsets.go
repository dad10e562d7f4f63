package lattice

// cubicScaleOrigin / cubicScaleNormal are the s_o / s_n scale factors for
// the cubic basis: scaled origin = origin·4, scaled normal =
// normal·1.
var cubicScaleOrigin = vec3{4, 4, 4}
var cubicScaleNormal = vec3{1, 1, 1}

// cubicOffsets are the 8 diamond-cubic primitive slot positions, in units
// of 1/4 of the cubic cell (so components run 0..3). Slots 0-3 are the FCC
// sub-lattice; slots 4-7 are the interpenetrating tetrahedral sub-lattice.
// Gold (FCC) keeps only slots 0-3.
var cubicOffsets = [8]vec3i{
	{0, 0, 0}, {0, 2, 2}, {2, 0, 2}, {2, 2, 0}, // FCC sub-lattice
	{1, 1, 1}, {1, 3, 3}, {3, 1, 3}, {3, 3, 1}, // tetrahedral sub-lattice
}

// goldSlotMask keeps only the FCC sub-lattice slots (0-3), zeroing the
// interpenetrating tetrahedral slots 4-7.
const goldSlotMask uint16 = 0x0F

// hexScaleOrigin / hexScaleNormal are the s_o / s_n scale factors for the
// hexagonal basis: scaled origin = origin·(3,3,8), scaled normal =
// normal·(8,8,3).
var hexScaleOrigin = vec3{3, 3, 8}
var hexScaleNormal = vec3{8, 8, 3}

// hexOffsets are the 12 lonsdaleite slot positions for one HKL-prism grid
// cell: the three in-plane columns (0,0), (1,2), (2,1) in thirds of the
// prism side, each carrying the four wurtzite z-layers 0, 3, 4, 7 in
// eighths of the prism height. 8 "base" atoms form the two interpenetrating
// wurtzite sub-lattices (all of column (2,1) plus layers 0 and 3 of the
// other two columns); the 4 "ring" atoms are layers 4 and 7 of columns
// (0,0) and (1,2). All
// components stay strictly below the cell scale, so no slot ever coincides
// with a neighboring cell's slot.
var hexOffsets = [12]vec3i{
	// base: primary wurtzite dimer pair + its interpenetrating partner
	{0, 0, 0}, {0, 0, 3},
	{2, 1, 4}, {2, 1, 7},
	{1, 2, 0}, {1, 2, 3},
	{2, 1, 0}, {2, 1, 3},
	// ring: the remaining column entries
	{0, 0, 4}, {0, 0, 7},
	{1, 2, 4}, {1, 2, 7},
}

// hexAdjustNormal applies the basis-to-XYZ metric (MᵀM) for the hexagonal
// lattice by subtracting half of the normal's swapped components — the
// off-diagonal term of the hex Gram matrix in the (h, h+2k) basis.
func hexAdjustNormal(n vec3) vec3 {
	return vec3{
		X: n.X - 0.5*n.Y,
		Y: n.Y - 0.5*n.X,
		Z: n.Z,
	}
}

// hklToXYZCubic is the identity transform for the cubic basis.
func hklToXYZCubic(h, k, l float64) (x, y, z float64) { return h, k, l }

// hklToXYZHex maps HKL-prism coordinates to world XYZ:
// x ← x − y/2, y ← y·√3/2, z ← z.
func hklToXYZHex(h, k, l float64) (x, y, z float64) {
	const sqrt3over2 = 0.8660254037844386
	return h - k/2, k * sqrt3over2, l
}

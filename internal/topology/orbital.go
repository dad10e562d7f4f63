package topology

import (
	"math"
	"sort"

	"github.com/arxos/crystalgeo/internal/element"
)

// Hybridization selects the nonbonding-orbital geometry requested from
// DeriveOrbitals.
type Hybridization int

const (
	SP Hybridization = iota
	SP2
	SP3
)

// MaxOrbitals is the per-atom orbital capacity.
const MaxOrbitals = 2

// OrbitalStorage holds up to MaxOrbitals unit vectors naming an atom's
// nonbonding valence directions.
type OrbitalStorage struct {
	Dirs  [MaxOrbitals]Vec3
	Count int
}

// DeriveOrbitals computes, per atom, unit vectors for the valence left over
// beyond its existing covalent bonds. hyb only affects atoms with a single
// neighbor (SP gives one orbital opposite the bond). For two or three
// neighbors the result depends on the remaining valence alone and hyb is
// not consulted: one remaining orbital points opposite the sum of the bond
// directions, two remaining orbitals complete a tetrahedron.
// Atoms with no derivable orbital (V-N<=0, or N<2 outside
// the sp acetylene-radical case) get a zero-count entry: placement is left
// to an external heuristic.
func DeriveOrbitals(atoms []element.Atom, bonds []element.Bond, hyb Hybridization) ([]OrbitalStorage, error) {
	neighborDirs := make([][]Vec3, len(atoms))
	for _, b := range bonds {
		if int(b.I) >= len(atoms) || int(b.J) >= len(atoms) {
			return nil, newErr(InternalInvariant, "orbital", 0, int(b.I), "bond references atom index %d out of range [0,%d)", b.J, len(atoms))
		}
		ai, aj := atoms[b.I], atoms[b.J]
		dir := atomVec(aj).Sub(atomVec(ai)).Normalize()
		neighborDirs[b.I] = append(neighborDirs[b.I], dir)
		neighborDirs[b.J] = append(neighborDirs[b.J], dir.Scale(-1))
	}

	out := make([]OrbitalStorage, len(atoms))
	for i, a := range atoms {
		if a.Number == element.Empty {
			continue
		}
		n := neighborDirs[i]
		v := element.Valence(a.Number)
		remaining := v - len(n)
		if remaining <= 0 {
			continue
		}
		out[i] = deriveOne(n, remaining, hyb)
	}
	return out, nil
}

func atomVec(a element.Atom) Vec3 { return Vec3{X: float64(a.X), Y: float64(a.Y), Z: float64(a.Z)} }

// deriveOne computes the remaining orbital directions for a single atom
// given its existing bond-direction set n and the number of orbitals the
// valence leaves undetermined.
func deriveOne(n []Vec3, remaining int, hyb Hybridization) OrbitalStorage {
	switch len(n) {
	case 0:
		// Free atom: placement is underdetermined.
		return OrbitalStorage{}
	case 1:
		if hyb == SP && remaining >= 1 {
			// Acetylene radical: single orbital collinear with the bond
			// axis, pointing away from the neighbor.
			return OrbitalStorage{Dirs: [2]Vec3{n[0].Scale(-1)}, Count: 1}
		}
		return OrbitalStorage{}
	case 2:
		if remaining == 1 {
			// One orbital for any hybridization: -(b1+b2) normalized,
			// the trigonal-planar third vertex.
			dir := n[0].Add(n[1]).Scale(-1).Normalize()
			return OrbitalStorage{Dirs: [2]Vec3{dir}, Count: 1}
		}
		if remaining == 2 {
			return deriveTwoFromTwo(n[0], n[1])
		}
		return OrbitalStorage{}
	case 3:
		if remaining == 1 {
			dir := n[0].Add(n[1]).Add(n[2]).Scale(-1).Normalize()
			return OrbitalStorage{Dirs: [2]Vec3{dir}, Count: 1}
		}
		return OrbitalStorage{}
	default:
		return OrbitalStorage{}
	}
}

// deriveTwoFromTwo completes an sp³ tetrahedron given two existing bond
// directions b1,b2: the remaining pair v3,v4 lies symmetric about the
// plane spanned by b1,b2's bisector and the axis perpendicular to it, such
// that b1+b2+v3+v4=0 and all four are unit vectors. Ordered by ascending
// projection on the fixed X axis so the result is deterministic.
func deriveTwoFromTwo(b1, b2 Vec3) OrbitalStorage {
	s := b1.Add(b2).Scale(-1) // = v3+v4
	u := s.Normalize()
	cosA := s.Len() / 2
	if cosA > 1 {
		cosA = 1
	}
	sinA := 0.0
	if rem := 1 - cosA*cosA; rem > 0 {
		sinA = math.Sqrt(rem)
	}
	w := b1.Cross(b2).Normalize()
	if w.Len() == 0 {
		// Degenerate (b1, b2 collinear): fall back to an arbitrary
		// perpendicular axis so the construction stays well-defined.
		w = arbitraryPerp(u)
	}
	v3 := u.Scale(cosA).Add(w.Scale(sinA))
	v4 := u.Scale(cosA).Sub(w.Scale(sinA))

	dirs := [2]Vec3{v3, v4}
	sort.Slice(dirs[:], func(i, j int) bool { return dirs[i].X < dirs[j].X })
	return OrbitalStorage{Dirs: dirs, Count: 2}
}

func arbitraryPerp(v Vec3) Vec3 {
	ref := Vec3{1, 0, 0}
	if abs(v.X) > 0.9 {
		ref = Vec3{0, 1, 0}
	}
	return v.Cross(ref).Normalize()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

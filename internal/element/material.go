package element

import (
	"fmt"
	"math"
)

// Material selects either a single element or an alternating two-element
// checkerboard lattice, restricted to a fixed allow-list.
type Material struct {
	E1, E2 Number // E2 == Empty for an elemental material.
}

// Elemental constructs a single-species material.
func Elemental(e Number) Material { return Material{E1: e} }

// Checkerboard constructs a two-species alternating material. Order does
// not matter — the pair is validated unordered.
func Checkerboard(e1, e2 Number) Material { return Material{E1: e1, E2: e2} }

// IsElemental reports whether m names exactly one species.
func (m Material) IsElemental() bool { return m.E2 == Empty }

var elementalAllowed = map[Number]bool{C: true, Si: true, Ge: true, Au: true}

var checkerboardAllowed = map[[2]Number]bool{
	pairKey(B, N):  true,
	pairKey(B, P):  true,
	pairKey(B, As): true,
	pairKey(C, Si): true,
	pairKey(C, Ge): true,
	pairKey(N, Al): true,
	pairKey(N, Ga): true,
	pairKey(Al, P): true,
	pairKey(Al, As): true,
	pairKey(P, Ga): true,
	pairKey(Ga, As): true,
}

func pairKey(a, b Number) [2]Number {
	if a > b {
		a, b = b, a
	}
	return [2]Number{a, b}
}

// Basis names the crystal symmetry a material is evaluated in.
type Basis int

const (
	Cubic Basis = iota
	Hexagonal
)

func (b Basis) String() string {
	if b == Hexagonal {
		return "hexagonal"
	}
	return "cubic"
}

// Validate checks the (material, basis) pair against the allow-list. The
// only basis restriction is gold (FCC subset of the cubic diamond slots):
// any material containing gold is rejected in the hexagonal basis. Every
// other allow-listed elemental species or checkerboard pair is accepted in
// both bases.
func (m Material) Validate(basis Basis) error {
	if m.IsElemental() {
		if !elementalAllowed[m.E1] {
			return fmt.Errorf("material: element %s is not a supported elemental lattice species", Symbol(m.E1))
		}
		if basis == Hexagonal && m.E1 == Au {
			return fmt.Errorf("material: gold has no hexagonal (lonsdaleite) polymorph in this system")
		}
		return nil
	}
	if !checkerboardAllowed[pairKey(m.E1, m.E2)] {
		return fmt.Errorf("material: checkerboard pair (%s,%s) is not supported", Symbol(m.E1), Symbol(m.E2))
	}
	if basis == Hexagonal && (m.E1 == Au || m.E2 == Au) {
		return fmt.Errorf("material: gold has no hexagonal (lonsdaleite) polymorph in this system")
	}
	return nil
}

// AtAtomicParity returns the species placed at a checkerboard slot of the
// given parity (0 or 1). For elemental materials it always returns E1.
func (m Material) AtAtomicParity(parity int) Number {
	if m.IsElemental() {
		return m.E1
	}
	if parity&1 == 0 {
		return m.E1
	}
	return m.E2
}

// radiiSum returns r1+r2 in nanometers for lattice-constant arithmetic. For
// an elemental material this is 2*r(E1).
func (m Material) radiiSum() float64 {
	if m.IsElemental() {
		return 2 * CovalentRadius(m.E1)
	}
	return CovalentRadius(m.E1) + CovalentRadius(m.E2)
}

// CubicConstant returns the cubic (diamond/FCC) lattice constant in
// nanometers: a = (4/√3)·(r1+r2).
func (m Material) CubicConstant() float64 {
	return (4 / math.Sqrt(3)) * m.radiiSum()
}

// HexSideConstant returns the hexagonal prism side length: a_cubic/√2.
func (m Material) HexSideConstant() float64 {
	return m.CubicConstant() / math.Sqrt2
}

// HexPrismHeight returns the lonsdaleite prism height:
// a_cubic·(2/√6)·2.
func (m Material) HexPrismHeight() float64 {
	return m.CubicConstant() * (2 / math.Sqrt(6)) * 2
}

// BulkBondLength is the nearest-neighbor distance in the pristine diamond
// cubic crystal: a_cubic·√3/4.
func (m Material) BulkBondLength() float64 {
	return m.CubicConstant() * math.Sqrt(3) / 4
}

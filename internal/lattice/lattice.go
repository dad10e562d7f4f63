// Package lattice materializes atomic positions of a bounded diamond-cubic,
// FCC-gold, or lonsdaleite-hexagonal region and carves it with a script of
// composable half-space operations.
package lattice

import "github.com/arxos/crystalgeo/internal/element"

// Lattice evaluates a script against a single basis. It holds no state
// between Evaluate calls — each call owns its own grid and scope stack, so
// separate top-level evaluations never share mutable state.
type Lattice struct {
	Basis element.Basis
}

// New constructs a Lattice for the given basis.
func New(basis element.Basis) *Lattice { return &Lattice{Basis: basis} }

// Evaluate runs script against a freshly materialized grid for bounds and
// material, returning the surviving atoms in deterministic emission order.
func (l *Lattice) Evaluate(bounds Bounds, material element.Material, script []Op) ([]element.Atom, error) {
	if err := bounds.validate(); err != nil {
		return nil, err
	}
	if err := material.Validate(l.Basis); err != nil {
		return nil, &Error{Kind: MaterialUnsupported, Subsys: "lattice", Message: err.Error()}
	}

	var g *grid
	var err error
	if l.Basis == element.Hexagonal {
		g, err = newHexGrid(bounds, material)
	} else {
		g, err = newCubicGrid(bounds, material)
	}
	if err != nil {
		return nil, err
	}

	if err := l.run(g, script); err != nil {
		return nil, err
	}
	if g.scopes.top != 0 {
		return nil, newErr(EmptyScope, "lattice", "script ended with %d scope(s) still open", g.scopes.top)
	}
	return emit(g), nil
}

func (l *Lattice) run(g *grid, script []Op) error {
	for i, op := range script {
		var err error
		switch v := op.(type) {
		case OpPushScope:
			g.scopes.push(v.Mode)
		case OpPopScope:
			err = g.scopes.pop()
		case OpPushOrigin:
			err = g.scopes.pushOrigin(v.V)
		case OpPopOrigin:
			err = g.scopes.popOrigin()
		case OpPlane:
			if l.Basis == element.Hexagonal {
				g.evaluateHexPlane(v.Normal)
			} else {
				g.evaluateCubicPlane(v.Normal)
			}
		case OpReplace:
			g.applyReplace(v.Spec)
		default:
			err = newErr(InvalidScript, "lattice", "unrecognized op at index %d", i)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyReplace uses the current scope's accumulator: any slot whose bit is
// set and whose atomic number is non-empty is replaced. Deleted atoms
// cannot be restored by a later Replace.
func (g *grid) applyReplace(spec ReplaceSpec) {
	accum := g.scopes.current().accum
	target := element.Empty
	if !spec.empty {
		target = spec.element
	}
	for cellIdx := int64(0); cellIdx < g.cellCount(); cellIdx++ {
		mask := accum[cellIdx]
		if mask == 0 {
			continue
		}
		slots := g.slotSlice(cellIdx)
		for s := 0; s < g.slotsPerCell; s++ {
			if mask&(1<<uint(s)) == 0 {
				continue
			}
			if slots[s] != element.Empty {
				slots[s] = target
			}
		}
	}
}

// emit walks cells in (z,y,x) order and returns every non-empty slot as a
// world-space Atom, in deterministic emission order.
func emit(g *grid) []element.Atom {
	atoms := make([]element.Atom, 0, g.cellCount())
	a := g.material.CubicConstant()
	hexSide := g.material.HexSideConstant()
	hexHeight := g.material.HexPrismHeight()

	for z := int64(0); z < g.nz; z++ {
		for y := int64(0); y < g.ny; y++ {
			for x := int64(0); x < g.nx; x++ {
				cellIdx := g.cellIndex(x, y, z)
				slots := g.slotSlice(cellIdx)
				for s, off := range g.offsets {
					number := slots[s]
					if number == element.Empty {
						continue
					}
					var h, k, l float64
					if g.basis == element.Hexagonal {
						h = float64(x) + float64(off.X)/hexScaleOrigin.X
						k = float64(y) + float64(off.Y)/hexScaleOrigin.Y
						l = float64(z) + float64(off.Z)/hexScaleOrigin.Z
						xx, yy, zz := hklToXYZHex(h, k, l)
						atoms = append(atoms, element.Atom{
							X:      float32(xx * hexSide),
							Y:      float32(yy * hexSide),
							Z:      float32(zz * hexHeight),
							Number: number,
						})
						continue
					}
					h = float64(x) + float64(off.X)/cubicScaleOrigin.X
					k = float64(y) + float64(off.Y)/cubicScaleOrigin.Y
					l = float64(z) + float64(off.Z)/cubicScaleOrigin.Z
					xx, yy, zz := hklToXYZCubic(h, k, l)
					atoms = append(atoms, element.Atom{
						X:      float32(xx * a),
						Y:      float32(yy * a),
						Z:      float32(zz * a),
						Number: number,
					})
				}
			}
		}
	}
	return atoms
}

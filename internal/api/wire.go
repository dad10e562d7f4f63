package api

import (
	"fmt"

	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/lattice"
)

// AtomJSON is the wire form of element.Atom for request/response bodies,
// including the GET .../atoms response (no endpoint uses the binary
// 16-byte form in internal/element/wire.go).
type AtomJSON struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Z      float32 `json:"z"`
	Number uint8   `json:"number"`
}

func (a AtomJSON) toAtom() element.Atom {
	return element.Atom{X: a.X, Y: a.Y, Z: a.Z, Number: element.Number(a.Number)}
}

func atomToJSON(a element.Atom) AtomJSON {
	return AtomJSON{X: a.X, Y: a.Y, Z: a.Z, Number: uint8(a.Number)}
}

// BondJSON is the wire form of element.Bond.
type BondJSON struct {
	I uint32 `json:"i"`
	J uint32 `json:"j"`
}

func (b BondJSON) toBond() element.Bond { return element.Bond{I: b.I, J: b.J} }

func bondToJSON(b element.Bond) BondJSON { return BondJSON{I: b.I, J: b.J} }

// MaterialJSON is the wire form of element.Material.
type MaterialJSON struct {
	E1 uint8 `json:"e1"`
	E2 uint8 `json:"e2"`
}

func (m MaterialJSON) toMaterial() element.Material {
	return element.Material{E1: element.Number(m.E1), E2: element.Number(m.E2)}
}

// BoundsJSON is the wire form of lattice.Bounds.
type BoundsJSON struct {
	H float64 `json:"h"`
	K float64 `json:"k"`
	L float64 `json:"l"`
}

func (b BoundsJSON) toBounds() lattice.Bounds {
	return lattice.Bounds{H: b.H, K: b.K, L: b.L}
}

// Vec3JSON is the wire form of lattice.Vec3 (an Origin or a plane Normal).
type Vec3JSON struct {
	H float64 `json:"h"`
	K float64 `json:"k"`
	L float64 `json:"l"`
}

func (v Vec3JSON) toVec3() lattice.Vec3 { return lattice.Vec3{H: v.H, K: v.K, L: v.L} }

// ReplaceJSON is the wire form of a ReplaceSpec: either "empty" or a target
// element number.
type ReplaceJSON struct {
	Empty   bool  `json:"empty"`
	Element uint8 `json:"element"`
}

func (r ReplaceJSON) toSpec() lattice.ReplaceSpec {
	if r.Empty {
		return lattice.ReplaceEmpty()
	}
	return lattice.ReplaceElement(element.Number(r.Element))
}

// ScriptOpJSON is one instruction of a submitted lattice script. Kind
// selects which of the optional fields apply; unused fields are omitted by
// callers and ignored by the compiler below.
type ScriptOpJSON struct {
	Kind    string       `json:"kind"` // push_scope | pop_scope | push_origin | pop_origin | plane | replace
	Mode    string       `json:"mode,omitempty"` // volume | concave | convex, for push_scope
	Origin  *Vec3JSON    `json:"origin,omitempty"`
	Normal  *Vec3JSON    `json:"normal,omitempty"`
	Replace *ReplaceJSON `json:"replace,omitempty"`
}

// compileScript turns the wire op list into a []lattice.Op via
// ScriptBuilder, the same explicit builder any in-process caller uses —
// the HTTP layer is just another caller of the public lattice API.
func compileScript(ops []ScriptOpJSON) ([]lattice.Op, error) {
	b := lattice.NewScriptBuilder()
	for i, op := range ops {
		switch op.Kind {
		case "push_scope":
			mode, err := parseMode(op.Mode)
			if err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			b.PushScope(mode)
		case "pop_scope":
			b.PopScope()
		case "push_origin":
			if op.Origin == nil {
				return nil, fmt.Errorf("op %d: push_origin requires an origin", i)
			}
			b.PushOrigin(op.Origin.toVec3())
		case "pop_origin":
			b.PopOrigin()
		case "plane":
			if op.Normal == nil {
				return nil, fmt.Errorf("op %d: plane requires a normal", i)
			}
			b.Plane(op.Normal.toVec3())
		case "replace":
			if op.Replace == nil {
				return nil, fmt.Errorf("op %d: replace requires a spec", i)
			}
			b.Replace(op.Replace.toSpec())
		default:
			return nil, fmt.Errorf("op %d: unrecognized kind %q", i, op.Kind)
		}
	}
	return b.Build(), nil
}

func parseMode(s string) (lattice.Mode, error) {
	switch s {
	case "volume":
		return lattice.Volume, nil
	case "concave":
		return lattice.Concave, nil
	case "convex":
		return lattice.Convex, nil
	default:
		return 0, fmt.Errorf("unrecognized scope mode %q", s)
	}
}

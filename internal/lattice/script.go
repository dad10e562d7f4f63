package lattice

import "github.com/arxos/crystalgeo/internal/element"

// Op is one instruction in a lattice script. The concrete types below are
// the only implementations; Op exists purely to give ScriptBuilder a
// uniform slice element type.
type Op interface{ isOp() }

type OpPushScope struct{ Mode Mode }
type OpPopScope struct{}
type OpPushOrigin struct{ V vec3 }
type OpPopOrigin struct{}
type OpPlane struct{ Normal vec3 }
type OpReplace struct{ Spec ReplaceSpec }

func (OpPushScope) isOp()  {}
func (OpPopScope) isOp()   {}
func (OpPushOrigin) isOp() {}
func (OpPopOrigin) isOp()  {}
func (OpPlane) isOp()      {}
func (OpReplace) isOp()    {}

// Vec3 is the exported form of a caller-supplied origin or normal, in HKL
// units (possibly fractional, e.g. Origin{0.25, 0, 0}).
type Vec3 struct{ H, K, L float64 }

func (v Vec3) toInternal() vec3 { return vec3{v.H, v.K, v.L} }

// ReplaceSpec selects a Replace target: either an element or
// "empty" (deletion).
type ReplaceSpec struct {
	empty   bool
	element element.Number
}

// ReplaceEmpty deletes matched atoms.
func ReplaceEmpty() ReplaceSpec { return ReplaceSpec{empty: true} }

// ReplaceElement swaps matched atoms to e.
func ReplaceElement(e element.Number) ReplaceSpec { return ReplaceSpec{element: e} }

// ScriptBuilder accumulates Ops for a single Lattice.Evaluate call. Each
// caller owns its own builder, so there is no shared mutable state between
// concurrent top-level evaluations (no process-wide scope-stack singleton).
type ScriptBuilder struct {
	ops []Op
}

func NewScriptBuilder() *ScriptBuilder { return &ScriptBuilder{} }

func (b *ScriptBuilder) PushScope(mode Mode) *ScriptBuilder {
	b.ops = append(b.ops, OpPushScope{Mode: mode})
	return b
}

func (b *ScriptBuilder) PopScope() *ScriptBuilder {
	b.ops = append(b.ops, OpPopScope{})
	return b
}

func (b *ScriptBuilder) PushOrigin(v Vec3) *ScriptBuilder {
	b.ops = append(b.ops, OpPushOrigin{V: v.toInternal()})
	return b
}

func (b *ScriptBuilder) PopOrigin() *ScriptBuilder {
	b.ops = append(b.ops, OpPopOrigin{})
	return b
}

func (b *ScriptBuilder) Plane(normal Vec3) *ScriptBuilder {
	b.ops = append(b.ops, OpPlane{Normal: normal.toInternal()})
	return b
}

func (b *ScriptBuilder) Replace(spec ReplaceSpec) *ScriptBuilder {
	b.ops = append(b.ops, OpReplace{Spec: spec})
	return b
}

// Build returns the accumulated op sequence.
func (b *ScriptBuilder) Build() []Op { return b.ops }

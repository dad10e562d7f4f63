package lattice

import "fmt"

// Kind enumerates the fatal error categories for the
// lattice evaluator. All lattice errors abort the current top-level
// Evaluate call; there are no retries inside the core.
type Kind int

const (
	InvalidBounds Kind = iota
	MaterialUnsupported
	EmptyScope
	EmitBeforeSetup
	InvalidScript
)

func (k Kind) String() string {
	switch k {
	case InvalidBounds:
		return "InvalidBounds"
	case MaterialUnsupported:
		return "MaterialUnsupported"
	case EmptyScope:
		return "EmptyScope"
	case EmitBeforeSetup:
		return "EmitBeforeSetup"
	case InvalidScript:
		return "InvalidScript"
	default:
		return "Unknown"
	}
}

// Error is the lattice evaluator's fatal error type. Message carries the
// subsystem name and enough context to identify the offending op.
type Error struct {
	Kind    Kind
	Subsys  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lattice[%s]: %s: %s", e.Subsys, e.Kind, e.Message)
}

func newErr(kind Kind, subsys, format string, args ...any) *Error {
	return &Error{Kind: kind, Subsys: subsys, Message: fmt.Sprintf(format, args...)}
}

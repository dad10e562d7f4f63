package topology

import "fmt"

// Kind enumerates the fatal error categories for the
// topology builder and (by reuse) the surface reconstruction pass that sits
// on top of it. All topology errors abort the current top-level call; there
// are no retries inside the core.
type Kind int

const (
	CapacityExceeded Kind = iota
	Divergence
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case CapacityExceeded:
		return "CapacityExceeded"
	case Divergence:
		return "Divergence"
	case InternalInvariant:
		return "InternalInvariant"
	default:
		return "Unknown"
	}
}

// Error is the topology/reconstruction fatal error type. It carries the
// subsystem name, the iteration count where relevant, and the identity of
// one offending atom/site.
type Error struct {
	Kind      Kind
	Subsys    string
	Iteration int
	AtomIndex int // -1 when not applicable
	Message   string
}

func (e *Error) Error() string {
	if e.AtomIndex >= 0 {
		return fmt.Sprintf("topology[%s]: %s: %s (iteration %d, atom %d)", e.Subsys, e.Kind, e.Message, e.Iteration, e.AtomIndex)
	}
	return fmt.Sprintf("topology[%s]: %s: %s (iteration %d)", e.Subsys, e.Kind, e.Message, e.Iteration)
}

func newErr(kind Kind, subsys string, iteration, atomIndex int, format string, args ...any) *Error {
	return &Error{Kind: kind, Subsys: subsys, Iteration: iteration, AtomIndex: atomIndex, Message: fmt.Sprintf(format, args...)}
}

// NewError constructs a topology Error for use by other core packages
// (package reconstruct) that share these error kinds.
func NewError(kind Kind, subsys string, iteration, atomIndex int, format string, args ...any) *Error {
	return newErr(kind, subsys, iteration, atomIndex, format, args...)
}

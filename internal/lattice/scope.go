package lattice

// Mode is a scope's boolean-combination discipline. The root scope of any
// script is always Volume.
type Mode int

const (
	Volume Mode = iota
	Concave
	Convex
)

func (m Mode) String() string {
	switch m {
	case Volume:
		return "Volume"
	case Concave:
		return "Concave"
	case Convex:
		return "Convex"
	default:
		return "?"
	}
}

// isUnion reports whether m combines via OR (Convex) as opposed to AND
// (Concave and the root Volume scope).
func (m Mode) isUnion() bool { return m == Convex }

// scopeRecord is one entry in the scope arena. parent is the index of the
// enclosing scope, or -1 for the root. accum holds one mask word per grid
// cell, sized identically to the grid's own mask slice.
type scopeRecord struct {
	mode   Mode
	accum  []uint16
	parent int
}

// scopeStack is a LIFO arena of scope records with integer parent links.
// originStack
// tracks the cumulative Origin(v) translation independently of the scope
// arena, since PushOrigin/PopOrigin are separate script ops from
// PushScope/PopScope.
type scopeStack struct {
	records     []scopeRecord
	top         int // index of current scope in records, -1 if empty
	allOnes     uint16
	originStack []vec3
}

func newScopeStack(mask uint16) *scopeStack {
	s := &scopeStack{top: -1, allOnes: mask}
	s.push(Volume)
	return s
}

// push creates a new scope with the given mode. The accumulator starts at
// the combine-identity element for the mode (all-zero for union, all-ones
// for intersection).
func (s *scopeStack) push(mode Mode) {
	cellCount := 0
	if s.top >= 0 {
		cellCount = len(s.records[s.top].accum)
	}
	rec := scopeRecord{mode: mode, parent: s.top}
	if cellCount > 0 {
		rec.accum = make([]uint16, cellCount)
		s.fillIdentity(rec.accum, mode)
	}
	s.records = append(s.records, rec)
	s.top = len(s.records) - 1
}

// pushOrigin accumulates v on top of the current origin. Valid only inside
// a non-root scope.
func (s *scopeStack) pushOrigin(v vec3) error {
	if s.top == 0 {
		return newErr(InvalidScript, "scope", "Origin is not valid at the top level; open a Concave or Convex scope first")
	}
	s.originStack = append(s.originStack, vec3{
		X: s.currentOrigin().X + v.X,
		Y: s.currentOrigin().Y + v.Y,
		Z: s.currentOrigin().Z + v.Z,
	})
	return nil
}

// popOrigin restores the origin active before the matching pushOrigin.
func (s *scopeStack) popOrigin() error {
	if len(s.originStack) == 0 {
		return newErr(EmptyScope, "scope", "PopOrigin called with no open Origin")
	}
	s.originStack = s.originStack[:len(s.originStack)-1]
	return nil
}

// currentOrigin returns the active cumulative Origin(v) translation.
func (s *scopeStack) currentOrigin() vec3 {
	if len(s.originStack) == 0 {
		return vec3{}
	}
	return s.originStack[len(s.originStack)-1]
}

// initAccum is called once, by the grid constructor, to size the root
// scope's accumulator to the cell count and seed it with the
// bounding-box-clipped initial mask.
func (s *scopeStack) initAccum(initial []uint16) {
	root := &s.records[0]
	root.accum = make([]uint16, len(initial))
	copy(root.accum, initial)
}

func (s *scopeStack) fillIdentity(accum []uint16, mode Mode) {
	fill := s.allOnes
	if mode.isUnion() {
		fill = 0
	}
	for i := range accum {
		accum[i] = fill
	}
}

// current returns the active scope record.
func (s *scopeStack) current() *scopeRecord { return &s.records[s.top] }

// pop merges the current scope into its parent (if any) and removes it from
// the stack. A Volume scope's accumulator is discarded rather than merged
// (there is nothing for a Volume's planes to propagate into — it is either
// the root or a nested selection context whose planes only feed Replace).
func (s *scopeStack) pop() error {
	if s.top <= 0 {
		return newErr(EmptyScope, "scope", "PopScope called with no open child scope")
	}
	child := s.records[s.top]
	parent := &s.records[child.parent]
	if child.mode != Volume {
		combine(parent.accum, child.accum, child.mode.isUnion())
	}
	s.records = s.records[:s.top]
	s.top = child.parent
	return nil
}

// combine merges src into dst with OR (union true) or AND (union false).
func combine(dst, src []uint16, union bool) {
	if union {
		for i := range dst {
			dst[i] |= src[i]
		}
		return
	}
	for i := range dst {
		dst[i] &= src[i]
	}
}

// applyCellMask folds a freshly evaluated per-cell plane mask into the
// current scope's accumulator using the scope's own combine rule (Convex:
// OR, Concave/Volume: AND).
func (s *scopeStack) applyCellMask(cellIdx int, cellMask uint16) {
	cur := s.current()
	if cur.mode.isUnion() {
		cur.accum[cellIdx] |= cellMask
	} else {
		cur.accum[cellIdx] &= cellMask
	}
}

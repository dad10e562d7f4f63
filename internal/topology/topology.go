// Package topology builds and queries an unstructured atom/bond cloud: the
// radius-bounded neighbor match engine, Morton-order spatial sort, and
// nonbonding-orbital derivation. Package reconstruct
// layers the surface-reconstruction pass on top of it.
package topology

import (
	"sort"

	"github.com/arxos/crystalgeo/internal/element"
)

// MaxBondNeighbors bounds the per-atom adjacency list.
const MaxBondNeighbors = 8

// Topology owns an atom list and a bond list and answers neighbor and
// orbital queries against them. Atoms and bonds can be inserted, removed,
// and sorted; a Topology never aliases the slices it is constructed from
// internally, preserving atom value semantics.
type Topology struct {
	Atoms []element.Atom
	Bonds []element.Bond
}

// New constructs a Topology over copies of atoms and bonds.
func New(atoms []element.Atom, bonds []element.Bond) *Topology {
	t := &Topology{
		Atoms: append([]element.Atom(nil), atoms...),
		Bonds: append([]element.Bond(nil), bonds...),
	}
	for i, b := range t.Bonds {
		t.Bonds[i] = b.Canonical()
	}
	return t
}

// InsertAtoms appends atoms, returning the index assigned to the first one.
func (t *Topology) InsertAtoms(atoms ...element.Atom) int {
	start := len(t.Atoms)
	t.Atoms = append(t.Atoms, atoms...)
	return start
}

// InsertBonds appends bonds in canonical (I<J) form.
func (t *Topology) InsertBonds(bonds ...element.Bond) {
	for _, b := range bonds {
		t.Bonds = append(t.Bonds, b.Canonical())
	}
}

// RemoveAtoms deletes the atoms at the given indices (order in remove is
// irrelevant), preserving the relative order of survivors, and drops any
// bond touching a removed atom while reindexing the survivors' bonds to
// their new positions.
func (t *Topology) RemoveAtoms(indices []int) {
	if len(indices) == 0 {
		return
	}
	removed := make(map[int]bool, len(indices))
	for _, i := range indices {
		removed[i] = true
	}

	newIndex := make([]int, len(t.Atoms))
	kept := make([]element.Atom, 0, len(t.Atoms)-len(indices))
	for i, a := range t.Atoms {
		if removed[i] {
			newIndex[i] = -1
			continue
		}
		newIndex[i] = len(kept)
		kept = append(kept, a)
	}

	keptBonds := make([]element.Bond, 0, len(t.Bonds))
	for _, b := range t.Bonds {
		ni, nj := newIndex[b.I], newIndex[b.J]
		if ni < 0 || nj < 0 {
			continue
		}
		keptBonds = append(keptBonds, element.Bond{I: uint32(ni), J: uint32(nj)}.Canonical())
	}

	t.Atoms = kept
	t.Bonds = keptBonds
}

// RemoveBonds deletes bonds equal (after canonicalization) to any of the
// given bonds.
func (t *Topology) RemoveBonds(bonds []element.Bond) {
	if len(bonds) == 0 {
		return
	}
	drop := make(map[element.Bond]bool, len(bonds))
	for _, b := range bonds {
		drop[b.Canonical()] = true
	}
	kept := t.Bonds[:0:0]
	for _, b := range t.Bonds {
		if !drop[b.Canonical()] {
			kept = append(kept, b)
		}
	}
	t.Bonds = kept
}

// Sort reorders Atoms into Morton order and reindexes Bonds to match,
// canonicalizing (min,max) and lex-sorting them. It returns
// the permutation vector perm such that the pre-sort atom list, reindexed
// by perm, reproduces the post-sort atom list: newAtoms[k] == oldAtoms[perm[k]].
func (t *Topology) Sort() []int {
	sorted, perm := mortonSortAtoms(t.Atoms)

	inverse := make([]int, len(perm))
	for newPos, oldIdx := range perm {
		inverse[oldIdx] = newPos
	}

	newBonds := make([]element.Bond, len(t.Bonds))
	for i, b := range t.Bonds {
		newBonds[i] = element.Bond{I: uint32(inverse[b.I]), J: uint32(inverse[b.J])}.Canonical()
	}
	sort.Slice(newBonds, func(i, j int) bool { return newBonds[i].Less(newBonds[j]) })

	t.Atoms = sorted
	t.Bonds = newBonds
	return perm
}

// Match runs the neighbor search with targets = t.Atoms.
func (t *Topology) Match(queries []element.Atom, algo RadiusSpec, maxNeighbors int) ([]MatchList, error) {
	return Match(queries, t.Atoms, algo, maxNeighbors)
}

// MapNode names which facet of the topology Map projects to; the source
// is always atoms.
type MapNode int

const (
	MapAtoms MapNode = iota
	MapBonds
)

// SmallList is the bounded-capacity adjacency entry Map returns: atom
// indices adjacent to the source atom (MapAtoms) or bond indices touching
// it (MapBonds), capped at MaxBondNeighbors.
type SmallList struct {
	Values [MaxBondNeighbors]uint32
	Count  int
}

// Map derives, for every atom, its adjacency under the current Bonds list:
// MapAtoms returns bonded neighbor atom indices; MapBonds returns the
// indices of bonds touching that atom. The source is always atoms.
func (t *Topology) Map(target MapNode) ([]SmallList, error) {
	out := make([]SmallList, len(t.Atoms))
	for bi, b := range t.Bonds {
		if int(b.I) >= len(t.Atoms) || int(b.J) >= len(t.Atoms) {
			return nil, newErr(InternalInvariant, "map", 0, int(b.I), "bond %d references atom out of range", bi)
		}
		switch target {
		case MapAtoms:
			if err := appendSmall(&out[b.I], b.J); err != nil {
				return nil, err
			}
			if err := appendSmall(&out[b.J], b.I); err != nil {
				return nil, err
			}
		case MapBonds:
			if err := appendSmall(&out[b.I], uint32(bi)); err != nil {
				return nil, err
			}
			if err := appendSmall(&out[b.J], uint32(bi)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func appendSmall(l *SmallList, v uint32) error {
	if l.Count >= MaxBondNeighbors {
		return newErr(CapacityExceeded, "map", 0, int(v), "atom already has %d bonded neighbors", MaxBondNeighbors)
	}
	l.Values[l.Count] = v
	l.Count++
	return nil
}

// NonbondingOrbitals derives sp/sp²/sp³ orbital directions from the
// current Bonds list.
func (t *Topology) NonbondingOrbitals(hyb Hybridization) ([]OrbitalStorage, error) {
	return DeriveOrbitals(t.Atoms, t.Bonds, hyb)
}

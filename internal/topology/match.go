package topology

import (
	"math"

	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/parallel"
)

// MaxNeighbors is the hard capacity of a MatchList.
const MaxNeighbors = 8

// MatchList is a fixed-capacity, ascending-distance list of target atom
// indices for one query. Overflowed reports whether the true neighbor count
// exceeded the requested capacity — surplus matches were dropped, with no
// guarantee about which ones beyond the capacity boundary.
type MatchList struct {
	Indices    [MaxNeighbors]uint32
	Count      int
	Overflowed bool
}

// RadiusSpec selects how the per-pair match radius is computed.
type RadiusSpec struct {
	absolute  float64
	covalentK float64
	isAbs     bool
}

// AbsoluteRadius matches within a fixed radius in nanometers regardless of
// element.
func AbsoluteRadius(r float64) RadiusSpec { return RadiusSpec{absolute: r, isAbs: true} }

// CovalentBondLength matches within k*(covalentRadius(query)+covalentRadius(target)).
// k defaults to 1.5 when constructed via DefaultCovalentBondLength.
func CovalentBondLength(k float64) RadiusSpec { return RadiusSpec{covalentK: k} }

// DefaultCovalentBondLength is CovalentBondLength(1.5), the default.
func DefaultCovalentBondLength() RadiusSpec { return CovalentBondLength(1.5) }

func (r RadiusSpec) radiusFor(q, t element.Number) float64 {
	if r.isAbs {
		return r.absolute
	}
	return r.covalentK * (element.CovalentRadius(q) + element.CovalentRadius(t))
}

// maxPossibleRadius returns the largest radius this spec could produce
// against any of targets, used as the conservative bound for block
// rejection.
func (r RadiusSpec) maxPossibleRadius(q element.Number, targets []element.Atom) float64 {
	if r.isAbs {
		return r.absolute
	}
	maxTargetRadius := 0.0
	for _, t := range targets {
		if t.Number == element.Empty {
			continue
		}
		if rad := element.CovalentRadius(t.Number); rad > maxTargetRadius {
			maxTargetRadius = rad
		}
	}
	return r.covalentK * (element.CovalentRadius(q) + maxTargetRadius)
}

// outerBlockSize/midBlockSize/innerBlockSize are the three hierarchical
// partition tiers, fixed per build so results stay deterministic.
const (
	outerBlockSize = 64
	midBlockSize   = 16
	innerBlockSize = 4
)

// blockRange is a contiguous span [Lo,Hi) of a Morton-sorted target array,
// plus the axis-aligned bounding box of the atoms inside it.
type blockRange struct {
	lo, hi   int
	min, max [3]float32
}

// targetIndex holds the Morton-sorted target atoms and a lookup back to
// caller-visible (original) indices, plus the outer block ranges of the
// hierarchical rejection test (the mid and inner ranges are built per
// query when an outer range is not rejected).
type targetIndex struct {
	atoms []element.Atom
	orig  []int
	outer []blockRange
}

func buildTargetIndex(targets []element.Atom) *targetIndex {
	var sorted []element.Atom
	var perm []int
	if len(targets) >= mortonSortThreshold {
		sorted, perm = mortonSortAtoms(targets)
	} else {
		sorted = targets
		perm = make([]int, len(targets))
		for i := range perm {
			perm[i] = i
		}
	}
	idx := &targetIndex{atoms: sorted, orig: perm}
	idx.outer = buildBlocks(sorted, 0, len(sorted), outerBlockSize)
	return idx
}

// buildBlocks partitions [lo,hi) of atoms into ranges of size chunk,
// recording each range's bounding box. It does not need to return mid/inner
// explicitly: a caller that rejects an outer range recurses into it with a
// smaller chunk size via the same function.
func buildBlocks(atoms []element.Atom, lo, hi, chunk int) []blockRange {
	var out []blockRange
	for start := lo; start < hi; start += chunk {
		end := start + chunk
		if end > hi {
			end = hi
		}
		out = append(out, blockRange{lo: start, hi: end, min: boxMin(atoms, start, end), max: boxMax(atoms, start, end)})
	}
	return out
}

func boxMin(atoms []element.Atom, lo, hi int) [3]float32 {
	m := [3]float32{atoms[lo].X, atoms[lo].Y, atoms[lo].Z}
	for i := lo + 1; i < hi; i++ {
		a := atoms[i]
		if a.X < m[0] {
			m[0] = a.X
		}
		if a.Y < m[1] {
			m[1] = a.Y
		}
		if a.Z < m[2] {
			m[2] = a.Z
		}
	}
	return m
}

func boxMax(atoms []element.Atom, lo, hi int) [3]float32 {
	m := [3]float32{atoms[lo].X, atoms[lo].Y, atoms[lo].Z}
	for i := lo + 1; i < hi; i++ {
		a := atoms[i]
		if a.X > m[0] {
			m[0] = a.X
		}
		if a.Y > m[1] {
			m[1] = a.Y
		}
		if a.Z > m[2] {
			m[2] = a.Z
		}
	}
	return m
}

// pointBoxLowerBound returns a conservative (never-overestimating) distance
// from point p to the axis-aligned box [min,max], 0 when p is inside.
func pointBoxLowerBound(p [3]float64, min, max [3]float32) float64 {
	var sumSq float64
	for i := 0; i < 3; i++ {
		lo, hi := float64(min[i]), float64(max[i])
		if p[i] < lo {
			d := lo - p[i]
			sumSq += d * d
		} else if p[i] > hi {
			d := p[i] - hi
			sumSq += d * d
		}
	}
	if sumSq <= 0 {
		return 0
	}
	return math.Sqrt(sumSq)
}

// Match runs the radius-bounded neighbor search: for each query
// atom, the closest (up to maxNeighbors) target atoms within the
// algorithm's radius, sorted by ascending distance with ties broken by
// ascending target index.
func Match(queries, targets []element.Atom, algo RadiusSpec, maxNeighbors int) ([]MatchList, error) {
	if maxNeighbors < 1 || maxNeighbors > MaxNeighbors {
		return nil, newErr(CapacityExceeded, "match", 0, -1, "maxNeighbors %d is outside [1,%d]", maxNeighbors, MaxNeighbors)
	}
	results := make([]MatchList, len(queries))
	if len(targets) == 0 || len(queries) == 0 {
		return results, nil
	}

	idx := buildTargetIndex(targets)

	run := func(qi int) {
		results[qi] = idx.matchOne(queries[qi], algo, maxNeighbors)
	}
	if len(queries) >= 4 {
		workers := clampMatchWorkers(len(queries))
		parallel.Run(workers, len(queries), run)
	} else {
		for i := range queries {
			run(i)
		}
	}
	return results, nil
}

func clampMatchWorkers(tasks int) int {
	w := tasks
	if w > 8 {
		w = 8
	}
	if w < 1 {
		w = 1
	}
	return w
}

// matchOne performs the hierarchical block rejection (outer tier, then a
// recursive mid/inner refinement) followed by an exact brute-force pass and
// fixed-capacity insertion sort over the surviving candidates.
func (idx *targetIndex) matchOne(q element.Atom, algo RadiusSpec, maxNeighbors int) MatchList {
	maxR := algo.maxPossibleRadius(q.Number, idx.atoms)
	p := [3]float64{float64(q.X), float64(q.Y), float64(q.Z)}

	var buf matchBuffer
	buf.cap = maxNeighbors

	for _, outer := range idx.outer {
		if pointBoxLowerBound(p, outer.min, outer.max) > maxR {
			continue
		}
		idx.scanMid(outer.lo, outer.hi, q, p, maxR, algo, &buf)
	}

	var out MatchList
	out.Count = buf.n
	out.Overflowed = buf.overflowed
	for i := 0; i < buf.n; i++ {
		out.Indices[i] = uint32(idx.orig[buf.idx[i]])
	}
	return out
}

// scanMid partitions an accepted outer block into mid tiers, rejecting any
// whose bounding box lower bound exceeds maxR, and recurses into the inner
// tier for the survivors.
func (idx *targetIndex) scanMid(lo, hi int, q element.Atom, p [3]float64, maxR float64, algo RadiusSpec, buf *matchBuffer) {
	for _, mid := range buildBlocks(idx.atoms, lo, hi, midBlockSize) {
		if pointBoxLowerBound(p, mid.min, mid.max) > maxR {
			continue
		}
		idx.scanInner(mid.lo, mid.hi, q, p, maxR, algo, buf)
	}
}

// scanInner partitions an accepted mid block into inner tiers and, for each
// survivor, falls through to the exact per-atom brute-force pass.
func (idx *targetIndex) scanInner(lo, hi int, q element.Atom, p [3]float64, maxR float64, algo RadiusSpec, buf *matchBuffer) {
	for _, inner := range buildBlocks(idx.atoms, lo, hi, innerBlockSize) {
		if pointBoxLowerBound(p, inner.min, inner.max) > maxR {
			continue
		}
		idx.bruteForce(inner.lo, inner.hi, q, algo, buf)
	}
}

func (idx *targetIndex) bruteForce(lo, hi int, q element.Atom, algo RadiusSpec, buf *matchBuffer) {
	for i := lo; i < hi; i++ {
		t := idx.atoms[i]
		r := algo.radiusFor(q.Number, t.Number)
		dx, dy, dz := float64(q.X-t.X), float64(q.Y-t.Y), float64(q.Z-t.Z)
		d2 := dx*dx + dy*dy + dz*dz
		if d2 > r*r {
			continue
		}
		buf.insert(i, d2, idx.orig[i])
	}
}

// matchBuffer is a fixed-capacity, ascending-distance insertion buffer.
// idx holds positions into targetIndex.atoms; d2 holds
// squared distances so the hot path avoids sqrt.
type matchBuffer struct {
	idx        [MaxNeighbors]int
	d2         [MaxNeighbors]float64
	orig       [MaxNeighbors]int
	n          int
	cap        int
	overflowed bool
}

func (b *matchBuffer) insert(pos int, d2 float64, origIdx int) {
	if b.n < b.cap {
		i := b.n
		b.idx[i], b.d2[i], b.orig[i] = pos, d2, origIdx
		b.n++
		b.bubbleUp(i)
		return
	}
	// Buffer full: only replace the current worst if strictly closer (or
	// tied with a smaller original index, for determinism).
	worst := b.n - 1
	if d2 < b.d2[worst] || (d2 == b.d2[worst] && origIdx < b.orig[worst]) {
		b.idx[worst], b.d2[worst], b.orig[worst] = pos, d2, origIdx
		b.bubbleUp(worst)
	}
	b.overflowed = true
}

func (b *matchBuffer) bubbleUp(i int) {
	for i > 0 {
		j := i - 1
		if b.less(i, j) {
			b.idx[i], b.idx[j] = b.idx[j], b.idx[i]
			b.d2[i], b.d2[j] = b.d2[j], b.d2[i]
			b.orig[i], b.orig[j] = b.orig[j], b.orig[i]
			i = j
		} else {
			break
		}
	}
}

func (b *matchBuffer) less(i, j int) bool {
	if b.d2[i] != b.d2[j] {
		return b.d2[i] < b.d2[j]
	}
	return b.orig[i] < b.orig[j]
}

// Package reconstruct implements the multi-pass surface reconstruction
// compiler: it takes the raw atom cloud the lattice
// evaluator emits and produces a chemically realistic bonded topology by
// removing undercoordinated atoms, fusing colliding passivator sites into
// dimer bonds, and (optionally) placing passivators at well-defined angles.
package reconstruct

import (
	"sort"

	"github.com/arxos/crystalgeo/internal/element"
	"github.com/arxos/crystalgeo/internal/topology"
)

// maxRemovalRounds/maxCollisionRounds/maxChainSteps are the iteration
// caps: pathological-atom removal and 3-way collision resolution each must
// converge within 100 passes, and a dimer chain walk terminates within
// 4096 steps (otherwise it is a ring).
const (
	maxRemovalRounds   = 100
	maxCollisionRounds = 100
	maxChainSteps      = 4096
	collisionRadius    = 0.010 // nm
)

// Passivation selects whether Reconstruct places passivator atoms itself
// (a convenience) or leaves every remaining hydrogen site as orbital
// metadata for an external caller to place.
type Passivation int

const (
	PassivationNone Passivation = iota
	PassivationElement
)

// Options configures a Reconstruct call.
type Options struct {
	Material    element.Material
	Passivation Passivation
	Passivator  element.Number // used when Passivation == PassivationElement
}

// Result is the reconstructed topology plus the per-atom orbital storage
// computed along the way (useful to a caller doing its own passivation).
type Result struct {
	Topology *topology.Topology
	Orbitals []topology.OrbitalStorage
	// CenterTypes maps each non-passivator atom index to its neighbor
	// count (3=bridgehead, 4=quaternary), assigned during the carbon-site
	// map pass.
	CenterTypes map[int]int
}

// site is a proposed passivator location: atom.position + bondLength*dir,
// tagged with the carbon it came from and the orbital direction itself.
type site struct {
	pos  topology.Vec3
	atom int
	dir  topology.Vec3
}

// Reconstruct runs the full reconstruction pipeline over atoms (already
// materialized by the lattice evaluator) for the given material.
func Reconstruct(atoms []element.Atom, opts Options) (*Result, error) {
	bulkBond := opts.Material.BulkBondLength()
	removalRadius := 1.008 * bulkBond

	atoms = append([]element.Atom(nil), atoms...)

	var bonds []element.Bond
	var centerType map[int]int

	for collisionRound := 0; ; collisionRound++ {
		if collisionRound > maxCollisionRounds {
			return nil, divergenceErr(collisionRound, -1, "3-way collision resolution did not converge")
		}

		var err error
		atoms, err = removePathological(atoms, removalRadius)
		if err != nil {
			return nil, err
		}
		if len(atoms) == 0 {
			return &Result{Topology: topology.New(nil, nil)}, nil
		}

		bonds, centerType, err = carbonSiteMap(atoms, removalRadius)
		if err != nil {
			return nil, err
		}

		orbitals, err := topology.DeriveOrbitals(atoms, bonds, topology.SP3)
		if err != nil {
			return nil, err
		}

		sites := proposeSites(atoms, orbitals, bulkBond)
		if len(sites) == 0 {
			break
		}

		clusters, err := detectCollisions(sites)
		if err != nil {
			return nil, err
		}

		resolved, newAtom := resolveTripleCollisions(atoms, clusters, opts.Material)
		if !resolved {
			break
		}
		atoms = append(atoms, newAtom)
	}

	orbitals, err := topology.DeriveOrbitals(atoms, bonds, topology.SP3)
	if err != nil {
		return nil, err
	}
	sites := proposeSites(atoms, orbitals, bulkBond)
	clusters, err := detectCollisions(sites)
	if err != nil {
		return nil, err
	}

	dimerBonds, survivingSites, err := resolveDimerChains(sites, clusters)
	if err != nil {
		return nil, err
	}
	bonds = append(bonds, dimerBonds...)

	top := topology.New(atoms, bonds)

	if opts.Passivation == PassivationElement {
		passivator := opts.Passivator
		if passivator == element.Empty {
			passivator = element.H
		}
		for _, s := range survivingSites {
			origin := atoms[s.atom]
			chLen := element.CovalentRadius(origin.Number) + element.CovalentRadius(passivator)
			idx := top.InsertAtoms(element.Atom{
				X:      origin.X + float32(s.dir.X*chLen),
				Y:      origin.Y + float32(s.dir.Y*chLen),
				Z:      origin.Z + float32(s.dir.Z*chLen),
				Number: passivator,
			})
			top.InsertBonds(element.Bond{I: uint32(s.atom), J: uint32(idx)})
		}
	}

	return &Result{Topology: top, Orbitals: orbitals, CenterTypes: centerType}, nil
}

// removePathological iteratively removes any atom whose match count,
// query atom included, is <=2 -- i.e. methyl (one neighbor) and floating
// (zero neighbor) atoms left over from the cut -- until a pass removes
// none, or bails out with Divergence after maxRemovalRounds.
func removePathological(atoms []element.Atom, radius float64) ([]element.Atom, error) {
	for round := 0; round < maxRemovalRounds; round++ {
		if len(atoms) == 0 {
			return atoms, nil
		}
		matches, err := topology.Match(atoms, atoms, topology.AbsoluteRadius(radius), topology.MaxNeighbors)
		if err != nil {
			return nil, err
		}
		var toRemove []int
		for i, m := range matches {
			if m.Count <= 2 {
				toRemove = append(toRemove, i)
			}
		}
		if len(toRemove) == 0 {
			return atoms, nil
		}
		atoms = removeIndices(atoms, toRemove)
	}
	return nil, divergenceErr(maxRemovalRounds, -1, "pathological-atom removal did not converge")
}

func removeIndices(atoms []element.Atom, indices []int) []element.Atom {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	out := make([]element.Atom, 0, len(atoms)-len(indices))
	for i, a := range atoms {
		if !drop[i] {
			out = append(out, a)
		}
	}
	return out
}

// carbonSiteMap runs one further match pass over the surviving atoms and
// records a bond for every neighbor pair plus each atom's center_type
// (neighbor count: 3=bridgehead, 4=quaternary).
func carbonSiteMap(atoms []element.Atom, radius float64) ([]element.Bond, map[int]int, error) {
	matches, err := topology.Match(atoms, atoms, topology.AbsoluteRadius(radius), topology.MaxNeighbors)
	if err != nil {
		return nil, nil, err
	}
	centerType := make(map[int]int, len(atoms))
	seen := make(map[element.Bond]bool)
	var bonds []element.Bond
	for i, m := range matches {
		neighborCount := m.Count - 1
		centerType[i] = neighborCount
		if m.Count > 5 {
			return nil, nil, internalInvariantErr(i, "match count %d exceeds 5 in a valid sp3 lattice", m.Count)
		}
		for k := 0; k < m.Count; k++ {
			j := int(m.Indices[k])
			if j == i {
				continue
			}
			b := element.Bond{I: uint32(i), J: uint32(j)}.Canonical()
			if !seen[b] {
				seen[b] = true
				bonds = append(bonds, b)
			}
		}
	}
	sort.Slice(bonds, func(i, j int) bool { return bonds[i].Less(bonds[j]) })
	return bonds, centerType, nil
}

// proposeSites computes a candidate passivator location for every
// nonbonding orbital of every atom.
func proposeSites(atoms []element.Atom, orbitals []topology.OrbitalStorage, bulkBond float64) []site {
	var sites []site
	for i, o := range orbitals {
		for k := 0; k < o.Count; k++ {
			dir := o.Dirs[k]
			pos := topology.Vec3{X: float64(atoms[i].X), Y: float64(atoms[i].Y), Z: float64(atoms[i].Z)}.Add(dir.Scale(bulkBond))
			sites = append(sites, site{pos: pos, atom: i, dir: dir})
		}
	}
	return sites
}

// cluster is a group of candidate sites that collided within
// collisionRadius -- i.e. they represent the same physical passivator
// location from more than one originating atom.
type cluster struct {
	siteIdx []int
	atoms   []int // sorted, deduplicated originating atom indices
}

// detectCollisions groups proposed sites by mutual proximity, using the match engine against the site-position cloud and
// a union-find merge so a chain of near-coincident candidates collapses
// into one cluster.
func detectCollisions(sites []site) ([]cluster, error) {
	if len(sites) == 0 {
		return nil, nil
	}
	pseudoAtoms := make([]element.Atom, len(sites))
	for i, s := range sites {
		pseudoAtoms[i] = element.Atom{X: float32(s.pos.X), Y: float32(s.pos.Y), Z: float32(s.pos.Z), Number: element.H}
	}
	matches, err := topology.Match(pseudoAtoms, pseudoAtoms, topology.AbsoluteRadius(collisionRadius), topology.MaxNeighbors)
	if err != nil {
		return nil, err
	}

	uf := newUnionFind(len(sites))
	for i, m := range matches {
		for k := 0; k < m.Count; k++ {
			uf.union(i, int(m.Indices[k]))
		}
	}

	groups := make(map[int][]int)
	for i := range sites {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	clusters := make([]cluster, 0, len(groups))
	for _, idxs := range groups {
		sort.Ints(idxs)
		atomSet := make(map[int]bool, len(idxs))
		for _, si := range idxs {
			atomSet[sites[si].atom] = true
		}
		atomList := make([]int, 0, len(atomSet))
		for a := range atomSet {
			atomList = append(atomList, a)
		}
		sort.Ints(atomList)
		clusters = append(clusters, cluster{siteIdx: idxs, atoms: atomList})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].siteIdx[0] < clusters[j].siteIdx[0] })
	return clusters, nil
}

type unionFind struct{ parent []int }

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// resolveTripleCollisions inserts one new interior atom at the geometric
// center of the first 3-or-more-way cluster it finds
// and reports whether it did so (the caller loops back to step 1 on true).
func resolveTripleCollisions(atoms []element.Atom, clusters []cluster, material element.Material) (bool, element.Atom) {
	for _, c := range clusters {
		if len(c.atoms) <= 2 {
			continue
		}
		var cx, cy, cz float64
		for _, a := range c.atoms {
			cx += float64(atoms[a].X)
			cy += float64(atoms[a].Y)
			cz += float64(atoms[a].Z)
		}
		n := float64(len(c.atoms))
		species := majorityElement(atoms, c.atoms, material)
		return true, element.Atom{X: float32(cx / n), Y: float32(cy / n), Z: float32(cz / n), Number: species}
	}
	return false, element.Atom{}
}

// majorityElement picks the interior atom's species by majority rule among
// the fused atoms for a checkerboard material, or the material's single
// species for an elemental one.
func majorityElement(atoms []element.Atom, indices []int, material element.Material) element.Number {
	if material.IsElemental() {
		return material.E1
	}
	counts := make(map[element.Number]int, 2)
	for _, i := range indices {
		counts[atoms[i].Number]++
	}
	best := material.E1
	bestCount := -1
	for e, c := range counts {
		if c > bestCount {
			best, bestCount = e, c
		}
	}
	return best
}

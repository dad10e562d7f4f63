package reconstruct

import "github.com/arxos/crystalgeo/internal/element"

// resolveDimerChains walks each 2-way collision outward through
// neighboring 2-way collisions until a terminator (a 1-way site, or a
// bridgehead carbon with no second orbital) is reached, then alternates
// the collision state along the resulting chain -- every 4th hydrogen
// position (1 mod 4) becomes a dimer bond and drops its hydrogen, every
// other occupied position (3 mod 4) keeps its hydrogen.
//
// The both-bridgehead/both-sidewall/mixed pair classification is
// descriptive only in this implementation: chain position parity, not the
// pair classification, decides the dimer/keep outcome, so no separate
// classification value is threaded through.
func resolveDimerChains(sites []site, clusters []cluster) ([]element.Bond, []site, error) {
	atomToHydro := make(map[int][]int)
	for ci, c := range clusters {
		if len(c.atoms) > 2 {
			return nil, nil, internalInvariantErr(c.atoms[0], "unresolved 3-way+ collision reached dimer-chain resolution")
		}
		for _, a := range c.atoms {
			atomToHydro[a] = append(atomToHydro[a], ci)
		}
	}

	visited := make([]bool, len(clusters))
	consumed := make([]bool, len(clusters))
	var dimerBonds []element.Bond
	steps := 0

	for ci, c := range clusters {
		if len(c.atoms) != 2 || visited[ci] {
			continue
		}
		visited[ci] = true
		a, b := c.atoms[0], c.atoms[1]

		fwdAtoms, fwdClusters, err := extendChain(b, ci, clusters, atomToHydro, visited, &steps)
		if err != nil {
			return nil, nil, err
		}
		bwdAtoms, bwdClusters, err := extendChain(a, ci, clusters, atomToHydro, visited, &steps)
		if err != nil {
			return nil, nil, err
		}
		reverseInts(bwdAtoms)
		reverseInts(bwdClusters)

		chainAtoms := append(append(bwdAtoms, a, b), fwdAtoms...)
		chainClusters := append(append(bwdClusters, ci), fwdClusters...)

		for k, cid := range chainClusters {
			pos := 2*k + 1 // hydrogen's position within the (carbon,H,carbon,H,...) chain array
			if pos%4 == 1 {
				dimerBonds = append(dimerBonds, element.Bond{I: uint32(chainAtoms[k]), J: uint32(chainAtoms[k+1])}.Canonical())
				consumed[cid] = true
			}
			// pos%4==3, or any other residue: keep the hydrogen.
		}
	}

	var survivors []site
	for ci, c := range clusters {
		if consumed[ci] {
			continue
		}
		for _, si := range c.siteIdx {
			survivors = append(survivors, sites[si])
		}
	}
	return dimerBonds, survivors, nil
}

// extendChain walks outward from atom `from` (excluding the cluster the
// caller arrived through) across successive 2-way collisions, returning
// the atoms and cluster ids encountered until a terminator or a ring is
// found.
func extendChain(from, excludeCluster int, clusters []cluster, atomToHydro map[int][]int, visited []bool, steps *int) ([]int, []int, error) {
	var atomsOut, clustersOut []int
	cur := from
	prevCluster := excludeCluster
	for {
		*steps++
		if *steps > maxChainSteps {
			return nil, nil, divergenceErr(*steps, cur, "dimer chain did not terminate within 4096 steps (likely a ring)")
		}
		next := -1
		for _, cid := range atomToHydro[cur] {
			if cid != prevCluster {
				next = cid
				break
			}
		}
		if next == -1 {
			return atomsOut, clustersOut, nil
		}
		nc := clusters[next]
		if len(nc.atoms) != 2 {
			return atomsOut, clustersOut, nil
		}
		if visited[next] {
			return nil, nil, divergenceErr(*steps, cur, "dimer chain looped back on an already-visited site (ring)")
		}
		visited[next] = true
		var nxt int
		if nc.atoms[0] == cur {
			nxt = nc.atoms[1]
		} else {
			nxt = nc.atoms[0]
		}
		atomsOut = append(atomsOut, nxt)
		clustersOut = append(clustersOut, next)
		prevCluster = next
		cur = nxt
	}
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

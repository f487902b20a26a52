package continuous

import (
	"github.com/openfroyo/brepcore/pkg/brep"
)

// InteractiveEdges returns the edges used by exactly one co-edge across
// faces, in first-use order. Edges two faces share are interior to the group.
func InteractiveEdges(faces []*brep.Face3d) []*brep.Edge {
	counts := make(map[string]int)
	var order []*brep.Edge
	for _, f := range faces {
		for _, c := range f.CoEdges() {
			if counts[c.EdgeTag()] == 0 {
				order = append(order, c.Edge)
			}
			counts[c.EdgeTag()]++
		}
	}
	out := make([]*brep.Edge, 0, len(order))
	for _, e := range order {
		if counts[e.Tag] == 1 {
			out = append(out, e)
		}
	}
	return out
}

// SortCoEdges groups coedges into head-to-tail chains.
//
// Each chain is seeded with the lowest unconsumed index. Forward scans over
// the unconsumed co-edges append any whose start vertex is the chain's end
// vertex and repeat until a scan adds nothing or the chain closes.
func SortCoEdges(coedges []*brep.CoEdge3d) [][]*brep.CoEdge3d {
	consumed := make([]bool, len(coedges))
	remaining := len(coedges)
	var chains [][]*brep.CoEdge3d

	for remaining > 0 {
		seed := 0
		for consumed[seed] {
			seed++
		}
		consumed[seed] = true
		remaining--
		chain := []*brep.CoEdge3d{coedges[seed]}
		startTag := coedges[seed].StartVertex().Tag

		closed := func() bool {
			return len(chain) >= 2 && chain[len(chain)-1].EndVertex().Tag == startTag
		}

		for extended := true; extended && !closed(); {
			extended = false
			for i := seed + 1; i < len(coedges) && !closed(); i++ {
				if consumed[i] {
					continue
				}
				if coedges[i].StartVertex().Tag == chain[len(chain)-1].EndVertex().Tag {
					chain = append(chain, coedges[i])
					consumed[i] = true
					remaining--
					extended = true
				}
			}
		}
		chains = append(chains, chain)
	}
	return chains
}

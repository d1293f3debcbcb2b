package graph

import "sort"

// Build creates a CSR multigraph over numNodes nodes from undirected edges.
// Edges are canonicalized; self loops and edges referencing unknown nodes
// are dropped.
func Build(numNodes uint32, edges []Edge) *Graph {
	// Step 1: Canonicalize and filter edges.
	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		e = e.Canonical()
		if e.A == e.B || e.B >= numNodes {
			continue
		}
		kept = append(kept, e)
	}

	// Step 2: Expand into directed adjacency slots.
	type slot struct {
		from uint32
		to   uint32
		edge uint32
	}
	slots := make([]slot, 0, 2*len(kept))
	for i, e := range kept {
		slots = append(slots, slot{e.A, e.B, uint32(i)}, slot{e.B, e.A, uint32(i)})
	}

	// Step 3: Sort slots by source node, then neighbour, then edge index.
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].from != slots[j].from {
			return slots[i].from < slots[j].from
		}
		if slots[i].to != slots[j].to {
			return slots[i].to < slots[j].to
		}
		return slots[i].edge < slots[j].edge
	})

	// Step 4: Build CSR arrays.
	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, len(slots))
	adjEdge := make([]uint32, len(slots))
	for i, s := range slots {
		head[i] = s.to
		adjEdge[i] = s.edge
	}

	// Build FirstOut via counting.
	for _, s := range slots {
		firstOut[s.from+1]++
	}
	// Prefix sum.
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	return &Graph{
		NumNodes: numNodes,
		NumEdges: uint32(len(kept)),
		FirstOut: firstOut,
		AdjHead:  head,
		AdjEdge:  adjEdge,
		Edges:    kept,
	}
}

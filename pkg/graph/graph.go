package graph

import "river_tracer/pkg/raster"

// EdgeKind tags how an edge was produced.
type EdgeKind uint8

const (
	// EdgeReal is backed by a connected chain of foreground pixels.
	EdgeReal EdgeKind = iota
	// EdgeJump bridges two nearby nodes that the mask does not connect.
	EdgeJump
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeReal:
		return "real"
	case EdgeJump:
		return "jump"
	default:
		return "unknown"
	}
}

// Edge is an undirected skeleton edge between nodes A and B (A < B once
// canonicalized). Path runs from the pixel of one endpoint to the pixel of
// the other; a jump edge built without gap pixels has an empty Path.
type Edge struct {
	A, B   uint32
	Weight float64
	Kind   EdgeKind
	Path   []raster.Pixel
}

// Canonical returns the edge with its endpoints ordered A < B. The path is
// left untouched; stitching orients it.
func (e Edge) Canonical() Edge {
	if e.A > e.B {
		e.A, e.B = e.B, e.A
	}
	return e
}

// Key returns the canonical endpoint pair packed into a single map key.
func (e Edge) Key() uint64 {
	return PairKey(e.A, e.B)
}

// PairKey packs an unordered node pair into a single uint64 key.
func PairKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// Other returns the endpoint of e opposite to u.
func (e *Edge) Other(u uint32) uint32 {
	if e.A == u {
		return e.B
	}
	return e.A
}

// Graph is an undirected multigraph in CSR (Compressed Sparse Row) format.
// Every edge is stored once in Edges and referenced from the adjacency of
// both endpoints, so parallel real and jump edges never collapse.
type Graph struct {
	NumNodes uint32
	NumEdges uint32
	FirstOut []uint32 // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] index the adjacency of node i
	AdjHead  []uint32 // len: 2*NumEdges; neighbour node for each adjacency slot
	AdjEdge  []uint32 // len: 2*NumEdges; index into Edges for each adjacency slot
	Edges    []Edge
}

// EdgesFrom returns the range of adjacency slots for node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

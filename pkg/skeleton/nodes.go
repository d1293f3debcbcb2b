// Package skeleton reduces a thinned river mask to a sparse set of nodes
// (endpoints, junctions and isolated pixels) joined by real edges that
// follow foreground pixel chains and by penalized jump edges that bridge
// small gaps.
package skeleton

import "river_tracer/pkg/raster"

// noNode marks pixels that are not nodes in the arena index.
const noNode = -1

// IsNode reports whether (y, x) is foreground and is not a simple
// pass-through pixel, i.e. its 3×3 population (itself included) is not 3.
func IsNode(m *raster.Mask, y, x int) bool {
	if !m.At(y, x) {
		return false
	}
	return m.NeighborhoodSum(y, x) != 3
}

// Nodes is an arena of node pixels. Ids are dense, assigned in row-major
// scan order, and valid only for the mask they were found in.
type Nodes struct {
	Pixels []raster.Pixel
	index  []int32 // pixel offset -> node id or noNode
	w      int
}

// FindNodes scans m and collects every node pixel.
func FindNodes(m *raster.Mask) *Nodes {
	n := &Nodes{index: make([]int32, m.H*m.W), w: m.W}
	for i := range n.index {
		n.index[i] = noNode
	}
	m.Each(func(p raster.Pixel) {
		if IsNode(m, p.Y, p.X) {
			n.index[p.Y*m.W+p.X] = int32(len(n.Pixels))
			n.Pixels = append(n.Pixels, p)
		}
	})
	return n
}

// Len returns the number of nodes.
func (n *Nodes) Len() int { return len(n.Pixels) }

// ID returns the node id of pixel p, if p is a node.
func (n *Nodes) ID(p raster.Pixel) (uint32, bool) {
	if p.Y < 0 || p.X < 0 || p.X >= n.w {
		return 0, false
	}
	i := p.Y*n.w + p.X
	if i >= len(n.index) || n.index[i] == noNode {
		return 0, false
	}
	return uint32(n.index[i]), true
}

// Pixel returns the pixel of node id.
func (n *Nodes) Pixel(id uint32) raster.Pixel {
	return n.Pixels[id]
}

package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // byte is sufficient — max rank ~30 for realistic graphs
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// Components groups the nodes of g into connected components, optionally
// ignoring jump edges.
type Components struct {
	uf    *UnionFind
	Count int
}

// NewComponents computes connected components over all edges of g, or only
// over real edges when realOnly is set.
func NewComponents(g *Graph, realOnly bool) *Components {
	uf := NewUnionFind(g.NumNodes)
	count := int(g.NumNodes)
	for i := range g.Edges {
		e := &g.Edges[i]
		if realOnly && e.Kind != EdgeReal {
			continue
		}
		if uf.Union(e.A, e.B) {
			count--
		}
	}
	return &Components{uf: uf, Count: count}
}

// Connected reports whether u and v are in the same component.
func (c *Components) Connected(u, v uint32) bool {
	return c.uf.Find(u) == c.uf.Find(v)
}

// Size returns the number of nodes in the component containing u.
func (c *Components) Size(u uint32) uint32 {
	return c.uf.Size(u)
}

// Largest returns the size of the largest component.
func (c *Components) Largest() uint32 {
	var best uint32
	for i := range uint32(len(c.uf.parent)) {
		if c.uf.parent[i] == i && c.uf.size[i] > best {
			best = c.uf.size[i]
		}
	}
	return best
}

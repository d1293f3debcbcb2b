package routing

import (
	"math"

	"github.com/tidwall/rtree"

	"river_tracer/pkg/raster"
	"river_tracer/pkg/skeleton"
)

// Snapper finds the node pixel nearest to an arbitrary pixel using an
// R-tree over all node pixels.
type Snapper struct {
	index rtree.RTreeG[uint32]
	n     int
}

// NewSnapper indexes every node of the arena.
func NewSnapper(nodes *skeleton.Nodes) *Snapper {
	s := &Snapper{n: nodes.Len()}
	for id, p := range nodes.Pixels {
		pt := [2]float64{float64(p.Y), float64(p.X)}
		s.index.Insert(pt, pt, uint32(id))
	}
	return s
}

// Snap returns the id of the node closest to p by Euclidean pixel distance.
// Equidistant nodes resolve to the lowest id. ok is false when there are no
// nodes.
func (s *Snapper) Snap(p raster.Pixel) (id uint32, ok bool) {
	if s.n == 0 {
		return 0, false
	}
	target := [2]float64{float64(p.Y), float64(p.X)}
	bestDist := math.Inf(1)
	s.index.Nearby(
		rtree.BoxDist[float64, uint32](target, target, nil),
		func(_, _ [2]float64, node uint32, d float64) bool {
			if d > bestDist {
				return false
			}
			if d < bestDist || node < id {
				id, bestDist = node, d
			}
			return true
		},
	)
	return id, true
}

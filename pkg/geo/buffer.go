package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// DefaultQuadSegs is the number of segments used per quarter circle when
// approximating the round joins of a buffer.
const DefaultQuadSegs = 8

// Buffer approximates the polygon buffer of distance d around ls. The
// result is a set of overlapping members (one rectangle per segment and one
// disk per vertex) whose union is the buffer.
func Buffer(ls orb.LineString, d float64, quadSegs int) orb.MultiPolygon {
	if d <= 0 || len(ls) == 0 {
		return nil
	}
	if quadSegs <= 0 {
		quadSegs = DefaultQuadSegs
	}

	mp := make(orb.MultiPolygon, 0, 2*len(ls))
	for _, p := range ls {
		mp = append(mp, orb.Polygon{disk(p, d, 4*quadSegs)})
	}
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		dx, dy := b[0]-a[0], b[1]-a[1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*d, dx/l*d
		mp = append(mp, orb.Polygon{orb.Ring{
			{a[0] + nx, a[1] + ny},
			{b[0] + nx, b[1] + ny},
			{b[0] - nx, b[1] - ny},
			{a[0] - nx, a[1] - ny},
			{a[0] + nx, a[1] + ny},
		}})
	}
	return mp
}

func disk(c orb.Point, r float64, n int) orb.Ring {
	ring := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, orb.Point{c[0] + r*math.Cos(a), c[1] + r*math.Sin(a)})
	}
	return append(ring, ring[0])
}

// Corridor answers point-in-buffer queries over a buffered line. Members
// are indexed by their bounds so each query only tests nearby polygons.
type Corridor struct {
	Polygons orb.MultiPolygon
	index    rtree.RTreeG[int]
}

// NewCorridor buffers ls by width and indexes the result.
func NewCorridor(ls orb.LineString, width float64, quadSegs int) *Corridor {
	c := &Corridor{Polygons: Buffer(ls, width, quadSegs)}
	for i, poly := range c.Polygons {
		b := poly.Bound()
		c.index.Insert([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, i)
	}
	return c
}

// Bound returns the bounding box of the corridor.
func (c *Corridor) Bound() orb.Bound {
	return c.Polygons.Bound()
}

// Contains reports whether p falls inside any member of the corridor.
func (c *Corridor) Contains(p orb.Point) bool {
	found := false
	pt := [2]float64{p[0], p[1]}
	c.index.Search(pt, pt, func(_, _ [2]float64, i int) bool {
		if planar.PolygonContains(c.Polygons[i], p) {
			found = true
			return false
		}
		return true
	})
	return found
}

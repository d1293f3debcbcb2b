package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// eps absorbs floating point noise in the intersection parameters.
const eps = 1e-12

// Crossing is an intersection of a polyline with another line, located by
// the polyline segment index and the parameter t in [0,1] along it.
type Crossing struct {
	Point   orb.Point
	Segment int
	T       float64
}

// SegmentIntersection intersects segments p1-p2 and q1-q2. It returns the
// intersection point and the parameter along p1-p2. Collinear overlaps
// report the first overlapping endpoint along p1-p2.
func SegmentIntersection(p1, p2, q1, q2 orb.Point) (orb.Point, float64, bool) {
	rx, ry := p2[0]-p1[0], p2[1]-p1[1]
	sx, sy := q2[0]-q1[0], q2[1]-q1[1]
	qpx, qpy := q1[0]-p1[0], q1[1]-p1[1]

	denom := rx*sy - ry*sx
	if math.Abs(denom) < eps {
		if math.Abs(qpx*ry-qpy*rx) > eps {
			return orb.Point{}, 0, false // parallel
		}
		rr := rx*rx + ry*ry
		if rr < eps {
			return orb.Point{}, 0, false
		}
		t0 := (qpx*rx + qpy*ry) / rr
		t1 := t0 + (sx*rx+sy*ry)/rr
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		if hi < -eps || lo > 1+eps {
			return orb.Point{}, 0, false
		}
		t := math.Max(lo, 0)
		return orb.Point{p1[0] + t*rx, p1[1] + t*ry}, t, true
	}

	t := (qpx*sy - qpy*sx) / denom
	u := (qpx*ry - qpy*rx) / denom
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return orb.Point{}, 0, false
	}
	t = math.Min(math.Max(t, 0), 1)
	return orb.Point{p1[0] + t*rx, p1[1] + t*ry}, t, true
}

// Crossings returns every intersection of ls with ring, ordered along ls.
// Points closer than tol to the previous crossing are merged, so a course
// passing exactly through a ring corner yields a single crossing.
func Crossings(ls orb.LineString, ring orb.Ring, tol float64) []Crossing {
	var out []Crossing
	for i := 1; i < len(ls); i++ {
		var seg []Crossing
		for j := 1; j < len(ring); j++ {
			pt, t, ok := SegmentIntersection(ls[i-1], ls[i], ring[j-1], ring[j])
			if ok {
				seg = append(seg, Crossing{Point: pt, Segment: i - 1, T: t})
			}
		}
		sort.SliceStable(seg, func(a, b int) bool { return seg[a].T < seg[b].T })
		for _, c := range seg {
			if n := len(out); n > 0 && dist(out[n-1].Point, c.Point) <= tol {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func dist(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

package classify

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
	"gonum.org/v1/gonum/mat"

	"river_tracer/pkg/raster"
)

// ErrGridShape is returned when coordinate arrays do not match the raster.
var ErrGridShape = errors.New("coordinate arrays do not match raster shape")

// Grid holds the latitude/longitude of every raster pixel. Regular grids
// store one latitude per row and one longitude per column; curvilinear
// grids store a full H×W array for each axis.
type Grid struct {
	H, W int

	// Regular grid axes.
	lat []float64
	lon []float64

	// Curvilinear grid arrays.
	lat2 *mat.Dense
	lon2 *mat.Dense

	indexOnce sync.Once
	index     rtree.RTreeG[raster.Pixel] // curvilinear lookups only
}

// NewRegularGrid builds a grid from 1D axes: lat has one entry per row and
// lon one entry per column.
func NewRegularGrid(lat, lon []float64) (*Grid, error) {
	if len(lat) == 0 || len(lon) == 0 {
		return nil, fmt.Errorf("%w: empty axis", ErrGridShape)
	}
	return &Grid{H: len(lat), W: len(lon), lat: lat, lon: lon}, nil
}

// NewCurvilinearGrid builds a grid from two H×W coordinate matrices.
func NewCurvilinearGrid(lat, lon *mat.Dense) (*Grid, error) {
	h, w := lat.Dims()
	lh, lw := lon.Dims()
	if h != lh || w != lw {
		return nil, fmt.Errorf("%w: lat is %dx%d, lon is %dx%d", ErrGridShape, h, w, lh, lw)
	}
	return &Grid{H: h, W: w, lat2: lat, lon2: lon}, nil
}

// Curvilinear reports whether the grid stores 2D coordinate arrays.
func (g *Grid) Curvilinear() bool {
	return g.lat2 != nil
}

// Check verifies the grid matches an h×w raster.
func (g *Grid) Check(h, w int) error {
	if g.H != h || g.W != w {
		return fmt.Errorf("%w: grid is %dx%d, raster is %dx%d", ErrGridShape, g.H, g.W, h, w)
	}
	return nil
}

// Point returns the lon/lat coordinate of pixel p.
func (g *Grid) Point(p raster.Pixel) orb.Point {
	if g.Curvilinear() {
		return orb.Point{g.lon2.At(p.Y, p.X), g.lat2.At(p.Y, p.X)}
	}
	return orb.Point{g.lon[p.X], g.lat[p.Y]}
}

// Bound returns the coordinate extent of the grid.
func (g *Grid) Bound() orb.Bound {
	if !g.Curvilinear() {
		return orb.Bound{
			Min: orb.Point{minOf(g.lon), minOf(g.lat)},
			Max: orb.Point{maxOf(g.lon), maxOf(g.lat)},
		}
	}
	b := orb.Bound{Min: g.Point(raster.Pixel{}), Max: g.Point(raster.Pixel{})}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			b = b.Extend(g.Point(raster.Pixel{Y: y, X: x}))
		}
	}
	return b
}

// Nearest returns the pixel whose coordinate is closest to pt. Regular
// grids resolve each axis independently; curvilinear grids search all
// coordinate pairs by Euclidean distance in coordinate space.
func (g *Grid) Nearest(pt orb.Point) raster.Pixel {
	if !g.Curvilinear() {
		return raster.Pixel{Y: nearestIndex(g.lat, pt.Lat()), X: nearestIndex(g.lon, pt.Lon())}
	}

	g.indexOnce.Do(func() {
		for y := 0; y < g.H; y++ {
			for x := 0; x < g.W; x++ {
				p := raster.Pixel{Y: y, X: x}
				c := g.Point(p)
				g.index.Insert([2]float64{c[0], c[1]}, [2]float64{c[0], c[1]}, p)
			}
		}
	})

	target := [2]float64{pt[0], pt[1]}
	best := raster.Pixel{Y: -1}
	bestDist := math.Inf(1)
	g.index.Nearby(
		rtree.BoxDist[float64, raster.Pixel](target, target, nil),
		func(_, _ [2]float64, p raster.Pixel, d float64) bool {
			if d > bestDist {
				return false
			}
			if d < bestDist || less(p, best) {
				best, bestDist = p, d
			}
			return true
		},
	)
	return best
}

func less(a, b raster.Pixel) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// nearestIndex finds the index of the axis value closest to v. Monotonic
// axes use binary search, anything else a linear scan.
func nearestIndex(axis []float64, v float64) int {
	n := len(axis)
	if n == 1 {
		return 0
	}
	asc := sort.Float64sAreSorted(axis)
	desc := !asc && sort.SliceIsSorted(axis, func(i, j int) bool { return axis[i] > axis[j] })
	if !asc && !desc {
		best := 0
		for i, a := range axis {
			if math.Abs(a-v) < math.Abs(axis[best]-v) {
				best = i
			}
		}
		return best
	}

	i := sort.Search(n, func(i int) bool {
		if asc {
			return axis[i] >= v
		}
		return axis[i] <= v
	})
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	case math.Abs(axis[i-1]-v) <= math.Abs(axis[i]-v):
		return i - 1
	default:
		return i
	}
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Max(m, x)
	}
	return m
}

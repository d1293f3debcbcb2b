// Package classify restricts a water mask to the corridor around a known
// river course and derives the two pixels the centerline is traced between.
package classify

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"

	"river_tracer/pkg/geo"
	"river_tracer/pkg/raster"
)

// ErrNoCrossing is returned when the river course does not reach the
// raster extent, so no tracing endpoints can be derived.
var ErrNoCrossing = errors.New("river course does not intersect raster extent")

// ErrBadDirection is returned for a flow direction other than N, S, E or W.
var ErrBadDirection = errors.New("invalid flow direction")

// GeometryError reports why endpoints could not be derived from a course.
type GeometryError struct {
	Bound     orb.Bound
	Crossings int
	Reason    string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%v: %s (extent %v..%v, %d crossings)",
		ErrNoCrossing, e.Reason, e.Bound.Min, e.Bound.Max, e.Crossings)
}

func (e *GeometryError) Unwrap() error { return ErrNoCrossing }

// Direction is the cardinal direction the river flows towards.
type Direction byte

const (
	North Direction = 'N'
	South Direction = 'S'
	East  Direction = 'E'
	West  Direction = 'W'
)

// ParseDirection accepts N, S, E, W (any case) and the full names.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "S", "SOUTH":
		return South, nil
	case "E", "EAST":
		return East, nil
	case "W", "WEST":
		return West, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadDirection, s)
}

func (d Direction) String() string { return string(d) }

// downstream reports whether a lies further along d than b.
func (d Direction) downstream(a, b orb.Point) bool {
	switch d {
	case North:
		return a.Lat() > b.Lat()
	case South:
		return a.Lat() < b.Lat()
	case East:
		return a.Lon() > b.Lon()
	default:
		return a.Lon() < b.Lon()
	}
}

// RiverOptions configures River.
type RiverOptions struct {
	// BufferWidth is the corridor half-width around the course, in grid
	// coordinate units.
	BufferWidth float64
	Direction   Direction
	QuadSegs    int // disk segments per quarter circle; 0 uses geo.DefaultQuadSegs
}

// RiverResult is the output of River.
type RiverResult struct {
	Mask     *raster.Mask
	Start    raster.Pixel
	End      raster.Pixel
	Kept     int // foreground pixels inside the corridor
	Rejected int // foreground pixels outside the corridor
}

// River derives the start and end pixels where course enters and leaves the
// grid extent, and returns a copy of mask restricted to the buffered course.
func River(mask *raster.Mask, grid *Grid, course orb.LineString, opts RiverOptions) (*RiverResult, error) {
	if err := grid.Check(mask.H, mask.W); err != nil {
		return nil, err
	}
	if _, err := ParseDirection(string(opts.Direction)); err != nil {
		return nil, err
	}
	if len(course) < 2 {
		return nil, fmt.Errorf("river course needs at least 2 vertices, got %d", len(course))
	}

	a, b, err := Endpoints(grid.Bound(), course)
	if err != nil {
		return nil, err
	}

	start, end := grid.Nearest(a), grid.Nearest(b)
	if opts.Direction.downstream(grid.Point(start), grid.Point(end)) {
		start, end = end, start
	}

	res := &RiverResult{Mask: raster.NewMask(mask.H, mask.W), Start: start, End: end}
	corridor := geo.NewCorridor(course, opts.BufferWidth, opts.QuadSegs)
	cb := corridor.Bound()
	mask.Each(func(p raster.Pixel) {
		if pt := grid.Point(p); cb.Contains(pt) && corridor.Contains(pt) {
			res.Mask.Set(p.Y, p.X, true)
			res.Kept++
		} else {
			res.Rejected++
		}
	})
	return res, nil
}

// Endpoints resolves the two points where course crosses the boundary of
// bound, in course order. With a single crossing the course terminus inside
// the extent is used as the other endpoint; a course lying entirely inside
// the extent uses both termini.
func Endpoints(bound orb.Bound, course orb.LineString) (orb.Point, orb.Point, error) {
	tol := 1e-9 * math.Max(1, math.Hypot(bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1]))
	cs := geo.Crossings(course, bound.ToRing(), tol)

	first, last := course[0], course[len(course)-1]
	firstIn, lastIn := bound.Contains(first), bound.Contains(last)

	switch {
	case len(cs) >= 2:
		return cs[0].Point, cs[len(cs)-1].Point, nil

	case len(cs) == 1:
		c := cs[0].Point
		switch {
		case firstIn && lastIn:
			if planarDist(c, first) >= planarDist(c, last) {
				return first, c, nil
			}
			return c, last, nil
		case firstIn && planarDist(c, first) > tol:
			return first, c, nil
		case lastIn && planarDist(c, last) > tol:
			return c, last, nil
		}
		return orb.Point{}, orb.Point{}, &GeometryError{Bound: bound, Crossings: 1, Reason: "course touches the extent at a single point"}

	case firstIn && lastIn:
		return first, last, nil
	}
	return orb.Point{}, orb.Point{}, &GeometryError{Bound: bound, Reason: "course lies outside the raster"}
}

func planarDist(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

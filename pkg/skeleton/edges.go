package skeleton

import (
	"errors"
	"fmt"
	"math"

	"river_tracer/pkg/graph"
	"river_tracer/pkg/raster"
)

// ErrWalkOverflow is wrapped by WalkOverflowError.
var ErrWalkOverflow = errors.New("real edge walk exceeded iteration limit")

// WalkOverflowError reports a real-edge walk that ran for more than
// MaxIter steps. The candidate edge is discarded; graph construction goes on.
type WalkOverflowError struct {
	Start   raster.Pixel
	Dir     raster.Pixel
	MaxIter int
}

func (e *WalkOverflowError) Error() string {
	return fmt.Sprintf("%v: start %v direction (%d,%d) after %d steps",
		ErrWalkOverflow, e.Start, e.Dir.Y, e.Dir.X, e.MaxIter)
}

func (e *WalkOverflowError) Unwrap() error { return ErrWalkOverflow }

// Walk follows the foreground chain leaving node id in direction dir until
// another node is reached. It returns ok=false without error when the first
// step is background, when the walk gets ambiguous or when it loops back to
// its own start.
func Walk(m *raster.Mask, nodes *Nodes, id uint32, dir raster.Pixel, maxIter int) (graph.Edge, bool, error) {
	start := nodes.Pixel(id)
	cur := raster.Pixel{Y: start.Y + dir.Y, X: start.X + dir.X}
	if !m.At(cur.Y, cur.X) {
		return graph.Edge{}, false, nil
	}

	path := []raster.Pixel{start, cur}
	visited := map[raster.Pixel]struct{}{start: {}, cur: {}}
	prev := start

	for steps := 0; ; steps++ {
		if end, ok := nodes.ID(cur); ok {
			if end == id {
				return graph.Edge{}, false, nil
			}
			return graph.Edge{
				A:      id,
				B:      end,
				Weight: float64(len(path)),
				Kind:   graph.EdgeReal,
				Path:   path,
			}, true, nil
		}
		if steps >= maxIter {
			return graph.Edge{}, false, &WalkOverflowError{Start: start, Dir: dir, MaxIter: maxIter}
		}
		if m.NeighborhoodSum(cur.Y, cur.X) != 3 {
			return graph.Edge{}, false, nil
		}

		var next raster.Pixel
		candidates := 0
		for _, o := range raster.Offsets {
			q := raster.Pixel{Y: cur.Y + o.Y, X: cur.X + o.X}
			if q == prev || !m.At(q.Y, q.X) {
				continue
			}
			if _, seen := visited[q]; seen {
				if _, isNode := nodes.ID(q); !isNode {
					continue
				}
			}
			next = q
			candidates++
		}
		if candidates != 1 {
			return graph.Edge{}, false, nil
		}

		visited[next] = struct{}{}
		path = append(path, next)
		prev, cur = cur, next
	}
}

// RealEdges walks all 8 directions out of node id and returns the edges
// found. Overflowing walks are skipped and reported through the joined
// error; the returned edges are valid either way.
func RealEdges(m *raster.Mask, nodes *Nodes, id uint32, maxIter int) ([]graph.Edge, error) {
	var edges []graph.Edge
	var errs []error
	for _, dir := range raster.Offsets {
		e, ok, err := Walk(m, nodes, id, dir, maxIter)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			edges = append(edges, e)
		}
	}
	return edges, errors.Join(errs...)
}

// JumpWeight is the cost of a jump edge spanning Euclidean distance d.
func JumpWeight(d, factor, power float64) float64 {
	return math.Pow(factor*d, power)
}

// JumpEdges returns a jump edge from node id to every other node inside
// the (2·jump+1)² window centred on it. Only pairs where the other node has
// a larger id are emitted, so running it over all nodes yields each pair
// once.
func JumpEdges(nodes *Nodes, id uint32, opts Options) []graph.Edge {
	if opts.Jump <= 0 {
		return nil
	}
	p := nodes.Pixel(id)
	var edges []graph.Edge
	for y := p.Y - opts.Jump; y <= p.Y+opts.Jump; y++ {
		for x := p.X - opts.Jump; x <= p.X+opts.Jump; x++ {
			q := raster.Pixel{Y: y, X: x}
			other, ok := nodes.ID(q)
			if !ok || other <= id {
				continue
			}
			d := math.Hypot(float64(q.Y-p.Y), float64(q.X-p.X))
			e := graph.Edge{
				A:      id,
				B:      other,
				Weight: JumpWeight(d, opts.JumpFactor, opts.JumpPower),
				Kind:   graph.EdgeJump,
			}
			if opts.IncludeGaps {
				e.Path = raster.Line(p, q)
			}
			edges = append(edges, e)
		}
	}
	return edges
}

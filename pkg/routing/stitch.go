package routing

import (
	"slices"

	"river_tracer/pkg/graph"
	"river_tracer/pkg/raster"
	"river_tracer/pkg/skeleton"
)

// stitch concatenates the pixel paths of edges, walked in order from node
// from, into one gap-free sequence. Each edge path is oriented to begin at
// the pixel of the node it is entered from, and a leading pixel equal to the
// last emitted one is dropped. Jump edges without a stored path contribute
// their two node pixels.
func stitch(g *graph.Graph, nodes *skeleton.Nodes, from uint32, edges []uint32) (pixels []raster.Pixel, visited []uint32, jumps int) {
	visited = append(visited, from)
	if len(edges) == 0 {
		return []raster.Pixel{nodes.Pixel(from)}, visited, 0
	}

	cur := from
	for _, ei := range edges {
		e := &g.Edges[ei]
		next := e.Other(cur)
		if e.Kind == graph.EdgeJump {
			jumps++
		}

		seg := e.Path
		if len(seg) == 0 {
			seg = []raster.Pixel{nodes.Pixel(cur), nodes.Pixel(next)}
		} else if seg[0] != nodes.Pixel(cur) {
			seg = slices.Clone(seg)
			slices.Reverse(seg)
		}

		if n := len(pixels); n > 0 && pixels[n-1] == seg[0] {
			seg = seg[1:]
		}
		pixels = append(pixels, seg...)
		visited = append(visited, next)
		cur = next
	}
	return pixels, visited, jumps
}

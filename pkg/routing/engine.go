package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"river_tracer/pkg/graph"
	"river_tracer/pkg/raster"
	"river_tracer/pkg/skeleton"
)

var (
	// ErrNoNodes is returned when the mask yields no skeleton nodes to snap to.
	ErrNoNodes = errors.New("mask has no skeleton nodes")
	// ErrDisconnected is wrapped by DisconnectedError.
	ErrDisconnected = errors.New("start and end are not connected")
)

// DisconnectedError reports that no path joins the snapped start and end
// nodes: the mask is disconnected between their two regions and no jump
// edge bridges the gap.
type DisconnectedError struct {
	Start, End raster.Pixel // snapped node pixels
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("%v: %v and %v", ErrDisconnected, e.Start, e.End)
}

func (e *DisconnectedError) Unwrap() error { return ErrDisconnected }

// Path is a traced centerline.
type Path struct {
	Pixels []raster.Pixel `json:"pixels"` // ordered, no consecutive duplicates
	Nodes  []raster.Pixel `json:"nodes"`  // node pixels in travel order
	Cost   float64        `json:"cost"`
	Jumps  int            `json:"jumps"` // jump edges used
}

// Engine answers path queries over one built skeleton. It is not safe for
// concurrent use; build one per goroutine.
type Engine struct {
	res       *skeleton.Result
	g         *graph.Graph
	comps     *graph.Components // over all edges
	realComps *graph.Components // over real edges only
	snapper   *Snapper
	qs      *QueryState
	logger  *log.Logger
}

// NewEngine builds the multigraph, component labels and snapping index of a
// skeleton. A nil logger uses log.Default().
func NewEngine(res *skeleton.Result, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	g := res.Graph()
	e := &Engine{
		res:       res,
		g:         g,
		comps:     graph.NewComponents(g, false),
		realComps: graph.NewComponents(g, true),
		snapper:   NewSnapper(res.Nodes),
		qs:        NewQueryState(g.NumNodes),
		logger:    logger,
	}
	logger.Debug("graph built",
		"nodes", g.NumNodes, "edges", g.NumEdges,
		"components", e.comps.Count, "largest", e.comps.Largest(),
		"fragments", e.realComps.Count)
	return e
}

// Graph returns the multigraph the engine routes over.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Route snaps start and end to their nearest nodes and returns the cheapest
// stitched pixel path between them.
func (e *Engine) Route(ctx context.Context, start, end raster.Pixel) (*Path, error) {
	// Step 1: Snap both pixels to skeleton nodes.
	s, ok := e.snapper.Snap(start)
	if !ok {
		return nil, ErrNoNodes
	}
	t, _ := e.snapper.Snap(end)
	nodes := e.res.Nodes
	e.logger.Debug("snapped endpoints",
		"start", start, "start_node", nodes.Pixel(s),
		"end", end, "end_node", nodes.Pixel(t))

	if !e.comps.Connected(s, t) {
		return nil, &DisconnectedError{Start: nodes.Pixel(s), End: nodes.Pixel(t)}
	}
	if !e.realComps.Connected(s, t) {
		e.logger.Debug("endpoints joined only through jump edges",
			"start_fragment", e.realComps.Size(s), "end_fragment", e.realComps.Size(t))
	}

	// Step 2: Dijkstra over the multigraph.
	defer e.qs.Reset()
	cost, edges, err := Dijkstra(ctx, e.g, e.qs, s, t)
	if err != nil {
		return nil, err
	}
	if math.IsInf(cost, 1) {
		return nil, &DisconnectedError{Start: nodes.Pixel(s), End: nodes.Pixel(t)}
	}

	// Step 3: Stitch edge paths into one pixel sequence.
	pixels, visited, jumps := stitch(e.g, nodes, s, edges)
	path := &Path{
		Pixels: pixels,
		Nodes:  make([]raster.Pixel, len(visited)),
		Cost:   cost,
		Jumps:  jumps,
	}
	for i, id := range visited {
		path.Nodes[i] = nodes.Pixel(id)
	}
	e.logger.Debug("path resolved", "edges", len(edges), "pixels", len(pixels), "cost", cost, "jumps", jumps)
	return path, nil
}

// ShortestPath builds the skeleton graph of m and returns the cheapest
// stitched path between the nodes nearest to start and end.
func ShortestPath(ctx context.Context, m *raster.Mask, start, end raster.Pixel, opts skeleton.Options) (*Path, error) {
	res, err := skeleton.Build(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("build skeleton: %w", err)
	}
	if res.Nodes.Len() == 0 {
		return nil, ErrNoNodes
	}
	return NewEngine(res, opts.Logger).Route(ctx, start, end)
}

package skeleton

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"river_tracer/pkg/graph"
	"river_tracer/pkg/raster"
)

const (
	// DefaultMaxIter bounds a single real-edge walk.
	DefaultMaxIter = 100_000
	// DefaultJumpFactor scales the Euclidean distance of a jump edge.
	DefaultJumpFactor = 1000.0
	// DefaultJumpPower is the exponent applied to the scaled distance.
	DefaultJumpPower = 3.0
)

// Options configures skeleton graph construction.
type Options struct {
	MaxIter       int     // step limit for one real-edge walk
	Jump          int     // jump window radius in pixels; 0 disables jump edges
	JumpFactor    float64 // jump weight = (JumpFactor·d)^JumpPower
	JumpPower     float64
	IncludeGaps   bool // rasterize jump edges into straight pixel paths
	PruneIsolated bool // drop foreground pixels without neighbours first

	Logger *log.Logger // nil uses log.Default()
}

// DefaultOptions returns the default build options with gap pixels enabled
// and jump edges disabled.
func DefaultOptions() Options {
	return Options{
		MaxIter:     DefaultMaxIter,
		JumpFactor:  DefaultJumpFactor,
		JumpPower:   DefaultJumpPower,
		IncludeGaps: true,
	}
}

func (o Options) validate() error {
	if o.MaxIter <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIter)
	}
	if o.Jump < 0 {
		return fmt.Errorf("jump radius must not be negative, got %d", o.Jump)
	}
	if o.Jump > 0 && (o.JumpFactor <= 0 || o.JumpPower <= 0) {
		return fmt.Errorf("jump factor and power must be positive, got %g and %g", o.JumpFactor, o.JumpPower)
	}
	return nil
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// Stats summarizes a build.
type Stats struct {
	Nodes         int
	RealEdges     int
	JumpEdges     int
	WalkOverflows int
	Pruned        int
}

// Result is the node arena and edge list of a skeleton.
type Result struct {
	Mask  *raster.Mask // the mask the nodes index into
	Nodes *Nodes
	Edges []graph.Edge // real edges first, each family sorted by endpoint pair
	Stats Stats
}

// Graph builds the multigraph over the result's nodes and edges.
func (r *Result) Graph() *graph.Graph {
	return graph.Build(uint32(r.Nodes.Len()), r.Edges)
}

// ctxCheckInterval is how many nodes are processed between ctx checks.
const ctxCheckInterval = 64

// Build finds all nodes of m and connects them with real and jump edges.
// Walk overflows are logged and counted, never returned. ctx is checked
// between batches of nodes in both edge passes.
func Build(ctx context.Context, m *raster.Mask, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.logger()

	res := &Result{Mask: m}
	if opts.PruneIsolated {
		res.Mask = m.Clone()
		res.Stats.Pruned = raster.PruneIsolated(res.Mask)
	}

	nodes := FindNodes(res.Mask)
	res.Nodes = nodes
	res.Stats.Nodes = nodes.Len()

	// Real edges, deduplicated by endpoint pair. The lighter chain wins.
	var realEdges []graph.Edge
	byPair := make(map[uint64]int)
	for id := range uint32(nodes.Len()) {
		if id%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		edges, err := RealEdges(res.Mask, nodes, id, opts.MaxIter)
		if err != nil {
			res.Stats.WalkOverflows += countOverflows(err)
			logger.Warn("dropping real edge candidates", "node", nodes.Pixel(id), "err", err)
		}
		for _, e := range edges {
			e = e.Canonical()
			i, ok := byPair[e.Key()]
			switch {
			case !ok:
				byPair[e.Key()] = len(realEdges)
				realEdges = append(realEdges, e)
			case e.Weight < realEdges[i].Weight:
				realEdges[i] = e
			}
		}
	}
	sortEdges(realEdges)

	var jump []graph.Edge
	for id := range uint32(nodes.Len()) {
		if id%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		jump = append(jump, JumpEdges(nodes, id, opts)...)
	}
	sortEdges(jump)

	res.Edges = append(realEdges, jump...)
	res.Stats.RealEdges = len(realEdges)
	res.Stats.JumpEdges = len(jump)

	logger.Debug("skeleton built",
		"nodes", res.Stats.Nodes,
		"real_edges", res.Stats.RealEdges,
		"jump_edges", res.Stats.JumpEdges,
		"walk_overflows", res.Stats.WalkOverflows,
		"pruned", res.Stats.Pruned)
	return res, nil
}

func countOverflows(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range j.Unwrap() {
			n += countOverflows(e)
		}
		return n
	}
	if errors.Is(err, ErrWalkOverflow) {
		return 1
	}
	return 0
}

func sortEdges(edges []graph.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
}

// Package pipeline runs a complete trace: water classification, optional
// thinning, corridor restriction around a known course, skeleton graph
// construction and shortest path extraction.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"river_tracer/pkg/classify"
	"river_tracer/pkg/config"
	"river_tracer/pkg/geo"
	"river_tracer/pkg/raster"
	"river_tracer/pkg/routing"
	"river_tracer/pkg/skeleton"
)

// Result is the outcome of one trace.
type Result struct {
	ID           string            `json:"id"`
	Start        raster.Pixel      `json:"start"`
	End          raster.Pixel      `json:"end"`
	Pixels       []raster.Pixel    `json:"pixels"`
	Nodes        []raster.Pixel    `json:"nodes"`
	Cost         float64           `json:"cost"`
	Jumps        int               `json:"jumps"`
	Line         *geojson.Geometry `json:"line,omitempty"` // lon/lat of every pixel
	LengthMeters float64           `json:"length_meters,omitempty"`
	Skeleton     skeleton.Stats    `json:"skeleton"`
	Corridor     CorridorStats     `json:"corridor"`
}

// CorridorStats counts water pixels kept and dropped by the course buffer.
type CorridorStats struct {
	Water    int `json:"water"`
	Kept     int `json:"kept"`
	Rejected int `json:"rejected"`
}

// Tracer runs trace jobs against a fixed configuration. It holds no
// per-job state and is safe for concurrent use.
type Tracer struct {
	cfg    config.Config
	logger *log.Logger
}

// New creates a Tracer. A nil logger uses log.Default().
func New(cfg config.Config, logger *log.Logger) *Tracer {
	if logger == nil {
		logger = log.Default()
	}
	return &Tracer{cfg: cfg, logger: logger}
}

// Trace runs job through every stage, checking ctx in between.
func (t *Tracer) Trace(ctx context.Context, job *Job) (*Result, error) {
	res := &Result{ID: uuid.NewString()}
	logger := t.logger.With("trace", res.ID)

	// Stage 1: Water classification.
	stage := time.Now()
	rm, err := job.Matrix()
	if err != nil {
		return nil, err
	}
	grid, err := job.Grid()
	if err != nil {
		return nil, err
	}
	h, w := rm.Dims()
	if grid != nil {
		if err := grid.Check(h, w); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
		}
	}
	threshold := t.cfg.Water.Threshold
	if job.Threshold != nil {
		threshold = *job.Threshold
	}
	mask := raster.ClassifyWater(rm, threshold)
	res.Corridor.Water = mask.Count()
	if t.cfg.Water.Thin {
		mask = raster.Skeletonize(mask)
	}
	logger.Debug("stage done", "stage", "water", "pixels", res.Corridor.Water, "thin", t.cfg.Water.Thin, "took", time.Since(stage))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Endpoints and corridor.
	stage = time.Now()
	if job.HasEndpoints() {
		res.Start, res.End = *job.Start, *job.End
		for _, p := range []raster.Pixel{res.Start, res.End} {
			if !mask.In(p.Y, p.X) {
				return nil, fmt.Errorf("%w: pixel %v outside %dx%d raster", ErrInvalidJob, p, h, w)
			}
		}
		res.Corridor.Kept = mask.Count()
	} else {
		if grid == nil {
			return nil, fmt.Errorf("%w: a course needs lat and lon", ErrInvalidJob)
		}
		course, err := job.CourseLine()
		if err != nil {
			return nil, err
		}
		dirName := job.Direction
		if dirName == "" {
			dirName = t.cfg.River.Direction
		}
		dir, err := classify.ParseDirection(dirName)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
		}
		river, err := classify.River(mask, grid, course, classify.RiverOptions{
			BufferWidth: t.cfg.River.BufferWidth,
			Direction:   dir,
			QuadSegs:    t.cfg.River.QuadSegs,
		})
		if err != nil {
			return nil, err
		}
		mask = river.Mask
		res.Start, res.End = river.Start, river.End
		res.Corridor.Kept, res.Corridor.Rejected = river.Kept, river.Rejected
	}
	logger.Debug("stage done", "stage", "river", "start", res.Start, "end", res.End, "kept", res.Corridor.Kept, "took", time.Since(stage))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Skeleton graph.
	stage = time.Now()
	opts := t.cfg.SkeletonOptions(logger)
	if job.Jump != nil {
		opts.Jump = *job.Jump
	}
	sk, err := skeleton.Build(ctx, mask, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	res.Skeleton = sk.Stats
	logger.Debug("stage done", "stage", "skeleton", "nodes", sk.Stats.Nodes, "edges", len(sk.Edges), "took", time.Since(stage))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sk.Nodes.Len() == 0 {
		return nil, routing.ErrNoNodes
	}

	// Stage 4: Shortest path.
	stage = time.Now()
	path, err := routing.NewEngine(sk, logger).Route(ctx, res.Start, res.End)
	if err != nil {
		return nil, err
	}
	res.Pixels, res.Nodes = path.Pixels, path.Nodes
	res.Cost, res.Jumps = path.Cost, path.Jumps
	logger.Debug("stage done", "stage", "path", "pixels", len(path.Pixels), "jumps", path.Jumps, "took", time.Since(stage))

	if grid != nil {
		line := make(orb.LineString, len(res.Pixels))
		for i, p := range res.Pixels {
			line[i] = grid.Point(p)
		}
		res.Line = geojson.NewGeometry(line)
		res.LengthMeters = geo.PathLength(line)
	}

	logger.Info("trace complete", "pixels", len(res.Pixels), "jumps", res.Jumps, "length_m", res.LengthMeters)
	return res, nil
}

// Package osm extracts river courses from OpenStreetMap extracts.
package osm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// ErrNoWaterway is returned when no way matches the filter.
var ErrNoWaterway = errors.New("no matching waterway")

// Format selects the OSM encoding read by ParseWaterway.
type Format int

const (
	FormatPBF Format = iota
	FormatXML
)

// FormatFromPath guesses the encoding from a file name.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(path, ".osm") || strings.HasSuffix(path, ".xml") {
		return FormatXML
	}
	return FormatPBF
}

// waterwayKinds lists waterway tag values that describe a river course.
var waterwayKinds = map[string]bool{
	"river":  true,
	"stream": true,
	"canal":  true,
}

// ParseOptions configures the waterway parser.
type ParseOptions struct {
	Name   string // exact name tag to match; empty keeps every waterway
	Format Format
	Logger *log.Logger // nil uses log.Default()
}

// isWaterway returns true if the way is a river-like waterway matching name.
func isWaterway(tags osm.Tags, name string) bool {
	if !waterwayKinds[tags.Find("waterway")] {
		return false
	}
	// Riverbank areas share the tag on some older extracts.
	if tags.Find("area") == "yes" {
		return false
	}
	if name != "" && tags.Find("name") != name {
		return false
	}
	return true
}

// Waterway is one matched OSM way with its resolved geometry.
type Waterway struct {
	ID      osm.WayID
	Name    string
	Kind    string
	NodeIDs []osm.NodeID
	Line    orb.LineString // lon/lat; nodes without coordinates are skipped
}

// ParseResult holds the output of parsing an OSM extract.
type ParseResult struct {
	Ways   []Waterway
	Course orb.LineString // longest chain of ways joined end to end
}

// ParseWaterway reads an OSM extract twice: ways first, then the
// coordinates of the nodes they reference. The reader must therefore
// implement io.ReadSeeker.
func ParseWaterway(ctx context.Context, rs io.ReadSeeker, opts ParseOptions) (*ParseResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	// Pass 1: Scan ways to collect matching waterways and their node IDs.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []Waterway

	scanner := opts.Format.scanner(ctx, rs, true)
	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isWaterway(w.Tags, opts.Name) || len(w.Nodes) < 2 {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, Waterway{
			ID:      w.ID,
			Name:    w.Tags.Find("name"),
			Kind:    w.Tags.Find("waterway"),
			NodeIDs: nodeIDs,
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	logger.Info("pass 1 complete", "ways", len(ways), "referenced_nodes", len(referencedNodes))
	if len(ways) == 0 {
		if opts.Name != "" {
			return nil, fmt.Errorf("%w named %q", ErrNoWaterway, opts.Name)
		}
		return nil, ErrNoWaterway
	}

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	coords := make(map[osm.NodeID]orb.Point, len(referencedNodes))
	scanner = opts.Format.scanner(ctx, rs, false)
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		coords[n.ID] = n.Point()
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	logger.Info("pass 2 complete", "coordinates", len(coords))

	var missing int
	for i := range ways {
		ways[i].Line, missing = resolve(ways[i].NodeIDs, coords, missing)
	}
	if missing > 0 {
		logger.Warn("skipped nodes without coordinates", "count", missing)
	}

	chain := ChainWays(ways)
	course, _ := resolve(chain, coords, 0)
	logger.Info("course assembled", "ways", len(ways), "chain_nodes", len(chain), "points", len(course))

	return &ParseResult{Ways: ways, Course: course}, nil
}

func resolve(ids []osm.NodeID, coords map[osm.NodeID]orb.Point, missing int) (orb.LineString, int) {
	ls := make(orb.LineString, 0, len(ids))
	for _, id := range ids {
		pt, ok := coords[id]
		if !ok {
			missing++
			continue
		}
		ls = append(ls, pt)
	}
	return ls, missing
}

func (f Format) scanner(ctx context.Context, r io.Reader, waysPass bool) osm.Scanner {
	if f == FormatXML {
		return osmxml.New(ctx, r)
	}
	s := osmpbf.New(ctx, r, 1)
	s.SkipRelations = true
	if waysPass {
		s.SkipNodes = true
	} else {
		s.SkipWays = true
	}
	return s
}

package skeleton

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"river_tracer/pkg/graph"
	"river_tracer/pkg/raster"
)

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Logger = log.New(io.Discard)
	return opts
}

func diagonal(n int) *raster.Mask {
	m := raster.NewMask(n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, true)
	}
	return m
}

// yBranch has two arms meeting at (4,4) and a trunk running down to (10,4).
func yBranch() *raster.Mask {
	return raster.Parse(`
		#.......#
		.#.....#.
		..#...#..
		...#.#...
		....#....
		....#....
		....#....
		....#....
		....#....
		....#....
		....#....
	`)
}

// checkRealEdges verifies the structural invariants every real edge must hold.
func checkRealEdges(t *testing.T, res *Result) {
	t.Helper()
	for _, e := range res.Edges {
		if e.Kind != graph.EdgeReal {
			continue
		}
		require.GreaterOrEqual(t, len(e.Path), 2)
		a, b := res.Nodes.Pixel(e.A), res.Nodes.Pixel(e.B)
		first, last := e.Path[0], e.Path[len(e.Path)-1]
		assert.True(t, (first == a && last == b) || (first == b && last == a),
			"edge %d-%d path runs %v..%v", e.A, e.B, first, last)
		for i, p := range e.Path {
			assert.True(t, res.Mask.At(p.Y, p.X), "path pixel %v is background", p)
			if i > 0 {
				assert.True(t, raster.Adjacent(e.Path[i-1], p), "path breaks between %v and %v", e.Path[i-1], p)
			}
		}
		assert.Equal(t, float64(len(e.Path)), e.Weight)
	}
}

func TestIsNode(t *testing.T) {
	m := yBranch()
	assert.True(t, IsNode(m, 0, 0), "arm endpoint")
	assert.True(t, IsNode(m, 4, 4), "junction")
	assert.True(t, IsNode(m, 10, 4), "trunk endpoint")
	assert.False(t, IsNode(m, 2, 2), "pass-through pixel")
	assert.False(t, IsNode(m, 0, 1), "background pixel")
}

func TestFindNodesArena(t *testing.T) {
	m := yBranch()
	nodes := FindNodes(m)
	require.Equal(t, 4, nodes.Len())
	assert.Equal(t, []raster.Pixel{{Y: 0, X: 0}, {Y: 0, X: 8}, {Y: 4, X: 4}, {Y: 10, X: 4}}, nodes.Pixels)

	for i, p := range nodes.Pixels {
		id, ok := nodes.ID(p)
		require.True(t, ok)
		assert.Equal(t, uint32(i), id)
		assert.True(t, m.At(p.Y, p.X))
		assert.True(t, IsNode(m, p.Y, p.X))
	}
	_, ok := nodes.ID(raster.Pixel{Y: 2, X: 2})
	assert.False(t, ok)
	_, ok = nodes.ID(raster.Pixel{Y: -1, X: 0})
	assert.False(t, ok)
	_, ok = nodes.ID(raster.Pixel{Y: 99, X: 0})
	assert.False(t, ok)
}

func TestBuildDiagonal(t *testing.T) {
	res, err := Build(context.Background(), diagonal(20), quietOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.Nodes)
	require.Len(t, res.Edges, 1)
	e := res.Edges[0]
	assert.Equal(t, graph.EdgeReal, e.Kind)
	assert.Len(t, e.Path, 20)
	checkRealEdges(t, res)
}

func TestBuildYBranch(t *testing.T) {
	res, err := Build(context.Background(), yBranch(), quietOptions())
	require.NoError(t, err)

	// Three free ends and one junction.
	assert.Equal(t, 4, res.Stats.Nodes)
	assert.Equal(t, 3, res.Stats.RealEdges)
	assert.Equal(t, 0, res.Stats.JumpEdges)
	checkRealEdges(t, res)

	junction, ok := res.Nodes.ID(raster.Pixel{Y: 4, X: 4})
	require.True(t, ok)
	for _, e := range res.Edges {
		assert.True(t, e.A == junction || e.B == junction, "every arm ends at the junction")
	}
}

func TestBuildWalkOverflowIsRecoverable(t *testing.T) {
	opts := quietOptions()
	opts.MaxIter = 5

	res, err := Build(context.Background(), diagonal(20), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Nodes)
	assert.Equal(t, 0, res.Stats.RealEdges)
	assert.Equal(t, 2, res.Stats.WalkOverflows, "one overflow per direction the chain is walked")
}

func TestWalkOverflowError(t *testing.T) {
	m := diagonal(20)
	nodes := FindNodes(m)
	_, ok, err := Walk(m, nodes, 0, raster.Pixel{Y: 1, X: 1}, 3)
	assert.False(t, ok)
	require.ErrorIs(t, err, ErrWalkOverflow)

	var werr *WalkOverflowError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, raster.Pixel{}, werr.Start)
	assert.Equal(t, 3, werr.MaxIter)

	_, ok, err = Walk(m, nodes, 0, raster.Pixel{Y: 0, X: 1}, 100)
	assert.False(t, ok, "background first step")
	assert.NoError(t, err)
}

func TestSelfLoopDropped(t *testing.T) {
	// A tail leading into a ring: the ring walk returns to its own junction.
	m := raster.Parse(`
		..###..
		.#...#.
		.#...#.
		..#.#..
		...#...
		...#...
		...#...
	`)
	res, err := Build(context.Background(), m, quietOptions())
	require.NoError(t, err)
	for _, e := range res.Edges {
		assert.NotEqual(t, e.A, e.B)
	}
	checkRealEdges(t, res)
}

func TestParallelChainsKeepLighter(t *testing.T) {
	// Two chains join the junctions at (2,2) and (2,8): seven pixels over
	// the top, nine along the bottom. The short one must win.
	m := raster.Parse(`
		...........
		...#####...
		###.....###
		...#...#...
		...#...#...
		....###....
	`)
	res, err := Build(context.Background(), m, quietOptions())
	require.NoError(t, err)
	require.Equal(t, 4, res.Stats.Nodes)
	require.Equal(t, 3, res.Stats.RealEdges)

	seen := map[uint64]bool{}
	for _, e := range res.Edges {
		assert.False(t, seen[e.Key()], "duplicate pair %d-%d", e.A, e.B)
		seen[e.Key()] = true
	}
	checkRealEdges(t, res)

	left, _ := res.Nodes.ID(raster.Pixel{Y: 2, X: 2})
	right, _ := res.Nodes.ID(raster.Pixel{Y: 2, X: 8})
	for _, e := range res.Edges {
		if e.Key() == graph.PairKey(left, right) {
			assert.Equal(t, 7.0, e.Weight)
			assert.Equal(t, raster.Pixel{Y: 1, X: 5}, e.Path[3], "kept chain runs over the top")
		}
	}
}

func TestIsolatedPixels(t *testing.T) {
	m := diagonal(10)
	m.Set(0, 9, true)

	res, err := Build(context.Background(), m, quietOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.Nodes, "isolated pixel is kept as a singleton node")
	assert.Equal(t, 1, res.Stats.RealEdges)

	opts := quietOptions()
	opts.PruneIsolated = true
	res, err = Build(context.Background(), m, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Nodes)
	assert.Equal(t, 1, res.Stats.Pruned)
	assert.True(t, m.At(0, 9), "input mask is not modified")
}

func gapMask() *raster.Mask {
	m := diagonal(20)
	m.Set(10, 10, false)
	m.Set(11, 11, false)
	return m
}

func TestJumpEdges(t *testing.T) {
	m := gapMask()
	nodes := FindNodes(m)
	require.Equal(t, 4, nodes.Len())
	left, _ := nodes.ID(raster.Pixel{Y: 9, X: 9})
	right, _ := nodes.ID(raster.Pixel{Y: 12, X: 12})

	opts := quietOptions()
	opts.Jump = 2
	assert.Empty(t, JumpEdges(nodes, left, opts))

	opts.Jump = 3
	edges := JumpEdges(nodes, left, opts)
	require.Len(t, edges, 1)
	e := edges[0]
	assert.Equal(t, left, e.A)
	assert.Equal(t, right, e.B)
	assert.Equal(t, graph.EdgeJump, e.Kind)
	assert.InDelta(t, math.Pow(1000*3*math.Sqrt2, 3), e.Weight, 1)
	assert.Equal(t, []raster.Pixel{{Y: 9, X: 9}, {Y: 10, X: 10}, {Y: 11, X: 11}, {Y: 12, X: 12}}, e.Path)

	assert.Empty(t, JumpEdges(nodes, right, opts), "pairs are emitted from the lower id only")

	opts.IncludeGaps = false
	edges = JumpEdges(nodes, left, opts)
	require.Len(t, edges, 1)
	assert.Empty(t, edges[0].Path)
}

func TestBuildWithJumps(t *testing.T) {
	opts := quietOptions()
	opts.Jump = 3
	res, err := Build(context.Background(), gapMask(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.RealEdges)
	assert.Equal(t, 1, res.Stats.JumpEdges)
	assert.Equal(t, graph.EdgeReal, res.Edges[0].Kind, "real edges come first")
	assert.Equal(t, graph.EdgeJump, res.Edges[2].Kind)

	g := res.Graph()
	assert.Equal(t, uint32(4), g.NumNodes)
	assert.Equal(t, uint32(3), g.NumEdges)
}

func TestJumpWeightPenalty(t *testing.T) {
	prev := 0.0
	for d := 1.0; d <= 50; d += 0.5 {
		w := JumpWeight(d, DefaultJumpFactor, DefaultJumpPower)
		assert.Greater(t, w, prev, "weight must grow with distance")
		prev = w

		// Any real chain at least as long as the jump must stay cheaper.
		for _, l := range []float64{d, 2 * d, 10 * d, 1000} {
			if l < d {
				continue
			}
			assert.Greater(t, w, l, "jump of %.1f px vs real edge of %.0f px", d, l)
		}
	}
}

func TestBuildValidation(t *testing.T) {
	opts := quietOptions()
	opts.MaxIter = 0
	_, err := Build(context.Background(), diagonal(3), opts)
	assert.Error(t, err)

	opts = quietOptions()
	opts.Jump = -1
	_, err = Build(context.Background(), diagonal(3), opts)
	assert.Error(t, err)

	opts = quietOptions()
	opts.Jump = 2
	opts.JumpFactor = 0
	_, err = Build(context.Background(), diagonal(3), opts)
	assert.Error(t, err)
}

func TestBuildIsDeterministic(t *testing.T) {
	opts := quietOptions()
	opts.Jump = 4
	a, err := Build(context.Background(), yBranch(), opts)
	require.NoError(t, err)
	b, err := Build(context.Background(), yBranch(), opts)
	require.NoError(t, err)
	assert.Equal(t, a.Edges, b.Edges)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, yBranch(), quietOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

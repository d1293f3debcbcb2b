package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"river_tracer/pkg/classify"
	"river_tracer/pkg/config"
	"river_tracer/pkg/raster"
	"river_tracer/pkg/routing"
)

func testTracer(mutate ...func(*config.Config)) *Tracer {
	cfg := config.Default()
	cfg.River.BufferWidth = 0.5
	for _, fn := range mutate {
		fn(&cfg)
	}
	return New(cfg, log.New(io.Discard))
}

func zeros(h, w int) [][]float64 {
	rows := make([][]float64, h)
	for y := range rows {
		rows[y] = make([]float64, w)
	}
	return rows
}

func axis(n int) []float64 {
	a := make([]float64, n)
	for i := range a {
		a[i] = float64(i)
	}
	return a
}

// riverJob is a 10×10 raster with water along row 5 and two stray pixels,
// on a grid where lat == row and lon == col.
func riverJob() *Job {
	r := zeros(10, 10)
	for x := 0; x < 10; x++ {
		r[5][x] = 1
	}
	r[0][0] = 1
	r[2][2] = 0.9
	return &Job{
		Raster:    r,
		Lat:       Axis{Flat: axis(10)},
		Lon:       Axis{Flat: axis(10)},
		Course:    geojson.NewGeometry(orb.LineString{{-1, 5}, {10, 5}}),
		Direction: "E",
	}
}

func TestTraceAlongCourse(t *testing.T) {
	res, err := testTracer().Trace(context.Background(), riverJob())
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, raster.Pixel{Y: 5, X: 0}, res.Start)
	assert.Equal(t, raster.Pixel{Y: 5, X: 9}, res.End)
	assert.Equal(t, CorridorStats{Water: 12, Kept: 10, Rejected: 2}, res.Corridor)
	require.Len(t, res.Pixels, 10)
	for x, p := range res.Pixels {
		assert.Equal(t, raster.Pixel{Y: 5, X: x}, p)
	}
	assert.Equal(t, 10.0, res.Cost)

	require.NotNil(t, res.Line)
	line, ok := res.Line.Geometry().(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.Point{0, 5}, line[0])
	assert.Equal(t, orb.Point{9, 5}, line[9])
	// Nine degrees of longitude at 5°N.
	assert.InDelta(t, 997_000, res.LengthMeters, 5_000)
}

func TestTraceDirectionOverride(t *testing.T) {
	job := riverJob()
	job.Direction = ""
	res, err := testTracer(func(c *config.Config) { c.River.Direction = "W" }).Trace(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, raster.Pixel{Y: 5, X: 9}, res.Start)
	assert.Equal(t, raster.Pixel{Y: 5, X: 9}, res.Pixels[0])
	assert.Equal(t, raster.Pixel{Y: 5, X: 0}, res.End)
}

func TestTraceExplicitEndpoints(t *testing.T) {
	r := zeros(20, 20)
	for i := 0; i < 20; i++ {
		r[i][i] = 1
	}
	job := &Job{
		Raster: r,
		Start:  &raster.Pixel{},
		End:    &raster.Pixel{Y: 19, X: 19},
	}
	res, err := testTracer().Trace(context.Background(), job)
	require.NoError(t, err)
	assert.Len(t, res.Pixels, 20)
	assert.Nil(t, res.Line, "no coordinates to project onto")
	assert.Equal(t, 20, res.Corridor.Kept)
	assert.Equal(t, 2, res.Skeleton.Nodes)
}

func TestTraceGapNeedsJump(t *testing.T) {
	r := zeros(20, 20)
	for i := 0; i < 20; i++ {
		if i != 10 && i != 11 {
			r[i][i] = 1
		}
	}
	job := &Job{Raster: r, Start: &raster.Pixel{}, End: &raster.Pixel{Y: 19, X: 19}}

	_, err := testTracer().Trace(context.Background(), job)
	require.ErrorIs(t, err, routing.ErrDisconnected)

	jump := 3
	job.Jump = &jump
	res, err := testTracer().Trace(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Jumps)
	assert.Len(t, res.Pixels, 20)
}

func TestTraceThinsThickRiver(t *testing.T) {
	r := zeros(7, 20)
	for y := 2; y <= 4; y++ {
		for x := 1; x < 19; x++ {
			r[y][x] = 1
		}
	}
	job := &Job{Raster: r, Start: &raster.Pixel{Y: 3, X: 0}, End: &raster.Pixel{Y: 3, X: 19}}
	res, err := testTracer(func(c *config.Config) { c.Water.Thin = true }).Trace(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 54, res.Corridor.Water)
	assert.Less(t, res.Corridor.Kept, res.Corridor.Water, "thinning leaves a single pixel line")
	for i := 1; i < len(res.Pixels); i++ {
		assert.True(t, raster.Adjacent(res.Pixels[i-1], res.Pixels[i]))
	}
}

func TestTraceErrors(t *testing.T) {
	ctx := context.Background()
	tr := testTracer()

	job := riverJob()
	job.Raster[3] = job.Raster[3][:4]
	_, err := tr.Trace(ctx, job)
	assert.ErrorIs(t, err, ErrInvalidJob, "ragged raster")

	job = riverJob()
	job.Lat = Axis{}
	job.Lon = Axis{}
	_, err = tr.Trace(ctx, job)
	assert.ErrorIs(t, err, ErrInvalidJob, "course without coordinates")

	job = riverJob()
	job.Lat = Axis{Grid: zeros(10, 10)}
	_, err = tr.Trace(ctx, job)
	assert.ErrorIs(t, err, ErrInvalidJob, "mixed axes")

	job = riverJob()
	job.Lat = Axis{Flat: axis(8)}
	_, err = tr.Trace(ctx, job)
	assert.ErrorIs(t, err, ErrInvalidJob, "grid shape")

	job = riverJob()
	job.Direction = "up"
	_, err = tr.Trace(ctx, job)
	assert.ErrorIs(t, err, classify.ErrBadDirection)

	job = riverJob()
	job.Course = geojson.NewGeometry(orb.LineString{{20, 20}, {30, 30}})
	_, err = tr.Trace(ctx, job)
	assert.ErrorIs(t, err, classify.ErrNoCrossing)

	job = riverJob()
	job.Course = geojson.NewGeometry(orb.Point{1, 1})
	_, err = tr.Trace(ctx, job)
	assert.ErrorIs(t, err, ErrInvalidJob, "point course")

	_, err = tr.Trace(ctx, &Job{Raster: zeros(4, 4), Start: &raster.Pixel{}, End: &raster.Pixel{Y: 9, X: 9}})
	assert.ErrorIs(t, err, ErrInvalidJob, "end outside raster")

	_, err = tr.Trace(ctx, &Job{Raster: zeros(4, 4), Start: &raster.Pixel{}, End: &raster.Pixel{Y: 3, X: 3}})
	assert.ErrorIs(t, err, routing.ErrNoNodes)
}

func TestTraceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testTracer().Trace(ctx, riverJob())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobDecode(t *testing.T) {
	body := `{
		"raster": [[0, 1], [1, 0]],
		"lat": [[1.0, 1.0], [2.0, 2.0]],
		"lon": [[10.0, 11.0], [10.0, 11.0]],
		"course": {"type": "LineString", "coordinates": [[9, 1.5], [12, 1.5]]},
		"direction": "E",
		"jump": 2
	}`
	var job Job
	require.NoError(t, json.Unmarshal([]byte(body), &job))
	require.NotNil(t, job.Jump)
	assert.Equal(t, 2, *job.Jump)
	assert.False(t, job.HasEndpoints())

	g, err := job.Grid()
	require.NoError(t, err)
	assert.True(t, g.Curvilinear())
	assert.Equal(t, orb.Point{11, 2}, g.Point(raster.Pixel{Y: 1, X: 1}))

	ls, err := job.CourseLine()
	require.NoError(t, err)
	assert.Equal(t, orb.LineString{{9, 1.5}, {12, 1.5}}, ls)

	var bad Job
	assert.Error(t, json.Unmarshal([]byte(`{"lat": "north"}`), &bad))
}

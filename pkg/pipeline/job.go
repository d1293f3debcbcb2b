package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/gonum/mat"

	"river_tracer/pkg/classify"
	"river_tracer/pkg/raster"
)

// ErrInvalidJob is wrapped by every job validation failure.
var ErrInvalidJob = errors.New("invalid trace job")

// Axis is a coordinate array that is either one value per row/column or a
// full 2D array.
type Axis struct {
	Flat []float64
	Grid [][]float64
}

// UnmarshalJSON accepts a 1D or 2D number array.
func (a *Axis) UnmarshalJSON(b []byte) error {
	var flat []float64
	if err := json.Unmarshal(b, &flat); err == nil {
		a.Flat, a.Grid = flat, nil
		return nil
	}
	var grid [][]float64
	if err := json.Unmarshal(b, &grid); err != nil {
		return fmt.Errorf("coordinates must be a 1D or 2D number array: %w", err)
	}
	a.Flat, a.Grid = nil, grid
	return nil
}

// MarshalJSON writes whichever form the axis holds.
func (a Axis) MarshalJSON() ([]byte, error) {
	if a.Grid != nil {
		return json.Marshal(a.Grid)
	}
	return json.Marshal(a.Flat)
}

// IsZero reports whether the axis holds no values.
func (a Axis) IsZero() bool {
	return len(a.Flat) == 0 && len(a.Grid) == 0
}

// Job is one trace request.
type Job struct {
	Raster    [][]float64       `json:"raster"`
	Lat       Axis              `json:"lat"`
	Lon       Axis              `json:"lon"`
	Course    *geojson.Geometry `json:"course,omitempty"`
	Start     *raster.Pixel     `json:"start,omitempty"`
	End       *raster.Pixel     `json:"end,omitempty"`
	Direction string            `json:"direction,omitempty"`

	// Optional per-job overrides of the configured values.
	Threshold *float64 `json:"threshold,omitempty"`
	Jump      *int     `json:"jump,omitempty"`
}

// HasEndpoints reports whether the job names its start and end pixels
// explicitly.
func (j *Job) HasEndpoints() bool {
	return j.Start != nil && j.End != nil
}

// Matrix converts the raster rows into a dense matrix.
func (j *Job) Matrix() (*mat.Dense, error) {
	m, err := dense(j.Raster)
	if err != nil {
		return nil, fmt.Errorf("%w: raster: %v", ErrInvalidJob, err)
	}
	return m, nil
}

// Grid builds the coordinate grid. It returns nil without error when the
// job carries no coordinates.
func (j *Job) Grid() (*classify.Grid, error) {
	switch {
	case j.Lat.IsZero() && j.Lon.IsZero():
		return nil, nil
	case j.Lat.Flat != nil && j.Lon.Flat != nil:
		return classify.NewRegularGrid(j.Lat.Flat, j.Lon.Flat)
	case j.Lat.Grid != nil && j.Lon.Grid != nil:
		lat, err := dense(j.Lat.Grid)
		if err != nil {
			return nil, fmt.Errorf("%w: lat: %v", ErrInvalidJob, err)
		}
		lon, err := dense(j.Lon.Grid)
		if err != nil {
			return nil, fmt.Errorf("%w: lon: %v", ErrInvalidJob, err)
		}
		return classify.NewCurvilinearGrid(lat, lon)
	}
	return nil, fmt.Errorf("%w: lat and lon must both be 1D or both be 2D", ErrInvalidJob)
}

// CourseLine returns the course as a line string. A MultiLineString
// resolves to its longest member.
func (j *Job) CourseLine() (orb.LineString, error) {
	if j.Course == nil || j.Course.Geometry() == nil {
		return nil, fmt.Errorf("%w: no course", ErrInvalidJob)
	}
	switch g := j.Course.Geometry().(type) {
	case orb.LineString:
		return g, nil
	case orb.MultiLineString:
		var best orb.LineString
		for _, ls := range g {
			if len(ls) > len(best) {
				best = ls
			}
		}
		return best, nil
	default:
		return nil, fmt.Errorf("%w: course must be a LineString, got %s", ErrInvalidJob, g.GeoJSONType())
	}
}

func dense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("empty array")
	}
	w := len(rows[0])
	data := make([]float64, 0, len(rows)*w)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d values, want %d", y, len(row), w)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), w, data), nil
}

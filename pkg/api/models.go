package api

import (
	"github.com/paulmach/orb/geojson"

	"river_tracer/pkg/raster"
)

// TraceResponse is the JSON response for a successful trace. The body
// mirrors pipeline.Result with the request id added.
type TraceResponse struct {
	RequestID string `json:"request_id"`
	TraceID   string `json:"trace_id"`

	Start        raster.Pixel      `json:"start"`
	End          raster.Pixel      `json:"end"`
	Pixels       []raster.Pixel    `json:"pixels"`
	Nodes        []raster.Pixel    `json:"nodes"`
	Cost         float64           `json:"cost"`
	Jumps        int               `json:"jumps"`
	Line         *geojson.Geometry `json:"line,omitempty"`
	LengthMeters float64           `json:"length_meters,omitempty"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"river_tracer/pkg/classify"
	"river_tracer/pkg/pipeline"
	"river_tracer/pkg/routing"
)

// DefaultMaxBodyBytes bounds the size of a trace request body.
const DefaultMaxBodyBytes = 64 << 20

// Tracer is the interface for trace jobs.
type Tracer interface {
	Trace(ctx context.Context, job *pipeline.Job) (*pipeline.Result, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	tracer  Tracer
	maxBody int64
}

// NewHandlers creates handlers with the given tracer. maxBody <= 0 uses
// DefaultMaxBodyBytes.
func NewHandlers(tracer Tracer, maxBody int64) *Handlers {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handlers{tracer: tracer, maxBody: maxBody}
}

// HandleTrace handles POST /api/v1/trace.
func (h *Handlers) HandleTrace(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "content type must be application/json")
		return
	}

	// Parse request.
	var job pipeline.Job
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&job); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(job.Raster) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_job", "raster is required")
		return
	}
	if (job.Start == nil) != (job.End == nil) {
		writeError(w, http.StatusBadRequest, "invalid_job", "start and end must be given together")
		return
	}

	// Trace.
	result, err := h.tracer.Trace(r.Context(), &job)
	if err != nil {
		status, code := classifyError(err)
		detail := err.Error()
		if status == http.StatusInternalServerError {
			detail = ""
		}
		writeError(w, status, code, detail)
		return
	}

	resp := TraceResponse{
		RequestID:    RequestID(r.Context()),
		TraceID:      result.ID,
		Start:        result.Start,
		End:          result.End,
		Pixels:       result.Pixels,
		Nodes:        result.Nodes,
		Cost:         result.Cost,
		Jumps:        result.Jumps,
		Line:         result.Line,
		LengthMeters: result.LengthMeters,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// classifyError maps trace failures to a status code and error code.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request_timeout"
	case errors.Is(err, classify.ErrNoCrossing):
		return http.StatusUnprocessableEntity, "course_outside_extent"
	case errors.Is(err, routing.ErrNoNodes):
		return http.StatusUnprocessableEntity, "no_skeleton_nodes"
	case errors.Is(err, routing.ErrDisconnected):
		return http.StatusNotFound, "no_path_found"
	case errors.Is(err, pipeline.ErrInvalidJob),
		errors.Is(err, classify.ErrGridShape),
		errors.Is(err, classify.ErrBadDirection):
		return http.StatusBadRequest, "invalid_job"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Detail: detail})
}

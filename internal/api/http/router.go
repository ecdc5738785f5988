package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/arkilian/layoutbench/internal/service"
	"github.com/arkilian/layoutbench/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Service is what the HTTP API serves.
type Service interface {
	service.Commands
	Health(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	Service Service
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Shutdown wraps every request, typically ShutdownManager.Middleware.
	Shutdown func(http.Handler) http.Handler
	Logger   *zap.Logger
}

// SweepRequest is the optional body of POST /sweep.
type SweepRequest struct {
	Scales []int `json:"scales"`
}

// Handler holds the HTTP handlers for the benchmark commands.
type Handler struct {
	svc    Service
	logger *zap.Logger
}

// NewRouter builds the chi router with the middleware chain installed.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{svc: opts.Service, logger: logger}

	r := chi.NewRouter()
	if opts.Shutdown != nil {
		r.Use(opts.Shutdown)
	}
	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		CorrelationIDMiddleware,
		AccessLogMiddleware(logger),
	)

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(ContentTypeMiddleware)
		h.RegisterRoutes(r)
	})
	return r
}

// RegisterRoutes registers the JSON API routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/generate", func(r chi.Router) {
		r.Post("/complex/{count}", h.GenerateComplex)
		r.Post("/{representation}/{count}", h.Generate)
	})
	r.Route("/benchmark", func(r chi.Router) {
		r.Get("/complex/{count}", h.BenchmarkComplex)
		r.Get("/{representation}/{count}", h.Benchmark)
	})
	r.Post("/sweep", h.Sweep)
	r.Route("/users/{representation}", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Generate handles POST /generate/{representation}/{count} with simple records.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	rep, err := representationParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.generate(w, r, types.VariantSimple, rep)
}

// GenerateComplex handles POST /generate/complex/{count}. Complex records
// always land in the document layout.
func (h *Handler) GenerateComplex(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, types.VariantComplex, types.RepresentationDocument)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, variant types.Variant, rep types.Representation) {
	count, err := countParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Generate(r.Context(), service.GenerateRequest{
		Variant:        variant,
		Representation: rep,
		Count:          count,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Benchmark handles GET /benchmark/{representation}/{count}.
func (h *Handler) Benchmark(w http.ResponseWriter, r *http.Request) {
	rep, err := representationParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := countParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trial, err := h.svc.Benchmark(r.Context(), rep, count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trial)
}

// BenchmarkComplex handles GET /benchmark/complex/{count}.
func (h *Handler) BenchmarkComplex(w http.ResponseWriter, r *http.Request) {
	count, err := countParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trial, err := h.svc.BenchmarkComplex(r.Context(), count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trial)
}

// Sweep handles POST /sweep. An empty body runs the default scales.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.svc.RunFullSweep(r.Context(), req.Scales)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CreateUser handles POST /users/{representation}.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	rep, err := representationParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req service.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, benchErrors.NewValidationError(benchErrors.CodeInvalidRecord,
			fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	rec, err := h.svc.CreateUser(r.Context(), rep, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListUsers handles GET /users/{representation}?limit=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rep, err := representationParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, benchErrors.NewValidationError(benchErrors.CodeInvalidCount,
				fmt.Sprintf("invalid limit %q", raw)))
			return
		}
	}
	users, err := h.svc.ListUsers(r.Context(), rep, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func representationParam(r *http.Request) (types.Representation, error) {
	raw := chi.URLParam(r, "representation")
	rep, err := types.ParseRepresentation(raw)
	if err != nil {
		return "", benchErrors.NewValidationError(benchErrors.CodeInvalidRepresentation, err.Error())
	}
	return rep, nil
}

func countParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "count")
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, benchErrors.NewValidationError(benchErrors.CodeInvalidCount,
			fmt.Sprintf("invalid count %q", raw))
	}
	return count, nil
}

func decodeOptionalBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return benchErrors.NewValidationError(benchErrors.CodeInvalidScale,
		fmt.Sprintf("invalid request body: %v", err))
}

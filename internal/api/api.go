// Package api exposes the learning assistant over a local HTTP surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/metrics"
	"github.com/praxislearn/praxis/internal/perr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter assembles the chi router with middleware and all routes.
func NewRouter(h *Handler, corsCfg config.CORSConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(metrics.Middleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: corsCfg.AllowedMethods,
		AllowedHeaders: corsCfg.AllowedHeaders,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/proof/analyze", h.AnalyzeProof)
		r.Post("/proof/evaluate", h.EvaluateAnswers)
		r.Post("/problems/generate", h.GenerateProblem)
		r.Get("/problems/next", h.NextProblem)
		r.Post("/query", h.GeneralQuery)
		r.Get("/models", h.ListModels)
		r.Get("/skills", h.GetSkills)
		r.Get("/sessions", h.ListSessions)
		r.Post("/sessions", h.SaveSession)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
	Model string `json:"model,omitempty"`
}

// writeError reduces any failure to a human-readable JSON body, surfacing the
// pipeline stage and model when the error carries them.
func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	if pe, ok := err.(*perr.Error); ok {
		resp.Stage = pe.Stage
		resp.Model = pe.Model
	}
	writeJSON(w, status, resp)
}

// statusFor maps pipeline stages to HTTP statuses.
func statusFor(err error) int {
	switch perr.StageOf(err) {
	case perr.StageRouting:
		return http.StatusNotFound
	case perr.StageAvailability:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

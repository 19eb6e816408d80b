// Package server exposes the extraction pipeline over HTTP: the
// multipart upload surface, health, and the demo endpoints.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/JustHarshit/Citypulse/internal/common"
	"github.com/JustHarshit/Citypulse/internal/pipeline"
)

const version = "1.0.0"

// Server wires the pipeline behind the HTTP surface.
type Server struct {
	proc     *pipeline.Processor
	logger   *slog.Logger
	maxBytes int64
}

func New(proc *pipeline.Processor, cfg *common.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{proc: proc, logger: logger, maxBytes: cfg.Intake.MaxFileBytes}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.Post("/upload", s.handleUpload)
	r.Get("/health", s.handleHealth)
	r.Get("/api/demo-data", s.handleDemoData)
	r.Get("/api/process-demo", s.handleProcessDemo)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
	})
}

package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

// maxRequestBytes bounds POST /assessments bodies; inline grids can be large.
const maxRequestBytes = 64 << 20

// Assessor runs one assessment request. pipeline.AssessmentTransformer
// implements it.
type Assessor interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// Server exposes health, readiness, metrics and synchronous assessment
// endpoints.
type Server struct {
	httpServer *http.Server
	assessor   Assessor
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics routes.
// POST /assessments is registered only when assessor is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, assessor Assessor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		assessor: assessor,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if assessor != nil {
		mux.HandleFunc("POST /assessments", s.handleAssess)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleAssess runs the request body through the assessor and replies with
// the result payload. Result headers are copied into X-Assessment-* headers.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	out, err := s.assessor.Transform(r.Context(), domain.RawEvent{
		Value:     body,
		Topic:     "http",
		Timestamp: time.Now(),
	})
	if err != nil {
		s.logger.Warn("http assessment failed", "error", err, "remote", r.RemoteAddr)
		sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Assessment-Id", string(out.Key))
	w.Header().Set("X-Assessment-Status", out.Headers[domain.HeaderStatus])
	w.WriteHeader(http.StatusOK)
	w.Write(out.Value) //nolint:errcheck // client may have gone away
}

// Package api exposes analyses over HTTP: upload a workbook, read stored
// results, fetch reports and per-process graphs.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"fmeagraph/adapters/excel"
	"fmeagraph/app"
	"fmeagraph/internal"
	apperrors "fmeagraph/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxUploadBytes bounds the size of an uploaded workbook
const MaxUploadBytes = 32 << 20

// Server routes HTTP requests to the analysis service
type Server struct {
	router  *chi.Mux
	service *app.AnalysisService
	layout  excel.ExcelConfig
	logger  *internal.Logger
}

// NewServer creates the router. layout maps uploaded sheets onto rows.
func NewServer(service *app.AnalysisService, layout excel.ExcelConfig, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.Discard
	}
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		layout:  layout,
		logger:  logger.With("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/analyses", func(r chi.Router) {
		r.Post("/", s.handleCreateAnalysis)
		r.Get("/", s.handleListAnalyses)
		r.Get("/{id}", s.handleGetAnalysis)
		r.Get("/{id}/report", s.handleAnalysisReport)
		r.Get("/{id}/processes/{index}/graph.dot", s.handleProcessGraph)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%v", err)
	}
	s.writeJSON(w, status, map[string]string{"code": code, "error": err.Error()})
}

func statusFor(code string) int {
	switch code {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidInput, apperrors.CodeMalformedInput:
		return http.StatusBadRequest
	case apperrors.CodeConfigInvalid:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.InvalidInput(key + " must be a non-negative integer")
	}
	return v, nil
}

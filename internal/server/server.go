// Package server exposes the conversion pipeline over HTTP.
//
// Routes:
//
//	GET  /                         upload form
//	GET  /health                   liveness check
//	POST /api/v1/convert           CSV (+ optional config) → .drawio
//	POST /api/v1/preview           CSV + header → SVG hierarchy preview
//	GET  /api/v1/documents/{id}    download an archived document
//	GET  /metrics                  prometheus metrics (when enabled)
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/tabledraw/pkg/observability"
	"github.com/matzehuels/tabledraw/pkg/pipeline"
	"github.com/matzehuels/tabledraw/pkg/storage"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8000"

// MaxUploadBytes caps the multipart body of a conversion request.
const MaxUploadBytes = 10 << 20

// Config wires the server's dependencies.
type Config struct {
	Addr   string
	Logger *log.Logger

	// Runner executes conversions. Required.
	Runner *pipeline.Runner

	// Store archives converted documents. Nil disables archiving and the
	// documents route.
	Store storage.Store

	// Metrics is served on /metrics when set.
	Metrics *observability.Collector

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string

	// Seed is applied to every conversion that does not pass its own,
	// combined with the uploaded table's hash.
	Seed string
}

// Server is the HTTP front end of the pipeline.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Document-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	root := r
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(instrument(root))
		r.Post("/convert", s.handleConvert)
		r.Post("/preview", s.handlePreview)
		r.Get("/documents/{id}", s.handleDocument)
	})
	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

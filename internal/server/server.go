package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/ossim/internal/config"
	"github.com/me/ossim/internal/parser"
	"github.com/me/ossim/internal/store"
)

// Version is reported by the discovery and health endpoints.
const Version = "0.1.0"

// DefaultTickLimit bounds simulations submitted over the API when the
// configuration sets no limit of its own.
const DefaultTickLimit = 1_000_000

// DefaultMaxBodyBytes bounds the size of a submitted process description.
const DefaultMaxBodyBytes = 1 << 20

// Server is the ossim REST API server.
type Server struct {
	router       chi.Router
	logger       *slog.Logger
	config       config.SimConfig
	startTime    time.Time
	parser       *parser.Parser
	store        store.Store
	tickLimit    int
	maxBodyBytes int64
}

// Option configures optional Server settings.
type Option func(*Server)

// WithTickLimit overrides the tick bound applied to submitted simulations.
func WithTickLimit(n int) Option {
	return func(s *Server) {
		s.tickLimit = n
	}
}

// WithMaxBodyBytes overrides the request body limit for submissions.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.SimConfig, st store.Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		logger:       logger.With("component", "server"),
		config:       cfg,
		startTime:    time.Now(),
		parser:       parser.New(logger),
		store:        st,
		tickLimit:    cfg.MaxTicks,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	if s.tickLimit <= 0 {
		s.tickLimit = DefaultTickLimit
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Simulations
		r.Route("/simulations", func(r chi.Router) {
			r.Get("/", s.handleListSimulations)
			r.Post("/", s.handleCreateSimulation)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSimulation)
				r.Get("/ticks", s.handleListTicks)
			})
		})
	})
}

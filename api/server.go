// Package api provides the HTTP API server for the cloud economics service.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/santoshpalla27/cloud-economics/internal/estimation"
	"github.com/santoshpalla27/cloud-economics/internal/telemetry"
	"github.com/santoshpalla27/cloud-economics/pkg/platform"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "cloud-economics-api"

// SimpleEstimator produces closed-form estimates.
type SimpleEstimator interface {
	Estimate(in estimation.SimpleInput) (*estimation.SimpleEstimate, error)
}

// CostCompiler produces catalog-backed breakdowns.
type CostCompiler interface {
	Compile(ctx context.Context, users, capacity int, region string) (*estimation.CostBreakdown, error)
}

// InstanceCollector compiles instance telemetry.
type InstanceCollector interface {
	Collect(ctx context.Context, instanceID string) (*telemetry.InstanceReport, error)
}

// Config holds server configuration
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	Version         string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8000",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"http://localhost:3000"},
		Version:         "dev",
	}
}

// Deps are the collaborators served by the API. Metrics and Gatherer may be nil.
type Deps struct {
	Simple    SimpleEstimator
	Compiler  CostCompiler
	Instances InstanceCollector
	Metrics   *platform.Metrics
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger
}

// Server is the HTTP API server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	deps       Deps
	config     *Config
	logger     zerolog.Logger
	startTime  time.Time
}

// NewServer creates a new API server and registers its routes.
func NewServer(config *Config, deps Deps) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		deps:      deps,
		config:    config,
		logger:    deps.Logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/costs", func(r chi.Router) {
		r.Post("/cost", s.handleSimpleCost)
		r.Post("/compiled", s.handleCompiledCost)
	})
	r.Get("/metrics/compiled-metrics", s.handleCompiledMetrics)

	if s.deps.Gatherer != nil {
		r.Method(http.MethodGet, "/internal/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", s.config.Addr).
			Str("version", s.config.Version).
			Msg("Starting API server")
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Package api provides the HTTP API server and handlers for the OFAC
// monitor.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/macarvajall/OFAC/internal/classify"
	"github.com/macarvajall/OFAC/internal/config"
	"github.com/macarvajall/OFAC/internal/monitor"
	"github.com/macarvajall/OFAC/internal/sanctions"
	"github.com/macarvajall/OFAC/internal/sdn"
	"github.com/macarvajall/OFAC/internal/service"
	"github.com/macarvajall/OFAC/internal/sse"
	"github.com/macarvajall/OFAC/internal/store"
)

// Services groups the business services used by the API server.
type Services struct {
	Alerts    *service.AlertService
	Screening *service.ScreeningService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *store.Store
	services   *Services
	scheduler  *monitor.Scheduler
	syncer     *sdn.Syncer
	snapshots  *sanctions.Snapshots
	classifier *classify.Classifier
	sources    []config.Source
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(
	st *store.Store,
	services *Services,
	scheduler *monitor.Scheduler,
	syncer *sdn.Syncer,
	snapshots *sanctions.Snapshots,
	classifier *classify.Classifier,
	sources []config.Source,
	sseHandler *sse.Handler,
	logger *slog.Logger,
) *Server {
	s := &Server{
		store:      st,
		services:   services,
		scheduler:  scheduler,
		syncer:     syncer,
		snapshots:  snapshots,
		classifier: classifier,
		sources:    sources,
		sseHandler: sseHandler,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()

	RegisterErrorHandler()
	humaConfig := huma.DefaultConfig("OFAC Monitor API", "1.0.0")
	humaConfig.DocsPath = "/docs"
	s.api = humachi.New(s.router, humaConfig)

	s.registerHealthRoutes()
	s.registerStatusRoutes()
	s.registerAlertRoutes()
	s.registerSDNRoutes()
	s.registerSourceRoutes()

	// Streaming and file download endpoints stay raw chi handlers:
	// huma's typed responses don't fit long-lived or chunked bodies.
	s.router.Get("/api/v1/stream", s.sseHandler.ServeHTTP)
	s.router.Get("/api/v1/alerts/export", s.handleExportAlerts)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

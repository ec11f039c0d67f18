// Package server provides the HTTP server and routing for Caseflow.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/config"
	"github.com/atheril/caseflow/internal/database"
	"github.com/atheril/caseflow/internal/modules/analytics"
	analyticshandlers "github.com/atheril/caseflow/internal/modules/analytics/handlers"
	"github.com/atheril/caseflow/internal/modules/jobs"
	"github.com/atheril/caseflow/internal/modules/refdata"
	"github.com/atheril/caseflow/internal/modules/snapshots"
	snapshotshandlers "github.com/atheril/caseflow/internal/modules/snapshots/handlers"
)

// Config holds server wiring
type Config struct {
	Log            zerolog.Logger
	Config         *config.Config
	WarehouseDB    *database.DB
	JobHistoryDB   *database.DB
	SnapshotRepo   *snapshots.Repository
	AnalyticsSvc   *analytics.Service
	RefdataSvc     *refdata.Service
	JobsRepo       *jobs.Repository
	WarmupNotifier *WarmupNotifier
}

// Server is the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	warehouseDB    *database.DB
	jobHistoryDB   *database.DB
	snapshotRepo   *snapshots.Repository
	analyticsSvc   *analytics.Service
	refdataSvc     *refdata.Service
	systemHandlers *SystemHandlers
	warmupNotifier *WarmupNotifier
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		warehouseDB:    cfg.WarehouseDB,
		jobHistoryDB:   cfg.JobHistoryDB,
		snapshotRepo:   cfg.SnapshotRepo,
		analyticsSvc:   cfg.AnalyticsSvc,
		refdataSvc:     cfg.RefdataSvc,
		warmupNotifier: cfg.WarmupNotifier,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.WarehouseDB, cfg.JobHistoryDB, cfg.JobsRepo)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if s.warmupNotifier != nil {
			r.Get("/events/warmup", s.warmupNotifier.HandleSubscribe)
		}

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleJobRuns)
		})

		snapshotHandler := snapshotshandlers.NewHandler(s.snapshotRepo, s.log)
		snapshotHandler.RegisterRoutes(r)

		analyticsHandler := analyticshandlers.NewHandler(s.analyticsSvc, s.snapshotRepo, s.refdataSvc, s.log)
		analyticsHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	if s.warmupNotifier != nil {
		s.warmupNotifier.Close()
	}
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

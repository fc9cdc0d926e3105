// Package server provides the HTTP handlers and routing for the dashboard
// backend: agent-backed mail/summary routes, calendar events, and the cache
// administration surface.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"dash-mcp/internal/agent"
	"dash-mcp/internal/cache"
)

// Config contains server configuration values.
type Config struct {
	Port           string
	CORSOrigin     string
	StaleThreshold time.Duration
}

// Server holds the configured router and the collaborators handlers need.
type Server struct {
	cfg     Config
	router  *chi.Mux
	log     *zap.Logger
	cache   *cache.Service
	cleanup *cache.CleanupService
	agent   agent.Runner
}

// New constructs a Server with middleware and routes configured.
func New(cfg Config, cacheSvc *cache.Service, cleanup *cache.CleanupService, runner agent.Runner, log *zap.Logger) *Server {
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = 60 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		router:  chi.NewRouter(),
		log:     log,
		cache:   cacheSvc,
		cleanup: cleanup,
		agent:   runner,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	if cfg.CORSOrigin != "" {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.CORSOrigin},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.With(
			s.staleWhileRevalidate(cache.CategoryEmails, cfg.StaleThreshold, s.refreshEmails),
			s.cached(cache.CategoryEmails, 0),
		).Get("/mail", s.handleMail)

		r.Route("/events", func(r chi.Router) {
			r.With(s.cached(cache.CategoryEvents, 0)).Get("/", s.handleEvents)
			r.Post("/", s.handleCreateEvent)
		})

		r.Route("/agent", func(r chi.Router) {
			r.Get("/status", s.handleAgentStatus)
			r.With(s.cached(cache.CategoryAgentTest, 0)).Post("/test", s.handleAgentTest)
			r.With(s.cached(cache.CategoryAgentTools, 0)).Get("/tools", s.handleAgentTools)
			r.With(s.cached(cache.CategoryAgentSummary, 0)).Post("/summary", s.handleAgentSummary)
		})
	})

	s.router.Route("/cache", func(r chi.Router) {
		r.Get("/stats", s.handleCacheStats)
		r.Get("/cleanup/status", s.handleCleanupStatus)
		r.Post("/cleanup", s.handleCacheCleanup)
		r.Get("/{category}", s.handleCacheList)
		r.Delete("/{category}", s.handleCacheClear)
	})

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: map[string]any{
			"status":         "ok",
			"service":        "dash-mcp",
			"cacheConnected": s.cache.Ready(),
			"agentAvailable": s.agentAvailable(),
		},
	})
}

func (s *Server) agentAvailable() bool {
	return s.agent != nil && s.agent.Available()
}

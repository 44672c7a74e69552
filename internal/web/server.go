// Package web provides the HTTP server and handlers for user registration.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/signup/internal/config"
	"github.com/JonMunkholm/signup/internal/core"
	mw "github.com/JonMunkholm/signup/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Writer *core.Writer
	Stores StoreProvider

	// Pinger backs /readyz. Optional.
	Pinger Pinger

	// Limiter rate limits /api routes. Nil disables rate limiting.
	Limiter mw.Limiter
}

// Server is the HTTP server for the registration API.
type Server struct {
	cfg      *config.Config
	writer   *core.Writer
	stores   StoreProvider
	pinger   Pinger
	limiter  mw.Limiter
	inflight *mw.InFlight
	metrics  *Metrics

	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server with routes and middleware configured.
func NewServer(cfg *config.Config, deps Deps) *Server {
	writer := deps.Writer
	if writer == nil {
		writer = core.NewWriter(core.WithTable(cfg.Store.Table))
	}

	s := &Server{
		cfg:      cfg,
		writer:   writer,
		stores:   deps.Stores,
		pinger:   deps.Pinger,
		limiter:  deps.Limiter,
		inflight: mw.NewInFlight(cfg.Register.MaxInFlight, cfg.Register.MaxWaitTime),
		router:   chi.NewRouter(),
	}
	s.metrics = newMetrics(s.inflight.ActiveCount)
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(mw.SecurityHeaders(s.cfg.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	if s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		if origins := s.cfg.Security.CORSAllowedOrigins; len(origins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   origins,
				AllowedMethods:   []string{"POST", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
				ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}
		if s.limiter != nil {
			r.Use(mw.RateLimit(s.limiter))
		}
		r.Use(mw.APIKeyAuth(s.cfg.Security))
		r.Use(mw.SessionAuth(s.cfg.Security.SessionCookie, s.cfg.Security.SessionJWTSecret))

		r.With(s.inflight.Middleware).Post("/users", s.handleCreateUser)
		r.Post("/users/validate", s.handleValidateUser)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting registrations, closes the listener and waits
// for the registrations already in progress. All steps share ctx's
// deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inflight.Close()

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	if drainErr := s.inflight.WaitForDrain(ctx); drainErr != nil {
		slog.Warn("registrations still in flight at shutdown",
			"active", s.inflight.ActiveCount(),
			"error", drainErr,
		)
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

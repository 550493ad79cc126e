// internal/httpserver/server.go
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookmarkd/internal/config"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/routes"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

// Paths reachable without an API key.
var publicPaths = []string{"/health", "/readyz"}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// New builds the HTTP server from cfg and d.
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	if cfg.RateLimitBurst > 0 {
		d.APILimit = mw.RateLimit(mw.RateLimitConfig{
			Burst:      cfg.RateLimitBurst,
			PerMinute:  cfg.RateLimitPerMinute,
			MaxEntries: 10_000,
			TrustProxy: cfg.TrustProxy,
		})
	}
	d.RequestTimeout = cfg.RequestTimeout

	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:   s,
		logger: loggerClient,
	}
}

// NewRouter wires middlewares and every registered route.
func NewRouter(d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	r.Use(mw.Log(d.Logger, d.TrustProxy))
	r.Use(mw.CORS())
	r.Use(mw.APIKey(d.APIKey, d.Logger, publicPaths...))

	routes.RegisterAll(r, d)

	// A known path with the wrong method is just another unknown endpoint.
	notFound := func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteFailure(w, http.StatusNotFound, handlers.MsgEndpoint)
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}

// Package web provides the HTTP server, pages and JSON API of the CSV explorer.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/explorer/internal/config"
	"github.com/JonMunkholm/explorer/internal/core"
	mw "github.com/JonMunkholm/explorer/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// EventLister reads back recent events, when the event store supports it.
type EventLister interface {
	Recent(ctx context.Context, limit int) ([]core.Event, error)
}

// Server is the HTTP server for the explorer.
type Server struct {
	service *core.Service
	cfg     *config.Config
	events  EventLister
	limiter *rateLimiter
	router  *chi.Mux
	server  *http.Server
}

// Option customises a Server.
type Option func(*Server)

// WithEventLister exposes recent events under /api/events.
func WithEventLister(l EventLister) Option {
	return func(s *Server) { s.events = l }
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
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
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(requestMetadata)

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/health", s.handleHealth)

	// Pages
	s.router.Get("/", s.handleAnalyst)
	s.router.Post("/explore", s.handleAnalyst)
	s.router.Get("/overview", s.handleOverview)
	s.router.Post("/overview", s.handleOverview)
	s.router.Get("/affine", s.handleAffinePage)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Post("/run", s.handleRun)
		r.Get("/demos", s.handleListDemos)
		r.Get("/affine", s.handleAffine)
		r.Get("/events", s.handleEvents)

		r.Post("/datasets", s.handleLoadDataset)
		r.Get("/datasets/demo/{name}", s.handleLoadDemo)

		r.Route("/datasets/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Get("/view", s.handleView)
			r.Get("/export", s.handleExport)
			r.Get("/describe", s.handleDescribe)
			r.Get("/profile", s.handleProfile)
			r.Get("/histogram", s.handleHistogram)
			r.Get("/scatter", s.handleScatter)
			r.Get("/boxplot", s.handleBoxPlot)
			r.Get("/correlation", s.handleCorrelation)
			r.Get("/pivot", s.handlePivot)
			r.Get("/rows", s.handleRows)
		})
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
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				// Inline styles carry histogram bar widths and the curve colour.
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}


// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

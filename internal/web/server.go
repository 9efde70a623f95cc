// Package web provides the operator dashboard: the bulk import endpoint, the
// live notification stream and a thin proxy over the ingestion service.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/JonMunkholm/cseguard/internal/ingestclient"
	"github.com/JonMunkholm/cseguard/internal/metrics"
	cseMiddleware "github.com/JonMunkholm/cseguard/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DomainService is the part of the ingestion service the dashboard proxies.
// *ingestclient.Client implements it.
type DomainService interface {
	ListDomains(ctx context.Context, opts ingestclient.ListOptions) ([]core.CSEDomain, error)
	AddDomain(ctx context.Context, rec core.DomainRecord) (core.CSEDomain, error)
	DeleteDomain(ctx context.Context, id int64) error
	Health(ctx context.Context) error
}

var _ DomainService = (*ingestclient.Client)(nil)

// Server is the dashboard HTTP server.
type Server struct {
	importer *core.Importer
	domains  DomainService
	events   *Broadcaster
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates the dashboard server. events must be the broadcaster the
// importer notifies. ctx bounds background work such as rate limiter cleanup.
func NewServer(ctx context.Context, importer *core.Importer, domains DomainService, events *Broadcaster, cfg *config.Config) *Server {
	s := &Server{
		importer: importer,
		domains:  domains,
		events:   events,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes(ctx)
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(cseMiddleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(cseMiddleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes. The event stream is long-lived and
// sits outside the request timeout.
func (s *Server) setupRoutes(ctx context.Context) {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(cseMiddleware.RateLimit(ctx, s.cfg.Rate))

		r.Get("/api/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			if s.cfg.Server.RequestTimeout > 0 {
				r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
			}

			r.Get("/", s.handleDashboard)

			r.Post("/api/cse-domains/import", s.handleImport)
			r.Post("/api/cse-domains/preview", s.handlePreview)
			r.Get("/api/import/status", s.handleImportStatus)
			r.Get("/api/import/history", s.handleImportHistory)

			r.Get("/api/cse-domains", s.handleListDomains)
			r.Post("/api/cse-domains", s.handleAddDomain)
			r.Delete("/api/cse-domains/{id}", s.handleDeleteDomain)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 keeps SSE streams open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting dashboard", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and ends open event streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.events.Close()
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
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// Package ingest provides the HTTP server of the ingestion service, which owns
// the monitored CSE domain list.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/metrics"
	"github.com/JonMunkholm/cseguard/internal/screen"
	"github.com/JonMunkholm/cseguard/internal/store"
	cseMiddleware "github.com/JonMunkholm/cseguard/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the ingestion service HTTP server.
type Server struct {
	store    store.Store
	screener *screen.Screener
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server over st. screener may be nil to disable screening.
func NewServer(st store.Store, screener *screen.Screener, cfg *config.Config) *Server {
	s := &Server{
		store:    st,
		screener: screener,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(cseMiddleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(cseMiddleware.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cseMiddleware.APIKeyAuth(&s.cfg.Security))

		r.Get("/cse-domains", s.handleListDomains)
		r.Post("/cse-domains", s.handleAddDomain)
		r.Post("/cse-domains/bulk", s.handleBulkAdd)
		r.Delete("/cse-domains/{id}", s.handleDeleteDomain)
	})
}

// Start begins listening on addr.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		writeDetail(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDetail writes an error in the service's {"detail": "..."} shape.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

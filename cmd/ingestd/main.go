package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/ingest"
	"github.com/JonMunkholm/cseguard/internal/logging"
	"github.com/JonMunkholm/cseguard/internal/metrics"
	"github.com/JonMunkholm/cseguard/internal/screen"
	"github.com/JonMunkholm/cseguard/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	metrics.Register()

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	screener := screen.New(slices.Concat(screen.DefaultBrands, cfg.Screen.Brands))
	if cfg.Screen.BlocklistPath != "" {
		if err := screener.LoadBlocklist(cfg.Screen.BlocklistPath); err != nil {
			slog.Error("failed to load blocklist", "path", cfg.Screen.BlocklistPath, "error", err)
			os.Exit(1)
		}
	}
	metrics.BlocklistSizeGauge.Set(float64(screener.BlocklistSize()))

	slog.Info("configuration loaded",
		"addr", cfg.Ingest.ListenAddr,
		"store", storeKind(cfg),
		"blocklist_size", screener.BlocklistSize(),
		"bulk_screening", cfg.Screen.BulkEnabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)

	server := ingest.NewServer(st, screener, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("ingestion service starting", "addr", cfg.Ingest.ListenAddr)
	if err := server.Start(cfg.Ingest.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.UseMemoryStore() {
		slog.Warn("DATABASE_URL not set, domains are kept in memory only")
		return store.NewMemory(), nil
	}
	return store.NewPostgres(ctx, cfg.Database)
}

func storeKind(cfg *config.Config) string {
	if cfg.Database.UseMemoryStore() {
		return "memory"
	}
	return "postgres"
}

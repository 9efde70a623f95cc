package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/JonMunkholm/cseguard/internal/ingestclient"
	"github.com/JonMunkholm/cseguard/internal/logging"
	"github.com/JonMunkholm/cseguard/internal/metrics"
	"github.com/JonMunkholm/cseguard/internal/web"
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

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"ingest_service", cfg.Ingest.ServiceURL,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	client := ingestclient.New(cfg.Ingest.ServiceURL, cfg.Ingest.APIKey, cfg.Ingest.RequestTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Health(ctx); err != nil {
		slog.Warn("ingestion service not reachable at startup", "error", err)
	}

	events := web.NewBroadcaster()
	importer := core.NewImporter(client, events.Notify, core.ImporterConfig{
		MaxFileSize:  cfg.Upload.MaxFileSize,
		DismissAfter: cfg.Ingest.AutoDismissDelay,
	})

	server := web.NewServer(ctx, importer, client, events, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancel()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelShutdown()

		// Let a running import finish before closing connections
		if importer.Guard().State() == core.StateUploading {
			slog.Info("waiting for import to complete")
			if err := importer.Guard().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("import did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

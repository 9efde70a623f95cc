// Package cli implements cseimport, the command-line front end to the bulk
// domain import pipeline.
package cli

import (
	"context"
	"time"

	"github.com/JonMunkholm/cseguard/internal/config"
	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/JonMunkholm/cseguard/internal/ingestclient"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serviceURL     string
	apiKey         string
	requestTimeout time.Duration
	maxFileSize    int64
)

// newSubmitter builds the bulk submitter for upload. Tests replace it.
var newSubmitter = func() core.BulkSubmitter {
	return ingestclient.New(serviceURL, apiKey, requestTimeout)
}

var rootCmd = &cobra.Command{
	Use:           "cseimport",
	Short:         "Import CSE domain lists into the ingestion service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serviceURL, "service-url", "http://localhost:8000", "ingestion service base URL")
	flags.StringVar(&apiKey, "api-key", "", "API key sent as X-API-Key")
	flags.DurationVar(&requestTimeout, "timeout", 60*time.Second, "request timeout")
	flags.Int64Var(&maxFileSize, "max-file-size", core.DefaultMaxFileSize, "maximum input file size in bytes")
}

// SetDefaults seeds flag defaults from cfg. Flags given on the command line
// still win.
func SetDefaults(cfg *config.Config) {
	serviceURL = cfg.Ingest.ServiceURL
	apiKey = cfg.Ingest.APIKey
	requestTimeout = cfg.Ingest.RequestTimeout
	maxFileSize = cfg.Upload.MaxFileSize
}

// SetVersion sets the string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/spf13/cobra"
)

var uploadJSON bool

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Import a domain list into the ingestion service",
	Long: `Parses FILE and submits every record to the ingestion service in a single
bulk request, then prints what was added and what was skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "output the import report as JSON")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	importer := core.NewImporter(newSubmitter(), nil, core.ImporterConfig{MaxFileSize: maxFileSize})

	report, err := importer.Import(cmd.Context(), filepath.Base(args[0]), f)
	if err != nil {
		if core.IsUserFacing(err) {
			return fmt.Errorf("%s\n  cause: %w", core.FormatUserError(err), err)
		}
		return err
	}

	if uploadJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%s: %d records (%s format) submitted in %s\n",
		report.FileName, len(report.Records), report.Format, report.Duration.Duration().Round(time.Millisecond))
	cmd.Println(report.Outcome.Message)
	if report.Outcome.MaliciousCount > 0 {
		cmd.Println("Review the rejected domains before retrying.")
	}
	return nil
}

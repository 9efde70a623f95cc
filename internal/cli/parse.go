package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/spf13/cobra"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Show the records a file would import",
	Long: `Parses FILE the same way an upload does and prints the resulting records
without contacting the ingestion service.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	text, err := core.ReadText(f, maxFileSize)
	if err != nil {
		return err
	}
	records, format := core.ParseRecords(text)

	if parseJSON {
		if records == nil {
			records = []core.DomainRecord{}
		}
		data, err := json.MarshalIndent(map[string]any{
			"format":  format,
			"records": records,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal records: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		cmd.Println("No valid domains found.")
		return nil
	}

	cmd.Printf("Format: %s, %d records\n\n", format, len(records))
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tORGANIZATION\tSECTOR")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Domain, r.OrganizationName, r.Sector)
	}
	return tw.Flush()
}

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/spf13/cobra"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize DOMAIN...",
	Short: "Show the sector and organization inferred for domains",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DOMAIN\tSECTOR\tORGANIZATION\tRULE")
		for _, d := range args {
			sector, org := core.Categorize(d)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d, sector, org, core.CategoryName(d))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
}

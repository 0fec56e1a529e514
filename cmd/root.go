// Package cmd defines and implements the CLI commands for the harvester
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Harvests player and club records from the SoFIFA catalog.",
		Long: `harvester walks the paginated SoFIFA catalog, discovers every
detail-page URL, then scrapes each page into an incrementally persisted CSV
stream. Both phases retry transient failures and anti-bot challenge pages
with bounded backoff, so interrupted runs can be resumed.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus HARVESTER_* env)")
	cmd.AddCommand(newPlayersCmd(), newClubsCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobsalhi/sofifa-harvester/internal/config"
	"github.com/jobsalhi/sofifa-harvester/internal/extract"
)

// newPlayersCmd creates the 'players' subcommand, which harvests the player
// catalog: discover every player URL from the paginated list, then scrape
// each player page into the stats CSV.
func newPlayersCmd() *cobra.Command {
	var flags harvestFlags
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Harvests the player catalog",
		Long: `Walks the paginated player listing to discover every player URL,
then scrapes each player page into an incrementally written stats CSV.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvest(cmd, catalog{
				name:       "players",
				linkPrefix: "/player/",
				urlHeader:  "player_url",
				columns:    extract.PlayerColumns,
				detail:     extract.NewPlayer(),
				settings: func(cfg config.Config) config.CatalogConfig {
					return cfg.Players
				},
			}, flags)
		},
	}
	registerHarvestFlags(cmd, &flags)
	return cmd
}

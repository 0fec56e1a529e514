package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobsalhi/sofifa-harvester/internal/config"
	"github.com/jobsalhi/sofifa-harvester/internal/extract"
)

// newClubsCmd creates the 'clubs' subcommand, the club-catalog counterpart
// of 'players'.
func newClubsCmd() *cobra.Command {
	var flags harvestFlags
	cmd := &cobra.Command{
		Use:   "clubs",
		Short: "Harvests the club catalog",
		Long: `Walks the paginated team listing to discover every club URL,
then scrapes each club page into an incrementally written stats CSV.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHarvest(cmd, catalog{
				name:       "clubs",
				linkPrefix: "/team/",
				urlHeader:  "club_url",
				columns:    extract.ClubColumns,
				detail:     extract.NewClub(),
				settings: func(cfg config.Config) config.CatalogConfig {
					return cfg.Clubs
				},
			}, flags)
		},
	}
	registerHarvestFlags(cmd, &flags)
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelzeko/riverflow/internal/api"
	"github.com/abelzeko/riverflow/internal/entities"
	"github.com/abelzeko/riverflow/internal/usecases"
)

func newWatchCommand(a *app) *cobra.Command {
	var (
		schedule string
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch <station-id>",
		Short: "Print a station's latest flow on a cron schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, closeRepo, err := a.newUseCase()
			if err != nil {
				return err
			}
			defer closeRepo()

			stations, err := uc.LoadStations(cmd.Context())
			if err != nil {
				return err
			}
			station, ok := usecases.FindStation(stations, args[0])
			if !ok {
				return fmt.Errorf("unknown station id %q", args[0])
			}

			watcher, err := api.NewWatcher(uc, cmd.OutOrStdout(), schedule, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("watching station", "station_id", station.ID, "schedule", schedule, "count", count)
			return watcher.Run(cmd.Context(), entities.Match{Index: 1, ID: station.ID, Name: station.Name}, count)
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", a.cfg.Watch.Schedule, "standard cron expression for readings after the first")
	cmd.Flags().IntVar(&count, "count", 0, "number of readings to print (0 = until interrupted)")
	return cmd
}

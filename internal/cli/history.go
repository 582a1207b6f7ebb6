package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently displayed readings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, closeRepo, err := a.newUseCase()
			if err != nil {
				return err
			}
			defer closeRepo()

			lookups, err := uc.RecentLookups(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(lookups) == 0 {
				fmt.Fprintln(out, "No lookups recorded yet.")
				return nil
			}
			for _, l := range lookups {
				fmt.Fprintf(out, "%s  %s (%s)  %s  %s %s\n",
					l.LookedUpAt.Format("2006-01-02 15:04"), l.StationName, l.StationID, l.Date, l.Value, l.Unit)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of lookups to list")
	return cmd
}

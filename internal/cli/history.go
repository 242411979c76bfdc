package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"trivia-client/internal/domain"
)

// NewHistoryCmd lists archived game results.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished games from the result archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			d, cleanup, err := buildDeps(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := d.archive.ListResults(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

func printResults(w io.Writer, results []domain.GameResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tROOM\tPLAYER\tROLE\tSCORE\tRANK")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.FinishedAt.Local().Format(time.DateTime), r.RoomCode, r.DisplayName, r.Role, r.Score, rankOf(r))
	}
	_ = tw.Flush()
}

func rankOf(r domain.GameResult) string {
	for _, e := range r.Leaderboard {
		if e.ParticipantID == r.ParticipantID {
			return fmt.Sprintf("%d/%d", e.Rank, len(r.Leaderboard))
		}
	}
	return "-"
}

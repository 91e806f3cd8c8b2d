package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var matches int

	cmd := &cobra.Command{
		Use:   "score PLAYER_A PLAYER_B",
		Short: "Show the head-to-head score between two player ids",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/scores/%s/%s", args[0], args[1])
			out := newOutput(cmd)

			var score Score
			if err := client.Get(cmd.Context(), path, &score); err != nil {
				return err
			}
			out.Print(score)

			if matches > 0 {
				var list MatchList
				if err := client.Get(cmd.Context(), fmt.Sprintf("%s/matches?limit=%d", path, matches), &list); err != nil {
					return err
				}
				out.Print(list)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&matches, "matches", 0, "Also show up to N recent matches")

	return cmd
}

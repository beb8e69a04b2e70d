package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/scoring"
)

func newScoreCmd(opts *rootOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print the impact score of every player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := models.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			candidates, err := opts.loadCandidates(cmd.InOrStdin())
			if err != nil {
				return err
			}

			scored := scoring.Score(candidates, format)
			order := make([]int, len(scored))
			for i := range order {
				order[i] = i
			}
			sort.SliceStable(order, func(a, b int) bool {
				return scored[order[a]].Impact > scored[order[b]].Impact
			})
			if top > 0 && top < len(order) {
				order = order[:top]
			}

			table := newTable(fmt.Sprintf("Impact scores (%s)", format),
				"#", "Player", "Role", "Overseas", "Batting", "Bowling", "Impact")
			for rank, idx := range order {
				s := scored[idx]
				table.addRow(fmt.Sprint(rank+1), s.Name, string(s.Role), yesNo(s.IsForeign),
					fmt.Sprintf("%.2f", s.BattingImpact), fmt.Sprintf("%.2f", s.BowlingImpact), fmt.Sprintf("%.2f", s.Impact))
			}
			fmt.Fprint(cmd.OutOrStdout(), table.render())
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "only show the best N players")
	return cmd
}

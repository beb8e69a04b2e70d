package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/optimizer"
	"github.com/stitts-dev/bestxi/internal/report"
	"github.com/stitts-dev/bestxi/internal/scoring"
)

type selectOptions struct {
	rules    string
	out      string
	timeout  time.Duration
	maxNodes int64
	bound    bool
	cs       optimizer.ConstraintSet
}

func newSelectCmd(opts *rootOptions) *cobra.Command {
	sel := &selectOptions{cs: optimizer.DefaultConstraintSet()}

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select the highest-impact squad",
		Long: `Select solves the squad selection exactly. Rules come from the defaults,
then an optional YAML rules file, then individual flags.

Exits with status 2 when no squad satisfies the rules.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := sel.constraints(cmd)
			if err != nil {
				return err
			}
			format, err := models.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			candidates, err := opts.loadCandidates(cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), sel.timeout)
			defer cancel()

			scored := scoring.Score(candidates, format)
			outcome, err := optimizer.NewTeamOptimizer(opts.log).
				WithNodeBudget(sel.maxNodes).
				WithRelaxationBound(sel.bound).
				Select(ctx, scored, cs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !outcome.Feasible() {
				fmt.Fprint(out, renderInfeasible(outcome.Infeasible))
				return fmt.Errorf("%w: %s", errInfeasible, outcome.Infeasible.Summary)
			}

			fmt.Fprint(out, renderSelection(format, outcome))
			if sel.out != "" {
				if err := writeSheet(sel.out, outcome.Selection); err != nil {
					return err
				}
				fmt.Fprintf(out, "Team sheet written to %s\n", sel.out)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sel.rules, "rules", "", "YAML file with squad rules")
	flags.StringVarP(&sel.out, "out", "o", "", "write the selected squad as CSV to this path")
	flags.DurationVar(&sel.timeout, "timeout", 30*time.Second, "give up after this long")
	flags.Int64Var(&sel.maxNodes, "max-nodes", 0, "search budget in DP transitions (0 = unlimited)")
	flags.BoolVar(&sel.bound, "bound", false, "also report the LP relaxation upper bound")
	flags.IntVar(&sel.cs.SquadSize, "squad", sel.cs.SquadSize, "squad size")
	flags.IntVar(&sel.cs.MaxForeign, "max-foreign", sel.cs.MaxForeign, "most overseas players allowed")
	flags.IntVar(&sel.cs.MinBatters, "min-batters", sel.cs.MinBatters, "fewest batters")
	flags.IntVar(&sel.cs.MinBowlers, "min-bowlers", sel.cs.MinBowlers, "fewest bowlers")
	flags.IntVar(&sel.cs.MinAllRounders, "min-all-rounders", sel.cs.MinAllRounders, "fewest all-rounders")
	flags.IntVar(&sel.cs.MinWicketKeepers, "min-wicketkeepers", sel.cs.MinWicketKeepers, "fewest wicketkeepers")
	return cmd
}

// constraints layers the rules file under any flags set explicitly.
func (s *selectOptions) constraints(cmd *cobra.Command) (optimizer.ConstraintSet, error) {
	if s.rules == "" {
		return s.cs, s.cs.Validate()
	}

	raw, err := os.ReadFile(s.rules)
	if err != nil {
		return optimizer.ConstraintSet{}, fmt.Errorf("read rules file: %w", err)
	}
	cs := optimizer.DefaultConstraintSet()
	if err := yaml.Unmarshal(raw, &cs); err != nil {
		return optimizer.ConstraintSet{}, fmt.Errorf("%w: rules file: %v", models.ErrInvalidInput, err)
	}

	overrides := map[string]*int{
		"squad":             &cs.SquadSize,
		"max-foreign":       &cs.MaxForeign,
		"min-batters":       &cs.MinBatters,
		"min-bowlers":       &cs.MinBowlers,
		"min-all-rounders":  &cs.MinAllRounders,
		"min-wicketkeepers": &cs.MinWicketKeepers,
	}
	flagValues := map[string]int{
		"squad":             s.cs.SquadSize,
		"max-foreign":       s.cs.MaxForeign,
		"min-batters":       s.cs.MinBatters,
		"min-bowlers":       s.cs.MinBowlers,
		"min-all-rounders":  s.cs.MinAllRounders,
		"min-wicketkeepers": s.cs.MinWicketKeepers,
	}
	for name, field := range overrides {
		if cmd.Flags().Changed(name) {
			*field = flagValues[name]
		}
	}
	return cs, cs.Validate()
}

func writeSheet(path string, sel *optimizer.Selection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create team sheet: %w", err)
	}
	if err := report.WriteCSV(f, sel, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

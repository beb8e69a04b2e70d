package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/scoring"
)

// TeamOptimizer solves the squad selection integer program exactly.
//
// Every constraint depends only on how many candidates are picked from
// each (role, origin) group, so for a fixed count per group the best
// choice is that group's top candidates by impact. The optimizer runs a
// dynamic program over those counts, one role at a time, with state
// (players picked, overseas picked). The search is exhaustive over count
// vectors, so the result is a proven optimum or proven infeasibility.
//
// Among squads of equal impact the one with the lowest input indices wins:
// the first position where two sorted index lists differ holds the smaller
// index in the chosen squad.
//
// A TeamOptimizer holds configuration only and is safe for concurrent use.
type TeamOptimizer struct {
	logger       *logrus.Entry
	maxNodes     int64
	computeBound bool
}

// NewTeamOptimizer creates an optimizer with no node budget. A nil logger
// falls back to the logrus standard logger.
func NewTeamOptimizer(logger *logrus.Logger) *TeamOptimizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TeamOptimizer{
		logger: logger.WithField("component", "team_optimizer"),
	}
}

// WithNodeBudget caps the number of DP transitions. Zero means unbounded.
func (o *TeamOptimizer) WithNodeBudget(maxNodes int64) *TeamOptimizer {
	clone := *o
	clone.maxNodes = maxNodes
	return &clone
}

// WithRelaxationBound enables computing the LP relaxation upper bound
// alongside every optimal selection.
func (o *TeamOptimizer) WithRelaxationBound(enabled bool) *TeamOptimizer {
	clone := *o
	clone.computeBound = enabled
	return &clone
}

// Select picks the impact-maximizing squad. It returns an Outcome for
// both optimal and infeasible results; the error is reserved for invalid
// input (models.ErrInvalidInput) and solver failures (ErrSolverFailure).
func (o *TeamOptimizer) Select(ctx context.Context, scored []scoring.ScoredCandidate, cs ConstraintSet) (*Outcome, error) {
	start := time.Now()

	if err := cs.Validate(); err != nil {
		return nil, err
	}
	for i := range scored {
		if !scored[i].Role.IsValid() {
			return nil, &models.ValidationError{Index: i, Field: "role", Reason: fmt.Sprintf("unknown role %q", scored[i].Role)}
		}
		if math.IsNaN(scored[i].Impact) || math.IsInf(scored[i].Impact, 0) {
			return nil, &models.ValidationError{Index: i, Field: "impact", Reason: "must be a finite number"}
		}
	}

	candidates := make([]models.Candidate, len(scored))
	for i := range scored {
		candidates[i] = scored[i].Candidate
	}

	if report := Diagnose(candidates, cs); report != nil {
		o.logger.WithFields(logrus.Fields{
			"pool_size":   len(scored),
			"squad_size":  cs.SquadSize,
			"constraints": report.Constraints(),
		}).Debug("Constraint pre-check rejected the pool")
		return &Outcome{
			Status:     StatusInfeasible,
			Infeasible: report,
			Stats:      SolveStats{PrecheckRejects: true, Elapsed: time.Since(start)},
		}, nil
	}

	table := newCountTable(scored, cs)
	picked, stats, err := table.solve(ctx, o.maxNodes)
	stats.Elapsed = time.Since(start)
	if err != nil {
		o.logger.WithError(err).WithField("transitions", stats.Transitions).Warn("Team optimization did not complete")
		return nil, fmt.Errorf("%w: %w", ErrSolverFailure, err)
	}

	if picked == nil {
		return &Outcome{Status: StatusInfeasible, Infeasible: unexplainedInfeasibility(), Stats: stats}, nil
	}

	selection, err := NewSelection(scored, picked)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSolverFailure, err)
	}

	if o.computeBound && selection.Len() > 0 {
		bound, err := RelaxationBound(scored, cs)
		if err != nil {
			o.logger.WithError(err).Debug("LP relaxation bound unavailable")
		} else {
			stats.UpperBound = bound
			stats.BoundAvailable = true
		}
	}

	o.logger.WithFields(logrus.Fields{
		"pool_size":    len(scored),
		"squad_size":   cs.SquadSize,
		"total_impact": selection.TotalImpact,
		"states":       stats.States,
		"transitions":  stats.Transitions,
		"elapsed":      stats.Elapsed,
	}).Debug("Team optimization completed")

	return &Outcome{Status: StatusOptimal, Selection: selection, Stats: stats}, nil
}

// Select runs a default TeamOptimizer without a budget.
func Select(scored []scoring.ScoredCandidate, cs ConstraintSet) (*Outcome, error) {
	return NewTeamOptimizer(nil).Select(context.Background(), scored, cs)
}

// group is the candidates of one role and origin, best first.
type group struct {
	members []int     // pool indices ordered by impact desc, then index asc
	prefix  []float64 // prefix[k] is the impact of the top k members
}

func newGroup(scored []scoring.ScoredCandidate, members []int) group {
	sort.SliceStable(members, func(a, b int) bool {
		ia, ib := scored[members[a]].Impact, scored[members[b]].Impact
		if ia != ib {
			return ia > ib
		}
		return members[a] < members[b]
	})
	prefix := make([]float64, len(members)+1)
	for k, idx := range members {
		prefix[k+1] = prefix[k] + scored[idx].Impact
	}
	return group{members: members, prefix: prefix}
}

func (g group) size() int {
	return len(g.members)
}

// roleStage is one DP stage: the domestic and overseas groups of a role.
type roleStage struct {
	role     models.Role
	minimum  int
	domestic group
	foreign  group
}

// countChoice is how many domestic and overseas candidates a stage took.
type countChoice struct {
	domestic int
	foreign  int
}

type countTable struct {
	stages     []roleStage
	squadSize  int
	foreignCap int
}

func newCountTable(scored []scoring.ScoredCandidate, cs ConstraintSet) *countTable {
	domestic := make(map[models.Role][]int, 4)
	foreign := make(map[models.Role][]int, 4)
	for i := range scored {
		if scored[i].IsForeign {
			foreign[scored[i].Role] = append(foreign[scored[i].Role], i)
		} else {
			domestic[scored[i].Role] = append(domestic[scored[i].Role], i)
		}
	}

	stages := make([]roleStage, 0, 4)
	for _, role := range models.Roles() {
		stages = append(stages, roleStage{
			role:     role,
			minimum:  cs.MinFor(role),
			domestic: newGroup(scored, domestic[role]),
			foreign:  newGroup(scored, foreign[role]),
		})
	}

	foreignCap := cs.MaxForeign
	if foreignCap > cs.SquadSize {
		foreignCap = cs.SquadSize
	}
	return &countTable{stages: stages, squadSize: cs.SquadSize, foreignCap: foreignCap}
}

// solve returns the chosen pool indices, or nil when no count vector
// satisfies the constraints.
func (t *countTable) solve(ctx context.Context, maxNodes int64) ([]int, SolveStats, error) {
	rows, cols := t.squadSize+1, t.foreignCap+1
	stats := SolveStats{}

	value := newGrid(rows, cols)
	value[0][0] = 0
	choices := make([][][]countChoice, len(t.stages))

	for s, stage := range t.stages {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		next := newGrid(rows, cols)
		choice := make([][]countChoice, rows)
		for p := range choice {
			choice[p] = make([]countChoice, cols)
		}

		for p := 0; p < rows; p++ {
			for f := 0; f < cols; f++ {
				base := value[p][f]
				if math.IsInf(base, -1) {
					continue
				}
				stats.States++

				for kd := 0; kd <= stage.domestic.size() && p+kd < rows; kd++ {
					for kf := 0; kf <= stage.foreign.size() && p+kd+kf < rows && f+kf < cols; kf++ {
						if kd+kf < stage.minimum {
							continue
						}
						stats.Transitions++
						if maxNodes > 0 && stats.Transitions > maxNodes {
							return nil, stats, ErrBudgetExhausted
						}

						candidate := base + stage.domestic.prefix[kd] + stage.foreign.prefix[kf]
						np, nf := p+kd+kf, f+kf
						current := next[np][nf]
						pick := countChoice{domestic: kd, foreign: kf}
						switch {
						case math.IsInf(current, -1) || candidate > current+tieTolerance(candidate, current):
						case sameImpact(candidate, current):
							held := choice[np][nf]
							heldSet := t.extend(t.partial(choices, s-1, np-held.domestic-held.foreign, nf-held.foreign), s, held)
							newSet := t.extend(t.partial(choices, s-1, p, f), s, pick)
							if !lowerIndices(newSet, heldSet) {
								continue
							}
						default:
							continue
						}
						next[np][nf] = candidate
						choice[np][nf] = pick
					}
				}
			}
		}

		value = next
		choices[s] = choice
	}

	last := len(t.stages) - 1
	var picked []int
	best := math.Inf(-1)
	for f := 0; f < cols; f++ {
		v := value[t.squadSize][f]
		if math.IsInf(v, -1) {
			continue
		}
		switch {
		case picked == nil || v > best+tieTolerance(v, best):
		case sameImpact(v, best):
			if set := t.partial(choices, last, t.squadSize, f); lowerIndices(set, picked) {
				picked = set
			}
			continue
		default:
			continue
		}
		best = v
		picked = t.partial(choices, last, t.squadSize, f)
	}
	return picked, stats, nil
}

// partial rebuilds the sorted pool indices chosen by stages 0..s that end
// in state (p, f).
func (t *countTable) partial(choices [][][]countChoice, s, p, f int) []int {
	picked := make([]int, 0, p)
	for ; s >= 0; s-- {
		c := choices[s][p][f]
		picked = append(picked, t.stages[s].domestic.members[:c.domestic]...)
		picked = append(picked, t.stages[s].foreign.members[:c.foreign]...)
		p -= c.domestic + c.foreign
		f -= c.foreign
	}
	sort.Ints(picked)
	return picked
}

// extend adds the members stage s takes under c to a sorted prefix set.
func (t *countTable) extend(set []int, s int, c countChoice) []int {
	set = append(set, t.stages[s].domestic.members[:c.domestic]...)
	set = append(set, t.stages[s].foreign.members[:c.foreign]...)
	sort.Ints(set)
	return set
}

// lowerIndices reports whether a beats b under the index tie-break. Both
// are sorted and of equal length.
func lowerIndices(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Impact sums reached along different paths may differ in the last bits.
func tieTolerance(a, b float64) float64 {
	return 1e-9 * math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func sameImpact(a, b float64) bool {
	return math.Abs(a-b) <= tieTolerance(a, b)
}

func newGrid(rows, cols int) [][]float64 {
	grid := make([][]float64, rows)
	for p := range grid {
		grid[p] = make([]float64, cols)
		for f := range grid[p] {
			grid[p][f] = math.Inf(-1)
		}
	}
	return grid
}

package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/scoring"
)

func entry(name string, role models.Role, foreign bool, impact float64) scoring.ScoredCandidate {
	return scoring.ScoredCandidate{
		Candidate: models.Candidate{Name: name, Role: role, IsForeign: foreign},
		Impact:    impact,
	}
}

func quietOptimizer() *TeamOptimizer {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewTeamOptimizer(logger)
}

// fourAndFour is four batters (10..40) followed by four bowlers (5..35).
func fourAndFour() []scoring.ScoredCandidate {
	pool := make([]scoring.ScoredCandidate, 0, 8)
	for i, impact := range []float64{10, 20, 30, 40} {
		pool = append(pool, entry(fmt.Sprintf("bat-%d", i), models.RoleBatter, false, impact))
	}
	for i, impact := range []float64{5, 15, 25, 35} {
		pool = append(pool, entry(fmt.Sprintf("bowl-%d", i), models.RoleBowler, false, impact))
	}
	return pool
}

func TestSelect_PicksBestTwoOfEachRole(t *testing.T) {
	cs := ConstraintSet{SquadSize: 4, MaxForeign: 4, MinBatters: 2, MinBowlers: 2}

	outcome, err := quietOptimizer().Select(context.Background(), fourAndFour(), cs)
	require.NoError(t, err)
	require.True(t, outcome.Feasible())

	assert.Equal(t, StatusOptimal, outcome.Status)
	assert.Equal(t, []int{2, 3, 6, 7}, outcome.Selection.Indices)
	assert.InDelta(t, 130.0, outcome.Selection.TotalImpact, 1e-9)
	assert.Nil(t, outcome.Infeasible)

	names := make([]string, 0, 4)
	for _, m := range outcome.Selection.Members() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"bat-2", "bat-3", "bowl-2", "bowl-3"}, names)
}

func TestSelect_MinimumsExceedSquadSize(t *testing.T) {
	cs := ConstraintSet{SquadSize: 4, MaxForeign: 4, MinBatters: 3, MinBowlers: 3}

	outcome, err := quietOptimizer().Select(context.Background(), fourAndFour(), cs)
	require.NoError(t, err)
	require.False(t, outcome.Feasible())

	assert.Equal(t, StatusInfeasible, outcome.Status)
	assert.Nil(t, outcome.Selection)
	assert.True(t, outcome.Infeasible.Names(ConstraintMinBatsmen))
	assert.True(t, outcome.Infeasible.Names(ConstraintMinBowlers))
	assert.False(t, outcome.Infeasible.Names(ConstraintTeamSize))
	assert.Contains(t, outcome.Infeasible.Summary, "cannot build a valid team")
	assert.True(t, outcome.Stats.PrecheckRejects)
}

func TestSelect_NotEnoughOfARole(t *testing.T) {
	pool := []scoring.ScoredCandidate{
		entry("a", models.RoleBatter, false, 50),
		entry("b", models.RoleBatter, false, 40),
		entry("c", models.RoleBatter, false, 30),
		entry("d", models.RoleBowler, false, 20),
		entry("e", models.RoleBowler, false, 10),
		entry("f", models.RoleAllRounder, false, 15),
	}
	cs := ConstraintSet{SquadSize: 5, MaxForeign: 0, MinBatters: 5}

	outcome, err := quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	require.False(t, outcome.Feasible())
	assert.Equal(t, []ConstraintID{ConstraintMinBatsmen}, outcome.Infeasible.Constraints())
}

func TestSelect_EmptyPool(t *testing.T) {
	outcome, err := quietOptimizer().Select(context.Background(), nil, DefaultConstraintSet())
	require.NoError(t, err)
	require.False(t, outcome.Feasible())
	assert.True(t, outcome.Infeasible.Names(ConstraintTeamSize))
}

func TestSelect_ZeroSquadIsEmptySelection(t *testing.T) {
	outcome, err := quietOptimizer().Select(context.Background(), fourAndFour(), ConstraintSet{})
	require.NoError(t, err)
	require.True(t, outcome.Feasible())
	assert.Empty(t, outcome.Selection.Indices)
	assert.Zero(t, outcome.Selection.TotalImpact)
}

func TestSelect_RespectsOverseasCap(t *testing.T) {
	pool := []scoring.ScoredCandidate{
		entry("home-1", models.RoleBatter, false, 10),
		entry("away-1", models.RoleBatter, true, 90),
		entry("away-2", models.RoleBowler, true, 80),
		entry("home-2", models.RoleBowler, false, 20),
		entry("away-3", models.RoleAllRounder, true, 70),
		entry("home-3", models.RoleAllRounder, false, 5),
	}
	cs := ConstraintSet{SquadSize: 3, MaxForeign: 1, MinBowlers: 1}

	outcome, err := quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	require.True(t, outcome.Feasible())

	// away-1 is the only overseas pick; the bowler slot goes to home-2.
	assert.Equal(t, []int{0, 1, 3}, outcome.Selection.Indices)
	assert.InDelta(t, 120.0, outcome.Selection.TotalImpact, 1e-9)
}

func TestSelect_RoleMinimumForcesOverseasBeyondCap(t *testing.T) {
	pool := []scoring.ScoredCandidate{
		entry("home-1", models.RoleBatter, false, 10),
		entry("home-2", models.RoleBatter, false, 10),
		entry("away-1", models.RoleBatter, true, 10),
		entry("away-2", models.RoleBatter, true, 10),
		entry("home-3", models.RoleBowler, false, 10),
	}
	cs := ConstraintSet{SquadSize: 4, MaxForeign: 1, MinBatters: 4}

	outcome, err := quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	require.False(t, outcome.Feasible())
	assert.True(t, outcome.Infeasible.Names(ConstraintOverseasLimit))
	assert.True(t, outcome.Infeasible.Names(ConstraintMinBatsmen))
}

func TestSelect_TooFewDomesticForSquad(t *testing.T) {
	pool := []scoring.ScoredCandidate{
		entry("home-1", models.RoleBatter, false, 10),
		entry("away-1", models.RoleBatter, true, 10),
		entry("away-2", models.RoleBowler, true, 10),
		entry("away-3", models.RoleBowler, true, 10),
	}
	cs := ConstraintSet{SquadSize: 3, MaxForeign: 1}

	outcome, err := quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	require.False(t, outcome.Feasible())
	assert.Equal(t, []ConstraintID{ConstraintOverseasLimit}, outcome.Infeasible.Constraints())
}

func TestSelect_NegativeImpactsStillFillTheSquad(t *testing.T) {
	pool := []scoring.ScoredCandidate{
		entry("a", models.RoleBatter, false, -5),
		entry("b", models.RoleBatter, false, -1),
		entry("c", models.RoleBowler, false, -3),
	}
	outcome, err := quietOptimizer().Select(context.Background(), pool, ConstraintSet{SquadSize: 2, MaxForeign: 0})
	require.NoError(t, err)
	require.True(t, outcome.Feasible())
	assert.Equal(t, []int{1, 2}, outcome.Selection.Indices)
	assert.InDelta(t, -4.0, outcome.Selection.TotalImpact, 1e-9)
}

func TestSelect_RejectsInvalidInput(t *testing.T) {
	opt := quietOptimizer()

	_, err := opt.Select(context.Background(), fourAndFour(), ConstraintSet{SquadSize: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	pool := fourAndFour()
	pool[3].Impact = math.NaN()
	_, err = opt.Select(context.Background(), pool, ConstraintSet{SquadSize: 2, MaxForeign: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 3, verr.Index)

	pool = fourAndFour()
	pool[0].Role = "Umpire"
	_, err = opt.Select(context.Background(), pool, ConstraintSet{SquadSize: 2, MaxForeign: 2})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSelect_BudgetExhaustionIsSolverFailure(t *testing.T) {
	cs := ConstraintSet{SquadSize: 4, MaxForeign: 4, MinBatters: 2, MinBowlers: 2}

	_, err := quietOptimizer().WithNodeBudget(1).Select(context.Background(), fourAndFour(), cs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolverFailure)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.NotErrorIs(t, err, models.ErrInvalidInput)
}

func TestSelect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietOptimizer().Select(ctx, fourAndFour(), ConstraintSet{SquadSize: 2, MaxForeign: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolverFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelect_DoesNotMutateInputs(t *testing.T) {
	pool := fourAndFour()
	snapshot := append([]scoring.ScoredCandidate(nil), pool...)
	cs := ConstraintSet{SquadSize: 4, MaxForeign: 4, MinBatters: 2, MinBowlers: 2}
	csCopy := cs

	_, err := Select(pool, cs)
	require.NoError(t, err)
	assert.Equal(t, snapshot, pool)
	assert.Equal(t, csCopy, cs)
}

func TestSelect_DeterministicUnderTies(t *testing.T) {
	pool := make([]scoring.ScoredCandidate, 0, 10)
	for i := 0; i < 10; i++ {
		role := models.Roles()[i%4]
		pool = append(pool, entry(fmt.Sprintf("p%d", i), role, i%3 == 0, 7))
	}
	cs := ConstraintSet{SquadSize: 5, MaxForeign: 2, MinBatters: 1, MinBowlers: 1}

	first, err := quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := quietOptimizer().Select(context.Background(), pool, cs)
		require.NoError(t, err)
		assert.Equal(t, first.Selection.Indices, again.Selection.Indices)
	}
}

func TestSelect_TiesAcrossRolesFavourLowerIndex(t *testing.T) {
	cs := ConstraintSet{SquadSize: 1, MaxForeign: 1}

	pool := []scoring.ScoredCandidate{
		entry("bat", models.RoleBatter, false, 10),
		entry("bowl", models.RoleBowler, false, 10),
	}
	outcome, err := quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, outcome.Selection.Indices)

	pool[0], pool[1] = pool[1], pool[0]
	outcome, err = quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, outcome.Selection.Indices, "a later role stage still wins when it holds the lower index")

	// Equal totals reached with different overseas counts.
	pool = []scoring.ScoredCandidate{
		entry("keeper", models.RoleWicketKeeper, true, 5),
		entry("bat", models.RoleBatter, false, 5),
	}
	outcome, err = quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, outcome.Selection.Indices)
}

func TestSelect_RelaxationBound(t *testing.T) {
	cs := ConstraintSet{SquadSize: 4, MaxForeign: 4, MinBatters: 2, MinBowlers: 2}

	outcome, err := quietOptimizer().WithRelaxationBound(true).Select(context.Background(), fourAndFour(), cs)
	require.NoError(t, err)
	require.True(t, outcome.Stats.BoundAvailable)
	assert.InDelta(t, 130.0, outcome.Stats.UpperBound, 1e-6)

	plain, err := quietOptimizer().Select(context.Background(), fourAndFour(), cs)
	require.NoError(t, err)
	assert.False(t, plain.Stats.BoundAvailable)
}

func TestRelaxationBound_NeverBelowOptimum(t *testing.T) {
	pool := []scoring.ScoredCandidate{
		entry("a", models.RoleBatter, true, 60),
		entry("b", models.RoleBatter, false, 12),
		entry("c", models.RoleBowler, true, 55),
		entry("d", models.RoleBowler, false, 18),
		entry("e", models.RoleAllRounder, true, 40),
		entry("f", models.RoleAllRounder, false, 33),
		entry("g", models.RoleWicketKeeper, false, 21),
	}
	cs := ConstraintSet{SquadSize: 4, MaxForeign: 1, MinBowlers: 1, MinWicketKeepers: 1}

	outcome, err := quietOptimizer().Select(context.Background(), pool, cs)
	require.NoError(t, err)
	require.True(t, outcome.Feasible())

	bound, err := RelaxationBound(pool, cs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bound+1e-6, outcome.Selection.TotalImpact)
}

// bruteForce returns the best total and, among squads reaching it, the one
// with the lowest indices.
func bruteForce(pool []scoring.ScoredCandidate, cs ConstraintSet) (float64, []int, bool) {
	best := math.Inf(-1)
	var bestIdx []int
	n := len(pool)
	for mask := 0; mask < 1<<n; mask++ {
		selected := make([]models.Candidate, 0, n)
		idx := make([]int, 0, n)
		total := 0.0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				selected = append(selected, pool[i].Candidate)
				idx = append(idx, i)
				total += pool[i].Impact
			}
		}
		if !cs.Satisfied(selected) {
			continue
		}
		if bestIdx == nil || total > best || (total == best && lowerIndices(idx, bestIdx)) {
			best = total
			bestIdx = idx
		}
	}
	return best, bestIdx, bestIdx != nil
}

func TestSelect_MatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(20240601))
	roles := models.Roles()
	opt := quietOptimizer()

	for trial := 0; trial < 300; trial++ {
		n := rng.Intn(13)
		pool := make([]scoring.ScoredCandidate, n)
		for i := range pool {
			impact := float64(rng.Intn(200)) / 4
			if rng.Intn(10) == 0 {
				impact = float64(rng.Intn(40)) // force ties
			}
			pool[i] = entry(fmt.Sprintf("p%d", i), roles[rng.Intn(len(roles))], rng.Intn(3) == 0, impact)
		}
		cs := ConstraintSet{
			SquadSize:        rng.Intn(8),
			MaxForeign:       rng.Intn(4),
			MinBatters:       rng.Intn(3),
			MinBowlers:       rng.Intn(3),
			MinAllRounders:   rng.Intn(2),
			MinWicketKeepers: rng.Intn(2),
		}

		outcome, err := opt.WithRelaxationBound(true).Select(context.Background(), pool, cs)
		require.NoError(t, err, "trial %d", trial)

		want, wantIdx, feasible := bruteForce(pool, cs)
		require.Equal(t, feasible, outcome.Feasible(), "trial %d: pool=%d cs=%+v", trial, n, cs)
		if !feasible {
			assert.NotEmpty(t, outcome.Infeasible.Violations, "trial %d", trial)
			continue
		}

		assert.InDelta(t, want, outcome.Selection.TotalImpact, 1e-9, "trial %d", trial)
		assert.Equal(t, wantIdx, outcome.Selection.Indices, "trial %d: lowest indices win ties", trial)

		selected := make([]models.Candidate, 0, outcome.Selection.Len())
		for _, m := range outcome.Selection.Members() {
			selected = append(selected, m.Candidate)
		}
		assert.True(t, cs.Satisfied(selected), "trial %d", trial)
		if outcome.Stats.BoundAvailable {
			assert.GreaterOrEqual(t, outcome.Stats.UpperBound+1e-6, want, "trial %d", trial)
		}
	}
}

func TestDiagnose_FeasiblePoolReturnsNil(t *testing.T) {
	candidates := make([]models.Candidate, 0, 8)
	for _, sc := range fourAndFour() {
		candidates = append(candidates, sc.Candidate)
	}
	assert.Nil(t, Diagnose(candidates, ConstraintSet{SquadSize: 4, MaxForeign: 0, MinBatters: 2, MinBowlers: 2}))
}

func TestNewSelection(t *testing.T) {
	pool := fourAndFour()

	sel, err := NewSelection(pool, []int{7, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 7}, sel.Indices)
	assert.InDelta(t, 45.0, sel.TotalImpact, 1e-9)
	assert.Equal(t, 2, sel.Len())

	_, err = NewSelection(pool, []int{8})
	assert.Error(t, err)
	_, err = NewSelection(pool, []int{1, 1})
	assert.Error(t, err)
}

package optimizer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/scoring"
)

const simplexTolerance = 1e-9

// RelaxationBound solves the LP relaxation of the selection problem, with
// every 0/1 pick relaxed to [0, 1], and returns its optimal impact. No
// integral squad can beat it, so it is a certificate for the exact result.
//
// The program is put in standard form with one column per pick, one
// upper-bound slack per pick, a slack for the overseas cap and a surplus
// for each role minimum.
func RelaxationBound(scored []scoring.ScoredCandidate, cs ConstraintSet) (float64, error) {
	n := len(scored)
	if n == 0 || cs.SquadSize == 0 {
		return 0, nil
	}

	roles := models.Roles()
	foreignSlack := 2 * n
	surplus := func(r int) int { return 2*n + 1 + r }
	cols := 2*n + 1 + len(roles)

	const (
		rowSquad   = 0
		rowForeign = 1
		rowRoles   = 2
	)
	rowUpper := func(i int) int { return rowRoles + len(roles) + i }
	rows := rowRoles + len(roles) + n

	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)

	// Simplex minimizes, so the objective is the negated impact column.
	objective := scoring.Impacts(scored)
	floats.Scale(-1, objective)
	copy(c, objective)

	b[rowSquad] = float64(cs.SquadSize)
	b[rowForeign] = float64(cs.MaxForeign)
	A.Set(rowForeign, foreignSlack, 1)

	roleRow := make(map[models.Role]int, len(roles))
	for r, role := range roles {
		roleRow[role] = rowRoles + r
		A.Set(rowRoles+r, surplus(r), -1)
		b[rowRoles+r] = float64(cs.MinFor(role))
	}

	for i := range scored {
		A.Set(rowSquad, i, 1)
		if scored[i].IsForeign {
			A.Set(rowForeign, i, 1)
		}
		A.Set(roleRow[scored[i].Role], i, 1)

		A.Set(rowUpper(i), i, 1)
		A.Set(rowUpper(i), n+i, 1)
		b[rowUpper(i)] = 1
	}

	optF, _, err := lp.Simplex(c, A, b, simplexTolerance, nil)
	if err != nil {
		return 0, fmt.Errorf("solve LP relaxation: %w", err)
	}
	return -optF, nil
}

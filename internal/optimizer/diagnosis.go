package optimizer

import (
	"github.com/stitts-dev/bestxi/internal/models"
)

// poolCensus counts the pool by role and origin.
type poolCensus struct {
	total    int
	domestic map[models.Role]int
	foreign  map[models.Role]int
}

func takeCensus(candidates []models.Candidate) poolCensus {
	census := poolCensus{
		total:    len(candidates),
		domestic: make(map[models.Role]int, 4),
		foreign:  make(map[models.Role]int, 4),
	}
	for _, c := range candidates {
		if c.IsForeign {
			census.foreign[c.Role]++
		} else {
			census.domestic[c.Role]++
		}
	}
	return census
}

func (p poolCensus) domesticTotal() int {
	n := 0
	for _, v := range p.domestic {
		n += v
	}
	return n
}

func (p poolCensus) foreignTotal() int {
	return p.total - p.domesticTotal()
}

// Diagnose checks the pool against the constraint set using counts only.
// It returns nil when a feasible squad exists. The checks are complete:
// a squad exists exactly when none of them fires, because quotas only
// depend on how many candidates of each role and origin are picked.
func Diagnose(candidates []models.Candidate, cs ConstraintSet) *InfeasibleReport {
	census := takeCensus(candidates)
	report := &InfeasibleReport{}

	if census.total < cs.SquadSize {
		report.add(ConstraintTeamSize, "pool has %d candidates but the squad needs %d", census.total, cs.SquadSize)
	}

	if minTotal := cs.MinimumTotal(); minTotal > cs.SquadSize {
		for _, role := range models.Roles() {
			if cs.MinFor(role) > 0 {
				report.add(RoleMinimumID(role), "role minimums total %d, more than the squad size of %d", minTotal, cs.SquadSize)
			}
		}
	}

	foreignNeeded := 0
	var foreignDependent []models.Role
	for _, role := range models.Roles() {
		required := cs.MinFor(role)
		available := census.domestic[role] + census.foreign[role]
		if available < required {
			report.add(RoleMinimumID(role), "%d %s candidates available, minimum is %d", available, role, required)
			continue
		}
		if short := required - census.domestic[role]; short > 0 {
			foreignNeeded += short
			foreignDependent = append(foreignDependent, role)
		}
	}

	if foreignNeeded > cs.MaxForeign {
		report.add(ConstraintOverseasLimit, "role minimums need at least %d overseas players, the cap is %d", foreignNeeded, cs.MaxForeign)
		for _, role := range foreignDependent {
			report.add(RoleMinimumID(role), "%s minimum of %d needs overseas players: only %d domestic", role, cs.MinFor(role), census.domestic[role])
		}
	}

	if census.total >= cs.SquadSize {
		usableForeign := census.foreignTotal()
		if cs.MaxForeign < usableForeign {
			usableForeign = cs.MaxForeign
		}
		if census.domesticTotal()+usableForeign < cs.SquadSize {
			report.add(ConstraintOverseasLimit, "only %d domestic candidates; a squad of %d with at most %d overseas needs %d",
				census.domesticTotal(), cs.SquadSize, cs.MaxForeign, cs.SquadSize-cs.MaxForeign)
		}
	}

	if len(report.Violations) == 0 {
		return nil
	}
	report.summarize()
	return report
}

// unexplainedInfeasibility is returned when the search proves there is no
// squad but none of the count checks fired.
func unexplainedInfeasibility() *InfeasibleReport {
	report := &InfeasibleReport{}
	report.summarize()
	return report
}

package optimizer

import (
	"fmt"

	"github.com/stitts-dev/bestxi/internal/models"
)

// ConstraintID names one constraint of the selection model.
type ConstraintID string

const (
	ConstraintTeamSize         ConstraintID = "TeamSize"
	ConstraintOverseasLimit    ConstraintID = "OverseasLimit"
	ConstraintMinBatsmen       ConstraintID = "MinBatsmen"
	ConstraintMinBowlers       ConstraintID = "MinBowlers"
	ConstraintMinAllRounders   ConstraintID = "MinAllRounders"
	ConstraintMinWicketkeepers ConstraintID = "MinWicketkeepers"
)

// RoleMinimumID maps a role to the identifier of its minimum-count constraint.
func RoleMinimumID(role models.Role) ConstraintID {
	switch role {
	case models.RoleBatter:
		return ConstraintMinBatsmen
	case models.RoleBowler:
		return ConstraintMinBowlers
	case models.RoleAllRounder:
		return ConstraintMinAllRounders
	case models.RoleWicketKeeper:
		return ConstraintMinWicketkeepers
	}
	return ""
}

// ConstraintSet holds squad composition rules for one optimization call.
// The optimizer never modifies it.
type ConstraintSet struct {
	SquadSize        int `json:"squad_size" yaml:"squad_size"`
	MaxForeign       int `json:"max_foreign" yaml:"max_foreign"`
	MinBatters       int `json:"min_batters" yaml:"min_batters"`
	MinBowlers       int `json:"min_bowlers" yaml:"min_bowlers"`
	MinAllRounders   int `json:"min_all_rounders" yaml:"min_all_rounders"`
	MinWicketKeepers int `json:"min_wicketkeepers" yaml:"min_wicketkeepers"`
}

// DefaultConstraintSet is the classic playing XI: eleven players, at most
// four overseas, three batters, three bowlers, two all-rounders and a keeper.
func DefaultConstraintSet() ConstraintSet {
	return ConstraintSet{
		SquadSize:        11,
		MaxForeign:       4,
		MinBatters:       3,
		MinBowlers:       3,
		MinAllRounders:   2,
		MinWicketKeepers: 1,
	}
}

// MinFor returns the minimum count required for role.
func (cs ConstraintSet) MinFor(role models.Role) int {
	switch role {
	case models.RoleBatter:
		return cs.MinBatters
	case models.RoleBowler:
		return cs.MinBowlers
	case models.RoleAllRounder:
		return cs.MinAllRounders
	case models.RoleWicketKeeper:
		return cs.MinWicketKeepers
	}
	return 0
}

// MinimumTotal sums the four role minimums.
func (cs ConstraintSet) MinimumTotal() int {
	total := 0
	for _, role := range models.Roles() {
		total += cs.MinFor(role)
	}
	return total
}

// Validate rejects negative bounds.
func (cs ConstraintSet) Validate() error {
	bounds := []struct {
		field string
		value int
	}{
		{"squad_size", cs.SquadSize},
		{"max_foreign", cs.MaxForeign},
		{"min_batters", cs.MinBatters},
		{"min_bowlers", cs.MinBowlers},
		{"min_all_rounders", cs.MinAllRounders},
		{"min_wicketkeepers", cs.MinWicketKeepers},
	}
	for _, b := range bounds {
		if b.value < 0 {
			return &models.ValidationError{Index: -1, Field: b.field, Reason: fmt.Sprintf("must be non-negative, got %d", b.value)}
		}
	}
	return nil
}

// Satisfied reports whether a selection of the given candidates meets
// every constraint.
func (cs ConstraintSet) Satisfied(selected []models.Candidate) bool {
	if len(selected) != cs.SquadSize {
		return false
	}
	foreign := 0
	for _, c := range selected {
		if c.IsForeign {
			foreign++
		}
	}
	if foreign > cs.MaxForeign {
		return false
	}
	counts := models.CountByRole(selected)
	for _, role := range models.Roles() {
		if counts[role] < cs.MinFor(role) {
			return false
		}
	}
	return true
}

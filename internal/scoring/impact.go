// Package scoring turns raw cricket statistics into a single comparable
// impact value per candidate, with formulas tuned per match format.
package scoring

import (
	"math"

	"github.com/stitts-dev/bestxi/internal/models"
)

// NoBowlingRecord replaces bowling-side ratios whose denominator
// (wickets) is zero so that a wicketless bowler never looks elite.
const NoBowlingRecord = 999.0

// ScoredCandidate is a candidate plus its derived statistics for one format.
type ScoredCandidate struct {
	models.Candidate

	BattingAvg       float64 `json:"batting_avg"`
	BowlingAvg       float64 `json:"bowling_avg"`
	BowlerStrikeRate float64 `json:"bowler_strike_rate"`
	BoundaryPct      float64 `json:"boundary_pct"`
	DotPct           float64 `json:"dot_pct"`

	BattingImpact float64 `json:"batting_impact"`
	BowlingImpact float64 `json:"bowling_impact"`
	Impact        float64 `json:"impact"`
}

// Score derives rates and impact for every candidate. The result is
// indexed identically to the input. Inputs are expected to be validated.
func Score(candidates []models.Candidate, format models.Format) []ScoredCandidate {
	scored := make([]ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = ScoreOne(c, format)
	}
	return scored
}

// ScoreOne scores a single candidate.
func ScoreOne(c models.Candidate, format models.Format) ScoredCandidate {
	s := ScoredCandidate{Candidate: c}
	s.BattingAvg = ratio(float64(c.Runs), float64(c.Innings), 0)
	s.BowlingAvg = ratio(float64(c.RunsConceded), float64(c.Wickets), NoBowlingRecord)
	s.BowlerStrikeRate = ratio(float64(c.BallsBowled), float64(c.Wickets), NoBowlingRecord)
	s.BoundaryPct = ratio(float64(c.Fours+c.Sixes), float64(c.BallsFaced), 0) * 100
	s.DotPct = ratio(float64(c.DotBalls), float64(c.BallsBowled), 0) * 100

	if c.Role.Bats() {
		s.BattingImpact = battingImpact(s, format)
	}
	if c.Role.Bowls() && c.Wickets > 0 {
		s.BowlingImpact = bowlingImpact(s, format)
	}

	s.Impact = s.BattingImpact + s.BowlingImpact
	if c.Role == models.RoleAllRounder {
		s.Impact /= 2
	}
	return s
}

func ratio(num, den, fallback float64) float64 {
	if den > 0 {
		return num / den
	}
	return fallback
}

// battingImpact keeps the Test weighting exactly as published, including
// the average appearing in two terms.
func battingImpact(s ScoredCandidate, format models.Format) float64 {
	avg, sr := s.BattingAvg, s.StrikeRate
	switch format {
	case models.FormatTest:
		return avg*0.75 + avg*0.15 + (sr/2)*0.10
	case models.FormatODI:
		return math.Sqrt(avg*sr) + 0.5*s.BoundaryPct
	case models.FormatT20:
		return sr*0.7 + avg*0.3 + 0.7*(avg+sr)
	}
	return 0
}

func bowlingImpact(s ScoredCandidate, format models.Format) float64 {
	switch format {
	case models.FormatTest:
		if s.BowlingAvg > 0 && s.BowlerStrikeRate > 0 {
			return 1000/s.BowlingAvg + (100/s.BowlerStrikeRate)*2
		}
	case models.FormatODI, models.FormatT20:
		if s.Economy > 0 {
			return (s.DotPct * float64(s.Wickets)) / (s.Economy * s.Economy) * 100
		}
	}
	return 0
}

// Impacts returns the impact column of a scored pool.
func Impacts(scored []ScoredCandidate) []float64 {
	out := make([]float64, len(scored))
	for i := range scored {
		out[i] = scored[i].Impact
	}
	return out
}

// Package report summarizes and exports a selected squad.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/stitts-dev/bestxi/internal/ingest"
	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/optimizer"
)

// TeamSummary is the headline view of a selection.
type TeamSummary struct {
	TeamImpact       float64             `json:"team_impact"`
	Players          int                 `json:"players"`
	ForeignCount     int                 `json:"foreign_count"`
	RoleCounts       map[models.Role]int `json:"role_counts"`
	AvgStrikeRate    float64             `json:"avg_strike_rate"`
	Captain          string              `json:"captain,omitempty"`
	CaptainPoolIndex int                 `json:"captain_pool_index"`
}

// Summarize computes team totals for a selection. The captain is the
// member with the highest impact, the earliest pool entry on ties. The
// average strike rate skips members with no recorded strike rate.
func Summarize(sel *optimizer.Selection) TeamSummary {
	summary := TeamSummary{
		RoleCounts:       make(map[models.Role]int, len(models.Roles())),
		CaptainPoolIndex: -1,
	}
	if sel == nil {
		return summary
	}

	for _, role := range models.Roles() {
		summary.RoleCounts[role] = 0
	}

	var srTotal, captainImpact float64
	var srCount int
	for i, m := range sel.Members() {
		summary.Players++
		summary.RoleCounts[m.Role]++
		if m.IsForeign {
			summary.ForeignCount++
		}
		if m.StrikeRate > 0 {
			srTotal += m.StrikeRate
			srCount++
		}
		// Members come in pool order, so strict comparison keeps the earliest.
		if summary.CaptainPoolIndex < 0 || m.Impact > captainImpact {
			summary.CaptainPoolIndex = sel.Indices[i]
			summary.Captain = m.Name
			captainImpact = m.Impact
		}
	}
	summary.TeamImpact = sel.TotalImpact
	if srCount > 0 {
		summary.AvgStrikeRate = srTotal / float64(srCount)
	}
	return summary
}

// SelectionDateLayout is how WriteCSV stamps the selection_date column.
const SelectionDateLayout = "2006-01-02 15:04:05"

// ExportColumns is the team sheet header: the input columns, the derived
// rates, the impacts, a captain marker and the selection date.
func ExportColumns() []string {
	return append(ingest.Columns(),
		"batting_avg", "bowling_avg", "bowler_strike_rate", "boundary_pct", "dot_pct",
		"batting_impact", "bowling_impact", "impact", "captain", "selection_date")
}

// WriteCSV exports the selection as a team sheet stamped with selectedAt.
func WriteCSV(w io.Writer, sel *optimizer.Selection, selectedAt time.Time) error {
	summary := Summarize(sel)
	stamp := selectedAt.Format(SelectionDateLayout)

	writer := csv.NewWriter(w)
	if err := writer.Write(ExportColumns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if sel != nil {
		for i, m := range sel.Members() {
			record := []string{
				m.Name,
				string(m.Role),
				boolFlag(m.IsForeign),
				strconv.Itoa(m.Runs),
				strconv.Itoa(m.Innings),
				strconv.Itoa(m.BallsFaced),
				formatFloat(m.StrikeRate),
				strconv.Itoa(m.Fours),
				strconv.Itoa(m.Sixes),
				strconv.Itoa(m.Wickets),
				strconv.Itoa(m.BallsBowled),
				strconv.Itoa(m.RunsConceded),
				formatFloat(m.Economy),
				strconv.Itoa(m.DotBalls),
				formatFloat(m.BattingAvg),
				formatFloat(m.BowlingAvg),
				formatFloat(m.BowlerStrikeRate),
				formatFloat(m.BoundaryPct),
				formatFloat(m.DotPct),
				formatFloat(m.BattingImpact),
				formatFloat(m.BowlingImpact),
				formatFloat(m.Impact),
				boolFlag(sel.Indices[i] == summary.CaptainPoolIndex),
				stamp,
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("writing %s: %w", m.Name, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

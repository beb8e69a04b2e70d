package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/optimizer"
	"github.com/stitts-dev/bestxi/internal/report"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
)

type table struct {
	title   string
	headers []string
	rows    [][]string
}

func newTable(title string, headers ...string) *table {
	return &table{title: title, headers: headers}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	// Width includes the padding.
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(titleStyle.Render(t.title))
		sb.WriteString("\n")
	}
	sep := mutedStyle.Render("|")

	cells := make([]string, len(t.headers))
	for i, h := range t.headers {
		cells[i] = headerStyle.Width(widths[i]).Render(h)
	}
	sb.WriteString(strings.Join(cells, sep))
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(mutedStyle.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range t.rows {
		for i := range cells {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = cellStyle.Width(widths[i]).Render(cell)
		}
		sb.WriteString(strings.Join(cells, sep))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderSelection(format models.Format, outcome *optimizer.Outcome) string {
	summary := report.Summarize(outcome.Selection)

	t := newTable(fmt.Sprintf("Best %d (%s)", summary.Players, format),
		"Player", "Role", "Overseas", "Batting", "Bowling", "Impact", "")
	for i, m := range outcome.Selection.Members() {
		captain := ""
		if outcome.Selection.Indices[i] == summary.CaptainPoolIndex {
			captain = "captain"
		}
		t.addRow(m.Name, string(m.Role), yesNo(m.IsForeign),
			fmt.Sprintf("%.2f", m.BattingImpact), fmt.Sprintf("%.2f", m.BowlingImpact), fmt.Sprintf("%.2f", m.Impact), captain)
	}

	var sb strings.Builder
	sb.WriteString(t.render())
	fmt.Fprintf(&sb, "Team impact: %.2f  Overseas: %d  Avg strike rate: %.2f\n",
		summary.TeamImpact, summary.ForeignCount, summary.AvgStrikeRate)

	roles := make([]string, 0, len(models.Roles()))
	for _, role := range models.Roles() {
		roles = append(roles, fmt.Sprintf("%s %d", role, summary.RoleCounts[role]))
	}
	sb.WriteString(mutedStyle.Render("Roles: " + strings.Join(roles, ", ")))
	sb.WriteString("\n")

	if outcome.Stats.BoundAvailable {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("LP relaxation bound: %.2f", outcome.Stats.UpperBound)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderInfeasible(rep *optimizer.InfeasibleReport) string {
	var sb strings.Builder
	sb.WriteString(errorStyle.Render("No valid squad"))
	sb.WriteString("\n")
	for _, v := range rep.Violations {
		fmt.Fprintf(&sb, "  %s: %s\n", v.Constraint, v.Detail)
	}
	if len(rep.Violations) == 0 {
		sb.WriteString("  " + rep.Summary + "\n")
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

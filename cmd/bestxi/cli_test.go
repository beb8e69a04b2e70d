package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/bestxi/internal/ingest"
)

const sheet = `player_name,role,is_overseas,runs_scored,innings_batted,balls_faced,strike_rate,fours,sixes,wickets,balls_bowled,runs_conceded,economy,dot_balls
Opener,Batsman,0,600,15,450,133.3,50,22,0,0,0,0,0
Anchor,Batsman,1,520,14,430,120.9,40,12,0,0,0,0,0
Finisher,Batsman,0,300,12,180,166.7,20,20,0,0,0,0,0
Quick,Bowler,1,10,3,12,83.3,1,0,22,300,380,7.6,140
Spinner,Bowler,0,5,2,8,62.5,0,0,18,288,330,6.9,130
Seamer,Bowler,0,2,2,6,33.3,0,0,12,240,340,8.5,95
Allrounder,All-Rounder,1,280,12,200,140,18,12,10,180,250,8.3,60
Keeper,Wicketkeeper,0,350,14,260,134.6,30,10,0,0,0,0,0
`

func writeSheetFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	path := writeSheetFile(t, "players.csv", sheet)

	out, err := run(t, "", "score", "--file", path, "--format", "ODI", "--top", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Impact scores (ODI)")
	assert.Equal(t, 3+3, strings.Count(out, "\n"), "title, header, rule and three rows")
}

func TestSelectCommand(t *testing.T) {
	path := writeSheetFile(t, "players.csv", sheet)
	sheetOut := filepath.Join(t.TempDir(), "best_xi_team.csv")

	out, err := run(t, "", "select", "--file", path,
		"--squad", "5", "--max-foreign", "2", "--min-batters", "2", "--min-bowlers", "2",
		"--min-all-rounders", "0", "--min-wicketkeepers", "1", "--bound", "--out", sheetOut)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Best 5 (T20)")
	assert.Contains(t, out, "Keeper")
	assert.Contains(t, out, "captain")
	assert.Contains(t, out, "Team sheet written to")

	f, err := os.Open(sheetOut)
	require.NoError(t, err)
	defer f.Close()
	written, err := ingest.ReadCSV(f)
	require.NoError(t, err)
	assert.Len(t, written, 5)
}

func TestSelectCommand_Infeasible(t *testing.T) {
	out, err := run(t, sheet, "select", "--file", "-", "--squad", "4", "--min-batters", "3", "--min-bowlers", "3",
		"--min-all-rounders", "0", "--min-wicketkeepers", "0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInfeasible))
	assert.Contains(t, out, "MinBatsmen")
	assert.Contains(t, out, "MinBowlers")
}

func TestSelectCommand_RulesFileWithFlagOverride(t *testing.T) {
	path := writeSheetFile(t, "players.json", `[
		{"name": "A", "role": "Batter", "runs": 100, "innings": 4, "balls_faced": 90, "strike_rate": 111},
		{"name": "B", "role": "Bowler", "wickets": 5, "balls_bowled": 120, "runs_conceded": 150, "economy": 7.5, "dot_balls": 50},
		{"name": "C", "role": "WicketKeeper", "runs": 60, "innings": 3, "balls_faced": 50, "strike_rate": 120}
	]`)
	rules := writeSheetFile(t, "rules.yaml", "squad_size: 2\nmax_foreign: 0\nmin_batters: 1\nmin_bowlers: 1\nmin_all_rounders: 0\nmin_wicketkeepers: 0\n")

	out, err := run(t, "", "select", "--file", path, "--rules", rules)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Best 2")

	out, err = run(t, "", "select", "--file", path, "--rules", rules, "--min-wicketkeepers", "1")
	require.Error(t, err, "three minimums cannot fit a squad of two")
	assert.True(t, errors.Is(err, errInfeasible))
	assert.Contains(t, out, "MinWicketkeepers")
}

func TestSelectCommand_InputErrors(t *testing.T) {
	_, err := run(t, "", "select")
	assert.Error(t, err, "--file is required")

	path := writeSheetFile(t, "players.csv", sheet)
	_, err = run(t, "", "select", "--file", path, "--format", "club")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, errInfeasible))

	_, err = run(t, "", "select", "--file", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/bestxi/internal/models"
)

const sheet = `player_name,role,is_overseas,runs_scored,innings_batted,balls_faced,strike_rate,fours,sixes,wickets,balls_bowled,runs_conceded,economy,dot_balls
Virat Kohli,Batsman,0,741,15,481,154.05,62,38,0,0,0,0,0
Jasprit Bumrah,Bowler,0,8,3,10,80,1,0,20,324,366,6.78,150
Glenn Maxwell,All-Rounder,1,350.0,12,200,175,30,20,6,120,170,8.5,40
MS Dhoni,Wicketkeeper,no,161,10,73,220.5,12,13,0,0,0,0,0
`

func TestReadCSV_OriginalLayout(t *testing.T) {
	candidates, err := ReadCSV(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, candidates, 4)

	assert.Equal(t, "Virat Kohli", candidates[0].Name)
	assert.Equal(t, models.RoleBatter, candidates[0].Role)
	assert.Equal(t, 741, candidates[0].Runs)
	assert.InDelta(t, 154.05, candidates[0].StrikeRate, 1e-9)

	assert.Equal(t, models.RoleBowler, candidates[1].Role)
	assert.Equal(t, 20, candidates[1].Wickets)
	assert.InDelta(t, 6.78, candidates[1].Economy, 1e-9)

	assert.Equal(t, models.RoleAllRounder, candidates[2].Role)
	assert.True(t, candidates[2].IsForeign)
	assert.Equal(t, 350, candidates[2].Runs)

	assert.Equal(t, models.RoleWicketKeeper, candidates[3].Role)
	assert.False(t, candidates[3].IsForeign)
}

func TestReadCSV_MissingStatColumnsReadAsZero(t *testing.T) {
	input := "Role, Player_Name\nbowler,Rashid\n,,\nBatter,Gill\n"
	candidates, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Rashid", candidates[0].Name)
	assert.Equal(t, models.RoleBowler, candidates[0].Role)
	assert.Zero(t, candidates[0].Wickets)
	assert.Equal(t, "Gill", candidates[1].Name)
}

func TestReadCSV_Errors(t *testing.T) {
	cases := map[string]struct {
		input string
		field string
		index int
	}{
		"empty file":        {"", "header", -1},
		"missing role":      {"player_name,runs_scored\nA,10\n", ColRole, -1},
		"unknown role":      {"player_name,role\nA,Batter\nB,Umpire\n", ColRole, 1},
		"non numeric runs":  {"player_name,role,runs_scored\nA,Batter,lots\n", ColRuns, 0},
		"fractional count":  {"player_name,role,wickets\nA,Bowler,2.5\n", ColWickets, 0},
		"overflowing count": {"player_name,role,runs_scored\nA,Batter,1e30\n", ColRuns, 0},
		"bad flag":          {"player_name,role,is_overseas\nA,Bowler,maybe\n", ColOverseas, 0},
		"negative runs":     {"player_name,role,runs_scored\nA,Batter,-4\n", "runs", 0},
		"blank name":        {"player_name,role\n ,Batter\n", "name", 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidInput)

			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr), "%v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.index, verr.Index)
		})
	}
}

func TestReadCSV_HugeCountIsTooLarge(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("player_name,role,balls_bowled\nA,Bowler,1e30\nB,Bowler,12\n"))
	require.Error(t, err)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr), "%v", err)
	assert.Equal(t, ColBallsBowled, verr.Field)
	assert.Contains(t, verr.Reason, "too large")
	assert.NotContains(t, verr.Reason, "non-negative")
}

func TestReadJSON(t *testing.T) {
	input := `[
		{"name": "Kohli", "role": "batsman", "runs": 741, "innings": 15, "balls_faced": 481, "strike_rate": 154.05},
		{"name": "Bumrah", "role": "Bowler", "is_foreign": true, "wickets": 20, "economy": 6.78}
	]`
	candidates, err := ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, models.RoleBatter, candidates[0].Role)
	assert.True(t, candidates[1].IsForeign)

	_, err = ReadJSON(strings.NewReader(`{"name": "not an array"}`))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = ReadJSON(strings.NewReader(`[{"name": "X", "role": "coach"}]`))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

// Package ingest turns external player sheets into validated candidates.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/stitts-dev/bestxi/internal/models"
)

// Column names of the player sheet. Only name and role are required;
// a missing stat column reads as zero.
const (
	ColName         = "player_name"
	ColRole         = "role"
	ColOverseas     = "is_overseas"
	ColRuns         = "runs_scored"
	ColInnings      = "innings_batted"
	ColBallsFaced   = "balls_faced"
	ColStrikeRate   = "strike_rate"
	ColFours        = "fours"
	ColSixes        = "sixes"
	ColWickets      = "wickets"
	ColBallsBowled  = "balls_bowled"
	ColRunsConceded = "runs_conceded"
	ColEconomy      = "economy"
	ColDotBalls     = "dot_balls"
)

// maxCount bounds integer cells so int conversion cannot overflow.
const maxCount = math.MaxInt32

// Columns lists the sheet layout in export order.
func Columns() []string {
	return []string{
		ColName, ColRole, ColOverseas,
		ColRuns, ColInnings, ColBallsFaced, ColStrikeRate, ColFours, ColSixes,
		ColWickets, ColBallsBowled, ColRunsConceded, ColEconomy, ColDotBalls,
	}
}

// ReadCSV parses a player sheet with a header row. Rows keep their file
// order. Errors carry the zero-based data row as the candidate index.
func ReadCSV(r io.Reader) ([]models.Candidate, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.ValidationError{Index: -1, Field: "header", Reason: "file is empty"}
		}
		return nil, fmt.Errorf("%w: reading header: %v", models.ErrInvalidInput, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{ColName, ColRole} {
		if _, ok := index[required]; !ok {
			return nil, &models.ValidationError{Index: -1, Field: required, Reason: "column is missing from the header"}
		}
	}

	var candidates []models.Candidate
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row := len(candidates)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", models.ErrInvalidInput, row, err)
		}
		if blankRecord(record) {
			continue
		}

		c, err := parseRecord(row, record, index)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	if err := models.ValidateCandidates(candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

type rowReader struct {
	row    int
	record []string
	index  map[string]int
	err    error
}

func (r *rowReader) text(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r *rowReader) fail(col, reason string) {
	if r.err == nil {
		r.err = &models.ValidationError{Index: r.row, Field: col, Reason: reason}
	}
}

func (r *rowReader) float(col string) float64 {
	raw := r.text(col)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(col, fmt.Sprintf("%q is not a number", raw))
		return 0
	}
	return v
}

// count accepts whole numbers written as floats ("45.0"), which is how
// spreadsheet exports often write integer columns.
func (r *rowReader) count(col string) int {
	v := r.float(col)
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		r.fail(col, fmt.Sprintf("%v is not a whole number", v))
		return 0
	}
	if math.Abs(v) > maxCount {
		r.fail(col, fmt.Sprintf("%v is too large", v))
		return 0
	}
	return int(v)
}

func (r *rowReader) flag(col string) bool {
	raw := strings.ToLower(r.text(col))
	switch raw {
	case "", "0", "0.0", "false", "no", "n":
		return false
	case "1", "1.0", "true", "yes", "y":
		return true
	}
	r.fail(col, fmt.Sprintf("%q is not a yes/no value", raw))
	return false
}

func parseRecord(row int, record []string, index map[string]int) (models.Candidate, error) {
	r := &rowReader{row: row, record: record, index: index}

	role, err := models.ParseRole(r.text(ColRole))
	if err != nil {
		return models.Candidate{}, &models.ValidationError{Index: row, Field: ColRole, Reason: fmt.Sprintf("unknown role %q", r.text(ColRole))}
	}

	c := models.Candidate{
		Name:         r.text(ColName),
		Role:         role,
		IsForeign:    r.flag(ColOverseas),
		Runs:         r.count(ColRuns),
		Innings:      r.count(ColInnings),
		BallsFaced:   r.count(ColBallsFaced),
		StrikeRate:   r.float(ColStrikeRate),
		Fours:        r.count(ColFours),
		Sixes:        r.count(ColSixes),
		Wickets:      r.count(ColWickets),
		BallsBowled:  r.count(ColBallsBowled),
		RunsConceded: r.count(ColRunsConceded),
		Economy:      r.float(ColEconomy),
		DotBalls:     r.count(ColDotBalls),
	}
	if r.err != nil {
		return models.Candidate{}, r.err
	}
	return c, nil
}

// ReadJSON decodes a JSON array of candidates and validates them.
func ReadJSON(r io.Reader) ([]models.Candidate, error) {
	var candidates []models.Candidate
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&candidates); err != nil {
		return nil, fmt.Errorf("%w: decoding candidates: %v", models.ErrInvalidInput, err)
	}
	if err := Normalize(candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// Normalize rewrites role labels to their canonical names in place and
// validates every candidate.
func Normalize(candidates []models.Candidate) error {
	for i := range candidates {
		role, err := models.ParseRole(string(candidates[i].Role))
		if err != nil {
			return &models.ValidationError{Index: i, Field: ColRole, Reason: fmt.Sprintf("unknown role %q", candidates[i].Role)}
		}
		candidates[i].Role = role
	}
	return models.ValidateCandidates(candidates)
}

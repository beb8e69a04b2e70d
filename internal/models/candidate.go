package models

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Candidate is a parsed player record. Names need not be unique; two
// candidates with the same name are distinct entries.
type Candidate struct {
	ID       uint      `gorm:"primaryKey" json:"id,omitempty"`
	PoolID   uuid.UUID `gorm:"type:uuid;index:idx_pool_position" json:"-"`
	Position int       `gorm:"not null;index:idx_pool_position" json:"-"` // insertion order within the pool

	Name      string `gorm:"not null" json:"name"`
	Role      Role   `gorm:"type:varchar(16);not null" json:"role"`
	IsForeign bool   `gorm:"default:false" json:"is_foreign"`

	// Batting
	Runs       int     `json:"runs"`
	Innings    int     `json:"innings"`
	BallsFaced int     `json:"balls_faced"`
	StrikeRate float64 `json:"strike_rate"`
	Fours      int     `json:"fours"`
	Sixes      int     `json:"sixes"`

	// Bowling
	Wickets      int     `json:"wickets"`
	BallsBowled  int     `json:"balls_bowled"`
	RunsConceded int     `json:"runs_conceded"`
	Economy      float64 `json:"economy"`
	DotBalls     int     `json:"dot_balls"`

	CreatedAt time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (Candidate) TableName() string {
	return "candidates"
}

// Validate checks the record invariants: known role, non-blank name and
// non-negative finite counters.
func (c Candidate) Validate() error {
	return c.validateAt(-1)
}

func (c Candidate) validateAt(index int) error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Index: index, Field: "name", Reason: "must not be blank"}
	}
	if !c.Role.IsValid() {
		return &ValidationError{Index: index, Field: "role", Reason: "unknown role " + string(c.Role)}
	}

	counters := []struct {
		field string
		value int
	}{
		{"runs", c.Runs},
		{"innings", c.Innings},
		{"balls_faced", c.BallsFaced},
		{"fours", c.Fours},
		{"sixes", c.Sixes},
		{"wickets", c.Wickets},
		{"balls_bowled", c.BallsBowled},
		{"runs_conceded", c.RunsConceded},
		{"dot_balls", c.DotBalls},
	}
	for _, counter := range counters {
		if counter.value < 0 {
			return &ValidationError{Index: index, Field: counter.field, Reason: "must be non-negative"}
		}
	}

	rates := []struct {
		field string
		value float64
	}{
		{"strike_rate", c.StrikeRate},
		{"economy", c.Economy},
	}
	for _, rate := range rates {
		if math.IsNaN(rate.value) || math.IsInf(rate.value, 0) {
			return &ValidationError{Index: index, Field: rate.field, Reason: "must be a finite number"}
		}
		if rate.value < 0 {
			return &ValidationError{Index: index, Field: rate.field, Reason: "must be non-negative"}
		}
	}

	return nil
}

// ValidateCandidates validates every record and reports all failures
// joined together, each tagged with its input index.
func ValidateCandidates(candidates []Candidate) error {
	var errs []error
	for i, c := range candidates {
		if err := c.validateAt(i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

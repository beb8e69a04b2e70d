package optimizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/stitts-dev/bestxi/internal/scoring"
)

var (
	// ErrSolverFailure means no proven optimum or proven infeasibility was
	// reached. It is never used for an infeasible constraint set.
	ErrSolverFailure = errors.New("solver failure")
	// ErrBudgetExhausted is wrapped by ErrSolverFailure when the node
	// budget runs out before the search completes.
	ErrBudgetExhausted = errors.New("node budget exhausted before a proof was reached")
)

// Status is the outcome of a completed solve.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
)

// Selection is the chosen subset. Indices point into the scored pool the
// selection was solved against, in ascending (pool insertion) order.
type Selection struct {
	Indices     []int   `json:"indices"`
	TotalImpact float64 `json:"total_impact"`

	pool []scoring.ScoredCandidate
}

// NewSelection binds indices to a scored pool. Indices are copied and sorted.
func NewSelection(pool []scoring.ScoredCandidate, indices []int) (*Selection, error) {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	impacts := make([]float64, len(sorted))
	for i, idx := range sorted {
		if idx < 0 || idx >= len(pool) {
			return nil, fmt.Errorf("selection index %d out of range for pool of %d", idx, len(pool))
		}
		if i > 0 && sorted[i-1] == idx {
			return nil, fmt.Errorf("selection index %d repeated", idx)
		}
		impacts[i] = pool[idx].Impact
	}

	return &Selection{
		Indices:     sorted,
		TotalImpact: floats.Sum(impacts),
		pool:        pool,
	}, nil
}

// Members returns pointers into the scored pool for each selected candidate.
func (s *Selection) Members() []*scoring.ScoredCandidate {
	members := make([]*scoring.ScoredCandidate, len(s.Indices))
	for i, idx := range s.Indices {
		members[i] = &s.pool[idx]
	}
	return members
}

// Len is the squad size of the selection.
func (s *Selection) Len() int {
	return len(s.Indices)
}

// Violation is one constraint named by an infeasibility diagnosis.
type Violation struct {
	Constraint ConstraintID `json:"constraint"`
	Detail     string       `json:"detail"`
}

// InfeasibleReport explains why no subset satisfies the constraints.
// Violations may be empty when the cause could not be isolated.
type InfeasibleReport struct {
	Violations []Violation `json:"violations"`
	Summary    string      `json:"summary"`
}

// Constraints lists the distinct constraints named by the report, in the
// order they were first reported.
func (r *InfeasibleReport) Constraints() []ConstraintID {
	seen := make(map[ConstraintID]bool, len(r.Violations))
	ids := make([]ConstraintID, 0, len(r.Violations))
	for _, v := range r.Violations {
		if !seen[v.Constraint] {
			seen[v.Constraint] = true
			ids = append(ids, v.Constraint)
		}
	}
	return ids
}

// Names reports whether id is among the violated constraints.
func (r *InfeasibleReport) Names(id ConstraintID) bool {
	for _, v := range r.Violations {
		if v.Constraint == id {
			return true
		}
	}
	return false
}

func (r *InfeasibleReport) add(id ConstraintID, format string, args ...interface{}) {
	r.Violations = append(r.Violations, Violation{Constraint: id, Detail: fmt.Sprintf(format, args...)})
}

func (r *InfeasibleReport) summarize() {
	if len(r.Violations) == 0 {
		r.Summary = "no squad satisfies the constraints; the conflicting constraints could not be isolated"
		return
	}
	details := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		details[i] = v.Detail
	}
	r.Summary = "cannot build a valid team: " + strings.Join(details, "; ")
}

// SolveStats records search effort for logging and API responses.
type SolveStats struct {
	States          int           `json:"states"`
	Transitions     int64         `json:"transitions"`
	Elapsed         time.Duration `json:"elapsed_ns"`
	UpperBound      float64       `json:"upper_bound,omitempty"`
	BoundAvailable  bool          `json:"bound_available"`
	PrecheckRejects bool          `json:"precheck_rejects"`
}

// Outcome is a completed solve: either an optimal selection or a
// diagnosis. Solver failures are returned as errors instead.
type Outcome struct {
	Status     Status            `json:"status"`
	Selection  *Selection        `json:"selection,omitempty"`
	Infeasible *InfeasibleReport `json:"infeasible,omitempty"`
	Stats      SolveStats        `json:"stats"`
}

// Feasible reports whether the outcome carries a selection.
func (o *Outcome) Feasible() bool {
	return o.Status == StatusOptimal
}

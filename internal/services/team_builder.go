package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/optimizer"
	"github.com/stitts-dev/bestxi/internal/report"
	"github.com/stitts-dev/bestxi/internal/scoring"
	"github.com/stitts-dev/bestxi/pkg/config"
	"github.com/stitts-dev/bestxi/pkg/logger"
)

// PoolSource loads stored candidate pools.
type PoolSource interface {
	GetPool(ctx context.Context, id uuid.UUID) (*models.Pool, error)
}

// BuildRequest asks for the best squad from either inline candidates or a
// stored pool. Constraints default to the configured squad shape; decode
// into a request from NewRequest so a partial constraints object keeps the
// defaults for the fields it omits.
type BuildRequest struct {
	Candidates  []models.Candidate       `json:"candidates,omitempty"`
	PoolID      *uuid.UUID               `json:"pool_id,omitempty"`
	Format      string                   `json:"format,omitempty"`
	Constraints *optimizer.ConstraintSet `json:"constraints,omitempty"`
}

// BuildResult is a completed build. Outcome is either optimal with a
// Summary or infeasible with a diagnosis.
type BuildResult struct {
	OptimizationID string                    `json:"optimization_id"`
	Format         models.Format             `json:"format"`
	Constraints    optimizer.ConstraintSet   `json:"constraints"`
	Scored         []scoring.ScoredCandidate `json:"scored"`
	Outcome        *optimizer.Outcome        `json:"outcome"`
	Summary        *report.TeamSummary       `json:"summary,omitempty"`
	Cached         bool                      `json:"cached"`
}

// TeamBuilder runs the score-then-select pipeline with caching.
type TeamBuilder struct {
	pools         PoolSource
	cache         *ResultCache
	optimizer     *optimizer.TeamOptimizer
	timeout       time.Duration
	maxPoolSize   int
	defaultFormat models.Format
	defaults      optimizer.ConstraintSet
}

// NewTeamBuilder wires the pipeline. pools and cache may be nil.
func NewTeamBuilder(cfg *config.Config, pools PoolSource, cache *ResultCache) (*TeamBuilder, error) {
	format, err := models.ParseFormat(cfg.DefaultFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_FORMAT: %w", err)
	}

	defaults := DefaultConstraints(cfg)
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default constraints: %w", err)
	}

	opt := optimizer.NewTeamOptimizer(logger.GetLogger()).
		WithNodeBudget(cfg.MaxSolverNodes).
		WithRelaxationBound(cfg.RelaxationBound)

	return &TeamBuilder{
		pools:         pools,
		cache:         cache,
		optimizer:     opt,
		timeout:       cfg.SolveTimeout(),
		maxPoolSize:   cfg.MaxPoolSize,
		defaultFormat: format,
		defaults:      defaults,
	}, nil
}

// DefaultConstraints reads the configured squad shape.
func DefaultConstraints(cfg *config.Config) optimizer.ConstraintSet {
	return optimizer.ConstraintSet{
		SquadSize:        cfg.DefaultSquadSize,
		MaxForeign:       cfg.DefaultMaxForeign,
		MinBatters:       cfg.DefaultMinBatters,
		MinBowlers:       cfg.DefaultMinBowlers,
		MinAllRounders:   cfg.DefaultMinAllRounders,
		MinWicketKeepers: cfg.DefaultMinWicketKeepers,
	}
}

// NewRequest returns an empty request whose constraints start from a copy
// of the defaults.
func (b *TeamBuilder) NewRequest() BuildRequest {
	cs := b.defaults
	return BuildRequest{Constraints: &cs}
}

// Defaults returns the constraint set applied when a request has none.
func (b *TeamBuilder) Defaults() optimizer.ConstraintSet {
	return b.defaults
}

// ResolveFormat applies the configured default to an empty format.
func (b *TeamBuilder) ResolveFormat(raw string) (models.Format, error) {
	if raw == "" {
		return b.defaultFormat, nil
	}
	return models.ParseFormat(raw)
}

// Score validates candidates and computes their impacts.
func (b *TeamBuilder) Score(candidates []models.Candidate, rawFormat string) ([]scoring.ScoredCandidate, models.Format, error) {
	format, err := b.ResolveFormat(rawFormat)
	if err != nil {
		return nil, "", err
	}
	if err := b.checkPool(candidates); err != nil {
		return nil, "", err
	}
	return scoring.Score(candidates, format), format, nil
}

// Build scores the candidates and selects the best squad. Infeasible
// constraint sets are a normal result; the error covers invalid input
// (models.ErrInvalidInput, models.ErrPoolNotFound) and solver failures
// (optimizer.ErrSolverFailure).
func (b *TeamBuilder) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	candidates, err := b.resolveCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	scored, format, err := b.Score(candidates, req.Format)
	if err != nil {
		return nil, err
	}

	cs := b.defaults
	if req.Constraints != nil {
		cs = *req.Constraints
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}

	result := &BuildResult{
		OptimizationID: uuid.New().String(),
		Format:         format,
		Constraints:    cs,
		Scored:         scored,
	}
	log := logger.WithOptimizationContext(ctx, result.OptimizationID, string(format), len(candidates))

	key, err := CacheKey(candidates, format, cs)
	if err != nil {
		return nil, err
	}

	if cached, ok := b.cache.Get(ctx, key); ok {
		outcome, err := rebind(scored, cached)
		if err == nil {
			result.Outcome = outcome
			result.Cached = true
			b.summarize(result)
			log.WithField("status", outcome.Status).Info("Served optimization from cache")
			return result, nil
		}
		log.WithError(err).Warn("Ignoring stale cache entry")
	}

	solveCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	outcome, err := b.optimizer.Select(solveCtx, scored, cs)
	if err != nil {
		log.WithError(err).Error("Team optimization failed")
		return nil, err
	}
	result.Outcome = outcome
	b.summarize(result)

	if err := b.cache.Set(ctx, key, outcome); err != nil {
		log.WithError(err).Warn("Failed to cache optimization outcome")
	}

	fields := logrus.Fields{
		"status":      outcome.Status,
		"transitions": outcome.Stats.Transitions,
		"elapsed":     outcome.Stats.Elapsed,
	}
	if outcome.Feasible() {
		fields["total_impact"] = outcome.Selection.TotalImpact
	} else {
		fields["violations"] = outcome.Infeasible.Constraints()
	}
	log.WithFields(fields).Info("Team optimization completed")

	return result, nil
}

func (b *TeamBuilder) resolveCandidates(ctx context.Context, req BuildRequest) ([]models.Candidate, error) {
	switch {
	case req.PoolID != nil && len(req.Candidates) > 0:
		return nil, &models.ValidationError{Index: -1, Field: "pool_id", Reason: "give either pool_id or candidates, not both"}
	case req.PoolID != nil:
		if b.pools == nil {
			return nil, &models.ValidationError{Index: -1, Field: "pool_id", Reason: "stored pools are not available"}
		}
		pool, err := b.pools.GetPool(ctx, *req.PoolID)
		if err != nil {
			return nil, err
		}
		return pool.Candidates, nil
	}
	return req.Candidates, nil
}

func (b *TeamBuilder) checkPool(candidates []models.Candidate) error {
	if b.maxPoolSize > 0 && len(candidates) > b.maxPoolSize {
		return &models.ValidationError{
			Index:  -1,
			Field:  "candidates",
			Reason: fmt.Sprintf("pool of %d exceeds the limit of %d", len(candidates), b.maxPoolSize),
		}
	}
	return models.ValidateCandidates(candidates)
}

func (b *TeamBuilder) summarize(result *BuildResult) {
	if result.Outcome.Feasible() {
		summary := report.Summarize(result.Outcome.Selection)
		result.Summary = &summary
	}
}

func rebind(scored []scoring.ScoredCandidate, cached *CachedOutcome) (*optimizer.Outcome, error) {
	outcome := &optimizer.Outcome{
		Status:     cached.Status,
		Infeasible: cached.Infeasible,
		Stats:      cached.Stats,
	}
	switch cached.Status {
	case optimizer.StatusOptimal:
		selection, err := optimizer.NewSelection(scored, cached.Indices)
		if err != nil {
			return nil, err
		}
		outcome.Selection = selection
	case optimizer.StatusInfeasible:
		if cached.Infeasible == nil {
			return nil, fmt.Errorf("cached infeasible outcome has no diagnosis")
		}
	default:
		return nil, fmt.Errorf("unknown cached status %q", cached.Status)
	}
	return outcome, nil
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/optimizer"
)

const cacheKeyPrefix = "bestxi:optimize:"

// CachedOutcome is the persisted form of an optimizer outcome. Selections
// are stored as pool indices and rebound to a freshly scored pool on read.
type CachedOutcome struct {
	Status     optimizer.Status            `json:"status"`
	Indices    []int                       `json:"indices,omitempty"`
	Infeasible *optimizer.InfeasibleReport `json:"infeasible,omitempty"`
	Stats      optimizer.SolveStats        `json:"stats"`
	StoredAt   time.Time                   `json:"stored_at"`
}

// ResultCache stores optimizer outcomes in Redis behind a circuit breaker.
// A nil *ResultCache is a valid, always-missing cache.
type ResultCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
	logger  *logrus.Entry
}

// NewResultCache wraps client. The breaker opens after threshold
// consecutive Redis failures and lets a probe through after openTimeout.
func NewResultCache(client *redis.Client, ttl time.Duration, threshold int, openTimeout time.Duration, logger *logrus.Logger) *ResultCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if threshold <= 0 {
		threshold = 1
	}
	entry := logger.WithField("component", "result_cache")

	settings := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			entry.WithFields(logrus.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &ResultCache{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		ttl:     ttl,
		logger:  entry,
	}
}

// Get returns the cached outcome for key. Misses, Redis errors and an
// open breaker all report ok=false.
func (c *ResultCache) Get(ctx context.Context, key string) (*CachedOutcome, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("cache_key", key).Warn("Result cache read failed")
		}
		return nil, false
	}

	var cached CachedOutcome
	if err := json.Unmarshal(raw.([]byte), &cached); err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Discarding malformed cache entry")
		return nil, false
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key": key,
		"status":    cached.Status,
	}).Debug("Retrieved optimization outcome from cache")
	return &cached, true
}

// Set stores an outcome under key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, outcome *optimizer.Outcome) error {
	if c == nil || outcome == nil {
		return nil
	}

	cached := CachedOutcome{
		Status:     outcome.Status,
		Infeasible: outcome.Infeasible,
		Stats:      outcome.Stats,
		StoredAt:   time.Now().UTC(),
	}
	if outcome.Selection != nil {
		cached.Indices = outcome.Selection.Indices
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal optimization outcome: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, cacheKeyPrefix+key, data, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to cache optimization outcome: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  key,
		"expiration": c.ttl,
	}).Debug("Cached optimization outcome")
	return nil
}

// Ping reports whether Redis is reachable.
func (c *ResultCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// State exposes the breaker state for health reporting.
func (c *ResultCache) State() gobreaker.State {
	if c == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

// CacheKey fingerprints an optimization request. Storage identity (row
// ids, pool membership) is excluded, so the same roster hashes the same
// whether it arrived inline or from a stored pool.
func CacheKey(candidates []models.Candidate, format models.Format, cs optimizer.ConstraintSet) (string, error) {
	stripped := make([]models.Candidate, len(candidates))
	for i, c := range candidates {
		c.ID = 0
		stripped[i] = c
	}

	payload, err := json.Marshal(struct {
		Format      models.Format           `json:"format"`
		Constraints optimizer.ConstraintSet `json:"constraints"`
		Candidates  []models.Candidate      `json:"candidates"`
	}{format, cs, stripped})
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint request: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

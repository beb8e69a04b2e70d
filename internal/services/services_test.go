package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/pkg/config"
	"github.com/stitts-dev/bestxi/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                     "test",
		CacheTTL:                time.Hour,
		OptimizationTimeout:     30,
		MaxPoolSize:             100,
		CircuitBreakerThreshold: 2,
		DefaultSquadSize:        11,
		DefaultMaxForeign:       4,
		DefaultMinBatters:       3,
		DefaultMinBowlers:       3,
		DefaultMinAllRounders:   2,
		DefaultMinWicketKeepers: 1,
		DefaultFormat:           "T20",
	}
}

// squad is sixteen candidates: six batters, five bowlers, three
// all-rounders and two keepers, every third one overseas.
func squad() []models.Candidate {
	var out []models.Candidate
	add := func(role models.Role, n int) {
		for i := 0; i < n; i++ {
			pos := len(out)
			c := models.Candidate{
				Name:      fmt.Sprintf("%s-%d", role, i),
				Role:      role,
				IsForeign: pos%3 == 0,
			}
			if role.Bats() {
				c.Runs = 300 + 45*pos
				c.Innings = 10
				c.BallsFaced = 250 + 5*pos
				c.StrikeRate = 118 + float64(pos)
				c.Fours = 20 + pos
				c.Sixes = 5 + pos%4
			}
			if role.Bowls() {
				c.Wickets = 8 + pos%7
				c.BallsBowled = 240
				c.RunsConceded = 290 + 3*pos
				c.Economy = 7.2 + float64(pos%5)/10
				c.DotBalls = 90 + pos
			}
			out = append(out, c)
		}
	}
	add(models.RoleBatter, 6)
	add(models.RoleBowler, 5)
	add(models.RoleAllRounder, 3)
	add(models.RoleWicketKeeper, 2)
	return out
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newCache(t *testing.T, client *redis.Client, threshold int) *ResultCache {
	return NewResultCache(client, time.Hour, threshold, time.Minute, logger.NewDiscardLogger())
}

type memoryPools map[uuid.UUID]*models.Pool

func (m memoryPools) GetPool(_ context.Context, id uuid.UUID) (*models.Pool, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", models.ErrPoolNotFound, id)
}

func init() {
	logger.Logger = logger.NewDiscardLogger()
}

// Package store persists candidate pools so optimizations can be re-run
// against a saved roster.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/pkg/database"
	"github.com/stitts-dev/bestxi/pkg/logger"
)

const insertBatchSize = 200

// PoolSummary is a pool without its candidates.
type PoolSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CandidateCount int64     `json:"candidate_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PoolStore is the gorm-backed repository for pools and their candidates.
type PoolStore struct {
	db *database.DB
}

func NewPoolStore(db *database.DB) *PoolStore {
	return &PoolStore{db: db}
}

func poolLog(id uuid.UUID) *logrus.Entry {
	return logger.WithPoolContext(id.String()).WithField("component", "pool_store")
}

// CreatePool validates and stores a new pool. Candidate order is kept as
// given and is the order GetPool returns.
func (s *PoolStore) CreatePool(ctx context.Context, name string, candidates []models.Candidate) (*models.Pool, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &models.ValidationError{Index: -1, Field: "name", Reason: "must not be blank"}
	}
	if err := models.ValidateCandidates(candidates); err != nil {
		return nil, err
	}

	pool := &models.Pool{Name: strings.TrimSpace(name)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pool).Error; err != nil {
			return fmt.Errorf("failed to create pool: %w", err)
		}
		return insertCandidates(tx, pool.ID, 0, candidates)
	})
	if err != nil {
		return nil, err
	}

	poolLog(pool.ID).WithField("candidates", len(candidates)).Info("Pool created")

	return s.GetPool(ctx, pool.ID)
}

// GetPool loads a pool and its candidates in insertion order.
func (s *PoolStore) GetPool(ctx context.Context, id uuid.UUID) (*models.Pool, error) {
	var pool models.Pool
	err := s.db.WithContext(ctx).
		Preload("Candidates", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&pool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrPoolNotFound, id)
		}
		return nil, fmt.Errorf("failed to load pool %s: %w", id, err)
	}
	return &pool, nil
}

// ListPools returns every pool, newest first, with candidate counts.
func (s *PoolStore) ListPools(ctx context.Context) ([]PoolSummary, error) {
	var pools []models.Pool
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	var counts []struct {
		PoolID uuid.UUID
		Total  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Select("pool_id, count(*) as total").
		Group("pool_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count candidates: %w", err)
	}
	byPool := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byPool[c.PoolID] = c.Total
	}

	summaries := make([]PoolSummary, len(pools))
	for i, p := range pools {
		summaries[i] = PoolSummary{
			ID:             p.ID,
			Name:           p.Name,
			CandidateCount: byPool[p.ID],
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		}
	}
	return summaries, nil
}

// AddCandidates appends candidates after the pool's existing ones.
func (s *PoolStore) AddCandidates(ctx context.Context, id uuid.UUID, candidates []models.Candidate) (*models.Pool, error) {
	if err := models.ValidateCandidates(candidates); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pool models.Pool
		if err := tx.Where("id = ?", id).First(&pool).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", models.ErrPoolNotFound, id)
			}
			return fmt.Errorf("failed to load pool %s: %w", id, err)
		}

		var existing int64
		if err := tx.Model(&models.Candidate{}).Where("pool_id = ?", id).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to count candidates: %w", err)
		}
		if err := insertCandidates(tx, id, int(existing), candidates); err != nil {
			return err
		}
		return tx.Model(&pool).Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, err
	}

	poolLog(id).WithField("added", len(candidates)).Info("Candidates added to pool")

	return s.GetPool(ctx, id)
}

// DeletePool removes a pool and its candidates.
func (s *PoolStore) DeletePool(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pool_id = ?", id).Delete(&models.Candidate{}).Error; err != nil {
			return fmt.Errorf("failed to delete candidates: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Pool{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete pool: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", models.ErrPoolNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	poolLog(id).Info("Pool deleted")
	return nil
}

func insertCandidates(tx *gorm.DB, poolID uuid.UUID, offset int, candidates []models.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	rows := make([]models.Candidate, len(candidates))
	for i, c := range candidates {
		c.ID = 0
		c.PoolID = poolID
		c.Position = offset + i
		rows[i] = c
	}
	if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to insert candidates: %w", err)
	}
	return nil
}

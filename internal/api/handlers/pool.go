package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stitts-dev/bestxi/internal/ingest"
	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/store"
	"github.com/stitts-dev/bestxi/pkg/utils"
)

// PoolRepository is the storage the pool endpoints need.
type PoolRepository interface {
	CreatePool(ctx context.Context, name string, candidates []models.Candidate) (*models.Pool, error)
	GetPool(ctx context.Context, id uuid.UUID) (*models.Pool, error)
	ListPools(ctx context.Context) ([]store.PoolSummary, error)
	AddCandidates(ctx context.Context, id uuid.UUID, candidates []models.Candidate) (*models.Pool, error)
	DeletePool(ctx context.Context, id uuid.UUID) error
}

type PoolHandler struct {
	pools       PoolRepository
	maxPoolSize int
}

func NewPoolHandler(pools PoolRepository, maxPoolSize int) *PoolHandler {
	return &PoolHandler{pools: pools, maxPoolSize: maxPoolSize}
}

type createPoolRequest struct {
	Name       string             `json:"name" binding:"required"`
	Candidates []models.Candidate `json:"candidates"`
}

// CreatePool stores a named roster
func (h *PoolHandler) CreatePool(c *gin.Context) {
	var req createPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if !h.checkSize(c, 0, len(req.Candidates)) {
		return
	}
	if err := ingest.Normalize(req.Candidates); err != nil {
		sendServiceError(c, err)
		return
	}

	pool, err := h.pools.CreatePool(c.Request.Context(), req.Name, req.Candidates)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendCreated(c, pool)
}

// ListPools returns every stored pool without candidates
func (h *PoolHandler) ListPools(c *gin.Context) {
	pools, err := h.pools.ListPools(c.Request.Context())
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccessWithMeta(c, pools, &utils.Meta{Total: int64(len(pools))})
}

// GetPool returns a pool with its candidates
func (h *PoolHandler) GetPool(c *gin.Context) {
	id, ok := poolID(c)
	if !ok {
		return
	}
	pool, err := h.pools.GetPool(c.Request.Context(), id)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, pool)
}

// DeletePool removes a pool and its candidates
func (h *PoolHandler) DeletePool(c *gin.Context) {
	id, ok := poolID(c)
	if !ok {
		return
	}
	if err := h.pools.DeletePool(c.Request.Context(), id); err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": id})
}

// AddCandidates appends a JSON array of candidates to a pool
func (h *PoolHandler) AddCandidates(c *gin.Context) {
	id, ok := poolID(c)
	if !ok {
		return
	}
	candidates, err := ingest.ReadJSON(c.Request.Body)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	h.appendCandidates(c, id, candidates)
}

// ImportCSV appends candidates from a player sheet, sent either as the
// "file" field of a multipart form or as a raw text/csv body.
func (h *PoolHandler) ImportCSV(c *gin.Context) {
	id, ok := poolID(c)
	if !ok {
		return
	}

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			utils.SendValidationError(c, "Missing CSV upload", err.Error())
			return
		}
		file, err := header.Open()
		if err != nil {
			utils.SendValidationError(c, "Unreadable CSV upload", err.Error())
			return
		}
		defer file.Close()
		body = file
	}

	candidates, err := ingest.ReadCSV(body)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	h.appendCandidates(c, id, candidates)
}

func (h *PoolHandler) appendCandidates(c *gin.Context, id uuid.UUID, candidates []models.Candidate) {
	existing, err := h.pools.GetPool(c.Request.Context(), id)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	if !h.checkSize(c, len(existing.Candidates), len(candidates)) {
		return
	}

	pool, err := h.pools.AddCandidates(c.Request.Context(), id, candidates)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, pool)
}

func (h *PoolHandler) checkSize(c *gin.Context, existing, added int) bool {
	if h.maxPoolSize > 0 && existing+added > h.maxPoolSize {
		utils.SendValidationError(c, "Pool too large", fmt.Sprintf("pools are limited to %d candidates", h.maxPoolSize))
		return false
	}
	return true
}

func poolID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid pool ID", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

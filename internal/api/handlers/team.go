package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/bestxi/internal/ingest"
	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/report"
	"github.com/stitts-dev/bestxi/internal/services"
	"github.com/stitts-dev/bestxi/pkg/utils"
)

type TeamHandler struct {
	builder *services.TeamBuilder
}

func NewTeamHandler(builder *services.TeamBuilder) *TeamHandler {
	return &TeamHandler{builder: builder}
}

type scoreRequest struct {
	Candidates []models.Candidate `json:"candidates" binding:"required"`
	Format     string             `json:"format"`
}

// ScoreCandidates computes impact scores without selecting a squad
func (h *TeamHandler) ScoreCandidates(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if err := ingest.Normalize(req.Candidates); err != nil {
		sendServiceError(c, err)
		return
	}

	scored, format, err := h.builder.Score(req.Candidates, req.Format)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{
		"format": format,
		"scored": scored,
	})
}

// OptimizeTeam selects the highest-impact squad. An infeasible constraint
// set answers 422 with the diagnosis.
func (h *TeamHandler) OptimizeTeam(c *gin.Context) {
	result, ok := h.build(c)
	if !ok {
		return
	}
	if !result.Outcome.Feasible() {
		utils.SendInfeasible(c, result.Outcome.Infeasible.Summary, result)
		return
	}
	utils.SendSuccessWithMeta(c, result, &utils.Meta{Cached: result.Cached})
}

// ExportTeam runs the same selection and returns the squad as a CSV sheet.
func (h *TeamHandler) ExportTeam(c *gin.Context) {
	result, ok := h.build(c)
	if !ok {
		return
	}
	if !result.Outcome.Feasible() {
		utils.SendInfeasible(c, result.Outcome.Infeasible.Summary, result.Outcome.Infeasible)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, result.Outcome.Selection, time.Now().UTC()); err != nil {
		sendServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="best_xi_team.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GetDefaultConstraints returns the squad shape used when a request has none
func (h *TeamHandler) GetDefaultConstraints(c *gin.Context) {
	utils.SendSuccess(c, h.builder.Defaults())
}

func (h *TeamHandler) build(c *gin.Context) (*services.BuildResult, bool) {
	req := h.builder.NewRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return nil, false
	}
	if err := ingest.Normalize(req.Candidates); err != nil {
		sendServiceError(c, err)
		return nil, false
	}

	result, err := h.builder.Build(c.Request.Context(), req)
	if err != nil {
		sendServiceError(c, err)
		return nil, false
	}
	return result, true
}

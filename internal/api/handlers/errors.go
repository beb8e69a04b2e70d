package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/bestxi/internal/models"
	"github.com/stitts-dev/bestxi/internal/optimizer"
	"github.com/stitts-dev/bestxi/pkg/utils"
)

// sendServiceError maps domain errors onto API error responses.
func sendServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, models.ErrPoolNotFound):
		utils.SendNotFound(c, "Pool not found")
	case errors.Is(err, models.ErrInvalidInput):
		utils.SendValidationError(c, "Invalid input", err.Error())
	case errors.Is(err, optimizer.ErrSolverFailure):
		utils.SendOptimizationError(c, "Optimization did not complete", err.Error())
	default:
		utils.SendInternalError(c, "Unexpected error")
	}
}

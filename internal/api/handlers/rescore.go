package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Rescorer recomputes scores for every listing with a stored analysis.
type Rescorer interface {
	RescoreAll(ctx context.Context) (int, error)
}

// RescoreHandler handles re-scoring requests.
type RescoreHandler struct {
	rescorer Rescorer
}

// NewRescoreHandler creates a new RescoreHandler.
func NewRescoreHandler(r Rescorer) *RescoreHandler {
	return &RescoreHandler{rescorer: r}
}

// Rescore handles POST /api/v1/rescore.
//
// @Summary Re-score all listings
// @Description Recomputes composite scores for every listing with a stored analysis, using the current configuration.
// @Tags scoring
// @Produce json
// @Success 200 {object} map[string]any "rescored count"
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/rescore [post]
func (h *RescoreHandler) Rescore(c echo.Context) error {
	rescored, err := h.rescorer.RescoreAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "rescore failed: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"rescored": rescored,
	})
}

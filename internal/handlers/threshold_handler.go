package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "hawltrack/internal/errors"
	"hawltrack/internal/pricing"
	"hawltrack/internal/services"
)

// ThresholdResolver resolves the current Nisab threshold for a basis.
type ThresholdResolver interface {
	GetNisabThreshold(ctx context.Context, basis pricing.Metal) pricing.Threshold
}

// ThresholdHandler serves the current Nisab threshold.
type ThresholdHandler struct {
	prices      ThresholdResolver
	userService services.UserServicer
}

// NewThresholdHandler creates a new ThresholdHandler
func NewThresholdHandler(prices ThresholdResolver, userService services.UserServicer) *ThresholdHandler {
	return &ThresholdHandler{prices: prices, userService: userService}
}

// GetThreshold returns the current Nisab threshold
// @Summary     Get the current Nisab threshold
// @Description Resolve the threshold for a basis; the source field flags cached or fallback prices
// @Tags        nisab
// @Produce     json
// @Security    BearerAuth
// @Param       basis query string false "gold or silver; defaults to the user's setting"
// @Success     200 {object} map[string]any "Threshold with source advisory"
// @Failure     400 {object} ErrorResponse "Invalid basis"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /nisab/threshold [get]
func (h *ThresholdHandler) GetThreshold(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	basis := c.Query("basis")
	if basis == "" {
		user, err := h.userService.GetUserByID(userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		basis = string(user.NisabBasis)
	}
	if basis != string(pricing.MetalGold) && basis != string(pricing.MetalSilver) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "basis must be gold or silver"))
		return
	}

	threshold := h.prices.GetNisabThreshold(c.Request.Context(), pricing.Metal(basis))

	body := gin.H{"threshold": threshold}
	// Degraded prices are an advisory, never an error.
	if threshold.Source != pricing.SourceLive {
		body["advisory"] = "threshold computed from a " + string(threshold.Source) + " price; verify before relying on it"
	}
	c.JSON(http.StatusOK, body)
}

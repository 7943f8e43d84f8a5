package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "hawltrack/internal/errors"
	"hawltrack/internal/hijri"
	"hawltrack/internal/logger"
	"hawltrack/internal/models"
)

// ErrorResponse is the standard error envelope, documented for Swagger.
type ErrorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	return userID.(string), nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, message and details.
// Otherwise it logs the unexpected error and returns a generic internal error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		body := gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		c.JSON(appErr.StatusCode, gin.H{"error": body})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"dates must be YYYY-MM-DD or RFC 3339")
	}
	return t.UTC(), nil
}

// recordResponse renders a record with ISO dates, their Hijri counterparts
// and decrypted notes.
func recordResponse(record *models.NisabYearRecord, notes string) gin.H {
	body := gin.H{
		"id":                         record.ID,
		"status":                     record.Status,
		"hawl_start_date":            record.HawlStartDate.UTC().Format(time.RFC3339),
		"hawl_start_date_hijri":      hijri.Format(record.HawlStartDate),
		"hawl_completion_date":       record.HawlCompletionDate.UTC().Format(time.RFC3339),
		"hawl_completion_date_hijri": hijri.Format(record.HawlCompletionDate),
		"hijri_year":                 record.HijriYear,
		"nisab_basis":                record.NisabBasis,
		"nisab_threshold_at_start":   record.NisabThresholdAtStart,
		"threshold_source":           record.ThresholdSource,
		"methodology_used":           record.MethodologyUsed,
		"user_notes":                 notes,
		"created_at":                 record.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":                 record.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if record.InterruptedAt != nil {
		body["interrupted_at"] = record.InterruptedAt.UTC().Format(time.RFC3339)
	}
	if record.FinalizedAt != nil {
		body["finalized_at"] = record.FinalizedAt.UTC().Format(time.RFC3339)
	}
	if record.ZakatableWealth.Valid {
		body["total_wealth"] = record.TotalWealth.Decimal
		body["total_liabilities"] = record.TotalLiabilities.Decimal
		body["zakatable_wealth"] = record.ZakatableWealth.Decimal
		body["zakat_amount"] = record.ZakatAmount.Decimal
	}
	if record.AssetBreakdown != "" {
		var breakdown []json.RawMessage
		if err := json.Unmarshal([]byte(record.AssetBreakdown), &breakdown); err == nil {
			body["asset_breakdown"] = breakdown
		}
	}
	return body
}

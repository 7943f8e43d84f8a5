package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hawltrack/internal/errors"
	"hawltrack/internal/models"
	"hawltrack/internal/pagination"
	"hawltrack/internal/services"
)

// RecordHandler handles Nisab year record requests.
type RecordHandler struct {
	lifecycle services.LifecycleServicer
	audit     services.AuditServicer
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(lifecycle services.LifecycleServicer, audit services.AuditServicer) *RecordHandler {
	return &RecordHandler{lifecycle: lifecycle, audit: audit}
}

// CreateRecordRequest is a manual/historical record create payload.
type CreateRecordRequest struct {
	HawlStartDate   string `json:"hawl_start_date" binding:"required"`
	NisabBasis      string `json:"nisab_basis" binding:"required,nisab_basis"`
	NisabThreshold  string `json:"nisab_threshold" binding:"required"`
	MethodologyUsed string `json:"methodology_used" binding:"max=100"`
	UserNotes       string `json:"user_notes" binding:"max=10000"`
}

// UpdateRecordRequest carries the editable fields; omitted fields are unchanged.
type UpdateRecordRequest struct {
	HawlStartDate   *string `json:"hawl_start_date"`
	MethodologyUsed *string `json:"methodology_used" binding:"omitempty,max=100"`
	UserNotes       *string `json:"user_notes" binding:"omitempty,max=10000"`
}

// FinalizeRequest is the finalize payload.
type FinalizeRequest struct {
	Override bool `json:"override"`
}

// UnlockRequest is the unlock payload.
type UnlockRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListRecords returns the user's records
// @Summary     List Nisab year records
// @Description List the authenticated user's records, newest Hawl first
// @Tags        records
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "Filter by status (DRAFT, FINALIZED, UNLOCKED)"
// @Param       year query int false "Filter by Hijri year"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]any "Paginated records"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /records [get]
func (h *RecordHandler) ListRecords(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.RecordFilter
	if raw := c.Query("status"); raw != "" {
		status := models.RecordStatus(raw)
		if status != models.StatusDraft && status != models.StatusFinalized && status != models.StatusUnlocked {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be DRAFT, FINALIZED or UNLOCKED"))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a Hijri year number"))
			return
		}
		filter.HijriYear = &year
	}

	result, err := h.lifecycle.ListRecords(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data := make([]gin.H, 0, len(result.Data))
	for i := range result.Data {
		notes, err := h.lifecycle.Notes(&result.Data[i])
		if err != nil {
			respondWithError(c, err)
			return
		}
		data = append(data, recordResponse(&result.Data[i], notes))
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        data,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total_items": result.TotalItems,
		"total_pages": result.TotalPages,
	})
}

// GetRecord returns one record with its full audit trail
// @Summary     Get a Nisab year record
// @Description Get a record with its complete, decrypted audit trail
// @Tags        records
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Record ID"
// @Success     200 {object} map[string]any "Record with audit trail"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Router      /records/{id} [get]
func (h *RecordHandler) GetRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.lifecycle.GetRecord(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	notes, err := h.lifecycle.Notes(record)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entries, err := h.audit.ListForRecord(record.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	trail := make([]gin.H, 0, len(entries))
	for i := range entries {
		reason, changes, err := h.audit.OpenPayloads(&entries[i])
		if err != nil {
			respondWithError(c, err)
			return
		}
		trail = append(trail, gin.H{
			"id":            entries[i].ID,
			"event_type":    entries[i].EventType,
			"actor_user_id": entries[i].ActorUserID,
			"timestamp":     entries[i].Timestamp,
			"reason":        reason,
			"changes":       changes,
			"before_state":  entries[i].BeforeState,
			"after_state":   entries[i].AfterState,
		})
	}

	body := recordResponse(record, notes)
	body["audit_trail"] = trail
	c.JSON(http.StatusOK, body)
}

// CreateRecord creates a manual or historical record
// @Summary     Create a record manually
// @Description Create a draft record for a manually tracked or historical Hawl
// @Tags        records
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecordRequest true "Record data"
// @Success     201 {object} map[string]any "Created record"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate draft"
// @Router      /records [post]
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	start, err := parseDate(req.HawlStartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	threshold, err := decimal.NewFromString(req.NisabThreshold)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "nisab_threshold must be a decimal number"))
		return
	}

	record, err := h.lifecycle.CreateManual(userID, services.ManualRecordInput{
		HawlStartDate:   start,
		NisabBasis:      models.NisabBasis(req.NisabBasis),
		NisabThreshold:  threshold,
		MethodologyUsed: req.MethodologyUsed,
		UserNotes:       req.UserNotes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, recordResponse(record, req.UserNotes))
}

// UpdateRecord edits a DRAFT or UNLOCKED record
// @Summary     Update a record
// @Description Edit record fields; finalized records must be unlocked first
// @Tags        records
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Record ID"
// @Param       request body UpdateRecordRequest true "Fields to change"
// @Success     200 {object} map[string]any "Updated record"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Record locked"
// @Router      /records/{id} [put]
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.UpdateRecordInput{
		MethodologyUsed: req.MethodologyUsed,
		UserNotes:       req.UserNotes,
	}
	if req.HawlStartDate != nil {
		start, err := parseDate(*req.HawlStartDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		input.HawlStartDate = &start
	}

	record, err := h.lifecycle.Update(userID, c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notes, err := h.lifecycle.Notes(record)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, recordResponse(record, notes))
}

// DeleteRecord deletes a DRAFT record
// @Summary     Delete a draft record
// @Description Hard-delete a DRAFT record; its audit trail is kept
// @Tags        records
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Record ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Delete not allowed"
// @Router      /records/{id} [delete]
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.lifecycle.Delete(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// FinalizeRecord finalizes a record
// @Summary     Finalize a record
// @Description Freeze the record's financials; premature finalization needs the override flag
// @Tags        records
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Record ID"
// @Param       request body FinalizeRequest false "Finalize options"
// @Success     200 {object} map[string]any "Finalized record"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Failure     422 {object} ErrorResponse "Hawl not complete"
// @Router      /records/{id}/finalize [post]
func (h *RecordHandler) FinalizeRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FinalizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	record, err := h.lifecycle.Finalize(userID, c.Param("id"), req.Override)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notes, err := h.lifecycle.Notes(record)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, recordResponse(record, notes))
}

// UnlockRecord unlocks a finalized record
// @Summary     Unlock a finalized record
// @Description Reopen a finalized record for edits; the reason is mandatory and audited
// @Tags        records
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Record ID"
// @Param       request body UnlockRequest true "Unlock justification"
// @Success     200 {object} map[string]any "Unlocked record"
// @Failure     400 {object} ErrorResponse "Reason too short"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Router      /records/{id}/unlock [post]
func (h *RecordHandler) UnlockRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	record, err := h.lifecycle.Unlock(userID, c.Param("id"), req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	notes, err := h.lifecycle.Notes(record)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, recordResponse(record, notes))
}

package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hawltrack/internal/crypto"
	apperrors "hawltrack/internal/errors"
	"hawltrack/internal/hijri"
	"hawltrack/internal/models"
	"hawltrack/internal/pagination"
)

// zakatRate is the obligatory rate applied to zakatable wealth.
var zakatRate = decimal.NewFromFloat(0.025)

// minUnlockReasonLen is the shortest acceptable unlock justification.
const minUnlockReasonLen = 10

// lifecycleService owns the record state machine. All mutations commit
// together with exactly one audit entry; a mutation is never observable
// without its audit entry.
type lifecycleService struct {
	db     *gorm.DB
	audit  AuditServicer
	agg    AggregationServicer
	cipher *crypto.FieldCipher
}

// NewLifecycleService creates a new LifecycleServicer.
func NewLifecycleService(db *gorm.DB, audit AuditServicer, agg AggregationServicer, cipher *crypto.FieldCipher) LifecycleServicer {
	return &lifecycleService{db: db, audit: audit, agg: agg, cipher: cipher}
}

// invalidTransition builds the descriptive error for a disallowed state
// change: it names the attempted transition and the valid paths out of
// the current state.
func invalidTransition(from models.RecordStatus, to models.RecordStatus) *apperrors.AppError {
	allowed := from.AllowedNext()
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	msg := fmt.Sprintf("cannot transition record from %s to %s; valid transitions from %s: %s",
		from, to, from, strings.Join(names, ", "))
	return apperrors.WithDetails(apperrors.ErrInvalidTransition, msg, map[string]any{
		"from":      string(from),
		"attempted": string(to),
		"allowed":   names,
	})
}

// stateSnapshot renders the auditable (non-sensitive) fields of a record
// for before/after audit snapshots.
func stateSnapshot(r *models.NisabYearRecord) string {
	if r == nil {
		return ""
	}
	snap := map[string]any{
		"status":                   r.Status,
		"hawl_start_date":          r.HawlStartDate.UTC().Format(time.RFC3339),
		"hawl_completion_date":     r.HawlCompletionDate.UTC().Format(time.RFC3339),
		"nisab_basis":              r.NisabBasis,
		"nisab_threshold_at_start": r.NisabThresholdAtStart,
		"methodology_used":         r.MethodologyUsed,
	}
	if r.InterruptedAt != nil {
		snap["interrupted_at"] = r.InterruptedAt.UTC().Format(time.RFC3339)
	}
	if r.FinalizedAt != nil {
		snap["finalized_at"] = r.FinalizedAt.UTC().Format(time.RFC3339)
	}
	if r.ZakatableWealth.Valid {
		snap["zakatable_wealth"] = r.ZakatableWealth.Decimal
		snap["zakat_amount"] = r.ZakatAmount.Decimal
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return ""
	}
	return string(b)
}

func changesJSON(changes map[string]any) string {
	if len(changes) == 0 {
		return ""
	}
	b, err := json.Marshal(changes)
	if err != nil {
		return ""
	}
	return string(b)
}

// loadOwned fetches a record scoped to its owner. A record that does not
// exist and a record owned by someone else return the same error.
func (s *lifecycleService) loadOwned(tx *gorm.DB, userID, recordID string) (*models.NisabYearRecord, error) {
	var record models.NisabYearRecord
	if err := tx.First(&record, "id = ? AND user_id = ?", recordID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

// CreateDraft opens a new Hawl period for a user. The threshold is locked
// at its current value and never recalculated mid-period; the completion
// date is one Hijri year after the start.
func (s *lifecycleService) CreateDraft(userID string, seed DraftSeed) (*models.NisabYearRecord, error) {
	record := &models.NisabYearRecord{
		UserID:                userID,
		HawlStartDate:         seed.HawlStartDate,
		HawlCompletionDate:    hijri.CompletionDate(seed.HawlStartDate),
		HijriYear:             hijri.Year(seed.HawlStartDate),
		NisabBasis:            seed.NisabBasis,
		NisabThresholdAtStart: seed.NisabThreshold,
		ThresholdSource:       seed.Source,
		Status:                models.StatusDraft,
	}
	return s.createRecord(userID, record, "")
}

// CreateManual records a user-entered (often historical) Hawl period.
func (s *lifecycleService) CreateManual(userID string, in ManualRecordInput) (*models.NisabYearRecord, error) {
	if in.NisabThreshold.IsNegative() || in.NisabThreshold.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "nisab threshold must be positive")
	}

	sealedNotes, err := s.cipher.Seal(in.UserNotes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	record := &models.NisabYearRecord{
		UserID:                userID,
		HawlStartDate:         in.HawlStartDate,
		HawlCompletionDate:    hijri.CompletionDate(in.HawlStartDate),
		HijriYear:             hijri.Year(in.HawlStartDate),
		NisabBasis:            in.NisabBasis,
		NisabThresholdAtStart: in.NisabThreshold,
		ThresholdSource:       "manual",
		Status:                models.StatusDraft,
		MethodologyUsed:       in.MethodologyUsed,
		UserNotes:             sealedNotes,
	}
	return s.createRecord(userID, record, changesJSON(map[string]any{"entry": "manual"}))
}

// createRecord inserts a DRAFT record and its CREATED audit entry in one
// transaction. The partial unique index on (user_id) WHERE status=DRAFT
// backs the one-draft-per-user invariant even under concurrent creates.
func (s *lifecycleService) createRecord(userID string, record *models.NisabYearRecord, changes string) (*models.NisabYearRecord, error) {
	if record.HawlCompletionDate.Before(record.HawlStartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "hawl completion date cannot be before the start date")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateDraft
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.audit.Append(tx, &models.AuditTrailEntry{
			RecordID:    record.ID,
			EventType:   models.AuditCreated,
			ActorUserID: userID,
			Changes:     changes,
			AfterState:  stateSnapshot(record),
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord returns one record scoped to its owner.
func (s *lifecycleService) GetRecord(userID, recordID string) (*models.NisabYearRecord, error) {
	return s.loadOwned(s.db, userID, recordID)
}

// ListRecords returns the user's records, newest Hawl first, optionally
// filtered by status and Hijri year.
func (s *lifecycleService) ListRecords(userID string, page pagination.PageRequest, filter RecordFilter) (*pagination.PageResponse[models.NisabYearRecord], error) {
	page.Defaults()

	base := s.db.Model(&models.NisabYearRecord{}).Where("user_id = ?", userID)
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.HijriYear != nil {
		base = base.Where("hijri_year = ?", *filter.HijriYear)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.NisabYearRecord
	if err := base.Order("hawl_start_date DESC").Scopes(pagination.Paginate(page)).Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ActiveDraft returns the user's DRAFT record, or nil when there is none.
func (s *lifecycleService) ActiveDraft(userID string) (*models.NisabYearRecord, error) {
	var record models.NisabYearRecord
	err := s.db.First(&record, "user_id = ? AND status = ?", userID, models.StatusDraft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

// Update edits record fields. Permitted only while DRAFT or UNLOCKED; a
// FINALIZED record reports RECORD_LOCKED, which is deliberately distinct
// from an invalid-transition error. The locked threshold is never
// editable.
func (s *lifecycleService) Update(userID, recordID string, in UpdateRecordInput) (*models.NisabYearRecord, error) {
	record, err := s.loadOwned(s.db, userID, recordID)
	if err != nil {
		return nil, err
	}
	if !record.Status.Editable() {
		return nil, apperrors.ErrRecordLocked
	}

	before := stateSnapshot(record)
	updates := map[string]any{}
	changed := map[string]any{}

	if in.HawlStartDate != nil {
		completion := hijri.CompletionDate(*in.HawlStartDate)
		if completion.Before(*in.HawlStartDate) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "hawl completion date cannot be before the start date")
		}
		updates["hawl_start_date"] = *in.HawlStartDate
		updates["hawl_completion_date"] = completion
		updates["hijri_year"] = hijri.Year(*in.HawlStartDate)
		changed["hawl_start_date"] = in.HawlStartDate.UTC().Format(time.RFC3339)
	}
	if in.MethodologyUsed != nil {
		updates["methodology_used"] = *in.MethodologyUsed
		changed["methodology_used"] = *in.MethodologyUsed
	}
	if in.UserNotes != nil {
		sealed, err := s.cipher.Seal(*in.UserNotes)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["user_notes"] = sealed
		changed["user_notes"] = "(updated)"
	}
	if len(updates) == 0 {
		return record, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.NisabYearRecord{}).
			Where("id = ? AND status = ?", record.ID, record.Status).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrRecordConflict
		}

		updated, err := s.loadOwned(tx, userID, recordID)
		if err != nil {
			return err
		}
		record = updated

		return s.audit.Append(tx, &models.AuditTrailEntry{
			RecordID:    record.ID,
			EventType:   models.AuditUpdated,
			ActorUserID: userID,
			Changes:     changesJSON(changed),
			BeforeState: before,
			AfterState:  stateSnapshot(record),
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete hard-deletes a DRAFT record. Any other status reports the named
// DELETE_NOT_ALLOWED failure. The audit entry outlives the record.
func (s *lifecycleService) Delete(userID, recordID string) error {
	record, err := s.loadOwned(s.db, userID, recordID)
	if err != nil {
		return err
	}
	if record.Status != models.StatusDraft {
		return apperrors.WithMessage(apperrors.ErrDeleteNotAllowed,
			fmt.Sprintf("cannot delete a %s record; only DRAFT records can be deleted", record.Status))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", record.ID, models.StatusDraft).
			Delete(&models.NisabYearRecord{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrRecordConflict
		}

		return s.audit.Append(tx, &models.AuditTrailEntry{
			RecordID:    record.ID,
			EventType:   models.AuditDeleted,
			ActorUserID: userID,
			BeforeState: stateSnapshot(record),
		})
	})
}

// Finalize moves a DRAFT or UNLOCKED record to FINALIZED, computing and
// freezing the financial fields from the current aggregation. Without the
// override flag, finalizing before the Hawl completion date fails with
// the completion date and remaining days so the caller can decide.
func (s *lifecycleService) Finalize(userID, recordID string, override bool) (*models.NisabYearRecord, error) {
	record, err := s.loadOwned(s.db, userID, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.StatusDraft && record.Status != models.StatusUnlocked {
		return nil, invalidTransition(record.Status, models.StatusFinalized)
	}

	now := time.Now().UTC()
	if now.Before(record.HawlCompletionDate) && !override {
		remaining := hijri.DaysRemaining(now, record.HawlCompletionDate)
		return nil, apperrors.WithDetails(apperrors.ErrHawlNotComplete,
			fmt.Sprintf("the Hawl completes on %s; %d day(s) remaining (pass override to finalize early)",
				record.HawlCompletionDate.Format("2006-01-02"), remaining),
			map[string]any{
				"completion_date":       record.HawlCompletionDate.UTC().Format(time.RFC3339),
				"completion_date_hijri": hijri.Format(record.HawlCompletionDate),
				"days_remaining":        remaining,
			})
	}

	summary, err := s.agg.Aggregate(userID)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.agg.Snapshot(userID)
	if err != nil {
		return nil, err
	}
	breakdownRaw, err := json.Marshal(breakdown)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	before := stateSnapshot(record)
	zakat := summary.ZakatableWealth.Mul(zakatRate).Round(4)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.NisabYearRecord{}).
			Where("id = ? AND status = ?", record.ID, record.Status).
			Updates(map[string]any{
				"status":            models.StatusFinalized,
				"finalized_at":      now,
				"total_wealth":      summary.TotalWealth,
				"total_liabilities": summary.TotalLiabilities,
				"zakatable_wealth":  summary.ZakatableWealth,
				"zakat_amount":      zakat,
				"asset_breakdown":   string(breakdownRaw),
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrRecordConflict
		}

		updated, err := s.loadOwned(tx, userID, recordID)
		if err != nil {
			return err
		}
		record = updated

		return s.audit.Append(tx, &models.AuditTrailEntry{
			RecordID:    record.ID,
			EventType:   models.AuditFinalized,
			ActorUserID: userID,
			Changes: changesJSON(map[string]any{
				"zakatable_wealth": summary.ZakatableWealth,
				"zakat_amount":     zakat,
				"override":         override,
			}),
			BeforeState: before,
			AfterState:  stateSnapshot(record),
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Unlock moves a FINALIZED record back to UNLOCKED so it can be edited
// and re-finalized. The justification is mandatory and stored encrypted
// on the audit entry.
func (s *lifecycleService) Unlock(userID, recordID, reason string) (*models.NisabYearRecord, error) {
	if len(strings.TrimSpace(reason)) < minUnlockReasonLen {
		return nil, apperrors.WithMessage(apperrors.ErrUnlockReasonTooShort,
			fmt.Sprintf("unlock reason must be at least %d characters", minUnlockReasonLen))
	}

	record, err := s.loadOwned(s.db, userID, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.StatusFinalized {
		return nil, invalidTransition(record.Status, models.StatusUnlocked)
	}

	before := stateSnapshot(record)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.NisabYearRecord{}).
			Where("id = ? AND status = ?", record.ID, models.StatusFinalized).
			Update("status", models.StatusUnlocked)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrRecordConflict
		}

		updated, err := s.loadOwned(tx, userID, recordID)
		if err != nil {
			return err
		}
		record = updated

		return s.audit.Append(tx, &models.AuditTrailEntry{
			RecordID:    record.ID,
			EventType:   models.AuditUnlocked,
			ActorUserID: userID,
			Reason:      strings.TrimSpace(reason),
			BeforeState: before,
			AfterState:  stateSnapshot(record),
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MarkInterrupted records that wealth fell below the locked threshold
// mid-Hawl. The record is kept (finalization remains at the user's
// discretion); the drop is audited with the observed wealth.
func (s *lifecycleService) MarkInterrupted(userID, recordID string, at time.Time, wealth decimal.Decimal) error {
	record, err := s.loadOwned(s.db, userID, recordID)
	if err != nil {
		return err
	}
	if record.Status != models.StatusDraft {
		return apperrors.WithMessage(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot interrupt a %s record; only DRAFT records track a running Hawl", record.Status))
	}
	if record.InterruptedAt != nil {
		// Already recorded; the scan is idempotent.
		return nil
	}

	before := stateSnapshot(record)

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.NisabYearRecord{}).
			Where("id = ? AND status = ? AND interrupted_at IS NULL", record.ID, models.StatusDraft).
			Update("interrupted_at", at)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race with another scan run; nothing to record.
			return nil
		}

		updated, err := s.loadOwned(tx, userID, recordID)
		if err != nil {
			return err
		}

		return s.audit.Append(tx, &models.AuditTrailEntry{
			RecordID:    record.ID,
			EventType:   models.AuditInterrupted,
			ActorUserID: userID,
			Changes: changesJSON(map[string]any{
				"zakatable_wealth":         wealth,
				"nisab_threshold_at_start": record.NisabThresholdAtStart,
			}),
			BeforeState: before,
			AfterState:  stateSnapshot(updated),
		})
	})
}

// Notes returns the decrypted user notes of a record.
func (s *lifecycleService) Notes(record *models.NisabYearRecord) (string, error) {
	notes, err := s.cipher.Open(record.UserNotes)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return notes, nil
}

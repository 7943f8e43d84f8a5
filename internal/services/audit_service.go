package services

import (
	"time"

	"gorm.io/gorm"

	"hawltrack/internal/crypto"
	apperrors "hawltrack/internal/errors"
	"hawltrack/internal/models"
)

// auditService is the append-only audit trail store. It exposes Append
// and reads only; entries are never updated or deleted.
type auditService struct {
	db     *gorm.DB
	cipher *crypto.FieldCipher
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, cipher *crypto.FieldCipher) AuditServicer {
	return &auditService{db: db, cipher: cipher}
}

// Append seals the sensitive payloads and writes the entry using the
// caller's transaction handle, so the entry commits with the mutation it
// describes. The entry's Reason and Changes are expected in plaintext.
func (s *auditService) Append(tx *gorm.DB, entry *models.AuditTrailEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	sealedReason, err := s.cipher.Seal(entry.Reason)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	sealedChanges, err := s.cipher.Seal(entry.Changes)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	entry.Reason = sealedReason
	entry.Changes = sealedChanges

	if err := tx.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListForRecord returns all audit entries for a record, oldest first.
func (s *auditService) ListForRecord(recordID string) ([]models.AuditTrailEntry, error) {
	var entries []models.AuditTrailEntry
	err := s.db.Where("record_id = ?", recordID).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}

// OpenPayloads decrypts an entry's sealed reason and changes for display.
func (s *auditService) OpenPayloads(entry *models.AuditTrailEntry) (string, string, error) {
	reason, err := s.cipher.Open(entry.Reason)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	changes, err := s.cipher.Open(entry.Changes)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reason, changes, nil
}

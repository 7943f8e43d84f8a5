package models

import (
	"time"

	"hawltrack/internal/uuid"

	"gorm.io/gorm"
)

// AuditEventType names the lifecycle mutation an audit entry records.
type AuditEventType string

const (
	AuditCreated     AuditEventType = "CREATED"
	AuditUpdated     AuditEventType = "UPDATED"
	AuditFinalized   AuditEventType = "FINALIZED"
	AuditUnlocked    AuditEventType = "UNLOCKED"
	AuditDeleted     AuditEventType = "DELETED"
	AuditInterrupted AuditEventType = "INTERRUPTED"
)

// AuditTrailEntry is one append-only log line for a Nisab year record
// mutation. Entries are written exactly once, inside the same transaction
// as the mutation they describe, and are never updated or deleted — the
// audit store exposes no such operations.
//
// Immutable event data — no Base embed, no soft deletes.
type AuditTrailEntry struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	RecordID    string         `gorm:"type:uuid;not null;index" json:"record_id"`
	EventType   AuditEventType `gorm:"type:varchar(12);not null" json:"event_type"`
	ActorUserID string         `gorm:"type:uuid;not null" json:"actor_user_id"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`

	// Reason and Changes are encrypted at rest (sealed by the caller).
	Reason      string `gorm:"type:text" json:"-"`
	Changes     string `gorm:"type:text" json:"-"`
	BeforeState string `gorm:"type:text" json:"before_state,omitempty"`
	AfterState  string `gorm:"type:text" json:"after_state,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (e *AuditTrailEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	return nil
}

package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hawltrack/internal/models"
	"hawltrack/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	UpdateSettings(userID string, basis *models.NisabBasis, deductLiabilities *bool, currency *string) (*models.User, error)
}

// WealthSummary is the result of aggregating a user's ledger at one moment.
type WealthSummary struct {
	TotalWealth      decimal.Decimal `json:"total_wealth"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	ZakatableWealth  decimal.Decimal `json:"zakatable_wealth"`
}

// BreakdownItem is one ledger item in a point-in-time asset breakdown
// snapshot, frozen onto a record at finalization.
type BreakdownItem struct {
	LedgerItemID string            `json:"ledger_item_id"`
	Name         string            `json:"name"`
	Kind         models.LedgerKind `json:"kind"`
	Category     string            `json:"category,omitempty"`
	Amount       decimal.Decimal   `json:"amount"`
	Zakatable    bool              `json:"zakatable"`
	Deductible   bool              `json:"deductible"`
}

// AggregationServicer sums a user's ledger. Pure reads: no caching, no
// side effects, always the current ledger state.
type AggregationServicer interface {
	Aggregate(userID string) (*WealthSummary, error)
	Snapshot(userID string) ([]BreakdownItem, error)
}

// AuditServicer is the append-only audit trail store. There are no update
// or delete operations — immutability is enforced by omission.
type AuditServicer interface {
	// Append writes one entry inside the caller's transaction, sealing
	// the Reason and Changes payloads. The caller's mutation and its
	// audit entry commit or roll back together.
	Append(tx *gorm.DB, entry *models.AuditTrailEntry) error
	ListForRecord(recordID string) ([]models.AuditTrailEntry, error)
	// OpenPayloads decrypts an entry's reason and changes for display.
	OpenPayloads(entry *models.AuditTrailEntry) (reason, changes string, err error)
}

// RecordFilter holds optional filter parameters for listing records.
type RecordFilter struct {
	Status    *models.RecordStatus
	HijriYear *int
}

// ManualRecordInput is a user-supplied (manual or historical) draft record.
type ManualRecordInput struct {
	HawlStartDate   time.Time
	NisabBasis      models.NisabBasis
	NisabThreshold  decimal.Decimal
	MethodologyUsed string
	UserNotes       string
}

// UpdateRecordInput carries the editable fields of a record. Nil pointers
// leave the field unchanged.
type UpdateRecordInput struct {
	HawlStartDate   *time.Time
	MethodologyUsed *string
	UserNotes       *string
}

// DraftSeed is what the Hawl detection job locks into a new draft record
// at the moment the Nisab threshold is first crossed.
type DraftSeed struct {
	HawlStartDate  time.Time
	NisabBasis     models.NisabBasis
	NisabThreshold decimal.Decimal
	// Source is the price provenance (live, cached, fallback).
	Source string
}

// LifecycleServicer owns the DRAFT → FINALIZED ↔ UNLOCKED state machine.
// It is the only component that writes audit entries; every mutation and
// its audit entry are committed atomically.
type LifecycleServicer interface {
	CreateDraft(userID string, seed DraftSeed) (*models.NisabYearRecord, error)
	CreateManual(userID string, in ManualRecordInput) (*models.NisabYearRecord, error)
	GetRecord(userID, recordID string) (*models.NisabYearRecord, error)
	ListRecords(userID string, page pagination.PageRequest, filter RecordFilter) (*pagination.PageResponse[models.NisabYearRecord], error)
	ActiveDraft(userID string) (*models.NisabYearRecord, error)
	Update(userID, recordID string, in UpdateRecordInput) (*models.NisabYearRecord, error)
	Delete(userID, recordID string) error
	Finalize(userID, recordID string, override bool) (*models.NisabYearRecord, error)
	Unlock(userID, recordID, reason string) (*models.NisabYearRecord, error)
	MarkInterrupted(userID, recordID string, at time.Time, wealth decimal.Decimal) error
	// Notes returns the decrypted user notes of a record.
	Notes(record *models.NisabYearRecord) (string, error)
}

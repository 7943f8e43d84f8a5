package models

import (
	"time"

	"hawltrack/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecordStatus is the lifecycle state of a Nisab year record.
type RecordStatus string

const (
	StatusDraft     RecordStatus = "DRAFT"
	StatusFinalized RecordStatus = "FINALIZED"
	StatusUnlocked  RecordStatus = "UNLOCKED"
)

// AllowedNext returns the states reachable from s. Used to build
// descriptive invalid-transition errors.
func (s RecordStatus) AllowedNext() []RecordStatus {
	switch s {
	case StatusDraft:
		return []RecordStatus{StatusFinalized}
	case StatusFinalized:
		return []RecordStatus{StatusUnlocked}
	case StatusUnlocked:
		return []RecordStatus{StatusFinalized}
	default:
		return nil
	}
}

// Editable reports whether record fields may be updated in this state.
func (s RecordStatus) Editable() bool {
	return s == StatusDraft || s == StatusUnlocked
}

// NisabYearRecord tracks one Hawl period for one user: from the day the
// user's wealth first met the Nisab threshold until finalization one
// lunar year later.
//
// Deliberately no Base embed: deletes are hard deletes (audited, DRAFT
// only) and must not linger as soft-deleted rows that would trip the
// one-active-draft-per-user unique index.
type NisabYearRecord struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	HawlStartDate      time.Time  `gorm:"not null" json:"hawl_start_date"`
	HawlCompletionDate time.Time  `gorm:"not null" json:"hawl_completion_date"`
	HijriYear          int        `json:"hijri_year"`
	InterruptedAt      *time.Time `json:"interrupted_at,omitempty"`
	FinalizedAt        *time.Time `json:"finalized_at,omitempty"`

	// Locked at Hawl start; never recalculated mid-period.
	NisabBasis            NisabBasis      `gorm:"type:varchar(8);not null" json:"nisab_basis"`
	NisabThresholdAtStart decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"nisab_threshold_at_start"`
	ThresholdSource       string          `gorm:"type:varchar(10)" json:"threshold_source"`

	// Null until finalized; frozen copies of the aggregation at that moment.
	TotalWealth      decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"total_wealth"`
	TotalLiabilities decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"total_liabilities"`
	ZakatableWealth  decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"zakatable_wealth"`
	ZakatAmount      decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"zakat_amount"`
	AssetBreakdown   string              `gorm:"type:text" json:"-"`

	Status          RecordStatus `gorm:"type:varchar(10);not null;default:'DRAFT';index" json:"status"`
	MethodologyUsed string       `json:"methodology_used,omitempty"`
	// Encrypted at rest; sealed/opened by the lifecycle service.
	UserNotes string `gorm:"column:user_notes;type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (r *NisabYearRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New()
	}
	return nil
}

// IsActiveDraft reports whether this record is the user's running,
// uninterrupted DRAFT.
func (r *NisabYearRecord) IsActiveDraft() bool {
	return r.Status == StatusDraft && r.InterruptedAt == nil
}

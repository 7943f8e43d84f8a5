package models

import "time"

// NisabBasis selects which metal the Nisab threshold is valued against.
type NisabBasis string

const (
	NisabBasisGold   NisabBasis = "gold"
	NisabBasisSilver NisabBasis = "silver"
)

// User represents the user model in the database. The Zakat-related
// settings here feed the aggregation service and the Hawl detection job:
// NisabBasis picks the threshold metal and DeductLiabilities controls
// whether deductible liabilities reduce zakatable wealth.
type User struct {
	Base
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	Password          string     `gorm:"not null" json:"-"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
	NisabBasis        NisabBasis `gorm:"type:varchar(8);default:'silver'" json:"nisab_basis"`
	DeductLiabilities bool       `gorm:"default:true" json:"deduct_liabilities"`
	Currency          string     `gorm:"size:3;default:'USD'" json:"currency"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`

	LedgerItems []LedgerItem      `gorm:"foreignKey:UserID" json:"ledger_items,omitempty"`
	Records     []NisabYearRecord `gorm:"foreignKey:UserID" json:"records,omitempty"`
}

package models

import "github.com/shopspring/decimal"

// LedgerKind distinguishes assets from liabilities.
type LedgerKind string

const (
	LedgerKindAsset     LedgerKind = "asset"
	LedgerKindLiability LedgerKind = "liability"
)

// LedgerItem is one entry of a user's asset/liability ledger. The Hawl
// engine only ever reads these; ledger maintenance lives elsewhere.
// Amounts are already normalized to the user's reporting currency.
type LedgerItem struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name       string          `gorm:"not null" json:"name"`
	Kind       LedgerKind      `gorm:"type:varchar(10);not null" json:"kind"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Currency   string          `gorm:"size:3;default:'USD'" json:"currency"`
	Zakatable  bool            `gorm:"default:true" json:"zakatable"`
	Deductible bool            `gorm:"default:false" json:"deductible"`
	Notes      string          `json:"notes,omitempty"`
}

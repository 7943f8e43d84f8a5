// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validCurrencies contains the ISO 4217 currency codes accepted as a
// reporting currency.
var validCurrencies = map[string]bool{
	"AED": true, "AUD": true, "BDT": true, "BHD": true, "BND": true,
	"CAD": true, "CHF": true, "CNY": true, "DZD": true, "EGP": true,
	"EUR": true, "GBP": true, "HKD": true, "IDR": true, "INR": true,
	"IQD": true, "JOD": true, "JPY": true, "KWD": true, "LBP": true,
	"LYD": true, "MAD": true, "MYR": true, "NGN": true, "NOK": true,
	"NZD": true, "OMR": true, "PKR": true, "QAR": true, "SAR": true,
	"SEK": true, "SGD": true, "TND": true, "TRY": true, "USD": true,
	"ZAR": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("nisab_basis", validateNisabBasis)
		_ = v.RegisterValidation("record_status", validateRecordStatus)
		_ = v.RegisterValidation("ledger_kind", validateLedgerKind)
	}
}

func validateISO4217(fl validator.FieldLevel) bool {
	return validCurrencies[fl.Field().String()]
}

func validateNisabBasis(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "gold", "silver":
		return true
	}
	return false
}

func validateRecordStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "DRAFT", "FINALIZED", "UNLOCKED":
		return true
	}
	return false
}

func validateLedgerKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "asset", "liability":
		return true
	}
	return false
}

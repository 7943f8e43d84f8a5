package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"hawltrack/internal/crypto"
	"hawltrack/internal/hijri"
	"hawltrack/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, failing the test on bad input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// TestCipher returns a deterministic field cipher for tests.
func TestCipher(t *testing.T) *crypto.FieldCipher {
	t.Helper()
	return crypto.NewDevFieldCipher("hawltrack-test")
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email and the
// default Zakat settings (silver basis, liabilities deducted, USD).
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:             email,
		Password:          string(hash),
		IsActive:          true,
		NisabBasis:        models.NisabBasisSilver,
		DeductLiabilities: true,
		Currency:          "USD",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAsset creates a zakatable asset ledger item.
func CreateTestAsset(t *testing.T, db *gorm.DB, userID string, amount string) *models.LedgerItem {
	t.Helper()
	return createLedgerItem(t, db, userID, models.LedgerKindAsset, amount, true, false)
}

// CreateTestNonZakatableAsset creates an asset excluded from the Zakat base
// (for example a primary residence).
func CreateTestNonZakatableAsset(t *testing.T, db *gorm.DB, userID string, amount string) *models.LedgerItem {
	t.Helper()
	return createLedgerItem(t, db, userID, models.LedgerKindAsset, amount, false, false)
}

// CreateTestLiability creates a deductible liability ledger item.
func CreateTestLiability(t *testing.T, db *gorm.DB, userID string, amount string) *models.LedgerItem {
	t.Helper()
	return createLedgerItem(t, db, userID, models.LedgerKindLiability, amount, false, true)
}

func createLedgerItem(t *testing.T, db *gorm.DB, userID string, kind models.LedgerKind, amount string, zakatable, deductible bool) *models.LedgerItem {
	t.Helper()

	item := &models.LedgerItem{
		UserID:     userID,
		Name:       fmt.Sprintf("Test Item %d", nextID()),
		Kind:       kind,
		Amount:     Dec(t, amount),
		Currency:   "USD",
		Zakatable:  zakatable,
		Deductible: deductible,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test ledger item: %v", err)
	}
	return item
}

// CreateTestDraftRecord creates a DRAFT record whose Hawl started one full
// lunar year ago, so the completion date has already passed.
func CreateTestDraftRecord(t *testing.T, db *gorm.DB, userID string, threshold string) *models.NisabYearRecord {
	t.Helper()
	start := time.Now().UTC().AddDate(0, 0, -360)
	return CreateTestDraftRecordStarting(t, db, userID, start, threshold)
}

// CreateTestActiveDraftRecord creates a DRAFT record whose Hawl is still
// running (completion date in the future).
func CreateTestActiveDraftRecord(t *testing.T, db *gorm.DB, userID string, threshold string) *models.NisabYearRecord {
	t.Helper()
	start := time.Now().UTC().AddDate(0, 0, -30)
	return CreateTestDraftRecordStarting(t, db, userID, start, threshold)
}

// CreateTestDraftRecordStarting creates a DRAFT record with the given Hawl
// start date.
func CreateTestDraftRecordStarting(t *testing.T, db *gorm.DB, userID string, start time.Time, threshold string) *models.NisabYearRecord {
	t.Helper()

	record := &models.NisabYearRecord{
		UserID:                userID,
		HawlStartDate:         start,
		HawlCompletionDate:    hijri.CompletionDate(start),
		HijriYear:             hijri.Year(start),
		NisabBasis:            models.NisabBasisSilver,
		NisabThresholdAtStart: Dec(t, threshold),
		ThresholdSource:       "fallback",
		Status:                models.StatusDraft,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test draft record: %v", err)
	}
	return record
}

// CreateTestFinalizedRecord creates a FINALIZED record with frozen financials.
func CreateTestFinalizedRecord(t *testing.T, db *gorm.DB, userID string, threshold, zakatable string) *models.NisabYearRecord {
	t.Helper()

	start := time.Now().UTC().AddDate(0, 0, -400)
	now := time.Now().UTC()
	z := Dec(t, zakatable)

	record := &models.NisabYearRecord{
		UserID:                userID,
		HawlStartDate:         start,
		HawlCompletionDate:    hijri.CompletionDate(start),
		HijriYear:             hijri.Year(start),
		NisabBasis:            models.NisabBasisSilver,
		NisabThresholdAtStart: Dec(t, threshold),
		ThresholdSource:       "fallback",
		Status:                models.StatusFinalized,
		FinalizedAt:           &now,
		TotalWealth:           decimal.NullDecimal{Decimal: z, Valid: true},
		TotalLiabilities:      decimal.NullDecimal{Decimal: decimal.Zero, Valid: true},
		ZakatableWealth:       decimal.NullDecimal{Decimal: z, Valid: true},
		ZakatAmount:           decimal.NullDecimal{Decimal: z.Mul(Dec(t, "0.025")).Round(4), Valid: true},
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test finalized record: %v", err)
	}
	return record
}

package hawl_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hawltrack/internal/hawl"
	"hawltrack/internal/models"
	"hawltrack/internal/pricing"
	"hawltrack/internal/services"
	"hawltrack/internal/testutil"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubResolver returns a fixed threshold without touching the network.
type stubResolver struct {
	amount decimal.Decimal
}

func (r *stubResolver) GetNisabThreshold(_ context.Context, basis pricing.Metal) pricing.Threshold {
	return pricing.Threshold{
		Basis:    basis,
		Amount:   r.amount,
		Currency: "USD",
		Source:   pricing.SourceLive,
	}
}

func newScannerFixture(t *testing.T, threshold string) (*gorm.DB, *hawl.Scanner, services.LifecycleServicer) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cipher := testutil.TestCipher(t)
	audit := services.NewAuditService(db, cipher)
	agg := services.NewAggregationService(db)
	lifecycle := services.NewLifecycleService(db, audit, agg, cipher)

	resolver := &stubResolver{amount: testutil.Dec(t, threshold)}
	scanner := hawl.NewScanner(db, resolver, agg, lifecycle, zap.NewNop().Sugar())
	return db, scanner, lifecycle
}

func TestScannerOpensDraftOnCrossing(t *testing.T) {
	db, scanner, lifecycle := newScannerFixture(t, "367.42")
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestAsset(t, db, user.ID, "500.00")

	result, err := scanner.Run(context.Background())
	testutil.AssertNoError(t, err)

	if result.DraftsCreated != 1 {
		t.Fatalf("expected 1 draft created, got %d", result.DraftsCreated)
	}

	draft, err := lifecycle.ActiveDraft(user.ID)
	testutil.AssertNoError(t, err)
	if draft == nil {
		t.Fatal("expected an active draft")
	}
	if !draft.NisabThresholdAtStart.Equal(testutil.Dec(t, "367.42")) {
		t.Errorf("threshold should be locked at scan value, got %s", draft.NisabThresholdAtStart)
	}
	if draft.ThresholdSource != "live" {
		t.Errorf("expected live source, got %s", draft.ThresholdSource)
	}
}

func TestScannerBoundary(t *testing.T) {
	t.Run("wealth equal to threshold crosses", func(t *testing.T) {
		db, scanner, _ := newScannerFixture(t, "367.42")
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestAsset(t, db, user.ID, "367.42")

		result, err := scanner.Run(context.Background())
		testutil.AssertNoError(t, err)
		if result.DraftsCreated != 1 {
			t.Errorf("equality should cross, got %d drafts", result.DraftsCreated)
		}
	})

	t.Run("one cent below does not cross", func(t *testing.T) {
		db, scanner, _ := newScannerFixture(t, "367.42")
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestAsset(t, db, user.ID, "367.41")

		result, err := scanner.Run(context.Background())
		testutil.AssertNoError(t, err)
		if result.DraftsCreated != 0 {
			t.Errorf("below threshold should not cross, got %d drafts", result.DraftsCreated)
		}
	})
}

func TestScannerIdempotence(t *testing.T) {
	db, scanner, _ := newScannerFixture(t, "367.42")
	user := testutil.CreateTestUser(t, db)
	testutil.CreateTestAsset(t, db, user.ID, "500.00")

	first, err := scanner.Run(context.Background())
	testutil.AssertNoError(t, err)
	if first.DraftsCreated != 1 {
		t.Fatalf("expected 1 draft on first run, got %d", first.DraftsCreated)
	}

	second, err := scanner.Run(context.Background())
	testutil.AssertNoError(t, err)
	if second.DraftsCreated != 0 || second.Interruptions != 0 {
		t.Errorf("second run should be a no-op, got %d drafts, %d interruptions",
			second.DraftsCreated, second.Interruptions)
	}
}

func TestScannerInterruption(t *testing.T) {
	db, scanner, lifecycle := newScannerFixture(t, "367.42")
	user := testutil.CreateTestUser(t, db)
	asset := testutil.CreateTestAsset(t, db, user.ID, "500.00")

	_, err := scanner.Run(context.Background())
	testutil.AssertNoError(t, err)

	// Wealth drops below the locked threshold mid-Hawl.
	db.Model(asset).Update("amount", testutil.Dec(t, "100.00"))

	result, err := scanner.Run(context.Background())
	testutil.AssertNoError(t, err)
	if result.Interruptions != 1 {
		t.Fatalf("expected 1 interruption, got %d", result.Interruptions)
	}

	draft, err := lifecycle.ActiveDraft(user.ID)
	testutil.AssertNoError(t, err)
	if draft == nil || draft.InterruptedAt == nil {
		t.Fatal("draft should be kept and marked interrupted")
	}

	// Further runs leave the interrupted draft alone.
	again, err := scanner.Run(context.Background())
	testutil.AssertNoError(t, err)
	if again.Interruptions != 0 || again.DraftsCreated != 0 {
		t.Errorf("interrupted draft should not be re-processed, got %d interruptions, %d drafts",
			again.Interruptions, again.DraftsCreated)
	}
}

func TestScannerMeasuresAgainstLockedThreshold(t *testing.T) {
	db, scanner, lifecycle := newScannerFixture(t, "367.42")
	user := testutil.CreateTestUser(t, db)
	record := testutil.CreateTestDraftRecordStarting(t, db, user.ID,
		time.Now().UTC().AddDate(0, -1, 0), "300.00")
	testutil.CreateTestAsset(t, db, user.ID, "320.00")

	// 320 is below today's 367.42 but above the locked 300.00, so the
	// running Hawl continues.
	result, err := scanner.Run(context.Background())
	testutil.AssertNoError(t, err)
	if result.Interruptions != 0 {
		t.Errorf("wealth above the locked threshold should not interrupt, got %d", result.Interruptions)
	}

	got, err := lifecycle.GetRecord(user.ID, record.ID)
	testutil.AssertNoError(t, err)
	if got.InterruptedAt != nil {
		t.Error("record should not be interrupted")
	}
	if got.Status != models.StatusDraft {
		t.Errorf("record should stay DRAFT, got %s", got.Status)
	}
}

// failingLifecycle breaks ActiveDraft for one user to simulate bad data.
type failingLifecycle struct {
	services.LifecycleServicer
	failUserID string
}

func (f *failingLifecycle) ActiveDraft(userID string) (*models.NisabYearRecord, error) {
	if userID == f.failUserID {
		return nil, errFailingUser
	}
	return f.LifecycleServicer.ActiveDraft(userID)
}

var errFailingUser = errors.New("simulated per-user failure")

func TestScannerIsolatesUserFailures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	cipher := testutil.TestCipher(t)
	audit := services.NewAuditService(db, cipher)
	agg := services.NewAggregationService(db)
	lifecycle := services.NewLifecycleService(db, audit, agg, cipher)

	bad := testutil.CreateTestUser(t, db)
	testutil.CreateTestAsset(t, db, bad.ID, "500.00")
	good := testutil.CreateTestUser(t, db)
	testutil.CreateTestAsset(t, db, good.ID, "500.00")

	resolver := &stubResolver{amount: testutil.Dec(t, "367.42")}
	scanner := hawl.NewScanner(db, resolver,
		agg, &failingLifecycle{LifecycleServicer: lifecycle, failUserID: bad.ID},
		zap.NewNop().Sugar())

	result, err := scanner.Run(context.Background())
	testutil.AssertNoError(t, err)

	if len(result.Errors) != 1 || result.Errors[0].UserID != bad.ID {
		t.Fatalf("expected one scan error for the bad user, got %+v", result.Errors)
	}
	if result.DraftsCreated != 1 {
		t.Errorf("healthy user should still get a draft, got %d", result.DraftsCreated)
	}
	if result.UsersScanned != 2 {
		t.Errorf("both users should be scanned, got %d", result.UsersScanned)
	}
}

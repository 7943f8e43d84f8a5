package services_test

import (
	"testing"
	"time"

	"hawltrack/internal/models"
	"hawltrack/internal/services"
	"hawltrack/internal/testutil"
)

func TestAuditAppend(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := services.NewAuditService(db, testutil.TestCipher(t))

	user := testutil.CreateTestUser(t, db)
	record := testutil.CreateTestDraftRecord(t, db, user.ID, "367.42")

	t.Run("seals payloads and stamps the time", func(t *testing.T) {
		entry := &models.AuditTrailEntry{
			RecordID:    record.ID,
			EventType:   models.AuditUnlocked,
			ActorUserID: user.ID,
			Reason:      "correcting a typo in the notes",
			Changes:     `{"user_notes":"(updated)"}`,
		}
		testutil.AssertNoError(t, svc.Append(db, entry))

		if entry.Timestamp.IsZero() {
			t.Error("Append should stamp a zero timestamp")
		}
		if entry.Reason == "correcting a typo in the notes" {
			t.Error("reason should be sealed before storage")
		}

		reason, changes, err := svc.OpenPayloads(entry)
		testutil.AssertNoError(t, err)
		if reason != "correcting a typo in the notes" {
			t.Errorf("reason did not round-trip: %q", reason)
		}
		if changes != `{"user_notes":"(updated)"}` {
			t.Errorf("changes did not round-trip: %q", changes)
		}
	})

	t.Run("rolls back with the caller's transaction", func(t *testing.T) {
		other := testutil.CreateTestDraftRecord(t, db, testutil.CreateTestUser(t, db).ID, "367.42")

		tx := db.Begin()
		err := svc.Append(tx, &models.AuditTrailEntry{
			RecordID:    other.ID,
			EventType:   models.AuditUpdated,
			ActorUserID: user.ID,
		})
		testutil.AssertNoError(t, err)
		tx.Rollback()

		entries, err := svc.ListForRecord(other.ID)
		testutil.AssertNoError(t, err)
		if len(entries) != 0 {
			t.Errorf("rolled-back entry should not persist, found %d", len(entries))
		}
	})
}

func TestAuditListForRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := services.NewAuditService(db, testutil.TestCipher(t))

	user := testutil.CreateTestUser(t, db)
	record := testutil.CreateTestDraftRecord(t, db, user.ID, "367.42")

	base := time.Now().UTC().Add(-time.Hour)
	for i, event := range []models.AuditEventType{models.AuditCreated, models.AuditUpdated, models.AuditFinalized} {
		err := svc.Append(db, &models.AuditTrailEntry{
			RecordID:    record.ID,
			EventType:   event,
			ActorUserID: user.ID,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
		testutil.AssertNoError(t, err)
	}

	entries, err := svc.ListForRecord(record.ID)
	testutil.AssertNoError(t, err)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			t.Errorf("entries should be oldest first, out of order at %d", i)
		}
	}
	if entries[0].EventType != models.AuditCreated || entries[2].EventType != models.AuditFinalized {
		t.Error("entries should replay the mutation history in order")
	}
}

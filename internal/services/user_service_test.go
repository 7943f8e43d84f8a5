package services_test

import (
	"testing"

	"hawltrack/internal/models"
	"hawltrack/internal/services"
	"hawltrack/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := services.NewUserService(db)

	t.Run("creates user with defaults", func(t *testing.T) {
		user, err := svc.CreateUser("Zaid@Example.com", "password123", "Zaid", "Hassan")
		testutil.AssertNoError(t, err)

		if user.Email != "zaid@example.com" {
			t.Errorf("email should be lowercased, got %s", user.Email)
		}
		if user.Password == "password123" {
			t.Error("password should be hashed")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")); err != nil {
			t.Error("hash should verify against the original password")
		}
		if user.NisabBasis != models.NisabBasisSilver {
			t.Errorf("expected default silver basis, got %s", user.NisabBasis)
		}
		if !user.DeductLiabilities {
			t.Error("liability deduction should default to on")
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := svc.CreateUser("dup@example.com", "password123", "A", "B")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateUser("DUP@example.com", "password456", "C", "D")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})
}

func TestAttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := services.NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.AttemptLogin(user.Email, "password123")
		testutil.AssertNoError(t, err)
		if got.LastLoginAt == nil {
			t.Error("login should stamp LastLoginAt")
		}
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errPassword := svc.AttemptLogin(user.Email, "wrong-password")
		testutil.AssertAppError(t, errPassword, "INVALID_CREDENTIALS")

		_, errEmail := svc.AttemptLogin("nobody@example.com", "password123")
		testutil.AssertAppError(t, errEmail, "INVALID_CREDENTIALS")
	})
}

func TestUpdateSettings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := services.NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	t.Run("partial update", func(t *testing.T) {
		basis := models.NisabBasisGold
		updated, err := svc.UpdateSettings(user.ID, &basis, nil, nil)
		testutil.AssertNoError(t, err)
		if updated.NisabBasis != models.NisabBasisGold {
			t.Errorf("expected gold basis, got %s", updated.NisabBasis)
		}
		if !updated.DeductLiabilities {
			t.Error("untouched setting should keep its value")
		}
	})

	t.Run("currency is uppercased", func(t *testing.T) {
		currency := "myr"
		updated, err := svc.UpdateSettings(user.ID, nil, nil, &currency)
		testutil.AssertNoError(t, err)
		if updated.Currency != "MYR" {
			t.Errorf("expected MYR, got %s", updated.Currency)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		basis := models.NisabBasisGold
		_, err := svc.UpdateSettings("00000000-0000-0000-0000-000000000000", &basis, nil, nil)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"hawltrack/internal/testutil"
)

func setupAuthRouter(f *handlerFixture, userID string) *gin.Engine {
	handler := NewAuthHandler(f.users)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/profile", injectUserID(userID), handler.GetProfile)
	r.PUT("/profile/settings", injectUserID(userID), handler.UpdateSettings)
	return r
}

func TestRegisterEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	r := setupAuthRouter(f, "")

	t.Run("valid registration", func(t *testing.T) {
		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"email":"new@example.com","password":"password123","first_name":"New","last_name":"User"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		body := parseJSON(t, rec)
		if body["token"] == nil || body["token"] == "" {
			t.Error("expected a token in the response")
		}
		user := body["user"].(map[string]interface{})
		if user["nisab_basis"] != "silver" {
			t.Errorf("expected default silver basis, got %v", user["nisab_basis"])
		}
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"email":"weak@example.com","password":"short"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		payload := `{"email":"taken@example.com","password":"password123"}`
		doRequest(r, http.MethodPost, "/auth/register", payload)
		rec := doRequest(r, http.MethodPost, "/auth/register", payload)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "DUPLICATE_EMAIL" {
			t.Errorf("expected DUPLICATE_EMAIL, got %s", code)
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	user := testutil.CreateTestUser(t, f.db)
	r := setupAuthRouter(f, "")

	t.Run("valid credentials", func(t *testing.T) {
		rec := doRequest(r, http.MethodPost, "/auth/login",
			`{"email":"`+user.Email+`","password":"password123"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doRequest(r, http.MethodPost, "/auth/login",
			`{"email":"`+user.Email+`","password":"wrong-password"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
			t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
		}
	})
}

func TestUpdateSettingsEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	user := testutil.CreateTestUser(t, f.db)
	r := setupAuthRouter(f, user.ID)

	t.Run("switch to gold basis", func(t *testing.T) {
		rec := doRequest(r, http.MethodPut, "/profile/settings", `{"nisab_basis":"gold"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		got := body["user"].(map[string]interface{})
		if got["nisab_basis"] != "gold" {
			t.Errorf("expected gold basis, got %v", got["nisab_basis"])
		}
	})

	t.Run("invalid basis", func(t *testing.T) {
		rec := doRequest(r, http.MethodPut, "/profile/settings", `{"nisab_basis":"platinum"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid currency", func(t *testing.T) {
		rec := doRequest(r, http.MethodPut, "/profile/settings", `{"currency":"XXX"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

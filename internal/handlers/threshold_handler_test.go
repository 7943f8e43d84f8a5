package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hawltrack/internal/pricing"
	"hawltrack/internal/testutil"
)

// stubResolver returns a canned threshold.
type stubResolver struct {
	source pricing.Source
}

func (r *stubResolver) GetNisabThreshold(_ context.Context, basis pricing.Metal) pricing.Threshold {
	return pricing.Threshold{
		Basis:    basis,
		Amount:   decimal.NewFromFloat(367.42),
		Currency: "USD",
		Source:   r.source,
	}
}

func setupThresholdRouter(f *handlerFixture, resolver ThresholdResolver, userID string) *gin.Engine {
	handler := NewThresholdHandler(resolver, f.users)
	r := gin.New()
	r.GET("/nisab/threshold", injectUserID(userID), handler.GetThreshold)
	return r
}

func TestGetThresholdEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	user := testutil.CreateTestUser(t, f.db)

	t.Run("live threshold has no advisory", func(t *testing.T) {
		r := setupThresholdRouter(f, &stubResolver{source: pricing.SourceLive}, user.ID)
		rec := doRequest(r, http.MethodGet, "/nisab/threshold?basis=gold", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if body["advisory"] != nil {
			t.Errorf("live price should carry no advisory, got %v", body["advisory"])
		}
		threshold := body["threshold"].(map[string]interface{})
		if threshold["basis"] != "gold" {
			t.Errorf("expected gold basis, got %v", threshold["basis"])
		}
	})

	t.Run("fallback threshold carries an advisory", func(t *testing.T) {
		r := setupThresholdRouter(f, &stubResolver{source: pricing.SourceFallback}, user.ID)
		rec := doRequest(r, http.MethodGet, "/nisab/threshold?basis=silver", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if body["advisory"] == nil {
			t.Error("fallback price should carry an advisory")
		}
	})

	t.Run("defaults to the user's stored basis", func(t *testing.T) {
		r := setupThresholdRouter(f, &stubResolver{source: pricing.SourceLive}, user.ID)
		rec := doRequest(r, http.MethodGet, "/nisab/threshold", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		threshold := body["threshold"].(map[string]interface{})
		if threshold["basis"] != "silver" {
			t.Errorf("expected the user's silver default, got %v", threshold["basis"])
		}
	})

	t.Run("invalid basis", func(t *testing.T) {
		r := setupThresholdRouter(f, &stubResolver{source: pricing.SourceLive}, user.ID)
		rec := doRequest(r, http.MethodGet, "/nisab/threshold?basis=platinum", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/farmfresh/connect/internal/core/domain"
)

func TestPageHandler_Page(t *testing.T) {
	store := &stubSessionStore{identity: &domain.Identity{ID: "u-1", DisplayName: "Farmer Joe", Email: "farmer@example.com", Role: domain.RoleFarmer}}

	c, rec := newSessionContext(store, http.MethodGet, "/farmer-dashboard", "")
	if err := NewPageHandler().Page("farmer-dashboard")(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp pageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Page != "farmer-dashboard" || resp.User == nil || resp.User.Role != domain.RoleFarmer {
		t.Fatalf("unexpected page payload: %+v", resp)
	}
}

func TestPageHandler_SignInEchoesFrom(t *testing.T) {
	c, rec := newSessionContext(&stubSessionStore{}, http.MethodGet, "/sign-in?from=%2Fprofile", "")
	if err := NewPageHandler().SignIn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["from"] != "/profile" {
		t.Fatalf("expected from=/profile, got %q", resp["from"])
	}
}

func TestPageHandler_Unauthorized(t *testing.T) {
	c, rec := newSessionContext(&stubSessionStore{}, http.MethodGet, "/unauthorized", "")
	if err := NewPageHandler().Unauthorized(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

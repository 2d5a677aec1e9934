package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"chromastudio/models"
)

func TestUpdatePreferences(t *testing.T) {
	sm := withTestSessionManager(t)

	form := url.Values{"theme": {" Midnight_Draft "}}
	req := httptest.NewRequest(http.MethodPost, "/app/preferences/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withSession(t, sm, req)
	w := httptest.NewRecorder()
	UpdatePreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if resp := decodeBody[preferencesResponse](t, w); resp.Theme != models.ThemeMidnightDraft {
		t.Fatalf("theme = %q, want %q", resp.Theme, models.ThemeMidnightDraft)
	}
	if got := sessionTheme(req); got != models.ThemeMidnightDraft {
		t.Fatalf("session theme = %q", got)
	}

	get := httptest.NewRecorder()
	UpdatePreferences(get, httptest.NewRequest(http.MethodGet, "/app/preferences/update", nil).WithContext(req.Context()))
	if get.Code != http.StatusOK {
		t.Fatalf("expected GET status 200, got %d", get.Code)
	}
	if resp := decodeBody[preferencesResponse](t, get); resp.Theme != models.ThemeMidnightDraft || len(resp.Options) != 3 {
		t.Fatalf("unexpected GET response: %+v", resp)
	}
}

func TestUpdatePreferencesRejectsUnknownTheme(t *testing.T) {
	sm := withTestSessionManager(t)

	form := url.Values{"theme": {"neon"}}
	req := httptest.NewRequest(http.MethodPost, "/app/preferences/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	UpdatePreferences(w, withSession(t, sm, req))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestUpdatePreferencesMethodNotAllowed(t *testing.T) {
	withTestSessionManager(t)

	w := httptest.NewRecorder()
	UpdatePreferences(w, httptest.NewRequest(http.MethodDelete, "/app/preferences/update", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", w.Code)
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chromastudio/internal/calc"
	appdb "chromastudio/internal/db"
	"chromastudio/internal/pantone"
	"chromastudio/models"
)

func withTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	original := database
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := appdb.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	database = db
	t.Cleanup(func() {
		database = original
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func withTestSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	t.Cleanup(func() {
		sessionManager = original
	})
	return sm
}

func withTestStudio(t *testing.T) *calc.Store {
	t.Helper()
	store := calc.NewStore(nil, calc.WithDebounce(time.Hour))
	cat, err := pantone.New("")
	if err != nil {
		t.Fatalf("failed to load embedded catalog: %v", err)
	}
	origStore, origCatalog, origHub, origLimit := calcStore, catalog, eventHub, uploadLimit
	ConfigureStudio(Studio{Calculator: store, Pantone: cat})
	t.Cleanup(func() {
		calcStore, catalog, eventHub, uploadLimit = origStore, origCatalog, origHub, origLimit
	})
	return store
}

func withSession(t *testing.T, sm *scs.SessionManager, req *http.Request) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	return req.WithContext(ctx)
}

func seedColor(t *testing.T, db *gorm.DB, code, formulaText string) models.CustomColor {
	t.Helper()
	color := models.CustomColor{Code: code, Name: code + " name", Formula: formulaText}
	if err := db.Create(&color).Error; err != nil {
		t.Fatalf("failed to seed color %s: %v", code, err)
	}
	return color
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRawNumberAcceptsStringsAndNumbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: `"12.5"`, want: "12.5"},
		{in: `12.5`, want: "12.5"},
		{in: `" 7 "`, want: "7"},
		{in: `""`, want: ""},
		{in: `null`, want: ""},
		{in: `true`, wantErr: true},
	}
	for _, tt := range tests {
		var n rawNumber
		err := json.Unmarshal([]byte(tt.in), &n)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %s", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if n.String() != tt.want {
			t.Fatalf("rawNumber(%s) = %q, want %q", tt.in, n.String(), tt.want)
		}
	}
}

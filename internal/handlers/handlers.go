package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	templpkg "github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"chromastudio/internal/calc"
	applog "chromastudio/internal/log"
	"chromastudio/internal/pantone"
	"chromastudio/internal/ws"
)

const (
	sessionThemeKey = "prefs:theme"

	defaultMaxUpload = 8 << 20
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB

	calcStore   *calc.Store
	catalog     *pantone.Catalog
	eventHub    *ws.Hub
	uploadLimit int64 = defaultMaxUpload
)

// Studio bundles the non-HTTP services the handlers depend on.
type Studio struct {
	Calculator     *calc.Store
	Pantone        *pantone.Catalog
	Hub            *ws.Hub
	MaxUploadBytes int64
}

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
}

// ConfigureStudio installs the calculator, Pantone catalog and event hub.
func ConfigureStudio(s Studio) {
	calcStore = s.Calculator
	catalog = s.Pantone
	eventHub = s.Hub
	uploadLimit = s.MaxUploadBytes
	if uploadLimit <= 0 {
		uploadLimit = defaultMaxUpload
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, 1<<20)
	defer body.Close()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

func renderComponent(w http.ResponseWriter, r *http.Request, component templpkg.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render component", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// rawNumber accepts either a JSON number or a JSON string and keeps the text
// verbatim so the calculator can apply its own parsing rules.
type rawNumber string

func (n *rawNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = rawNumber(s)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return errors.New("value must be a number or a string")
		}
		*n = rawNumber(data)
	}
	return nil
}

func (n rawNumber) String() string {
	return strings.TrimSpace(string(n))
}

func sessionTheme(r *http.Request) string {
	if sessionManager == nil {
		return ""
	}
	return sessionManager.GetString(r.Context(), sessionThemeKey)
}

func setSessionTheme(r *http.Request, value string) {
	if sessionManager == nil {
		return
	}
	sessionManager.Put(r.Context(), sessionThemeKey, value)
}

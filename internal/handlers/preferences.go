package handlers

import (
	"net/http"
	"strings"

	applog "chromastudio/internal/log"
	"chromastudio/internal/views/theme"
	"chromastudio/models"
)

type preferencesResponse struct {
	Theme   string         `json:"theme"`
	Options []theme.Option `json:"options,omitempty"`
}

// UpdatePreferences stores the studio theme in the session. GET reports the
// current selection and the available choices.
func UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil {
		http.Error(w, "preferences not available", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, preferencesResponse{
			Theme:   models.NormalizeTheme(sessionTheme(r)),
			Options: theme.Options(),
		})
		return
	case http.MethodPost:
	default:
		applog.Debug(r.Context(), "preferences update with unsupported method", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		applog.Error(r.Context(), "failed to parse preferences form", "error", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	themeValue := strings.ToLower(strings.TrimSpace(r.FormValue("theme")))
	if !models.ValidTheme(themeValue) {
		applog.Debug(r.Context(), "received invalid theme selection", "value", themeValue)
		http.Error(w, "invalid theme selection", http.StatusBadRequest)
		return
	}

	setSessionTheme(r, themeValue)
	applog.Debug(r.Context(), "theme preference stored", "theme", themeValue)
	writeJSON(w, http.StatusOK, preferencesResponse{Theme: themeValue})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	applog "chromastudio/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Time     time.Time `json:"time"`
	Database bool      `json:"database"`
	Pantone  int       `json:"pantone_swatches"`
	Clients  int       `json:"ws_clients"`
}

// Health is a simple readiness handler suitable for infrastructure probes.
func Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status:   "ok",
		Time:     time.Now().UTC(),
		Database: database != nil,
	}
	if catalog != nil {
		resp.Pantone = catalog.Len()
	}
	if eventHub != nil {
		resp.Clients = eventHub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		applog.Error(r.Context(), "failed to encode health response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	applog.Debug(r.Context(), "health check responded successfully")
}

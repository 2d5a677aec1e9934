package handlers

import (
	"net/http"

	"chromastudio/internal/ws"
)

// Events upgrades the connection to a websocket that streams calculator
// changes. ?code= limits the feed to one color.
func Events(w http.ResponseWriter, r *http.Request) {
	if eventHub == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	ws.ServeWS(eventHub, w, r)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"chromastudio/internal/calc"
	applog "chromastudio/internal/log"
	"chromastudio/models"
)

type calcCellRequest struct {
	Row   int       `json:"row"`
	Value rawNumber `json:"value"`
}

type calcFactorRequest struct {
	Factor float64 `json:"factor"`
	Anchor *int    `json:"anchor"`
}

type calcGroupRequest struct {
	Unit  string    `json:"unit"`
	Value rawNumber `json:"value"`
}

type calcResponse struct {
	Code       string           `json:"code"`
	Name       string           `json:"name"`
	Formula    string           `json:"formula"`
	Usable     bool             `json:"usable"`
	State      calc.State       `json:"state"`
	Remainders []calc.Remainder `json:"remainders"`
	Groups     []calc.Group     `json:"groups"`
	Applied    *bool            `json:"applied,omitempty"`
	Reason     string           `json:"reason,omitempty"`
}

// CalcResource exposes the formula calculator for one color code:
// GET /app/api/calc/{code} and POST /app/api/calc/{code}/{action}.
func CalcResource(w http.ResponseWriter, r *http.Request) {
	if database == nil || calcStore == nil {
		applog.Debug(r.Context(), "calculator request without backing services")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/api/calc"), "/")
	code, action, _ := strings.Cut(path, "/")
	code = strings.TrimSpace(code)
	if code == "" {
		http.NotFound(w, r)
		return
	}

	color, err := loadColorByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusNotFound, "unknown color code")
			return
		}
		applog.Error(r.Context(), "failed to load color for calculator", "error", err, "code", code)
		writeJSONError(w, http.StatusInternalServerError, "unable to load color")
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, projectCalc(color, calcStore.State(color.Code, color.Formula), nil))
		return
	}

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// every mutation runs against the formula currently stored for the color
	calcStore.State(color.Code, color.Formula)

	var outcome calc.Outcome
	switch action {
	case "target":
		var payload calcCellRequest
		if err := decodeJSON(w, r, &payload); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		outcome = calcStore.ApplyScale(color.Code, payload.Row, payload.Value.String())
	case "factor":
		var payload calcFactorRequest
		if err := decodeJSON(w, r, &payload); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		anchor := -1
		if payload.Anchor != nil {
			anchor = *payload.Anchor
		}
		outcome = calcStore.ApplyScaleFactor(color.Code, payload.Factor, anchor)
	case "group-total":
		var payload calcGroupRequest
		if err := decodeJSON(w, r, &payload); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		outcome = calcStore.ApplyGroupTotal(color.Code, strings.TrimSpace(payload.Unit), payload.Value.String())
	case "delivered":
		var payload calcCellRequest
		if err := decodeJSON(w, r, &payload); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		outcome = calcStore.UpdateDelivered(color.Code, payload.Row, payload.Value.String())
	case "clear":
		outcome = calcStore.Clear(color.Code)
	case "sync":
		st := calcStore.SyncFormulaChange(color.Code, color.Formula)
		outcome = calc.Outcome{State: st, Applied: true}
	default:
		http.NotFound(w, r)
		return
	}

	if !outcome.Applied {
		applog.Debug(r.Context(), "calculator mutation rejected", "code", color.Code, "action", action, "reason", outcome.Reason)
	}
	writeJSON(w, http.StatusOK, projectCalc(color, outcome.State, &outcome))
}

func loadColorByCode(ctx context.Context, code string) (models.CustomColor, error) {
	var color models.CustomColor
	err := database.WithContext(ctx).Where(&models.CustomColor{Code: code}).First(&color).Error
	return color, err
}

func projectCalc(color models.CustomColor, st calc.State, outcome *calc.Outcome) calcResponse {
	resp := calcResponse{
		Code:       color.Code,
		Name:       color.Name,
		Formula:    color.Formula,
		Usable:     st.Usable(),
		State:      st,
		Remainders: calc.Remainders(st),
		Groups:     calc.Groups(st),
	}
	if outcome != nil {
		applied := outcome.Applied
		resp.Applied = &applied
		if outcome.Reason != nil {
			resp.Reason = outcome.Reason.Error()
		}
	}
	return resp
}

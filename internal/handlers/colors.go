package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"chromastudio/internal/colormath"
	"chromastudio/internal/formula"
	applog "chromastudio/internal/log"
	"chromastudio/models"
)

type colorRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Formula     string `json:"formula"`
	Hex         string `json:"hex"`
	PantoneCode string `json:"pantone_code"`
	Notes       string `json:"notes"`
}

type colorResponse struct {
	ID          uint                 `json:"id"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Category    string               `json:"category"`
	Formula     string               `json:"formula"`
	Ingredients []formula.Ingredient `json:"ingredients"`
	Usable      bool                 `json:"usable"`
	Hex         string               `json:"hex,omitempty"`
	PantoneCode string               `json:"pantone_code,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ColorResource handles CRUD interactions for custom color records.
func ColorResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "color request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/colors")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listColors(w, r)
		case http.MethodPost:
			createColor(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid color identifier", "identifier", path, "error", err)
		http.NotFound(w, r)
		return
	}
	colorID := uint(idValue)

	switch r.Method {
	case http.MethodGet:
		showColor(w, r, colorID)
	case http.MethodPut:
		updateColor(w, r, colorID)
	case http.MethodDelete:
		deleteColor(w, r, colorID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listColors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var results []models.CustomColor

	query := database.WithContext(ctx).Order("code asc")
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := strings.TrimSpace(r.URL.Query().Get("q")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(code) LIKE ? OR lower(name) LIKE ?", like, like)
	}

	if err := query.Find(&results).Error; err != nil {
		applog.Error(ctx, "failed to list colors", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load colors")
		return
	}

	responses := make([]colorResponse, 0, len(results))
	for _, color := range results {
		responses = append(responses, projectColor(color))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showColor(w http.ResponseWriter, r *http.Request, colorID uint) {
	ctx := r.Context()
	var color models.CustomColor
	if err := database.WithContext(ctx).First(&color, colorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load color", "error", err, "id", colorID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load color")
		return
	}
	writeJSON(w, http.StatusOK, projectColor(color))
}

func createColor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload colorRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		applog.Debug(ctx, "invalid color create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload, err := normalizeColorPayload(payload)
	if err != nil {
		applog.Debug(ctx, "color validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var count int64
	if err := database.WithContext(ctx).Model(&models.CustomColor{}).Where("code = ?", payload.Code).Count(&count).Error; err != nil {
		applog.Error(ctx, "failed to check color code availability", "error", err, "code", payload.Code)
		writeJSONError(w, http.StatusInternalServerError, "unable to create color")
		return
	}
	if count > 0 {
		writeJSONError(w, http.StatusConflict, "color code already exists")
		return
	}

	color := models.CustomColor{
		Code:        payload.Code,
		Name:        payload.Name,
		Category:    payload.Category,
		Formula:     payload.Formula,
		Hex:         payload.Hex,
		PantoneCode: payload.PantoneCode,
		Notes:       payload.Notes,
	}
	if err := database.WithContext(ctx).Create(&color).Error; err != nil {
		applog.Error(ctx, "failed to create color", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create color")
		return
	}

	applog.Info(ctx, "color created", "code", color.Code, "id", color.ID)
	writeJSON(w, http.StatusCreated, projectColor(color))
}

func updateColor(w http.ResponseWriter, r *http.Request, colorID uint) {
	ctx := r.Context()
	var existing models.CustomColor
	if err := database.WithContext(ctx).First(&existing, colorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load color for update", "error", err, "id", colorID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load color")
		return
	}

	var payload colorRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		applog.Debug(ctx, "invalid color update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	// the code is the calculator key and cannot be renamed in place
	if strings.TrimSpace(payload.Code) == "" {
		payload.Code = existing.Code
	}
	payload, err := normalizeColorPayload(payload)
	if err != nil {
		applog.Debug(ctx, "color update validation failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Code != existing.Code {
		writeJSONError(w, http.StatusBadRequest, "code cannot be changed")
		return
	}

	updates := map[string]any{
		"name":         payload.Name,
		"category":     payload.Category,
		"formula":      payload.Formula,
		"hex":          payload.Hex,
		"pantone_code": payload.PantoneCode,
		"notes":        payload.Notes,
	}
	formulaChanged := existing.Formula != payload.Formula

	if err := database.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update color", "error", err, "id", colorID)
		writeJSONError(w, http.StatusBadRequest, "unable to update color")
		return
	}
	if err := database.WithContext(ctx).First(&existing, colorID).Error; err != nil {
		applog.Error(ctx, "failed to reload updated color", "error", err, "id", colorID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load color")
		return
	}

	if formulaChanged && calcStore != nil {
		st := calcStore.SyncFormulaChange(existing.Code, existing.Formula)
		applog.Debug(ctx, "calculator synced to formula change", "code", existing.Code, "hash", st.VersionHash)
	}

	writeJSON(w, http.StatusOK, projectColor(existing))
}

func deleteColor(w http.ResponseWriter, r *http.Request, colorID uint) {
	ctx := r.Context()
	// hard delete so the code can be reused
	result := database.WithContext(ctx).Unscoped().Delete(&models.CustomColor{}, colorID)
	if result.Error != nil {
		applog.Error(ctx, "failed to delete color", "error", result.Error, "id", colorID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete color")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectColor(color models.CustomColor) colorResponse {
	ingredients := formula.Parse(color.Formula)
	return colorResponse{
		ID:          color.ID,
		Code:        color.Code,
		Name:        color.Name,
		Category:    color.Category,
		Formula:     color.Formula,
		Ingredients: ingredients,
		Usable:      formula.HasUsable(ingredients),
		Hex:         color.Hex,
		PantoneCode: color.PantoneCode,
		Notes:       color.Notes,
		CreatedAt:   color.CreatedAt,
		UpdatedAt:   color.UpdatedAt,
	}
}

func normalizeColorPayload(payload colorRequest) (colorRequest, error) {
	payload.Code = strings.TrimSpace(payload.Code)
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Category = strings.TrimSpace(payload.Category)
	payload.Formula = strings.TrimSpace(payload.Formula)
	payload.PantoneCode = strings.TrimSpace(payload.PantoneCode)
	payload.Notes = strings.TrimSpace(payload.Notes)

	if payload.Code == "" {
		return payload, errors.New("code is required")
	}
	if payload.Name == "" {
		payload.Name = payload.Code
	}
	if hex := strings.TrimSpace(payload.Hex); hex != "" {
		rgb, ok := colormath.HexToRGB(hex)
		if !ok {
			return payload, errors.New("hex must be #rgb or #rrggbb")
		}
		payload.Hex, _ = colormath.RGBToHex(rgb)
	} else {
		payload.Hex = ""
	}
	return payload, nil
}

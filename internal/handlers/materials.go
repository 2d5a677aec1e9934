package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"chromastudio/internal/colormath"
	applog "chromastudio/internal/log"
	"chromastudio/models"
)

type materialRequest struct {
	Name  string  `json:"name"`
	Brand string  `json:"brand"`
	Unit  string  `json:"unit"`
	Stock float64 `json:"stock"`
	Hex   string  `json:"hex"`
	Notes string  `json:"notes"`
}

// MaterialResource lists, creates and deletes raw materials.
func MaterialResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "material request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/api/materials"), "/")
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listMaterials(w, r)
		case http.MethodPost:
			createMaterial(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	result := database.WithContext(ctx).Unscoped().Delete(&models.RawMaterial{}, uint(idValue))
	if result.Error != nil {
		applog.Error(ctx, "failed to delete raw material", "error", result.Error, "id", idValue)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete material")
		return
	}
	if result.RowsAffected == 0 {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listMaterials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var materials []models.RawMaterial
	if err := database.WithContext(ctx).Order("name asc").Find(&materials).Error; err != nil {
		applog.Error(ctx, "failed to list raw materials", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load materials")
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func createMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload materialRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	material := models.RawMaterial{
		Name:  strings.TrimSpace(payload.Name),
		Brand: strings.TrimSpace(payload.Brand),
		Unit:  strings.TrimSpace(payload.Unit),
		Stock: payload.Stock,
		Notes: strings.TrimSpace(payload.Notes),
	}
	if material.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	if material.Stock < 0 {
		writeJSONError(w, http.StatusBadRequest, "stock cannot be negative")
		return
	}
	if hex := strings.TrimSpace(payload.Hex); hex != "" {
		rgb, ok := colormath.HexToRGB(hex)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "hex must be #rgb or #rrggbb")
			return
		}
		material.Hex, _ = colormath.RGBToHex(rgb)
	}

	var existing models.RawMaterial
	err := database.WithContext(ctx).Where("name = ?", material.Name).First(&existing).Error
	switch {
	case err == nil:
		writeJSONError(w, http.StatusConflict, "material already exists")
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		applog.Error(ctx, "failed to check material name", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create material")
		return
	}

	if err := database.WithContext(ctx).Create(&material).Error; err != nil {
		applog.Error(ctx, "failed to create raw material", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create material")
		return
	}
	writeJSON(w, http.StatusCreated, material)
}

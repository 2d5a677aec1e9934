package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"gorm.io/gorm"

	"chromastudio/internal/formula"
	applog "chromastudio/internal/log"
	"chromastudio/models"
)

type importResponse struct {
	Color    colorResponse `json:"color"`
	Created  bool          `json:"created"`
	Warnings []string      `json:"warnings"`
}

// ToolsImportFormula turns pasted text or an uploaded text/PDF document into a
// custom color. An existing code is only overwritten when overwrite=true.
func ToolsImportFormula(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, uploadLimit)
	if err := r.ParseMultipartForm(uploadLimit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		applog.Error(r.Context(), "failed to parse formula import form", "error", err)
		writeJSONError(w, http.StatusBadRequest, "upload is too large or invalid")
		return
	}

	code := strings.TrimSpace(r.FormValue("code"))
	if code == "" {
		writeJSONError(w, http.StatusBadRequest, "code is required")
		return
	}
	rawText := strings.TrimSpace(r.FormValue("formula_text"))

	fileName, fileBytes, fileType, err := readFormulaUpload(r)
	if err != nil {
		applog.Error(r.Context(), "formula upload read failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to read the uploaded file")
		return
	}
	if len(fileBytes) > 0 {
		text, err := deriveTextFromUpload(fileBytes, fileType)
		if err != nil {
			applog.Error(r.Context(), "failed to extract formula text", "error", err, "mime", fileType, "file", fileName)
			writeJSONError(w, http.StatusUnprocessableEntity, "unable to read text from the uploaded document")
			return
		}
		if text = strings.TrimSpace(text); text != "" {
			if rawText != "" {
				rawText += " "
			}
			rawText += text
		}
	}

	ingredients := formula.Parse(rawText)
	if !formula.HasUsable(ingredients) {
		writeJSONError(w, http.StatusUnprocessableEntity, "no usable ingredient found; expected pairs like \"钛白 5g\"")
		return
	}
	normalized := canonicalFormula(rawText, ingredients)

	ctx := r.Context()
	warnings := importWarnings(r, ingredients)

	var color models.CustomColor
	err = database.WithContext(ctx).Where(&models.CustomColor{Code: code}).First(&color).Error
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		color = models.CustomColor{
			Code:     code,
			Name:     firstNonBlank(r.FormValue("name"), code),
			Category: strings.TrimSpace(r.FormValue("category")),
			Formula:  normalized,
		}
		if err := database.WithContext(ctx).Create(&color).Error; err != nil {
			applog.Error(ctx, "persist imported color failed", "error", err, "code", code)
			writeJSONError(w, http.StatusInternalServerError, "unable to save the imported color")
			return
		}
		created = true
	case err != nil:
		applog.Error(ctx, "failed to look up color for import", "error", err, "code", code)
		writeJSONError(w, http.StatusInternalServerError, "unable to save the imported color")
		return
	default:
		if r.FormValue("overwrite") != "true" {
			writeJSONError(w, http.StatusConflict, "color code already exists; set overwrite=true to replace its formula")
			return
		}
		if err := database.WithContext(ctx).Model(&color).Update("formula", normalized).Error; err != nil {
			applog.Error(ctx, "failed to overwrite imported formula", "error", err, "code", code)
			writeJSONError(w, http.StatusInternalServerError, "unable to save the imported color")
			return
		}
		color.Formula = normalized
		if calcStore != nil {
			calcStore.SyncFormulaChange(color.Code, color.Formula)
		}
	}

	applog.Info(ctx, "formula imported", "code", color.Code, "ingredients", len(ingredients), "created", created, "warnings", len(warnings))
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, importResponse{Color: projectColor(color), Created: created, Warnings: warnings})
}

// importWarnings flags invalid pairs and ingredient names missing from the
// raw material catalog.
func importWarnings(r *http.Request, ingredients []formula.Ingredient) []string {
	warnings := make([]string, 0)
	names := make([]string, 0, len(ingredients))
	for i, ing := range ingredients {
		if ing.Invalid {
			warnings = append(warnings, fmt.Sprintf("entry %d (%q) could not be parsed", i+1, ing.Name))
			continue
		}
		names = append(names, ing.Name)
	}
	if len(names) == 0 {
		return warnings
	}

	var known []string
	if err := database.WithContext(r.Context()).Model(&models.RawMaterial{}).Where("name IN ?", names).Pluck("name", &known).Error; err != nil {
		applog.Warn(r.Context(), "unable to check ingredients against raw materials", "error", err)
		return warnings
	}
	seen := make(map[string]struct{}, len(known))
	for _, name := range known {
		seen[name] = struct{}{}
	}
	for _, name := range names {
		if _, ok := seen[name]; !ok {
			warnings = append(warnings, fmt.Sprintf("%s is not a known raw material", name))
			seen[name] = struct{}{}
		}
	}
	return warnings
}

// canonicalFormula rewrites amounts in canonical form. Text holding invalid
// pairs is only whitespace-collapsed so the pairing survives a reparse.
func canonicalFormula(raw string, ingredients []formula.Ingredient) string {
	for _, ing := range ingredients {
		if ing.Invalid {
			return strings.Join(strings.Fields(raw), " ")
		}
	}
	return formula.Format(ingredients)
}

func readFormulaUpload(r *http.Request) (string, []byte, string, error) {
	file, header, err := r.FormFile("formula_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil, "", nil
		}
		return "", nil, "", err
	}
	defer file.Close()

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return "", nil, "", err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = mimeTypeFromName(header.Filename)
	}
	return header.Filename, buf.Bytes(), mime, nil
}

func deriveTextFromUpload(data []byte, mime string) (string, error) {
	lower := strings.ToLower(mime)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	case strings.HasPrefix(lower, "text/"), lower == "application/octet-stream":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported document type %q", mime)
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func mimeTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

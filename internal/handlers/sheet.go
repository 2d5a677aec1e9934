package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"chromastudio/internal/calc"
	applog "chromastudio/internal/log"
	"chromastudio/internal/views/pages"
	"chromastudio/internal/views/theme"
	"chromastudio/models"
)

// MixingSheet renders the printable sheet at /app/calc/{code}/sheet.
func MixingSheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil || calcStore == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/calc"), "/")
	code, rest, _ := strings.Cut(path, "/")
	if strings.TrimSpace(code) == "" || rest != "sheet" {
		http.NotFound(w, r)
		return
	}

	color, err := loadColorByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to load color for mixing sheet", "error", err, "code", code)
		http.Error(w, "unable to load color", http.StatusInternalServerError)
		return
	}

	st := calcStore.State(color.Code, color.Formula)
	renderComponent(w, r, pages.MixingSheet(buildSheet(color, st, theme.Resolve(sessionTheme(r)))))
}

func buildSheet(color models.CustomColor, st calc.State, workspace theme.WorkspaceTheme) pages.MixingSheetData {
	remainders := make(map[int]calc.Remainder)
	for _, rem := range calc.Remainders(st) {
		remainders[rem.Index] = rem
	}
	rows := make([]pages.MixingSheetRow, 0, len(st.Ingredients))
	for i, ing := range st.Ingredients {
		row := pages.MixingSheetRow{
			Index:   i,
			Name:    ing.Name,
			Unit:    ing.Unit,
			Base:    ing.Base,
			Invalid: ing.Invalid,
		}
		if rem, ok := remainders[i]; ok {
			row.Target = rem.Target
			row.Delivered = rem.Delivered
			row.Remaining = rem.Remaining
			if rem.Rebalanced {
				row.Extra = rem.AdditionalNeeded
			}
		}
		rows = append(rows, row)
	}

	groups := make([]pages.MixingSheetGroup, 0)
	for _, g := range calc.Groups(st) {
		groups = append(groups, pages.MixingSheetGroup{Unit: g.Unit, Target: g.TargetTotal, Delivered: g.DeliveredTotal})
	}

	return pages.MixingSheetData{
		Code:        color.Code,
		Name:        color.Name,
		Hex:         color.Hex,
		Formula:     color.Formula,
		ScaleFactor: st.ScaleFactor,
		Theme:       workspace,
		GeneratedAt: time.Now(),
		Rows:        rows,
		Groups:      groups,
	}
}

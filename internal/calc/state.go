// Package calc holds the formula scaling calculator: per color-code state,
// anchored proportional rescaling, delivered tracking and write-behind
// persistence of the numeric state.
package calc

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"chromastudio/internal/formula"
)

const (
	// MaxCellValue is the largest quantity a single target or delivered cell holds.
	MaxCellValue = 9999.0
	// MaxSafeNumber bounds accepted input; anything larger is rejected outright.
	MaxSafeNumber = 1e6
)

var decimalPattern = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// Reasons reported when a mutation is rejected.
var (
	ErrUnknownCode       = errors.New("calc: no state for color code")
	ErrRowOutOfRange     = errors.New("calc: row index out of range")
	ErrInvalidIngredient = errors.New("calc: ingredient is invalid")
	ErrInvalidNumber     = errors.New("calc: value is not a safe number")
	ErrZeroBase          = errors.New("calc: ingredient base is zero")
	ErrInvalidFactor     = errors.New("calc: scale factor must be positive")
	ErrNoAnchor          = errors.New("calc: formula has no ingredient to anchor on")
	ErrUnknownUnitGroup  = errors.New("calc: no valid ingredients in unit group")
)

// State is the calculator state for one color code. Targets and Delivered are
// parallel to Ingredients; nil entries mean "not set".
type State struct {
	Code        string               `json:"code"`
	VersionHash string               `json:"versionHash"`
	Ingredients []formula.Ingredient `json:"ingredients"`
	ScaleFactor *float64             `json:"scaleFactor"`
	AnchorIndex *int                 `json:"anchorIndex"`
	Targets     []*float64           `json:"targets"`
	Delivered   []*float64           `json:"delivered"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// Usable reports whether the state has at least one valid ingredient.
func (s State) Usable() bool {
	return formula.HasUsable(s.Ingredients)
}

// Clone returns a deep copy so callers never share slices with the store.
func (s State) Clone() State {
	out := s
	out.Ingredients = append([]formula.Ingredient(nil), s.Ingredients...)
	out.ScaleFactor = cloneFloat(s.ScaleFactor)
	if s.AnchorIndex != nil {
		v := *s.AnchorIndex
		out.AnchorIndex = &v
	}
	out.Targets = cloneFloats(s.Targets)
	out.Delivered = cloneFloats(s.Delivered)
	return out
}

// Outcome is returned by every mutator. When Applied is false the store was
// left untouched and Reason names the rejection.
type Outcome struct {
	State   State
	Applied bool
	Reason  error
}

// Snapshot is the persisted numeric part of a State.
type Snapshot struct {
	ScaleFactor *float64   `json:"scaleFactor"`
	AnchorIndex *int       `json:"anchorIndex"`
	Targets     []*float64 `json:"targets"`
	Delivered   []*float64 `json:"delivered"`
	VersionHash string     `json:"versionHash"`
	UpdatedAt   int64      `json:"updatedAt"`
}

func newState(code, hash string, ingredients []formula.Ingredient, now time.Time) *State {
	st := &State{
		Code:        code,
		VersionHash: hash,
		Ingredients: ingredients,
		Targets:     make([]*float64, len(ingredients)),
		Delivered:   make([]*float64, len(ingredients)),
		UpdatedAt:   now,
	}
	st.resetNumbers()
	return st
}

func (s *State) resetNumbers() {
	s.ScaleFactor = nil
	s.AnchorIndex = nil
	for i, ing := range s.Ingredients {
		s.Targets[i] = nil
		if ing.Invalid {
			s.Delivered[i] = nil
			continue
		}
		s.Delivered[i] = floatPtr(0)
	}
}

// hydrate copies persisted numbers onto a freshly built state whose hash
// matches the snapshot. Invalid rows stay nil whatever the snapshot says.
func (s *State) hydrate(snap Snapshot) {
	if len(snap.Targets) != len(s.Ingredients) || len(snap.Delivered) != len(s.Ingredients) {
		return
	}
	if snap.UpdatedAt > 0 {
		s.UpdatedAt = time.UnixMilli(snap.UpdatedAt).UTC()
	}
	if !s.validScale(snap.ScaleFactor, snap.AnchorIndex) {
		return
	}
	s.ScaleFactor = cloneFloat(snap.ScaleFactor)
	if snap.AnchorIndex != nil {
		idx := *snap.AnchorIndex
		s.AnchorIndex = &idx
	}
	for i, ing := range s.Ingredients {
		if ing.Invalid {
			continue
		}
		s.Targets[i] = sanitizeCell(snap.Targets[i])
		if d := sanitizeCell(snap.Delivered[i]); d != nil {
			s.Delivered[i] = d
		}
	}
	if s.ScaleFactor != nil && s.AnchorIndex != nil {
		s.applyFactor(*s.ScaleFactor)
	}
}

// validScale reports whether a persisted factor and anchor could have been
// produced by a mutator: both unset, or a safe positive factor anchored on a
// valid row.
func (s *State) validScale(factor *float64, anchor *int) bool {
	if factor == nil && anchor == nil {
		return true
	}
	if factor == nil || anchor == nil {
		return false
	}
	f := *factor
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f > MaxSafeNumber {
		return false
	}
	idx := *anchor
	return idx >= 0 && idx < len(s.Ingredients) && !s.Ingredients[idx].Invalid && s.Ingredients[idx].Base > 0
}

func (s *State) snapshot() Snapshot {
	clone := s.Clone()
	return Snapshot{
		ScaleFactor: clone.ScaleFactor,
		AnchorIndex: clone.AnchorIndex,
		Targets:     clone.Targets,
		Delivered:   clone.Delivered,
		VersionHash: s.VersionHash,
		UpdatedAt:   s.UpdatedAt.UnixMilli(),
	}
}

func (s *State) setFactor(factor float64, anchor int) {
	s.ScaleFactor = floatPtr(factor)
	s.AnchorIndex = intPtr(anchor)
	s.applyFactor(factor)
}

// applyFactor recomputes every valid target from the factor.
func (s *State) applyFactor(factor float64) {
	for i, ing := range s.Ingredients {
		if ing.Invalid {
			continue
		}
		s.Targets[i] = floatPtr(math.Min(round2(ing.Base*factor), MaxCellValue))
		if s.Delivered[i] == nil {
			s.Delivered[i] = floatPtr(0)
		}
	}
}

// parseCell interprets raw input from a quantity cell. It rejects anything
// that is not a finite number in [0, MaxSafeNumber] and saturates the rest at
// MaxCellValue.
func parseCell(raw string) (float64, bool) {
	value, ok := parseDecimal(raw)
	if !ok {
		return 0, false
	}
	return clampCell(value)
}

// parseDecimal accepts plain decimal text only, so forms such as "1e3",
// "0x1p3", "+5" or "Inf" never reach strconv.
func parseDecimal(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if !decimalPattern.MatchString(raw) {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func clampCell(value float64) (float64, bool) {
	if !safeNumber(value) {
		return 0, false
	}
	return math.Min(value, MaxCellValue), true
}

// parseSafe is parseCell without the per-cell saturation, for totals that
// legitimately exceed a single cell.
func parseSafe(raw string) (float64, bool) {
	value, ok := parseDecimal(raw)
	if !ok || !safeNumber(value) {
		return 0, false
	}
	return value, true
}

func safeNumber(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0 && value <= MaxSafeNumber
}

func sanitizeCell(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value, ok := clampCell(*v)
	if !ok {
		return nil
	}
	return &value
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloats(values []*float64) []*float64 {
	if values == nil {
		return nil
	}
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = cloneFloat(v)
	}
	return out
}

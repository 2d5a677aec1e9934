package models

import "strings"

// Studio themes selectable from the preferences form.
const (
	ThemeNocturne      = "nocturne"
	ThemeAtelierIvory  = "atelier_ivory"
	ThemeMidnightDraft = "midnight_draft"

	DefaultTheme = ThemeNocturne
)

// ValidTheme reports whether value names a known theme.
func ValidTheme(value string) bool {
	switch value {
	case ThemeNocturne, ThemeAtelierIvory, ThemeMidnightDraft:
		return true
	}
	return false
}

// NormalizeTheme trims value and falls back to DefaultTheme when unknown.
func NormalizeTheme(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if ValidTheme(value) {
		return value
	}
	return DefaultTheme
}

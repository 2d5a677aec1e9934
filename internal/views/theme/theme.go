// Package theme maps studio theme preferences to the CSS classes used by the
// rendered pages.
package theme

import "chromastudio/models"

// Option represents a selectable theme exposed to the UI.
type Option struct {
	Value string
	Label string
}

// WorkspaceTheme contains resolved styling primitives for rendered pages.
type WorkspaceTheme struct {
	Key               string
	BodyClass         string
	ShellClass        string
	PanelSurfaceClass string
	BorderStrongClass string
	BorderSoftClass   string
	AccentTextClass   string
	MutedTextClass    string
	SubtleTextClass   string
}

func studio(key, body, shell string) WorkspaceTheme {
	return WorkspaceTheme{
		Key:               key,
		BodyClass:         body,
		ShellClass:        shell,
		PanelSurfaceClass: "studio-surface",
		BorderStrongClass: "studio-border-strong",
		BorderSoftClass:   "studio-border-soft",
		AccentTextClass:   "studio-accent",
		MutedTextClass:    "studio-muted",
		SubtleTextClass:   "studio-subtle",
	}
}

var catalogue = map[string]WorkspaceTheme{
	models.ThemeNocturne:      studio(models.ThemeNocturne, "min-h-screen bg-slate-950 text-slate-100", "studio-shell dark"),
	models.ThemeAtelierIvory:  studio(models.ThemeAtelierIvory, "min-h-screen bg-stone-50 text-stone-900", "studio-shell light"),
	models.ThemeMidnightDraft: studio(models.ThemeMidnightDraft, "min-h-screen bg-slate-950 text-slate-100", "studio-shell twilight"),
}

var options = []Option{
	{Value: models.ThemeNocturne, Label: "Nocturne (Dark)"},
	{Value: models.ThemeAtelierIvory, Label: "Atelier Ivory (Light)"},
	{Value: models.ThemeMidnightDraft, Label: "Midnight Draft (Blue)"},
}

// Resolve returns the theme registered for key, falling back to the default.
func Resolve(key string) WorkspaceTheme {
	return catalogue[models.NormalizeTheme(key)]
}

// Options exposes the available theme selections for rendering in a form control.
func Options() []Option {
	return options
}

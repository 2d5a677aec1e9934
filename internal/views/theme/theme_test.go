package theme

import (
	"testing"

	"chromastudio/models"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"atelier_ivory":    models.ThemeAtelierIvory,
		" MIDNIGHT_DRAFT ": models.ThemeMidnightDraft,
		"":                 models.DefaultTheme,
		"neon":             models.DefaultTheme,
	}
	for in, want := range tests {
		if got := Resolve(in); got.Key != want {
			t.Fatalf("Resolve(%q).Key = %q, want %q", in, got.Key, want)
		}
	}
}

func TestOptionsAreResolvable(t *testing.T) {
	t.Parallel()

	for _, opt := range Options() {
		if !models.ValidTheme(opt.Value) {
			t.Fatalf("option %q is not a valid theme", opt.Value)
		}
		if Resolve(opt.Value).BodyClass == "" {
			t.Fatalf("option %q resolves to an empty theme", opt.Value)
		}
	}
}

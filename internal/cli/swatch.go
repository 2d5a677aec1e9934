package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"chromastudio/internal/colormath"
)

const swatchWidth = 8

// painter renders color blocks when the output is a color-capable terminal
// and plain labels otherwise.
type painter struct {
	enabled bool
}

func newPainter(w io.Writer, disabled bool) painter {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return painter{}
	}
	f, ok := w.(*os.File)
	return painter{enabled: ok && term.IsTerminal(int(f.Fd()))}
}

// swatch returns a solid block of c, or an empty string when disabled.
func (p painter) swatch(c colormath.RGB) string {
	if !p.enabled {
		return ""
	}
	hex, ok := colormath.RGBToHex(c)
	if !ok {
		return ""
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Render(strings.Repeat(" ", swatchWidth)) + " "
}

// label renders text over c with a contrasting foreground.
func (p painter) label(c colormath.RGB, text string) string {
	if !p.enabled {
		return text
	}
	hex, ok := colormath.RGBToHex(c)
	if !ok {
		return text
	}
	fg := "#ffffff"
	if lab, ok := colormath.RGBToLab(c); ok && lab.L > 60 {
		fg = "#000000"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color(fg)).
		Padding(0, 1).
		Render(text)
}

func (p painter) heading(text string) string {
	if !p.enabled {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

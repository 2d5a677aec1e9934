package pages

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"chromastudio/internal/views/theme"
)

// MixingSheetRow is one ingredient line on a printable mixing sheet.
type MixingSheetRow struct {
	Index     int
	Name      string
	Unit      string
	Base      float64
	Target    *float64
	Delivered float64
	Remaining *float64
	Extra     float64
	Invalid   bool
}

// MixingSheetGroup summarises one unit group at the foot of the sheet.
type MixingSheetGroup struct {
	Unit      string
	Target    float64
	Delivered float64
}

// MixingSheetData aggregates everything printed on the sheet.
type MixingSheetData struct {
	Code        string
	Name        string
	Hex         string
	Formula     string
	ScaleFactor *float64
	Theme       theme.WorkspaceTheme
	GeneratedAt time.Time
	Rows        []MixingSheetRow
	Groups      []MixingSheetGroup
}

// FormatSheetQuantity renders a quantity with up to two decimals and its unit.
// Drop counts are whole numbers.
func FormatSheetQuantity(value float64, unit string) string {
	unit = strings.TrimSpace(unit)
	var number string
	if unit == "滴" || strings.EqualFold(unit, "drops") {
		number = fmt.Sprintf("%.0f", value)
	} else {
		number = strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
	}
	if unit == "" {
		return number
	}
	return number + " " + unit
}

func formatOptional(value *float64, unit string) string {
	if value == nil {
		return DefaultDash("")
	}
	return FormatSheetQuantity(*value, unit)
}

// MixingSheet renders a standalone HTML page for printing at the mixing bench.
func MixingSheet(data MixingSheetData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		esc := templ.EscapeString

		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		fmt.Fprintf(&b, `<title>%s · mixing sheet</title></head>`, esc(data.Code))
		fmt.Fprintf(&b, `<body class="%s"><main class="%s">`, esc(data.Theme.BodyClass), esc(data.Theme.ShellClass))

		fmt.Fprintf(&b, `<header class="%s"><h1>%s</h1><p class="%s">%s</p>`,
			esc(data.Theme.PanelSurfaceClass), esc(data.Code), esc(data.Theme.MutedTextClass), esc(DefaultDash(data.Name)))
		if data.Hex != "" {
			fmt.Fprintf(&b, `<span class="swatch" style="background:%s" title="%s"></span>`, esc(data.Hex), esc(data.Hex))
		}
		if data.ScaleFactor != nil {
			fmt.Fprintf(&b, `<p class="%s">Scale ×%s</p>`, esc(data.Theme.AccentTextClass), esc(FormatSheetQuantity(*data.ScaleFactor, "")))
		}
		if !data.GeneratedAt.IsZero() {
			fmt.Fprintf(&b, `<p class="%s">%s</p>`, esc(data.Theme.SubtleTextClass), esc(data.GeneratedAt.Format("02 Jan 2006 15:04")))
		}
		b.WriteString(`</header>`)

		if len(data.Rows) == 0 {
			fmt.Fprintf(&b, `<p class="%s">No ingredients recorded for this color.</p>`, esc(data.Theme.MutedTextClass))
		} else {
			fmt.Fprintf(&b, `<table class="%s"><thead><tr><th>#</th><th>Ingredient</th><th>Base</th><th>Target</th><th>Delivered</th><th>Remaining</th></tr></thead><tbody>`,
				esc(data.Theme.BorderStrongClass))
			for _, row := range data.Rows {
				if row.Invalid {
					fmt.Fprintf(&b, `<tr class="invalid"><td>%d</td><td colspan="5">%s</td></tr>`, row.Index+1, esc(row.Name))
					continue
				}
				remaining := formatOptional(row.Remaining, row.Unit)
				if row.Extra > 0 {
					remaining = "+" + FormatSheetQuantity(row.Extra, row.Unit)
				}
				fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					row.Index+1,
					esc(row.Name),
					esc(FormatSheetQuantity(row.Base, row.Unit)),
					esc(formatOptional(row.Target, row.Unit)),
					esc(FormatSheetQuantity(row.Delivered, row.Unit)),
					esc(remaining),
				)
			}
			b.WriteString(`</tbody>`)
			if len(data.Groups) > 0 {
				b.WriteString(`<tfoot>`)
				for _, g := range data.Groups {
					fmt.Fprintf(&b, `<tr><td></td><td>Total %s</td><td></td><td>%s</td><td>%s</td><td></td></tr>`,
						esc(DefaultDash(g.Unit)), esc(FormatSheetQuantity(g.Target, g.Unit)), esc(FormatSheetQuantity(g.Delivered, g.Unit)))
				}
				b.WriteString(`</tfoot>`)
			}
			b.WriteString(`</table>`)
		}

		fmt.Fprintf(&b, `<footer class="%s"><code>%s</code></footer></main></body></html>`, esc(data.Theme.BorderSoftClass), esc(data.Formula))

		_, err := io.WriteString(w, b.String())
		return err
	})
}

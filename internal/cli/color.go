package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chromastudio/internal/colormath"
	"chromastudio/internal/swatch"
)

type conversion struct {
	RGB     colormath.RGB    `json:"rgb"`
	Hex     string           `json:"hex"`
	CMYK    colormath.CMYK   `json:"cmyk"`
	HSL     colormath.HSL    `json:"hsl"`
	Lab     colormath.Lab    `json:"lab"`
	Pantone *colormath.Match `json:"pantone,omitempty"`
}

func convertCmd(opts *options) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "convert <color>...",
		Short: "Convert a color into every supported color space",
		Long: `Convert a color into HEX, RGB, CMYK, HSL and CIE LAB and show the
nearest Pantone swatch. Components may be separated by spaces or commas.

Examples:
  studioctl convert '#c8102e'
  studioctl convert --from rgb 200,16,46
  studioctl convert --from cmyk 0 92 77 22`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rgb, err := parseColor(from, args)
			if err != nil {
				return err
			}
			cat, err := opts.catalog()
			if err != nil {
				return err
			}

			out := conversion{RGB: rgb}
			out.Hex, _ = colormath.RGBToHex(rgb)
			out.CMYK, _ = colormath.RGBToCMYK(rgb)
			out.HSL, _ = colormath.RGBToHSL(rgb)
			out.Lab, _ = colormath.RGBToLab(rgb)
			if match, ok := cat.Closest(rgb); ok {
				out.Pantone = &match
			}

			w := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(w, out)
			}
			p := newPainter(w, opts.noColor)
			fmt.Fprintf(w, "%s%s\n", p.swatch(rgb), p.heading(out.Hex))
			fmt.Fprintf(w, "  RGB   %d, %d, %d\n", rgb.R, rgb.G, rgb.B)
			fmt.Fprintf(w, "  CMYK  %g%%, %g%%, %g%%, %g%%\n", out.CMYK.C, out.CMYK.M, out.CMYK.Y, out.CMYK.K)
			fmt.Fprintf(w, "  HSL   %g°, %g%%, %g%%\n", out.HSL.H, out.HSL.S, out.HSL.L)
			fmt.Fprintf(w, "  LAB   %.2f, %.2f, %.2f\n", out.Lab.L, out.Lab.A, out.Lab.B)
			if out.Pantone != nil {
				fmt.Fprintf(w, "  Pantone %s (%s, distance %.1f)\n", p.label(out.Pantone.RGB, out.Pantone.Code), out.Pantone.Name, out.Pantone.Distance)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "hex", "input color space: hex, rgb, hsl, cmyk or lab")
	return cmd
}

func deltaCmd(opts *options) *cobra.Command {
	var textile bool
	cmd := &cobra.Command{
		Use:   "delta <hex-a> <hex-b>",
		Short: "Measure the CIE76, CIE94 and CIEDE2000 difference between two colors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseColor("hex", args[:1])
			if err != nil {
				return fmt.Errorf("first color: %w", err)
			}
			b, err := parseColor("hex", args[1:])
			if err != nil {
				return fmt.Errorf("second color: %w", err)
			}
			labA, _ := colormath.RGBToLab(a)
			labB, _ := colormath.RGBToLab(b)

			weights := colormath.Weights94{}
			if textile {
				weights = colormath.Weights94{KL: 2, KC: 1, KH: 1, K1: 0.048, K2: 0.014}
			}
			result := map[string]float64{
				"de76":   colormath.DeltaE76(labA, labB),
				"de94":   colormath.DeltaE94(labA, labB, weights),
				"de2000": colormath.DeltaE2000(labA, labB, colormath.Weights2000{}),
			}

			w := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(w, result)
			}
			p := newPainter(w, opts.noColor)
			fmt.Fprintf(w, "%s%s  vs  %s%s\n", p.swatch(a), args[0], p.swatch(b), args[1])
			fmt.Fprintf(w, "  ΔE76    %.4f\n", result["de76"])
			fmt.Fprintf(w, "  ΔE94    %.4f\n", result["de94"])
			fmt.Fprintf(w, "  ΔE2000  %.4f  (%s)\n", result["de2000"], perception(result["de2000"]))
			return nil
		},
	}
	cmd.Flags().BoolVar(&textile, "textile", false, "use CIE94 textile weights")
	return cmd
}

func matchCmd(opts *options) *cobra.Command {
	var (
		count      int
		perceptual bool
		imagePath  string
		center     float64
	)
	cmd := &cobra.Command{
		Use:   "match [hex]",
		Short: "Find the nearest Pantone swatches to a color or a swatch photo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rgb colormath.RGB
			switch {
			case imagePath != "" && len(args) == 0:
				f, err := os.Open(imagePath)
				if err != nil {
					return err
				}
				defer f.Close()
				if rgb, err = swatch.CenterColor(f, center); err != nil {
					return err
				}
			case imagePath == "" && len(args) == 1:
				var err error
				if rgb, err = parseColor("hex", args); err != nil {
					return err
				}
			default:
				return errors.New("provide either a hex color or --image")
			}
			if count < 1 {
				return errors.New("--count must be at least 1")
			}

			cat, err := opts.catalog()
			if err != nil {
				return err
			}
			var matches []colormath.Match
			if perceptual {
				matches = cat.Similar(rgb, count)
			} else {
				matches = cat.ClosestN(rgb, count)
			}

			w := cmd.OutOrStdout()
			if opts.json {
				hex, _ := colormath.RGBToHex(rgb)
				return writeJSON(w, map[string]any{"query": hex, "matches": matches})
			}
			p := newPainter(w, opts.noColor)
			hex, _ := colormath.RGBToHex(rgb)
			fmt.Fprintf(w, "%s%s\n", p.swatch(rgb), p.heading(hex))
			for i, m := range matches {
				fmt.Fprintf(w, "%2d. %s%-24s %-16s %8.2f\n", i+1, p.swatch(m.RGB), m.Code, m.Name, m.Distance)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of swatches to list")
	cmd.Flags().BoolVar(&perceptual, "perceptual", false, "rank by CIEDE2000 instead of RGB distance")
	cmd.Flags().StringVar(&imagePath, "image", "", "sample the average color of an image file")
	cmd.Flags().Float64Var(&center, "center", 1, "fraction of the image, centered, to sample")
	return cmd
}

func parseColor(space string, args []string) (colormath.RGB, error) {
	fields := strings.FieldsFunc(strings.Join(args, " "), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	switch strings.ToLower(strings.TrimSpace(space)) {
	case "", "hex":
		if len(fields) != 1 {
			return colormath.RGB{}, errors.New("expected a single hex color")
		}
		rgb, ok := colormath.HexToRGB(fields[0])
		if !ok {
			return rgb, fmt.Errorf("invalid hex color %q", fields[0])
		}
		return rgb, nil
	case "rgb":
		v, err := numbers(fields, 3)
		if err != nil {
			return colormath.RGB{}, err
		}
		rgb := colormath.RGB{R: int(v[0]), G: int(v[1]), B: int(v[2])}
		if !rgb.Valid() || float64(rgb.R) != v[0] || float64(rgb.G) != v[1] || float64(rgb.B) != v[2] {
			return rgb, errors.New("rgb channels must be integers in [0, 255]")
		}
		return rgb, nil
	case "hsl":
		v, err := numbers(fields, 3)
		if err != nil {
			return colormath.RGB{}, err
		}
		return checked(colormath.HSLToRGB(colormath.HSL{H: v[0], S: v[1], L: v[2]}))
	case "cmyk":
		v, err := numbers(fields, 4)
		if err != nil {
			return colormath.RGB{}, err
		}
		return checked(colormath.CMYKToRGB(colormath.CMYK{C: v[0], M: v[1], Y: v[2], K: v[3]}))
	case "lab":
		v, err := numbers(fields, 3)
		if err != nil {
			return colormath.RGB{}, err
		}
		return checked(colormath.LabToRGB(colormath.Lab{L: v[0], A: v[1], B: v[2]}))
	default:
		return colormath.RGB{}, fmt.Errorf("unknown color space %q", space)
	}
}

func numbers(fields []string, want int) ([]float64, error) {
	if len(fields) != want {
		return nil, fmt.Errorf("expected %d components, got %d", want, len(fields))
	}
	out := make([]float64, want)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("component %q is not a number", f)
		}
		out[i] = v
	}
	return out, nil
}

func checked(rgb colormath.RGB, ok bool) (colormath.RGB, error) {
	if !ok {
		return rgb, errors.New("color components are out of range")
	}
	return rgb, nil
}

// perception gives the usual reading of a CIEDE2000 value.
func perception(d float64) string {
	switch {
	case d < 1:
		return "not perceptible"
	case d < 2:
		return "perceptible on close inspection"
	case d < 10:
		return "perceptible at a glance"
	case d < 50:
		return "colors are more similar than opposite"
	default:
		return "colors are nearly opposite"
	}
}

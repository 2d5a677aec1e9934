// Package cli implements studioctl, a terminal companion to the studio server
// for quick color conversions, swatch matching and formula scaling.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"chromastudio/internal/pantone"
)

type options struct {
	json        bool
	noColor     bool
	catalogPath string
}

// NewRootCmd builds the studioctl command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "studioctl",
		Short: "Color math and formula tools for the paint studio",
		Long: `studioctl converts colors between HEX, RGB, CMYK, HSL and CIE LAB,
measures color differences, matches colors against the Pantone catalog and
scales mixing formulas.

Examples:
  studioctl convert '#1f4e8c'
  studioctl convert --from lab 53.2 80.1 67.2
  studioctl delta '#c8102e' '#da291c'
  studioctl match --image swatch.jpg --center 0.5
  studioctl parse '钛白 5g 群青 3滴'
  studioctl scale '钛白 5g 群青 3滴' --row 0 --target 12`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&opts.json, "json", false, "print machine readable JSON")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored swatches")
	flags.StringVar(&opts.catalogPath, "catalog", "", "Pantone catalog JSON file (defaults to the built-in catalog)")

	root.AddCommand(
		convertCmd(opts),
		deltaCmd(opts),
		matchCmd(opts),
		parseCmd(opts),
		scaleCmd(opts),
	)
	return root
}

func (o *options) catalog() (*pantone.Catalog, error) {
	cat, err := pantone.New(o.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

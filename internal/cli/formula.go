package cli

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chromastudio/internal/calc"
	"chromastudio/internal/formula"
)

const scratchCode = "studioctl"

func parseCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "parse [formula...]",
		Short: "Parse a formula and show its ingredients, unit groups and version hash",
		Long: `Parse a formula written as name/amount pairs. The formula is read from
the arguments, from --file, or from standard input when the only argument is "-".

Examples:
  studioctl parse '钛白 5g 群青 3滴 赭石 15g'
  studioctl parse --file formula.txt
  cat formula.txt | studioctl parse -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readFormula(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}
			ingredients := formula.Parse(text)
			st := calc.NewStore(nil).State(scratchCode, text)

			w := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(w, map[string]any{
					"ingredients": ingredients,
					"usable":      formula.HasUsable(ingredients),
					"canonical":   formula.Format(ingredients),
					"hash":        formula.Hash(ingredients),
					"groups":      calc.Groups(st),
				})
			}

			p := newPainter(w, opts.noColor)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, p.heading("#\tNAME\tBASE\tUNIT\tSTATUS"))
			for i, ing := range ingredients {
				status := "ok"
				base := quantity(ing.Base)
				if ing.Invalid {
					status, base = "invalid", "-"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, ing.Name, base, ing.Unit, status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, g := range calc.Groups(st) {
				fmt.Fprintf(w, "group %s: %s across %d rows\n", unitLabel(g.Unit), quantity(g.BaseTotal), len(g.Rows))
			}
			fmt.Fprintf(w, "hash %s\n", formula.Hash(ingredients))
			if !formula.HasUsable(ingredients) {
				fmt.Fprintln(w, "formula has no usable ingredients")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the formula from a file")
	return cmd
}

func scaleCmd(opts *options) *cobra.Command {
	var (
		file      string
		row       int
		target    string
		factor    float64
		unit      string
		total     string
		delivered []string
	)
	cmd := &cobra.Command{
		Use:   "scale [formula...]",
		Short: "Scale a formula and track delivered quantities",
		Long: `Scale a formula in one of three ways: by giving the target for one row,
by a direct factor, or by the total for one unit group. Delivered quantities
may be recorded as row=value pairs to see what is still needed.

Examples:
  studioctl scale '钛白 5g 群青 3滴' --row 0 --target 12
  studioctl scale '钛白 5g 群青 3滴' --factor 2.5
  studioctl scale '钛白 5g 赭石 15g' --group g --total 100 --delivered 0=30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readFormula(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			modes := 0
			for _, name := range []string{"target", "factor", "total"} {
				if flags.Changed(name) {
					modes++
				}
			}
			if modes != 1 {
				return errors.New("choose exactly one of --target, --factor or --total")
			}

			store := calc.NewStore(nil)
			st := store.State(scratchCode, text)
			if !st.Usable() {
				return errors.New("formula has no usable ingredients")
			}

			var out calc.Outcome
			switch {
			case flags.Changed("target"):
				out = store.ApplyScale(scratchCode, row, target)
			case flags.Changed("factor"):
				out = store.ApplyScaleFactor(scratchCode, factor, -1)
			default:
				if !flags.Changed("group") {
					return errors.New("--total requires --group")
				}
				out = store.ApplyGroupTotal(scratchCode, unit, total)
			}
			if !out.Applied {
				return fmt.Errorf("scale rejected: %w", out.Reason)
			}

			for _, pair := range delivered {
				idx, value, err := splitDelivered(pair)
				if err != nil {
					return err
				}
				if res := store.UpdateDelivered(scratchCode, idx, value); !res.Applied {
					return fmt.Errorf("delivered %q rejected: %w", pair, res.Reason)
				}
				out = calc.Outcome{State: store.State(scratchCode, text), Applied: true}
			}

			st = out.State
			remainders := calc.Remainders(st)
			w := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(w, map[string]any{
					"state":      st,
					"remainders": remainders,
					"groups":     calc.Groups(st),
				})
			}
			return printScaled(w, newPainter(w, opts.noColor), st, remainders)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&file, "file", "f", "", "read the formula from a file")
	flags.IntVar(&row, "row", 0, "row whose target is given with --target")
	flags.StringVar(&target, "target", "", "new target for --row")
	flags.Float64Var(&factor, "factor", 0, "scale every ingredient by this factor")
	flags.StringVar(&unit, "group", "", "unit group for --total")
	flags.StringVar(&total, "total", "", "desired total for the --group unit")
	flags.StringSliceVar(&delivered, "delivered", nil, "delivered quantities as row=value pairs")
	return cmd
}

func printScaled(w io.Writer, p painter, st calc.State, remainders []calc.Remainder) error {
	byRow := make(map[int]calc.Remainder, len(remainders))
	for _, rem := range remainders {
		byRow[rem.Index] = rem
	}

	if st.ScaleFactor != nil {
		fmt.Fprintf(w, "%s x%s\n", p.heading("scale"), quantity(*st.ScaleFactor))
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tBASE\tTARGET\tDELIVERED\tREMAINING")
	for i, ing := range st.Ingredients {
		if ing.Invalid {
			fmt.Fprintf(tw, "%d\t%s\t-\t-\t-\t-\n", i, ing.Name)
			continue
		}
		rem := byRow[i]
		targetCell, remainingCell := "-", "-"
		if rem.Target != nil {
			targetCell = quantity(*rem.Target) + ing.Unit
		}
		switch {
		case rem.Rebalanced:
			remainingCell = fmt.Sprintf("+%s%s (rebalanced to %s)", quantity(rem.AdditionalNeeded), ing.Unit, quantity(rem.RebalancedTarget))
		case rem.Remaining != nil:
			remainingCell = quantity(*rem.Remaining) + ing.Unit
		}
		fmt.Fprintf(tw, "%d\t%s\t%s%s\t%s\t%s%s\t%s\n", i, ing.Name,
			quantity(ing.Base), ing.Unit, targetCell, quantity(rem.Delivered), ing.Unit, remainingCell)
	}
	return tw.Flush()
}

func readFormula(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("give the formula either as arguments or with --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", errors.New("no formula given")
	}
}

func splitDelivered(pair string) (int, string, error) {
	idx, value, ok := strings.Cut(pair, "=")
	if !ok {
		return 0, "", fmt.Errorf("delivered %q: expected row=value", pair)
	}
	row, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return 0, "", fmt.Errorf("delivered %q: bad row", pair)
	}
	return row, strings.TrimSpace(value), nil
}

func quantity(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

func unitLabel(unit string) string {
	if unit == "" {
		return "(no unit)"
	}
	return unit
}

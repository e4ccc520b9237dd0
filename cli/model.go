package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/harvest-planner/planner"
	"github.com/warp/harvest-planner/solver"
)

func (a *app) modelCommand() *cobra.Command {
	var (
		in       inputFlags
		lpPath   string
		comments bool
	)

	cmd := &cobra.Command{
		Use:   "model",
		Short: "Assemble a model and print its size or write it as an LP file",
		Long: `Assemble the model for a scenario without solving it.

Without --lp, prints variable, constraint and non-zero counts per group.
With --lp FILE (or - for stdout), writes the model in CPLEX LP format so
any MILP solver can be used on it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.resolve(in)
			if err != nil {
				return err
			}
			assembler := &planner.Assembler{Logger: a.logger}
			model, err := assembler.Assemble(sc.Catalog, sc.Settings)
			if err != nil {
				return err
			}

			if lpPath != "" {
				return writeLP(cmd.OutOrStdout(), lpPath, model, comments)
			}

			stats := model.Summary()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scenario %s: %d types over %d days\n\n", sc.ID, sc.Catalog.Len(), sc.Settings.HorizonDays)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tCONSTRAINTS")
			fmt.Fprintln(w, "─────\t───────────")
			for _, g := range stats.Groups {
				fmt.Fprintf(w, "%s\t%d\n", g.Group, g.Count)
			}
			fmt.Fprintln(w, "─────\t───────────")
			fmt.Fprintf(w, "Total\t%d\n", stats.Constraints)
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nVariables: %d (%d integer)\nNon-zeros: %d\n", stats.Variables, stats.IntegerVariables, stats.NonZeros)
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&lpPath, "lp", "", "Write the model as an LP file (- for stdout)")
	cmd.Flags().BoolVar(&comments, "comments", false, "Name every variable in LP comments")

	return cmd
}

func writeLP(stdout io.Writer, path string, model *planner.Model, comments bool) error {
	lw := solver.LPWriter{Comments: comments}
	if path == "-" {
		return lw.Write(stdout, model.Problem)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lw.Write(f, model.Problem); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

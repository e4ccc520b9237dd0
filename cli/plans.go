package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/harvest-planner/export"
	"github.com/warp/harvest-planner/generic"
)

func (a *app) plansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List, show and export stored runs",
	}
	cmd.AddCommand(a.plansListCommand())
	cmd.AddCommand(a.plansShowCommand())
	cmd.AddCommand(a.plansExportCommand())
	return cmd
}

func (a *app) plansListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No stored runs")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tSCENARIO\tSOLVER\tSTATUS\tOBJECTIVE\tTOOK")
			fmt.Fprintln(w, "──\t───────\t────────\t──────\t──────\t─────────\t────")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					run.ID,
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
					run.Scenario,
					run.Solver,
					run.Status,
					run.Objective.StringFixed(2),
					run.Duration,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs (0 for all)")
	return cmd
}

func (a *app) plansShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), generic.RunID(args[0]))
			if err != nil {
				return err
			}
			return export.WriteRunTables(cmd.OutOrStdout(), run)
		},
	}
}

func (a *app) plansExportCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write a stored run as CSV sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), generic.RunID(args[0]))
			if err != nil {
				return err
			}
			files, err := export.WriteSheets(outDir, run)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for CSV sheets")
	return cmd
}

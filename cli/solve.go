package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/harvest-planner/api"
	"github.com/warp/harvest-planner/export"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

func (a *app) solveCommand() *cobra.Command {
	var (
		in     inputFlags
		outDir string
		format string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a scenario and print the plan",
		Long: `Assemble the model for a scenario, solve it, and print the plan.

With --out, every grid is also written as a CSV sheet (planted.csv,
harvested.csv, ..., cash.csv). With --save, the run is stored in the
database and shows up in "planner plans list" and the API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}
			sc, err := a.resolve(in)
			if err != nil {
				return err
			}
			slv, err := a.solver()
			if err != nil {
				return err
			}

			svc := &planner.Service{Solver: slv, Logger: a.logger}
			if save {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				defer store.Close()
				svc.Store = store
			}

			run, _, err := svc.Run(cmd.Context(), sc.ID, sc.Catalog, sc.Settings)
			if err != nil {
				if run != nil && generic.IsSolveOutcome(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "No plan: the model is %s\n", run.Status)
				}
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(api.ToRunDTO(*run)); err != nil {
					return err
				}
			default:
				if err := export.WriteRunTables(out, run); err != nil {
					return err
				}
			}

			if outDir != "" {
				files, err := export.WriteSheets(outDir, run)
				if err != nil {
					return err
				}
				a.logger.Info().Int("files", len(files)).Str("dir", outDir).Msg("sheets written")
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for CSV sheets")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVar(&save, "save", false, "Store the run in the database")

	return cmd
}

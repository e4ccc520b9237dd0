package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/export"
	"github.com/warp/harvest-planner/factory"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// violations listed before the rest are summarised
const shownViolations = 10

func (a *app) scoreCommand() *cobra.Command {
	var (
		in       inputFlags
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Replay a hand-written schedule and check it",
		Long: `Replay a schedule file (YAML or JSON) day by day without a solver,
print the plan it implies, and list every rule it breaks.

  entries:
    - {type: Parsnip, day: 0, plant: 20}
    - {type: Parsnip, day: 4, store: 5, process: {keg: 5}}

Exits with an error when the schedule is not feasible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.resolve(in)
			if err != nil {
				return err
			}
			sched, err := readSchedule(schedule, sc.Settings)
			if err != nil {
				return err
			}
			m, err := planner.Assemble(sc.Catalog, sc.Settings)
			if err != nil {
				return err
			}

			score, err := planner.ScoreSchedule(m, sched)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			run := score.Plan.Run(generic.RunID("score"), sc.ID, time.Now().UTC())
			if err := export.WriteRunTables(out, &run); err != nil {
				return err
			}

			fmt.Fprintln(out)
			for _, st := range catalog.Stages {
				fmt.Fprintf(out, "Peak %s in flight: %s\n", sc.Settings.StageName(st), score.Peak[st])
			}
			if score.Feasible() {
				fmt.Fprintln(out, "Schedule is feasible")
				return nil
			}

			fmt.Fprintf(out, "Violations: %d\n", len(score.Violations))
			for i, v := range score.Violations {
				if i == shownViolations {
					fmt.Fprintf(out, "  ... and %d more\n", len(score.Violations)-i)
					break
				}
				fmt.Fprintf(out, "  %s\n", v)
			}
			return fmt.Errorf("schedule breaks %d rules: %w", len(score.Violations), generic.ErrInfeasible)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", "", "Schedule file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("schedule")

	return cmd
}

func readSchedule(path string, s planner.Settings) (*planner.Schedule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc, err := factory.ReadScheduleDoc(file, factory.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc.Schedule(s)
}

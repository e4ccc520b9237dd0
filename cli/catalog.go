package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/factory"
)

func (a *app) catalogCommand() *cobra.Command {
	var (
		in     inputFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the resource types of a scenario",
		Long: `Print the resource types a scenario plans with.

--format yaml or json prints a document that "solve --catalog" accepts,
so the built-in table can be exported, edited and fed back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.resolve(in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				return factory.WriteCatalog(out, sc.Catalog, factory.FormatYAML)
			case "json":
				return factory.WriteCatalog(out, sc.Catalog, factory.FormatJSON)
			case "table":
				return writeCatalogTable(out, sc)
			default:
				return fmt.Errorf("unknown format %q (want table, yaml or json)", format)
			}
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, yaml or json")

	return cmd
}

func writeCatalogTable(out io.Writer, sc *factory.Scenario) error {
	stage1 := sc.Settings.StageName(catalog.StageOne)
	stage2 := sc.Settings.StageName(catalog.StageTwo)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tCOST\tPRICE\tGROWTH\tDAYS\tREGROW\tWINDOW\tUNLOCK\t%s\t%s\n", stage1, stage2)
	fmt.Fprintln(w, "────\t────\t─────\t──────\t────\t──────\t──────\t──────\t───\t───")
	for _, rt := range sc.Catalog.Types() {
		regrow := "-"
		if n := catalog.RegrowthInterval(rt.Growth); n > 0 {
			regrow = fmt.Sprint(n)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d-%d\t%d\t%s\t%s\n",
			rt.Name,
			rt.AcquisitionCost,
			rt.SalePrice,
			catalog.GrowthKind(rt.Growth),
			rt.GrowthDelay,
			regrow,
			rt.Window.Start, rt.Window.End,
			rt.UnlockDay,
			formatRule(rt.Rule(catalog.StageOne)),
			formatRule(rt.Rule(catalog.StageTwo)),
		)
	}
	return w.Flush()
}

// formatRule prints "price/delay d" or "-" for unsupported stages.
func formatRule(r catalog.ProcessingRule) string {
	if !r.Supported {
		return "-"
	}
	return fmt.Sprintf("%s/%dd", r.OutputPrice, r.Delay)
}

func (a *app) scenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDESCRIPTION")
			fmt.Fprintln(w, "──\t────\t────────\t───────────")
			for _, doc := range factory.Scenarios() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", doc.ID, doc.Name, doc.Category, doc.Description)
			}
			return w.Flush()
		},
	}
}

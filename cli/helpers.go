package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/harvest-planner/factory"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/store/sqlite"
)

// inputFlags selects what to plan: a built-in scenario, optionally with
// its catalog replaced by a file or narrowed to some types.
type inputFlags struct {
	scenario    string
	catalogPath string
	include     []string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.scenario, "scenario", "s", "", "Built-in scenario (default "+factory.DefaultScenario+")")
	cmd.Flags().StringVar(&f.catalogPath, "catalog", "", "Catalog file (YAML or JSON) replacing the scenario's types")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "Only plan these types of the built-in catalog")
}

// resolve builds the scenario. Scenarios without a planning block use the
// configured planning section.
func (a *app) resolve(f inputFlags) (*factory.Scenario, error) {
	if f.catalogPath != "" && len(f.include) > 0 {
		return nil, fmt.Errorf("--catalog and --include cannot be combined")
	}

	doc, err := factory.LookupScenario(f.scenario)
	if err != nil {
		return nil, err
	}
	if doc.Planning == nil {
		planning := a.cfg.Planning
		doc.Planning = &planning
	}

	if f.catalogPath != "" {
		file, err := os.Open(f.catalogPath)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		cd, err := factory.ReadCatalogDoc(file, factory.FormatFromPath(f.catalogPath))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.catalogPath, err)
		}
		doc.Catalog = &cd
		doc.Include = nil
	}
	if len(f.include) > 0 {
		doc.Include = f.include
		doc.Catalog = nil
	}
	return doc.Build()
}

func (a *app) solver() (generic.Solver, error) {
	return a.newSolver(a.cfg.SolverOptions(), a.logger)
}

func (a *app) openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.Database.Path, err)
	}
	return store, nil
}

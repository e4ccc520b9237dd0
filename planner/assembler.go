/*
Package planner turns a resource catalog and farm settings into a mixed
integer linear model, hands it to a solver, and reads the plan back.

assembler.go - Orchestrates the builders into one Problem

ASSEMBLY ORDER:
  1. Validate settings, then the catalog against the horizon
  2. Allocate variables
  3. Eligibility constraints (once)
  4. For each day t in [0, H): processing, then accounting with the
     processing revenue of day t
  5. Initial conditions, storage and inventory limits
  6. Objective

  Every builder returns its own constraint slice; the assembler only
  concatenates them. Nothing is solved here and the returned Problem is
  never modified afterwards.

USAGE:
  model, err := planner.Assemble(catalog.Default(), planner.DefaultSettings())
  plan, err := planner.Solve(ctx, model, solver)

SEE ALSO:
  - eligibility.go, accounting.go, processing.go, structure.go, objective.go
  - plan.go: Reading a solution back into named arrays
*/
package planner

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// Model is an assembled problem together with what it was built from.
type Model struct {
	Catalog  *catalog.Catalog
	Settings Settings
	Vars     *Variables
	Problem  *generic.Problem
}

// Summary reports the model's size per constraint group.
func (m *Model) Summary() generic.Stats {
	return m.Problem.Stats()
}

// Observer receives timing and size information. metrics.Collector
// implements it.
type Observer interface {
	ObserveAssembly(stats generic.Stats, took time.Duration)
	ObserveSolve(solver string, status generic.Status, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveAssembly(generic.Stats, time.Duration)       {}
func (nopObserver) ObserveSolve(string, generic.Status, time.Duration) {}

// Assembler builds models. The zero value is usable and silent.
type Assembler struct {
	Logger   zerolog.Logger
	Observer Observer
}

// Assemble builds a model with a silent assembler.
func Assemble(cat *catalog.Catalog, s Settings) (*Model, error) {
	return (&Assembler{Logger: zerolog.Nop()}).Assemble(cat, s)
}

// Assemble validates its input and builds the full model. Invalid input is
// reported as a *generic.ConstructionError.
func (a *Assembler) Assemble(cat *catalog.Catalog, s Settings) (*Model, error) {
	start := time.Now()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := cat.Validate(s.Horizon()); err != nil {
		return nil, err
	}

	vars := NewVariables(cat, s)

	var constraints []generic.Constraint
	constraints = append(constraints, EligibilityBuilder{Catalog: cat, Vars: vars, Settings: s}.Build()...)

	processing := ProcessingBuilder{Catalog: cat, Vars: vars, Settings: s}
	accounting := NewAccountingBuilder(cat, vars, s)
	for t := 0; t < s.HorizonDays; t++ {
		capacity, revenue := processing.BuildDay(t)
		constraints = append(constraints, accounting.BuildDay(t, revenue)...)
		constraints = append(constraints, capacity...)
	}

	constraints = append(constraints, InitialConditions(vars, s)...)
	constraints = append(constraints, StorageLimits(vars)...)
	constraints = append(constraints, InventoryLimits(vars, s)...)

	model := &Model{
		Catalog:  cat,
		Settings: s,
		Vars:     vars,
		Problem: &generic.Problem{
			Vars:        vars.All(),
			Constraints: constraints,
			Objective:   BuildObjective(cat, vars),
		},
	}

	took := time.Since(start)
	stats := model.Summary()
	a.observer().ObserveAssembly(stats, took)

	ev := a.Logger.Debug().
		Int("types", cat.Len()).
		Int("days", s.HorizonDays).
		Int("variables", stats.Variables).
		Int("constraints", stats.Constraints).
		Int("nonzeros", stats.NonZeros).
		Dur("took", took)
	for _, g := range stats.Groups {
		ev = ev.Int("group_"+g.Group, g.Count)
	}
	ev.Msg("model assembled")

	return model, nil
}

func (a *Assembler) observer() Observer {
	if a.Observer == nil {
		return nopObserver{}
	}
	return a.Observer
}

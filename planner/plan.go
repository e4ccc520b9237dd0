package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// PLAN - A solved model read back into named arrays
// =============================================================================

// SolutionTolerance is how far a returned value may stray from a bound or
// constraint before the solution is rejected.
var SolutionTolerance = decimal.New(1, -4)

// Plan is the output of a successful solve.
type Plan struct {
	Status    generic.Status
	Solver    string
	Objective decimal.Decimal
	Duration  time.Duration
	Values    generic.Assignment
	Grids     []generic.Grid
	Cash      generic.Series
	Land      generic.Series
}

// Grid returns the named grid.
func (p *Plan) Grid(name string) (generic.Grid, bool) {
	for _, g := range p.Grids {
		if g.Name == name {
			return g, true
		}
	}
	return generic.Grid{}, false
}

// Run converts the plan into a storable run.
func (p *Plan) Run(id generic.RunID, scenario string, at time.Time) generic.Run {
	return generic.Run{
		ID:        id,
		Scenario:  scenario,
		Solver:    p.Solver,
		Status:    p.Status,
		Objective: p.Objective,
		Duration:  p.Duration,
		CreatedAt: at,
		Grids:     p.Grids,
		Series:    []generic.Series{p.Cash, p.Land},
	}
}

// Solve hands the model to solver and reads back the plan.
//
// Errors:
//   - *generic.StatusError (ErrInfeasible/ErrUnbounded) for non-optimal outcomes
//   - *generic.SolverError (ErrSolverFailure) when the solver breaks or
//     returns an assignment that does not satisfy the model
func Solve(ctx context.Context, m *Model, solver generic.Solver) (*Plan, error) {
	start := time.Now()
	sol, err := solver.Solve(ctx, m.Problem)
	took := time.Since(start)
	if err != nil {
		var se *generic.SolverError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &generic.SolverError{Solver: solver.Name(), Err: err}
	}
	if sol.Status != generic.StatusOptimal {
		return nil, &generic.StatusError{Status: sol.Status}
	}
	if len(sol.Values) != len(m.Problem.Vars) {
		return nil, &generic.SolverError{
			Solver: solver.Name(),
			Err:    fmt.Errorf("returned %d values for %d variables", len(sol.Values), len(m.Problem.Vars)),
		}
	}

	values := roundIntegers(m.Problem, sol.Values)
	if v := m.Problem.Violations(values, SolutionTolerance); len(v) > 0 {
		return nil, &generic.SolverError{
			Solver: solver.Name(),
			Err:    fmt.Errorf("solution violates %d requirements, first: %s", len(v), v[0]),
		}
	}

	plan := Extract(m, values)
	plan.Solver = solver.Name()
	plan.Duration = took
	return plan, nil
}

// roundIntegers snaps integer variables to the nearest whole value.
func roundIntegers(p *generic.Problem, values generic.Assignment) generic.Assignment {
	out := make(generic.Assignment, len(values))
	for i, v := range values {
		if p.Vars[i].Kind == generic.Integer {
			v = v.Round(0)
		}
		out[i] = v
	}
	return out
}

// Extract reads an assignment back into named arrays. The objective is
// recomputed exactly from values.
func Extract(m *Model, values generic.Assignment) *Plan {
	vars := m.Vars
	rows := m.Catalog.Names()
	read := func(g [][]generic.VarID) [][]float64 {
		out := make([][]float64, len(g))
		for r := range g {
			out[r] = make([]float64, len(g[r]))
			for d, id := range g[r] {
				out[r][d] = values[id].InexactFloat64()
			}
		}
		return out
	}
	derive := func(f func(r, d int) generic.Expr) [][]float64 {
		out := make([][]float64, vars.Types)
		for r := range out {
			out[r] = make([]float64, vars.Days)
			for d := range out[r] {
				out[r][d] = values.Value(f(r, d)).InexactFloat64()
			}
		}
		return out
	}

	sold := func(r, d int) generic.Expr {
		return generic.V(vars.Harvested[r][d]).Minus(generic.V(vars.Stored[r][d]))
	}
	inventory := make([][]float64, vars.Types)
	for r := range inventory {
		inventory[r] = make([]float64, vars.Days)
		level := decimal.Zero
		for d := range inventory[r] {
			level = level.Add(values.Value(vars.DailyNet(r, d)))
			inventory[r][d] = level.InexactFloat64()
		}
	}

	grids := []generic.Grid{
		{Name: GridPlanted, Label: "Farming", Rows: rows, Values: read(vars.Planted)},
		{Name: GridHarvested, Label: "Harvested", Rows: rows, Values: read(vars.Harvested)},
		{Name: GridSold, Label: "Sold", Rows: rows, Values: derive(sold)},
		{Name: GridStored, Label: "Stored", Rows: rows, Values: read(vars.Stored)},
		{Name: GridInventory, Label: "Inventory", Rows: rows, Values: inventory},
	}
	for _, st := range catalog.Stages {
		name := m.Settings.StageName(st)
		grids = append(grids, generic.Grid{Name: name, Label: stageLabel(name), Rows: rows, Values: read(vars.Processed[st])})
	}

	series := func(name string, ids []generic.VarID) generic.Series {
		s := generic.Series{Name: name, Values: make([]float64, len(ids))}
		for t, id := range ids {
			s.Values[t] = values[id].InexactFloat64()
		}
		return s
	}

	return &Plan{
		Status:    generic.StatusOptimal,
		Objective: m.Problem.ObjectiveValue(values),
		Values:    values,
		Grids:     grids,
		Cash:      series(SeriesCash, vars.Cash),
		Land:      series(SeriesLand, vars.Land),
	}
}

// stageLabel turns "keg" into "Keg use".
func stageLabel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:] + " use"
}

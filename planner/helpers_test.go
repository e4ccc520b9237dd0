package planner_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// tinyType is a single-harvest type over a 10-day horizon that no stage
// accepts.
func tinyType(growth, mult int) catalog.ResourceType {
	return catalog.ResourceType{
		Name:              "Parsnip",
		AcquisitionCost:   dec(20),
		SalePrice:         dec(35),
		GrowthDelay:       growth,
		Growth:            catalog.SingleHarvest{},
		HarvestMultiplier: mult,
		Window:            generic.Window{Start: 0, End: 9},
	}
}

// tinySettings: 10 days, 500 cash, 20 plots, no processing at all.
func tinySettings() planner.Settings {
	s := planner.DefaultSettings()
	s.HorizonDays = 10
	s.SeasonLength = 10
	s.ProcessingBlackoutDays = 10
	s.ProcessingMinDay = 0
	s.Stages[catalog.StageOne].Capacity = catalog.NoCapacity{}
	s.Stages[catalog.StageTwo].Capacity = catalog.NoCapacity{}
	return s
}

// quietSettings is the default year without processing units, so
// schedules that never process stay feasible.
func quietSettings() planner.Settings {
	s := planner.DefaultSettings()
	s.Stages[catalog.StageOne].Capacity = catalog.NoCapacity{}
	s.Stages[catalog.StageTwo].Capacity = catalog.NoCapacity{}
	return s
}

func assemble(t *testing.T, cat *catalog.Catalog, s planner.Settings) *planner.Model {
	t.Helper()
	m, err := planner.Assemble(cat, s)
	require.NoError(t, err)
	return m
}

func simulate(t *testing.T, m *planner.Model, sched *planner.Schedule) generic.Assignment {
	t.Helper()
	a, err := planner.Simulate(m, sched)
	require.NoError(t, err)
	return a
}

// requireFeasible fails with the first few violations, if any.
func requireFeasible(t *testing.T, m *planner.Model, a generic.Assignment) {
	t.Helper()
	v := m.Problem.Violations(a, decimal.Zero)
	if len(v) > 5 {
		v = v[:5]
	}
	require.Empty(t, v)
}

func value(a generic.Assignment, id generic.VarID) int64 {
	return a[id].IntPart()
}

// stubSolver returns a fixed answer.
type stubSolver struct {
	sol *generic.Solution
	err error
}

func (s stubSolver) Name() string { return "stub" }

func (s stubSolver) Solve(ctx context.Context, p *generic.Problem) (*generic.Solution, error) {
	return s.sol, s.err
}

func optimal(a generic.Assignment) stubSolver {
	return stubSolver{sol: &generic.Solution{Status: generic.StatusOptimal, Values: a}}
}

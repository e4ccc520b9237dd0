package planner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/generic/store"
	"github.com/warp/harvest-planner/planner"
)

// =============================================================================
// SOLVE TESTS
// =============================================================================

func cashExample(t *testing.T) (*planner.Model, generic.Assignment) {
	m := assemble(t, catalog.New(tinyType(4, 1)), tinySettings())
	return m, simulate(t, m, planner.NewSchedule().Plant("Parsnip", 0, 5))
}

func TestSolve_ReadsBackNamedArrays(t *testing.T) {
	m, a := cashExample(t)

	plan, err := planner.Solve(context.Background(), m, optimal(a))

	require.NoError(t, err)
	assert.Equal(t, generic.StatusOptimal, plan.Status)
	assert.Equal(t, "stub", plan.Solver)
	assert.True(t, plan.Objective.Equal(dec(575)))

	planted, ok := plan.Grid(planner.GridPlanted)
	require.True(t, ok)
	assert.Equal(t, "Farming", planted.Label)
	assert.Equal(t, []string{"Parsnip"}, planted.Rows)
	assert.Equal(t, 5.0, planted.At(0, 0))

	sold, _ := plan.Grid(planner.GridSold)
	assert.Equal(t, 5.0, sold.At(0, 4))

	keg, ok := plan.Grid("keg")
	require.True(t, ok)
	assert.Equal(t, "Keg use", keg.Label)
	jar, _ := plan.Grid("jar")
	assert.Equal(t, "Jar use", jar.Label)

	assert.Len(t, plan.Cash.Values, 11)
	assert.Equal(t, 575.0, plan.Cash.Values[10])
	assert.Equal(t, 20.0, plan.Land.Values[5])
}

func TestSolve_InventoryGridIsCumulative(t *testing.T) {
	m := assemble(t, catalog.New(tinyType(4, 1)), tinySettings())
	a := simulate(t, m, planner.NewSchedule().Plant("Parsnip", 0, 5).Store("Parsnip", 4, 3))

	plan, err := planner.Solve(context.Background(), m, optimal(a))
	require.NoError(t, err)

	inv, _ := plan.Grid(planner.GridInventory)
	assert.Equal(t, []float64{0, 0, 0, 0, 3, 3, 3, 3, 3, 3}, inv.Values[0])
}

func TestSolve_StatusOutcomes(t *testing.T) {
	m, _ := cashExample(t)

	tests := []struct {
		status generic.Status
		want   error
	}{
		{generic.StatusInfeasible, generic.ErrInfeasible},
		{generic.StatusUnbounded, generic.ErrUnbounded},
	}
	for _, tt := range tests {
		_, err := planner.Solve(context.Background(), m, stubSolver{sol: &generic.Solution{Status: tt.status}})

		assert.ErrorIs(t, err, tt.want)
		assert.False(t, errors.Is(err, generic.ErrSolverFailure))
		var se *generic.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, tt.status, se.Status)
	}
}

func TestSolve_SolverErrorIsNotInfeasible(t *testing.T) {
	m, _ := cashExample(t)

	_, err := planner.Solve(context.Background(), m, stubSolver{err: context.DeadlineExceeded})

	assert.ErrorIs(t, err, generic.ErrSolverFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, generic.IsSolveOutcome(err))
}

func TestSolve_RejectsInvalidAssignment(t *testing.T) {
	m, a := cashExample(t)
	a.Set(m.Vars.Cash[10], 9999)

	_, err := planner.Solve(context.Background(), m, optimal(a))

	assert.ErrorIs(t, err, generic.ErrSolverFailure)
}

func TestSolve_RoundsNearIntegers(t *testing.T) {
	m, a := cashExample(t)
	a[m.Vars.Planted[0][0]] = a[m.Vars.Planted[0][0]].Add(dec(1).Div(dec(10000000)))

	plan, err := planner.Solve(context.Background(), m, optimal(a))

	require.NoError(t, err)
	assert.True(t, plan.Values[m.Vars.Planted[0][0]].Equal(dec(5)))
}

// =============================================================================
// SERVICE TESTS
// =============================================================================

func TestService_StoresOptimalRun(t *testing.T) {
	ctx := context.Background()
	m, a := cashExample(t)
	runs := store.NewMemory()
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	svc := &planner.Service{
		Solver: optimal(a),
		Store:  runs,
		NewID:  func() generic.RunID { return "run-1" },
		Now:    func() time.Time { return at },
	}

	run, plan, err := svc.Run(ctx, "tiny", m.Catalog, m.Settings)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, generic.RunID("run-1"), run.ID)

	saved, err := runs.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "tiny", saved.Scenario)
	assert.True(t, saved.Objective.Equal(dec(575)))
	assert.Equal(t, at, saved.CreatedAt)
	assert.Len(t, saved.Grids, 7)
	assert.Len(t, saved.Series, 2)
}

func TestService_StoresInfeasibleRun(t *testing.T) {
	ctx := context.Background()
	m, _ := cashExample(t)
	runs := store.NewMemory()

	svc := &planner.Service{
		Solver: stubSolver{sol: &generic.Solution{Status: generic.StatusInfeasible}},
		Store:  runs,
	}

	run, plan, err := svc.Run(ctx, "tiny", m.Catalog, m.Settings)
	assert.ErrorIs(t, err, generic.ErrInfeasible)
	assert.Nil(t, plan)
	require.NotNil(t, run)

	saved, err := runs.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, generic.StatusInfeasible, saved.Status)
	assert.Empty(t, saved.Grids)
}

func TestService_ConstructionErrorStoresNothing(t *testing.T) {
	ctx := context.Background()
	runs := store.NewMemory()
	s := tinySettings()
	s.HorizonDays = 0

	svc := &planner.Service{Solver: stubSolver{}, Store: runs}
	_, _, err := svc.Run(ctx, "broken", catalog.New(tinyType(4, 1)), s)

	assert.ErrorIs(t, err, generic.ErrModelConstruction)
	listed, _ := runs.ListRuns(ctx, 0)
	assert.Empty(t, listed)
}

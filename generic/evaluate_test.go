package generic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/generic/store"
)

func smallProblem() (*generic.Problem, generic.VarID, generic.VarID) {
	table := generic.NewVarTable()
	three := dec(3)
	x := table.New("x", generic.Integer, decimal.Zero, &three)
	y := table.New("y", generic.Continuous, decimal.Zero, nil)
	return &generic.Problem{
		Vars: table.Vars(),
		Constraints: []generic.Constraint{
			generic.Le("sum", generic.V(x).Plus(generic.V(y)), generic.ConstInt(4)),
		},
		Objective: generic.Objective{
			Direction: generic.Maximize,
			Expr:      generic.V(x).Scale(dec(3)).Plus(generic.V(y).Scale(dec(2))),
		},
	}, x, y
}

func TestViolations_FeasibleAssignment(t *testing.T) {
	p, x, y := smallProblem()
	a := generic.NewAssignment(len(p.Vars))
	a.Set(x, 3)
	a.Set(y, 1)

	assert.Empty(t, p.Violations(a, decimal.Zero))
	assert.True(t, p.ObjectiveValue(a).Equal(dec(11)))
}

func TestViolations_ReportsEachKind(t *testing.T) {
	// GIVEN: x above its upper bound and fractional, sum over its limit
	// THEN: One violation of each kind

	p, x, y := smallProblem()
	a := generic.NewAssignment(len(p.Vars))
	a[x] = decimal.RequireFromString("3.5")
	a.Set(y, 2)

	kinds := map[generic.ViolationKind]int{}
	for _, v := range p.Violations(a, decimal.Zero) {
		kinds[v.Kind]++
	}
	assert.Equal(t, 1, kinds[generic.ViolationBound])
	assert.Equal(t, 1, kinds[generic.ViolationIntegrality])
	assert.Equal(t, 1, kinds[generic.ViolationConstraint])
}

func TestHolds_RespectsTolerance(t *testing.T) {
	p, x, _ := smallProblem()
	a := generic.NewAssignment(len(p.Vars))
	a[x] = decimal.RequireFromString("4.0000001")

	assert.False(t, a.Holds(p.Constraints[0], decimal.Zero))
	assert.True(t, a.Holds(p.Constraints[0], decimal.RequireFromString("0.000001")))
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestStatusError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, &generic.StatusError{Status: generic.StatusInfeasible}, generic.ErrInfeasible)
	assert.ErrorIs(t, &generic.StatusError{Status: generic.StatusUnbounded}, generic.ErrUnbounded)
	assert.True(t, generic.IsSolveOutcome(&generic.StatusError{Status: generic.StatusInfeasible}))
}

func TestSolverError_UnwrapsBoth(t *testing.T) {
	err := &generic.SolverError{Solver: "cbc", Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, generic.ErrSolverFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, generic.ErrInfeasible))
}

func TestConstructionError_IsClientError(t *testing.T) {
	err := &generic.ConstructionError{Resource: "Parsnip", Field: "growth_delay", Reason: "must be positive"}

	assert.True(t, generic.IsClientError(err))
	assert.Contains(t, err.Error(), "Parsnip.growth_delay")
}

// =============================================================================
// MEMORY STORE TESTS
// =============================================================================

func TestMemoryStore_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []generic.RunID{"a", "b", "c"} {
		require.NoError(t, s.SaveRun(ctx, generic.Run{
			ID:        id,
			Status:    generic.StatusOptimal,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Grids:     []generic.Grid{{Name: "planted", Rows: []string{"Parsnip"}, Values: [][]float64{{1, 0}}}},
		}))
	}

	run, err := s.GetRun(ctx, "b")
	require.NoError(t, err)
	g, ok := run.Grid("planted")
	require.True(t, ok)
	assert.Equal(t, 1.0, g.At(0, 0))

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, generic.RunID("c"), runs[0].ID)
	assert.Nil(t, runs[0].Grids)

	_, err = s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrPlanNotFound)
}

func TestGrid_NonZeroRows(t *testing.T) {
	g := generic.Grid{Rows: []string{"a", "b", "c"}, Values: [][]float64{{0, 0}, {0, 2}, {0, 0}}}
	assert.Equal(t, []int{1}, g.NonZeroRows())

	row, ok := g.Row("b")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 2}, row)
}

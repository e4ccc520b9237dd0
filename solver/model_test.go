package solver_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/factory"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
	"github.com/warp/harvest-planner/solver"
)

// =============================================================================
// PLANNER MODEL FIXTURES
// =============================================================================

// beanScenario is one regrowing type over ten days: first harvest four days
// after planting, then every two days. Planting 20 on day 0 or 1 gives
// three harvests each, which is the best any unit of land can do.
const beanScenario = `
id: beans
name: Beans
planning:
  horizon_days: 10
  season_length: 10
  initial_cash: 500
  total_land: 20
  inventory_capacity: 50
  processing_blackout_days: 10
  processing_min_day: 0
  stages:
    - {name: keg, every: 0, lag: 0}
    - {name: jar, every: 0, lag: 0}
catalog:
  types:
    - name: Bean
      cost: 20
      price: 30
      growth: regrowth
      growth_days: 4
      regrow_days: 2
      window: {start: 0, end: 9}
`

func assembleScenario(t *testing.T, id string) *planner.Model {
	t.Helper()
	sc, err := factory.LoadScenario(id)
	require.NoError(t, err)
	m, err := planner.Assemble(sc.Catalog, sc.Settings)
	require.NoError(t, err)
	return m
}

// springModel assembles the 28-day spring season for a few default types.
func springModel(t *testing.T, names ...string) *planner.Model {
	t.Helper()
	spring, err := factory.LoadScenario("spring-only")
	require.NoError(t, err)
	cat, err := catalog.Default().Subset(names...)
	require.NoError(t, err)
	m, err := planner.Assemble(cat, spring.Settings)
	require.NoError(t, err)
	return m
}

// cancelAfter reports context.Canceled from its n+1th Err call on.
type cancelAfter struct {
	context.Context
	n     int64
	calls int64
}

func (c *cancelAfter) Err() error {
	if atomic.AddInt64(&c.calls, 1) > c.n {
		return context.Canceled
	}
	return nil
}

// =============================================================================
// END-TO-END SOLVE TESTS
// =============================================================================

func TestSimplex_SolvesTinyScenario(t *testing.T) {
	// GIVEN: Ten days of Parsnip on 20 land with 500 cash
	// WHEN: Solving the assembled model in-process
	// THEN: Two full plantings are made: 500 - 400 + 700 - 400 + 700 = 1100

	m := assembleScenario(t, "tiny")

	plan, err := planner.Solve(context.Background(), m, solver.NewSimplex())

	require.NoError(t, err)
	assert.Equal(t, generic.StatusOptimal, plan.Status)
	assert.True(t, plan.Objective.Equal(decimal.NewFromInt(1100)), "objective %s", plan.Objective)
	assert.Empty(t, m.Problem.Violations(plan.Values, planner.SolutionTolerance))
}

func TestSimplex_SolvesRegrowthModel(t *testing.T) {
	// GIVEN: A regrowing type whose land only comes back at the window end
	// WHEN: Solving the assembled model in-process
	// THEN: All land is planted early: 500 - 20*20 + 3 harvests * 20 * 30 = 1900,
	//       the same as replaying that schedule by hand

	sc, err := factory.ParseScenario(strings.NewReader(beanScenario), factory.FormatYAML)
	require.NoError(t, err)
	m, err := planner.Assemble(sc.Catalog, sc.Settings)
	require.NoError(t, err)

	plan, err := planner.Solve(context.Background(), m, solver.NewSimplex())

	require.NoError(t, err)
	assert.Equal(t, generic.StatusOptimal, plan.Status)
	assert.Empty(t, m.Problem.Violations(plan.Values, planner.SolutionTolerance))
	assert.True(t, plan.Objective.Equal(decimal.NewFromInt(1900)), "objective %s", plan.Objective)

	byHand, err := planner.Simulate(m, planner.NewSchedule().Plant("Bean", 0, 20))
	require.NoError(t, err)
	require.Empty(t, m.Problem.Violations(byHand, decimal.Zero))
	assert.True(t, plan.Objective.Equal(m.Problem.ObjectiveValue(byHand)))
}

func TestAuto_SolvesSpringParsnipInProcess(t *testing.T) {
	// GIVEN: The 28-day spring season with Parsnip only, processing ramps on
	// WHEN: Solving with the auto solver and no CBC binary available
	// THEN: The model fits the dense simplex and solves without violations

	m := springModel(t, "Parsnip")
	auto, err := solver.New(solver.Options{Kind: solver.KindAuto, CBCPath: "/nonexistent/cbc"}, zerolog.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	plan, err := planner.Solve(ctx, m, auto)

	require.NoError(t, err)
	assert.Equal(t, generic.StatusOptimal, plan.Status)
	assert.Empty(t, m.Problem.Violations(plan.Values, planner.SolutionTolerance))
	assert.True(t, plan.Objective.GreaterThan(decimal.NewFromInt(500)), "objective %s", plan.Objective)
}

// =============================================================================
// CANCELLATION TESTS
// =============================================================================

func TestSimplex_CancelledInsideRelaxation(t *testing.T) {
	// GIVEN: A context that turns cancelled after the first check, which
	//        branch-and-bound makes before the root relaxation
	// WHEN: Solving a planner model
	// THEN: The relaxation itself notices and the solve stops

	m := springModel(t, "Parsnip")
	ctx := &cancelAfter{Context: context.Background(), n: 1}

	_, err := solver.NewSimplex().Solve(ctx, m.Problem)

	assert.ErrorIs(t, err, generic.ErrSolverFailure)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, atomic.LoadInt64(&ctx.calls), int64(2))
}

func TestSimplex_DeadlineOnLargerModel(t *testing.T) {
	// GIVEN: A two-type spring model and no size limit
	// WHEN: Solving under a short deadline
	// THEN: The solve returns promptly, with the deadline error if it had
	//       not finished

	m := springModel(t, "Kale", "Potato")
	s := solver.NewSimplex()
	s.MaxDenseCells = 0
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	sol, err := s.Solve(ctx, m.Problem)
	took := time.Since(start)

	assert.Less(t, took, 5*time.Second)
	if err != nil {
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorIs(t, err, generic.ErrSolverFailure)
	} else {
		assert.Equal(t, generic.StatusOptimal, sol.Status)
	}
}

package planner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// =============================================================================
// SINGLE HARVEST TESTS
// =============================================================================

func TestSingleHarvest_ExactlyOneHarvestDay(t *testing.T) {
	// GIVEN: Growth 4, multiplier 2, 3 units planted on day 2
	// WHEN: Replaying the schedule
	// THEN: Harvested is 6 on day 6 and 0 on every other day, and the
	//       assignment satisfies the model

	m := assemble(t, catalog.New(tinyType(4, 2)), tinySettings())
	a := simulate(t, m, planner.NewSchedule().Plant("Parsnip", 2, 3))

	requireFeasible(t, m, a)
	for d := 0; d < 10; d++ {
		want := int64(0)
		if d == 6 {
			want = 6
		}
		assert.Equal(t, want, value(a, m.Vars.Harvested[0][d]), "day %d", d)
	}
}

func TestSingleHarvest_WrongHarvestViolatesLinkage(t *testing.T) {
	m := assemble(t, catalog.New(tinyType(4, 2)), tinySettings())
	a := simulate(t, m, planner.NewSchedule().Plant("Parsnip", 2, 3))

	a.Set(m.Vars.Harvested[0][7], 1)

	var names []string
	for _, v := range m.Problem.Violations(a, dec(0)) {
		names = append(names, v.Name)
	}
	assert.Contains(t, names, "harvest:harvested[Parsnip,7]")
}

// =============================================================================
// CASH TESTS
// =============================================================================

func TestCash_Recurrence(t *testing.T) {
	// GIVEN: 500 cash, cost 20, price 35, 5 units planted on day 0
	// THEN: Cash drops to 400 the day after planting and rises by 5*35 the
	//       day after the harvest

	tests := []struct {
		growth   int
		lowUntil int // last index of cash at 400
		sold     int // index where cash reaches 575
	}{
		{growth: 4, lowUntil: 4, sold: 5},
		{growth: 5, lowUntil: 5, sold: 6},
	}
	for _, tt := range tests {
		m := assemble(t, catalog.New(tinyType(tt.growth, 1)), tinySettings())
		a := simulate(t, m, planner.NewSchedule().Plant("Parsnip", 0, 5))
		requireFeasible(t, m, a)

		assert.Equal(t, int64(500), value(a, m.Vars.Cash[0]))
		for i := 1; i <= tt.lowUntil; i++ {
			assert.True(t, a[m.Vars.Cash[i]].Equal(dec(400)), "growth %d cash[%d] = %s", tt.growth, i, a[m.Vars.Cash[i]])
		}
		for i := tt.sold; i <= 10; i++ {
			assert.True(t, a[m.Vars.Cash[i]].Equal(dec(575)), "growth %d cash[%d] = %s", tt.growth, i, a[m.Vars.Cash[i]])
		}
	}
}

func TestCash_StoredUnitsAreNotSold(t *testing.T) {
	m := assemble(t, catalog.New(tinyType(4, 1)), tinySettings())
	a := simulate(t, m, planner.NewSchedule().Plant("Parsnip", 0, 5).Store("Parsnip", 4, 2))

	requireFeasible(t, m, a)
	assert.True(t, a[m.Vars.Cash[5]].Equal(dec(400+3*35)))
}

func TestCash_CannotGoNegative(t *testing.T) {
	// 30 units cost 600 > 500
	s := tinySettings()
	s.TotalLand = 100
	m := assemble(t, catalog.New(tinyType(4, 1)), s)
	a := simulate(t, m, planner.NewSchedule().Plant("Parsnip", 0, 30))

	violations := m.Problem.Violations(a, dec(0))
	require.NotEmpty(t, violations)
	assert.Equal(t, generic.ViolationBound, violations[0].Kind)
	assert.Equal(t, "cash[1]", violations[0].Name)
}

// =============================================================================
// LAND TESTS
// =============================================================================

func TestLand_Conserved(t *testing.T) {
	// GIVEN: Plantings on days 0, 2 and 7 with growth 4 in a 10-day window
	// THEN: totalLand - land[t] equals the land held by plantings whose
	//       harvest has not happened before day t. The day-7 planting would
	//       ripen on day 11, after the window, and is never released.

	const growth = 4
	plantings := map[int]int64{0: 5, 2: 3, 7: 4}

	m := assemble(t, catalog.New(tinyType(growth, 1)), tinySettings())
	sched := planner.NewSchedule()
	for d, q := range plantings {
		sched.Plant("Parsnip", d, q)
	}
	a := simulate(t, m, sched)
	requireFeasible(t, m, a)

	for day := 0; day <= 10; day++ {
		committed := int64(0)
		for d, q := range plantings {
			harvest := d + growth
			released := harvest < day && harvest <= 9
			if d < day && !released {
				committed += q
			}
		}
		assert.Equal(t, 20-committed, value(a, m.Vars.Land[day]), "land[%d]", day)
	}
}

func TestLand_CannotOvercommit(t *testing.T) {
	m := assemble(t, catalog.New(tinyType(4, 1)), tinySettings())
	a := simulate(t, m, planner.NewSchedule().Plant("Parsnip", 0, 15).Plant("Parsnip", 1, 10))

	found := false
	for _, v := range m.Problem.Violations(a, dec(0)) {
		if v.Name == "land[2]" && v.Kind == generic.ViolationBound {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLand_RegrowthReleasedAtWindowEnd(t *testing.T) {
	m := assemble(t, catalog.Default(), quietSettings())
	a := simulate(t, m, planner.NewSchedule().Plant("Green Bean", 3, 2).Plant("Corn", 28, 1))
	requireFeasible(t, m, a)

	// Green Bean frees its plots after day 27
	assert.Equal(t, int64(18), value(a, m.Vars.Land[27]))
	assert.Equal(t, int64(20), value(a, m.Vars.Land[28]))

	// Corn holds its plot through summer and autumn
	assert.Equal(t, int64(19), value(a, m.Vars.Land[56]))
	assert.Equal(t, int64(19), value(a, m.Vars.Land[83]))
	assert.Equal(t, int64(20), value(a, m.Vars.Land[84]))
}

// =============================================================================
// REGROWTH TESTS
// =============================================================================

func TestRegrowth_HarvestDays(t *testing.T) {
	// GIVEN: One unit planted on the first day of the window
	// THEN: The non-zero harvest days are exactly
	//       {w0+g, w0+g+r, ...} within the window, each yielding the multiplier

	tests := []struct {
		name string
		day  int
	}{
		{"Green Bean", 0},
		{"Blueberry", 28},
		{"Cranberries", 56},
		{"Corn", 28},
		{"Strawberry", 13},
	}
	cat := catalog.Default()
	m := assemble(t, cat, quietSettings())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := cat.Lookup(tt.name)
			require.NoError(t, err)
			interval := catalog.RegrowthInterval(rt.Growth)

			want := map[int]bool{}
			for b := tt.day + rt.GrowthDelay; b <= rt.Window.End; b += interval {
				want[b] = true
			}

			a := simulate(t, m, planner.NewSchedule().Plant(tt.name, tt.day, 1))
			requireFeasible(t, m, a)

			for d := 0; d < 84; d++ {
				got := value(a, m.Vars.Harvested[rt.Index][d])
				if want[d] {
					assert.Equal(t, int64(rt.HarvestMultiplier), got, "day %d", d)
				} else {
					assert.Zero(t, got, "day %d", d)
				}
			}
		})
	}
}

func TestRegrowth_CornHarvestsAcrossSeasons(t *testing.T) {
	m := assemble(t, catalog.Default(), quietSettings())
	corn, _ := m.Catalog.Lookup("Corn")
	a := simulate(t, m, planner.NewSchedule().Plant("Corn", 28, 1))

	var days []int
	for d := 0; d < 84; d++ {
		if value(a, m.Vars.Harvested[corn.Index][d]) > 0 {
			days = append(days, d)
		}
	}
	assert.Equal(t, []int{42, 46, 50, 54, 58, 62, 66, 70, 74, 78, 82}, days)
}

func TestRegrowth_PlantingOutsideWindowIsInfeasible(t *testing.T) {
	m := assemble(t, catalog.Default(), quietSettings())
	a := simulate(t, m, planner.NewSchedule().Plant("Green Bean", 30, 1))

	var names []string
	for _, v := range m.Problem.Violations(a, dec(0)) {
		names = append(names, v.Name)
	}
	require.NotEmpty(t, names)
	assert.True(t, strings.HasPrefix(names[0], "eligibility:planted[Green Bean,30]"))
}

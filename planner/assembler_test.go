package planner_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// =============================================================================
// ELIGIBILITY TESTS
// =============================================================================

// zeroConstraints indexes constraints of the form "1*x = 0" by name.
func zeroConstraints(m *planner.Model) map[string]generic.Constraint {
	out := map[string]generic.Constraint{}
	for _, c := range m.Problem.Constraints {
		if c.Group != planner.GroupEligibility {
			continue
		}
		if len(c.Terms) == 1 && c.Terms[0].Coef.Equal(dec(1)) && c.RHS.IsZero() && c.Sense == generic.SenseEQ {
			out[c.Name] = c
		}
	}
	return out
}

func TestEligibility_OutsideWindowIsZero(t *testing.T) {
	// GIVEN: The default year
	// WHEN: Assembling the model
	// THEN: Every planted/harvested variable outside its window has "x = 0"
	//       and no in-window variable does

	m := assemble(t, catalog.Default(), planner.DefaultSettings())
	zeros := zeroConstraints(m)

	for r, rt := range m.Catalog.Types() {
		for d := 0; d < m.Settings.HorizonDays; d++ {
			planted := "eligibility:" + m.Vars.Name(m.Vars.Planted[r][d])
			harvested := "eligibility:" + m.Vars.Name(m.Vars.Harvested[r][d])

			_, hasPlanted := zeros[planted]
			_, hasHarvested := zeros[harvested]
			assert.Equal(t, !rt.CanPlant(d), hasPlanted, planted)
			assert.Equal(t, !rt.Window.Contains(d), hasHarvested, harvested)
		}
	}
}

func TestEligibility_UnlockDay(t *testing.T) {
	m := assemble(t, catalog.Default(), planner.DefaultSettings())
	zeros := zeroConstraints(m)

	assert.Contains(t, zeros, "eligibility:planted[Strawberry,12]")
	assert.NotContains(t, zeros, "eligibility:planted[Strawberry,13]")
	assert.NotContains(t, zeros, "eligibility:harvested[Strawberry,12]")
}

func TestEligibility_ProcessingBlackoutAndUnsupported(t *testing.T) {
	m := assemble(t, catalog.Default(), planner.DefaultSettings())
	zeros := zeroConstraints(m)

	assert.Contains(t, zeros, "eligibility:keg[Melon,17]")
	assert.NotContains(t, zeros, "eligibility:keg[Melon,18]")
	assert.Contains(t, zeros, "eligibility:jar[Eggplant,60]")
	assert.NotContains(t, zeros, "eligibility:keg[Eggplant,60]")
	assert.Contains(t, zeros, "eligibility:keg[Tulip,80]")
}

// =============================================================================
// ASSEMBLY TESTS
// =============================================================================

func TestAssemble_DefaultYearShape(t *testing.T) {
	m := assemble(t, catalog.Default(), planner.DefaultSettings())
	stats := m.Summary()

	// 5 grids of 27x84, plus cash and land over 85 points
	assert.Equal(t, 5*27*84+2*85, stats.Variables)
	assert.Equal(t, 5*27*84+85, stats.IntegerVariables)

	groups := map[string]int{}
	for _, g := range stats.Groups {
		groups[g.Group] = g.Count
	}
	assert.Equal(t, 84, groups[planner.GroupCash])
	assert.Equal(t, 84, groups[planner.GroupLand])
	assert.Equal(t, 2, groups[planner.GroupInitial])
	assert.Equal(t, 27*84, groups[planner.GroupStorage])
	assert.Equal(t, 27*84+84, groups[planner.GroupInventory])
	// two stages, days 6..82
	assert.Equal(t, 2*77, groups[planner.GroupCapacity])
	assert.Equal(t, generic.Maximize, m.Problem.Objective.Direction)
}

func TestAssemble_Idempotent(t *testing.T) {
	// GIVEN: The same catalog and settings
	// WHEN: Assembling twice
	// THEN: Variables and constraints match term by term

	a := assemble(t, catalog.Default(), planner.DefaultSettings())
	b := assemble(t, catalog.Default(), planner.DefaultSettings())

	require.Equal(t, len(a.Problem.Vars), len(b.Problem.Vars))
	require.Equal(t, len(a.Problem.Constraints), len(b.Problem.Constraints))
	for i := range a.Problem.Vars {
		assert.Equal(t, a.Problem.Vars[i].Name, b.Problem.Vars[i].Name)
		assert.Equal(t, a.Problem.Vars[i].Kind, b.Problem.Vars[i].Kind)
	}
	for i := range a.Problem.Constraints {
		if a.Problem.Constraints[i].String() != b.Problem.Constraints[i].String() {
			t.Fatalf("constraint %d differs:\n%s\n%s", i, a.Problem.Constraints[i], b.Problem.Constraints[i])
		}
	}
	assert.Equal(t, a.Problem.Objective.Expr.String(), b.Problem.Objective.Expr.String())
}

func TestAssemble_RejectsInvalidCatalog(t *testing.T) {
	rt := tinyType(4, 1)
	rt.Processing[catalog.StageOne] = catalog.Rule(10, 80)

	_, err := planner.Assemble(catalog.New(rt), tinySettings())

	assert.ErrorIs(t, err, generic.ErrModelConstruction)
	assert.True(t, generic.IsClientError(err))
}

func TestAssemble_RejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		edit func(*planner.Settings)
	}{
		{"min day after blackout", func(s *planner.Settings) { s.ProcessingMinDay = 20 }},
		{"decreasing capacity", func(s *planner.Settings) { s.Stages[0].Capacity = catalog.TableCapacity{0, 3, 2} }},
		{"duplicate stage names", func(s *planner.Settings) { s.Stages[1].Name = "keg" }},
		{"stage shadows a grid", func(s *planner.Settings) { s.Stages[0].Name = "planted" }},
		{"negative land", func(s *planner.Settings) { s.TotalLand = -1 }},
		{"no horizon", func(s *planner.Settings) { s.HorizonDays = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := planner.DefaultSettings()
			tt.edit(&s)

			_, err := planner.Assemble(catalog.Default(), s)
			assert.ErrorIs(t, err, generic.ErrModelConstruction)
		})
	}
}

func TestAssemble_GrowthLongerThanWindow_HarvestIsZero(t *testing.T) {
	// GIVEN: A regrowing type whose growth delay exceeds its window
	// THEN: Each window day still gets a harvest constraint, and it reads
	//       "harvested = 0"

	rt := tinyType(12, 1)
	rt.Growth = catalog.Regrowth{Interval: 2}
	m := assemble(t, catalog.New(rt), tinySettings())

	count := 0
	for _, c := range m.Problem.Constraints {
		if c.Group != planner.GroupHarvest {
			continue
		}
		count++
		require.Len(t, c.Terms, 1, c.Name)
		assert.True(t, c.RHS.IsZero())
		assert.Equal(t, generic.SenseEQ, c.Sense)
	}
	assert.Equal(t, 10, count)
}

func TestAssemble_UnsupportedStageNotInCapacity(t *testing.T) {
	m := assemble(t, catalog.Default(), planner.DefaultSettings())
	eggplant, _ := m.Catalog.Lookup("Eggplant")

	excluded := map[generic.VarID]bool{}
	for _, id := range m.Vars.Processed[catalog.StageTwo][eggplant.Index] {
		excluded[id] = true
	}
	for _, c := range m.Problem.Constraints {
		if c.Group != planner.GroupCapacity && c.Group != planner.GroupCash && c.Group != planner.GroupInventory {
			continue
		}
		for _, term := range c.Terms {
			assert.False(t, excluded[term.Var], "%s references %s", c.Name, m.Vars.Name(term.Var))
		}
	}
}

func TestAssemble_HarvestLinkageTerms(t *testing.T) {
	m := assemble(t, catalog.Default(), planner.DefaultSettings())
	corn, _ := m.Catalog.Lookup("Corn")

	var link generic.Constraint
	want := fmt.Sprintf("harvest:harvested[Corn,%d]", 46)
	for _, c := range m.Problem.Constraints {
		if c.Name == want {
			link = c
		}
	}
	require.Equal(t, want, link.Name)

	// harvested[46] - planted[28] - planted[32] = 0
	expr := generic.Expr{Terms: link.Terms}
	assert.True(t, expr.Coef(m.Vars.Harvested[corn.Index][46]).Equal(dec(1)))
	assert.True(t, expr.Coef(m.Vars.Planted[corn.Index][28]).Equal(dec(-1)))
	assert.True(t, expr.Coef(m.Vars.Planted[corn.Index][32]).Equal(dec(-1)))
	assert.Len(t, link.Terms, 3)
	assert.True(t, strings.HasPrefix(link.Name, planner.GroupHarvest))
}

package planner_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// =============================================================================
// PROCESSING TEST FIXTURE
// =============================================================================

const (
	procDays     = 30
	procMinDay   = 2
	procBlackout = 5
	procStock    = 2000
	procStageOne = 10
	procStageTwo = 12
)

type processingCase struct {
	model  *planner.Model
	caps   [catalog.NumStages]catalog.StepCapacity
	delays [catalog.NumStages]int
}

// newProcessingCase builds a one-type model whose stages have random delays
// and random step ramps that stay flat through the blackout.
func newProcessingCase(t *testing.T, rng *rand.Rand) processingCase {
	t.Helper()
	var pc processingCase
	for i := range pc.caps {
		every := 1 + rng.Intn(4)
		pc.caps[i] = catalog.StepCapacity{Every: every, Lag: procBlackout/every + rng.Intn(3)}
	}
	pc.delays = [catalog.NumStages]int{1 + rng.Intn(4), 1 + rng.Intn(3)}

	grain := catalog.ResourceType{
		Name:              "Grain",
		AcquisitionCost:   dec(1),
		SalePrice:         dec(1),
		GrowthDelay:       2,
		Growth:            catalog.SingleHarvest{},
		HarvestMultiplier: 1,
		Window:            generic.Window{Start: 0, End: procDays - 1},
		Processing: [catalog.NumStages]catalog.ProcessingRule{
			catalog.Rule(pc.delays[0], procStageOne),
			catalog.Rule(pc.delays[1], procStageTwo),
		},
	}

	s := planner.DefaultSettings()
	s.HorizonDays = procDays
	s.SeasonLength = procDays
	s.InitialCash = dec(5000)
	s.TotalLand = 5000
	s.InventoryCapacity = 5000
	s.ProcessingMinDay = procMinDay
	s.ProcessingBlackoutDays = procBlackout
	s.Stages[0].Capacity = pc.caps[0]
	s.Stages[1].Capacity = pc.caps[1]

	pc.model = assemble(t, catalog.New(grain), s)
	return pc
}

// fullSchedule stocks 2000 units on day 2 and keeps every stage exactly at
// its ramp: starts(t) = cap(t+1) - cap(t) + completions(t).
func (pc processingCase) fullSchedule() (*planner.Schedule, int64) {
	sched := planner.NewSchedule().Plant("Grain", 0, procStock).Store("Grain", 2, procStock)
	total := int64(0)
	for i, st := range catalog.Stages {
		starts := make([]int, procDays)
		for day := procMinDay; day+1 < procDays; day++ {
			done := 0
			if day-pc.delays[i] >= 0 {
				done = starts[day-pc.delays[i]]
			}
			starts[day] = pc.caps[i].At(day+1) - pc.caps[i].At(day) + done
			if starts[day] > 0 {
				sched.Process(st, "Grain", day, int64(starts[day]))
				total += int64(starts[day])
			}
		}
	}
	return sched, total
}

// =============================================================================
// CAPACITY TESTS
// =============================================================================

func TestProcessing_InFlightNeverExceedsCapacity(t *testing.T) {
	// GIVEN: Random ramps and delays
	// WHEN: Replaying a schedule that keeps every stage full
	// THEN: The schedule satisfies the model and in-flight jobs never
	//       exceed cap(t) on any day

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		pc := newProcessingCase(t, rng)
		sched, _ := pc.fullSchedule()
		a := simulate(t, pc.model, sched)
		requireFeasible(t, pc.model, a)

		for _, st := range catalog.Stages {
			for day := 0; day < procDays; day++ {
				inFlight := planner.InFlight(pc.model, a, st, day)
				limit := decimal.NewFromInt(int64(pc.caps[st].At(day)))
				assert.True(t, inFlight.LessThanOrEqual(limit),
					"case %d %s day %d: %s in flight, cap %s (ramp %v, delay %d)",
					i, st, day, inFlight, limit, pc.caps[st], pc.delays[st])
			}
		}
	}
}

func TestProcessing_ExtraJobBreaksCapacity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pc := newProcessingCase(t, rng)
	sched, _ := pc.fullSchedule()
	sched.Process(catalog.StageOne, "Grain", procDays-5, 1)

	a := simulate(t, pc.model, sched)

	groups := map[string]bool{}
	for _, v := range pc.model.Problem.Violations(a, dec(0)) {
		for _, c := range pc.model.Problem.Constraints {
			if c.Name == v.Name {
				groups[c.Group] = true
			}
		}
	}
	assert.True(t, groups[planner.GroupCapacity])
}

func TestProcessing_BlackoutForbidsEarlyJobs(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pc := newProcessingCase(t, rng)
	sched := planner.NewSchedule().Plant("Grain", 0, 10).Store("Grain", 2, 10).Process(catalog.StageTwo, "Grain", 3, 1)

	a := simulate(t, pc.model, sched)

	var names []string
	for _, v := range pc.model.Problem.Violations(a, dec(0)) {
		names = append(names, v.Name)
	}
	assert.Contains(t, names, "eligibility:jar[Grain,3]")
}

func TestProcessing_RevenueCreditedOnCompletion(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pc := newProcessingCase(t, rng)
	sched, _ := pc.fullSchedule()
	a := simulate(t, pc.model, sched)
	m := pc.model

	for day := procMinDay; day < procDays; day++ {
		expected := a[m.Vars.Cash[day]]
		for i, st := range catalog.Stages {
			if started := day - pc.delays[i]; started >= 0 {
				price := []int64{procStageOne, procStageTwo}[i]
				expected = expected.Add(a[m.Vars.Processed[st][0][started]].Mul(dec(price)))
			}
		}
		require.True(t, expected.Equal(a[m.Vars.Cash[day+1]]), "day %d", day)
	}
}

// =============================================================================
// OBJECTIVE TESTS
// =============================================================================

func TestObjective_CashPlusLiquidatedInventory(t *testing.T) {
	// GIVEN: A feasible schedule leaving stock in inventory at the end
	// THEN: objective = cash[H] + max(stage prices) * inventory[H-1], exactly

	rng := rand.New(rand.NewSource(99))
	pc := newProcessingCase(t, rng)
	sched, processed := pc.fullSchedule()
	a := simulate(t, pc.model, sched)
	requireFeasible(t, pc.model, a)

	left := int64(procStock) - processed
	require.Positive(t, left)

	want := a[pc.model.Vars.Cash[procDays]].Add(dec(procStageTwo * left))
	assert.True(t, pc.model.Problem.ObjectiveValue(a).Equal(want),
		"objective %s, want %s", pc.model.Problem.ObjectiveValue(a), want)
}

func TestObjective_UnprocessableInventoryIsWorthNothing(t *testing.T) {
	m := assemble(t, catalog.New(tinyType(4, 1)), tinySettings())
	a := simulate(t, m, planner.NewSchedule().Plant("Parsnip", 0, 5).Store("Parsnip", 4, 5))
	requireFeasible(t, m, a)

	assert.True(t, m.Problem.ObjectiveValue(a).Equal(dec(400)))
}

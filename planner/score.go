package planner

import (
	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// ScoreSolver labels plans that were replayed rather than solved.
const ScoreSolver = "schedule"

// Score is a replayed schedule: the plan it implies and every rule it
// breaks. Peak is the most stage jobs in flight on any day, per stage.
type Score struct {
	Plan       *Plan
	Violations []generic.Violation
	Peak       [catalog.NumStages]decimal.Decimal
}

// Feasible reports whether the schedule breaks no rule.
func (s *Score) Feasible() bool { return len(s.Violations) == 0 }

// ScoreSchedule replays sched against m and checks the result. A schedule
// that breaks rules still gets a plan; its objective is what the farm
// would end with if the rules did not apply.
func ScoreSchedule(m *Model, sched *Schedule) (*Score, error) {
	values, err := Simulate(m, sched)
	if err != nil {
		return nil, err
	}

	plan := Extract(m, values)
	plan.Solver = ScoreSolver
	sc := &Score{Plan: plan, Violations: m.Problem.Violations(values, SolutionTolerance)}
	if !sc.Feasible() {
		plan.Status = generic.StatusInfeasible
	}
	for _, st := range catalog.Stages {
		peak := decimal.Zero
		for t := 0; t < m.Settings.HorizonDays; t++ {
			peak = decimal.Max(peak, InFlight(m, values, st, t))
		}
		sc.Peak[st] = peak
	}
	return sc, nil
}

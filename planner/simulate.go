/*
simulate.go - Replay a hand-written schedule day by day

PURPOSE:
  Computes the full assignment a schedule implies by stepping through the
  days procedurally: crops ripen, land comes back, cash moves. No
  constraint is consulted. Checking the result against the assembled
  Problem (Problem.Violations) verifies that the algebra says the same
  thing as the procedure, and scores schedules without a solver.

INPUT:
  A Schedule lists planted, stored and processed quantities. Harvests,
  cash and land are derived. Stored units are held back from sale.

SEE ALSO:
  - accounting.go, processing.go: The same rules as constraints
  - score.go: Replay plus violations, for the score command
*/
package planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

type scheduleKey struct {
	name string
	day  int
}

// Schedule is a set of decisions keyed by type name and day.
type Schedule struct {
	planted   map[scheduleKey]int64
	stored    map[scheduleKey]int64
	processed [catalog.NumStages]map[scheduleKey]int64
}

func NewSchedule() *Schedule {
	s := &Schedule{planted: map[scheduleKey]int64{}, stored: map[scheduleKey]int64{}}
	for i := range s.processed {
		s.processed[i] = map[scheduleKey]int64{}
	}
	return s
}

// Plant adds qty units of name planted on day.
func (s *Schedule) Plant(name string, day int, qty int64) *Schedule {
	s.planted[scheduleKey{name, day}] += qty
	return s
}

// Store holds back qty harvested units of name on day.
func (s *Schedule) Store(name string, day int, qty int64) *Schedule {
	s.stored[scheduleKey{name, day}] += qty
	return s
}

// Process starts qty units of name in stage st on day.
func (s *Schedule) Process(st catalog.Stage, name string, day int, qty int64) *Schedule {
	s.processed[st][scheduleKey{name, day}] += qty
	return s
}

// Simulate replays sched against the model's catalog and settings and
// returns the implied assignment. Unknown type names and days outside the
// horizon are errors; schedules that break a rule are not, since that is
// what Problem.Violations is for.
func Simulate(m *Model, sched *Schedule) (generic.Assignment, error) {
	cat, s, vars := m.Catalog, m.Settings, m.Vars
	a := generic.NewAssignment(vars.Len())

	apply := func(entries map[scheduleKey]int64, grid [][]generic.VarID) error {
		for k, qty := range entries {
			rt, err := cat.Lookup(k.name)
			if err != nil {
				return err
			}
			if k.day < 0 || k.day >= s.HorizonDays {
				return fmt.Errorf("%s on day %d: outside horizon", k.name, k.day)
			}
			id := grid[rt.Index][k.day]
			a[id] = a[id].Add(decimal.NewFromInt(qty))
		}
		return nil
	}
	if err := apply(sched.planted, vars.Planted); err != nil {
		return nil, err
	}
	if err := apply(sched.stored, vars.Stored); err != nil {
		return nil, err
	}
	for _, st := range catalog.Stages {
		if err := apply(sched.processed[st], vars.Processed[st]); err != nil {
			return nil, err
		}
	}

	planted := func(r, d int) decimal.Decimal { return a[vars.Planted[r][d]] }

	// Harvests and land returns.
	freed := make([]decimal.Decimal, s.HorizonDays)
	for i := range freed {
		freed[i] = decimal.Zero
	}
	for r, rt := range cat.Types() {
		switch g := rt.Growth.(type) {
		case catalog.SingleHarvest:
			for d := 0; d < s.HorizonDays; d++ {
				t := d + rt.GrowthDelay
				if !rt.CanPlant(d) || !rt.CanHarvest(t) {
					continue
				}
				id := vars.Harvested[r][t]
				a[id] = a[id].Add(planted(r, d).Mul(decimal.NewFromInt(int64(rt.HarvestMultiplier))))
				freed[t] = freed[t].Add(planted(r, d))
			}
		case catalog.Regrowth, catalog.TwoSeasonRegrowth:
			w := rt.PlantingWindow()
			for d := w.Start; d <= w.End; d++ {
				p := planted(r, d)
				for t := d + rt.GrowthDelay; rt.CanHarvest(t) && t-rt.Window.Start < harvestCutoff(rt, g); t += catalog.RegrowthInterval(g) {
					id := vars.Harvested[r][t]
					a[id] = a[id].Add(p.Mul(decimal.NewFromInt(int64(rt.HarvestMultiplier))))
				}
				end := rt.Window.End
				freed[end] = freed[end].Add(p)
			}
		}
	}

	// Cash and land, day by day.
	a[vars.Cash[0]] = s.InitialCash
	a[vars.Land[0]] = decimal.NewFromInt(int64(s.TotalLand))
	for t := 0; t < s.HorizonDays; t++ {
		cash := a[vars.Cash[t]]
		land := a[vars.Land[t]].Add(freed[t])
		for r, rt := range cat.Types() {
			p := planted(r, t)
			cash = cash.Sub(p.Mul(rt.AcquisitionCost))
			land = land.Sub(p)

			sold := a[vars.Harvested[r][t]].Sub(a[vars.Stored[r][t]])
			cash = cash.Add(sold.Mul(rt.SalePrice))

			if t < s.ProcessingMinDay {
				continue
			}
			for _, st := range catalog.Stages {
				rule := rt.Rule(st)
				if rule.Supported && t-rule.Delay >= 0 {
					cash = cash.Add(a[vars.Processed[st][r][t-rule.Delay]].Mul(rule.OutputPrice))
				}
			}
		}
		a[vars.Cash[t+1]] = cash
		a[vars.Land[t+1]] = land
	}
	return a, nil
}

func harvestCutoff(rt catalog.ResourceType, g catalog.Growth) int {
	if two, ok := g.(catalog.TwoSeasonRegrowth); ok {
		return two.HarvestCutoff
	}
	return rt.Window.Len() + 1
}

// InFlight is the number of stage st jobs running at the start of day t:
// started on or before t-1 and not yet finished by t.
func InFlight(m *Model, a generic.Assignment, st catalog.Stage, t int) decimal.Decimal {
	total := decimal.Zero
	for r, rt := range m.Catalog.Types() {
		rule := rt.Rule(st)
		if !rule.Supported {
			continue
		}
		for u := t - rule.Delay; u < t; u++ {
			if u >= 0 {
				total = total.Add(a[m.Vars.Processed[st][r][u]])
			}
		}
	}
	return total
}

package planner

import (
	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// ELIGIBILITY - Activity outside its window is fixed to zero
// =============================================================================

// EligibilityBuilder emits one "x = 0" constraint for every variable that
// must stay idle:
//   - planted[r,d] when d is outside r's planting window (season window
//     narrowed by the unlock day)
//   - harvested[r,d] when d is outside r's season window
//   - <stage>[r,d] for every day before the processing blackout ends
//   - <stage>[r,d] on every day when the stage does not accept r
type EligibilityBuilder struct {
	Catalog  *catalog.Catalog
	Vars     *Variables
	Settings Settings
}

func (b EligibilityBuilder) Build() []generic.Constraint {
	var out []generic.Constraint
	for r, rt := range b.Catalog.Types() {
		for d := 0; d < b.Settings.HorizonDays; d++ {
			if !rt.CanPlant(d) {
				out = append(out, b.zero(b.Vars.Planted[r][d]))
			}
			if !rt.CanHarvest(d) {
				out = append(out, b.zero(b.Vars.Harvested[r][d]))
			}
		}
		for _, st := range catalog.Stages {
			for d := 0; d < b.Settings.HorizonDays; d++ {
				if !rt.Rule(st).Supported || d < b.Settings.ProcessingBlackoutDays {
					out = append(out, b.zero(b.Vars.Processed[st][r][d]))
				}
			}
		}
	}
	return generic.InGroup(GroupEligibility, out)
}

func (b EligibilityBuilder) zero(v generic.VarID) generic.Constraint {
	return generic.Eq(GroupEligibility+":"+b.Vars.Name(v), generic.V(v), generic.ConstInt(0))
}

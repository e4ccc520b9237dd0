package planner

import (
	"fmt"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// PROCESSING - Capacity ramp and revenue of completed jobs
// =============================================================================

// ProcessingBuilder couples processing starts to the stage capacity ramps.
//
// For every day t >= ProcessingMinDay and every stage s:
//
//	net(s,t) = sum_r s[r,t] - sum_r s[r, t-delay(r,s)]
//	net(s,t) = cap_s(t+1) - cap_s(t)          when t+1 < H
//	revenue(t) += sum_r price(r,s) * s[r, t-delay(r,s)]
//
// Types a stage does not accept are left out of every sum.
type ProcessingBuilder struct {
	Catalog  *catalog.Catalog
	Vars     *Variables
	Settings Settings
}

// BuildDay returns day t's capacity constraints and the revenue of jobs
// completing on t.
func (b ProcessingBuilder) BuildDay(t int) ([]generic.Constraint, generic.Expr) {
	revenue := generic.Expr{}
	if t < b.Settings.ProcessingMinDay {
		return nil, revenue
	}

	var out []generic.Constraint
	for _, st := range catalog.Stages {
		net := generic.Expr{}
		for r, rt := range b.Catalog.Types() {
			rule := rt.Rule(st)
			if !rule.Supported {
				continue
			}
			net = net.AddTerm(b.Vars.Processed[st][r][t], one)
			if started := t - rule.Delay; started >= 0 {
				done := b.Vars.Processed[st][r][started]
				net = net.AddTerm(done, minusOne)
				revenue = revenue.AddTerm(done, rule.OutputPrice)
			}
		}

		if t+1 < b.Settings.HorizonDays {
			capacity := b.Settings.Stages[st].Capacity
			delta := int64(capacity.At(t+1) - capacity.At(t))
			name := fmt.Sprintf("%s:%s[%d]", GroupCapacity, b.Settings.StageName(st), t)
			out = append(out, generic.Eq(name, net, generic.ConstInt(delta)))
		}
	}
	return generic.InGroup(GroupCapacity, out), revenue
}

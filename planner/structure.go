package planner

import (
	"fmt"

	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// NAMES
// =============================================================================

// Constraint groups, one per builder.
const (
	GroupEligibility = "eligibility"
	GroupHarvest     = "harvest"
	GroupCash        = "cash"
	GroupLand        = "land"
	GroupCapacity    = "capacity"
	GroupInitial     = "initial"
	GroupStorage     = "storage"
	GroupInventory   = "inventory"
)

// Output arrays. Processing grids are named after their stage.
const (
	GridPlanted   = "planted"
	GridHarvested = "harvested"
	GridSold      = "sold"
	GridStored    = "stored"
	GridInventory = "inventory"
	SeriesCash    = "cash"
	SeriesLand    = "land"
)

// =============================================================================
// STRUCTURAL CONSTRAINTS - Initial state, storage and inventory limits
// =============================================================================

// InitialConditions fixes cash[0] and land[0].
func InitialConditions(vars *Variables, s Settings) []generic.Constraint {
	return generic.InGroup(GroupInitial, []generic.Constraint{
		generic.Eq("initial:cash[0]", generic.V(vars.Cash[0]), generic.Const(s.InitialCash)),
		generic.Eq("initial:land[0]", generic.V(vars.Land[0]), generic.ConstInt(int64(s.TotalLand))),
	})
}

// StorageLimits keeps stored[r,d] <= harvested[r,d]: only harvested units
// can be held back from sale.
func StorageLimits(vars *Variables) []generic.Constraint {
	var out []generic.Constraint
	for r := 0; r < vars.Types; r++ {
		for d := 0; d < vars.Days; d++ {
			name := fmt.Sprintf("%s:%s", GroupStorage, vars.Name(vars.Stored[r][d]))
			out = append(out, generic.Le(name, generic.V(vars.Stored[r][d]), generic.V(vars.Harvested[r][d])))
		}
	}
	return generic.InGroup(GroupStorage, out)
}

// InventoryLimits keeps every type's inventory non-negative and the total
// at or below capacity on every day.
func InventoryLimits(vars *Variables, s Settings) []generic.Constraint {
	var out []generic.Constraint
	running := make([]generic.Expr, vars.Types)
	for d := 0; d < vars.Days; d++ {
		total := generic.Expr{}
		for r := 0; r < vars.Types; r++ {
			running[r] = running[r].Plus(vars.DailyNet(r, d))
			out = append(out, generic.Ge(fmt.Sprintf("%s:min[%d,%d]", GroupInventory, r, d), running[r], generic.ConstInt(0)))
			total = total.Plus(running[r])
		}
		out = append(out, generic.Le(fmt.Sprintf("%s:max[%d]", GroupInventory, d), total, generic.ConstInt(int64(s.InventoryCapacity))))
	}
	return generic.InGroup(GroupInventory, out)
}

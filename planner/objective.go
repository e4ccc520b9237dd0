package planner

import (
	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// BuildObjective maximizes cash at the end of the horizon plus whatever is
// still in inventory on the last day, valued at the type's best processed
// output price. Types no stage accepts are worth nothing at the end.
//
//	cash[H] + sum_r maxOutputPrice(r) * inventory[r, H-1]
func BuildObjective(cat *catalog.Catalog, vars *Variables) generic.Objective {
	parts := []generic.Expr{generic.V(vars.Cash[vars.Days])}
	for r, rt := range cat.Types() {
		price, ok := rt.MaxOutputPrice()
		if !ok || price.IsZero() {
			continue
		}
		parts = append(parts, vars.Inventory(r, vars.Days-1).Scale(price))
	}
	return generic.Objective{Direction: generic.Maximize, Expr: generic.Sum(parts...).Normalize()}
}

/*
accounting.go - Harvest linkage, cash balance and land balance

PURPOSE:
  For each day t, ties what is harvested to what was planted earlier, and
  carries cash and free land from day t to day t+1.

HARVEST LINKAGE (one constraint per type whose window contains t):
  SingleHarvest:
    harvested[r,t] = mult * planted[r, t-g]   if t-g is a planting day
    harvested[r,t] = 0                        otherwise
  Regrowth / TwoSeasonRegrowth:
    harvested[r,t] = sum_d planted[r, w0+d] * M[d][t-w0]
  over the planting days of the window, M being the type's schedule
  matrix. The two-season variant's matrix spans its whole double window.
  A linkage with nothing on the right is still emitted as "= 0".

LAND:
  SingleHarvest land comes back the day the crop is harvested.
  Regrowth land comes back on the last day of the type's window.
  land[t+1] = land[t] - sum_r planted[r,t] + reclaimed(t)

CASH:
  cash[t+1] = cash[t] - sum_r cost*planted[r,t]
            + sum_r sale*(harvested[r,t] - stored[r,t]) + processing(t)

SEE ALSO:
  - processing.go: Supplies processing(t)
  - catalog/matrix.go: Schedule matrices
*/
package planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

type AccountingBuilder struct {
	catalog  *catalog.Catalog
	vars     *Variables
	settings Settings
	matrices map[int]catalog.RegrowthMatrix
}

// NewAccountingBuilder precomputes the schedule matrix of every regrowing
// type.
func NewAccountingBuilder(cat *catalog.Catalog, vars *Variables, s Settings) *AccountingBuilder {
	b := &AccountingBuilder{catalog: cat, vars: vars, settings: s, matrices: make(map[int]catalog.RegrowthMatrix)}
	for _, rt := range cat.Types() {
		if m, ok := catalog.MatrixFor(rt); ok {
			b.matrices[rt.Index] = m
		}
	}
	return b
}

// Matrix returns the schedule matrix of type r, if it regrows.
func (b *AccountingBuilder) Matrix(r int) (catalog.RegrowthMatrix, bool) {
	m, ok := b.matrices[r]
	return m, ok
}

// BuildDay emits day t's harvest linkages and the cash and land balances
// carrying t to t+1.
func (b *AccountingBuilder) BuildDay(t int, processingRevenue generic.Expr) []generic.Constraint {
	var (
		harvests  []generic.Constraint
		spent     = generic.Expr{}
		sales     = generic.Expr{}
		plantedOn = generic.Expr{}
		reclaimed = generic.Expr{}
	)

	for r, rt := range b.catalog.Types() {
		if rt.CanPlant(t) {
			planted := b.vars.Planted[r][t]
			spent = spent.AddTerm(planted, rt.AcquisitionCost)
			plantedOn = plantedOn.AddTerm(planted, one)
		}
		if !rt.CanHarvest(t) {
			continue
		}

		rhs, freed := b.harvestOf(rt, t)
		harvested := b.vars.Harvested[r][t]
		name := fmt.Sprintf("%s:%s", GroupHarvest, b.vars.Name(harvested))
		harvests = append(harvests, generic.Eq(name, generic.V(harvested), rhs))
		reclaimed = reclaimed.Plus(freed)

		sales = sales.AddTerm(harvested, rt.SalePrice).AddTerm(b.vars.Stored[r][t], rt.SalePrice.Neg())
	}

	cash := generic.Eq(
		fmt.Sprintf("%s[%d]", SeriesCash, t+1),
		generic.V(b.vars.Cash[t+1]),
		generic.Sum(generic.V(b.vars.Cash[t]), spent.Scale(minusOne), sales, processingRevenue),
	)
	land := generic.Eq(
		fmt.Sprintf("%s[%d]", SeriesLand, t+1),
		generic.V(b.vars.Land[t+1]),
		generic.Sum(generic.V(b.vars.Land[t]), plantedOn.Scale(minusOne), reclaimed),
	)

	out := generic.InGroup(GroupHarvest, harvests)
	out = append(out, generic.InGroup(GroupCash, []generic.Constraint{cash})...)
	out = append(out, generic.InGroup(GroupLand, []generic.Constraint{land})...)
	return out
}

// harvestOf returns the right-hand side of type rt's harvest linkage on day
// t and the land it frees that day.
func (b *AccountingBuilder) harvestOf(rt catalog.ResourceType, t int) (harvest, freed generic.Expr) {
	planted := b.vars.Planted[rt.Index]

	switch rt.Growth.(type) {
	case catalog.SingleHarvest:
		d := t - rt.GrowthDelay
		if !rt.CanPlant(d) {
			return generic.Expr{}, generic.Expr{}
		}
		mult := decimal.NewFromInt(int64(rt.HarvestMultiplier))
		return generic.V(planted[d]).Scale(mult), generic.V(planted[d])

	case catalog.Regrowth, catalog.TwoSeasonRegrowth:
		m := b.matrices[rt.Index]
		w0 := rt.Window.Start
		plantDays := rt.PlantingWindow()
		for d := plantDays.Start; d <= plantDays.End; d++ {
			if k := m.At(d-w0, t-w0); k > 0 {
				harvest = harvest.AddTerm(planted[d], decimal.NewFromInt(int64(k)))
			}
		}
		if t == rt.Window.End {
			for d := plantDays.Start; d <= plantDays.End; d++ {
				freed = freed.AddTerm(planted[d], one)
			}
		}
		return harvest, freed
	}
	return generic.Expr{}, generic.Expr{}
}

var one = decimal.NewFromInt(1)

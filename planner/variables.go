/*
variables.go - The decision variables of the planning model

PURPOSE:
  Allocates every unknown once, with its bounds and kind, and gives the
  builders typed access to them by (resource type, day).

VARIABLES:
  planted[r,d]     integer >= 0    units planted
  harvested[r,d]   integer >= 0    units harvested
  stored[r,d]      integer >= 0    harvested units kept instead of sold
  <stage>[r,d]     integer >= 0    units put into a processing stage
  cash[t]          continuous >= 0 t in [0, H]
  land[t]          integer in [0, TotalLand], t in [0, H]

  land[t] is the land NOT committed to a planting at the start of day t,
  so land[0] = TotalLand.

DERIVED:
  inventory[r,d] = sum over u <= d of (stored - processed, all stages)
  It is an expression, never a variable.

SEE ALSO:
  - assembler.go: Builds everything on top of these
*/
package planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// Variables indexes the model's unknowns. All grids are [type][day].
type Variables struct {
	Types int
	Days  int

	Planted   [][]generic.VarID
	Harvested [][]generic.VarID
	Stored    [][]generic.VarID
	Processed [catalog.NumStages][][]generic.VarID

	Cash []generic.VarID // len Days+1
	Land []generic.VarID // len Days+1

	// supported[s][r] is true if stage s accepts type r.
	supported [catalog.NumStages][]bool
	table     *generic.VarTable
}

// NewVariables allocates every variable for the catalog over the horizon.
func NewVariables(cat *catalog.Catalog, s Settings) *Variables {
	v := &Variables{Types: cat.Len(), Days: s.HorizonDays, table: generic.NewVarTable()}

	v.Planted = v.grid(cat, GridPlanted)
	v.Harvested = v.grid(cat, GridHarvested)
	v.Stored = v.grid(cat, GridStored)
	for _, st := range catalog.Stages {
		v.Processed[st] = v.grid(cat, s.StageName(st))
		v.supported[st] = make([]bool, cat.Len())
		for r := 0; r < cat.Len(); r++ {
			v.supported[st][r] = cat.At(r).Rule(st).Supported
		}
	}

	land := decimal.NewFromInt(int64(s.TotalLand))
	v.Cash = make([]generic.VarID, s.HorizonDays+1)
	v.Land = make([]generic.VarID, s.HorizonDays+1)
	for t := 0; t <= s.HorizonDays; t++ {
		v.Cash[t] = v.table.New(fmt.Sprintf("%s[%d]", SeriesCash, t), generic.Continuous, decimal.Zero, nil)
	}
	for t := 0; t <= s.HorizonDays; t++ {
		v.Land[t] = v.table.New(fmt.Sprintf("%s[%d]", SeriesLand, t), generic.Integer, decimal.Zero, &land)
	}
	return v
}

func (v *Variables) grid(cat *catalog.Catalog, name string) [][]generic.VarID {
	g := make([][]generic.VarID, cat.Len())
	for r := range g {
		g[r] = make([]generic.VarID, v.Days)
		rname := cat.At(r).Name
		for d := range g[r] {
			g[r][d] = v.table.New(fmt.Sprintf("%s[%s,%d]", name, rname, d), generic.Integer, decimal.Zero, nil)
		}
	}
	return g
}

// All returns the allocated variables in ID order.
func (v *Variables) All() []generic.Var {
	return v.table.Vars()
}

// Name returns the name of variable id.
func (v *Variables) Name(id generic.VarID) string {
	return v.table.Var(id).Name
}

// Len is the number of variables.
func (v *Variables) Len() int { return v.table.Len() }

// Supported reports whether stage st accepts type r.
func (v *Variables) Supported(st catalog.Stage, r int) bool {
	return v.supported[st][r]
}

// DailyNet is stored[r,d] minus what entered any supported stage on day d.
func (v *Variables) DailyNet(r, d int) generic.Expr {
	e := generic.V(v.Stored[r][d])
	for _, st := range catalog.Stages {
		if v.supported[st][r] {
			e = e.AddTerm(v.Processed[st][r][d], minusOne)
		}
	}
	return e
}

// Inventory is the units of type r held at the end of day d.
func (v *Variables) Inventory(r, d int) generic.Expr {
	var parts []generic.Expr
	for u := 0; u <= d; u++ {
		parts = append(parts, v.DailyNet(r, u))
	}
	return generic.Sum(parts...)
}

// TotalInventory is the units of all types held at the end of day d.
func (v *Variables) TotalInventory(d int) generic.Expr {
	parts := make([]generic.Expr, v.Types)
	for r := range parts {
		parts[r] = v.Inventory(r, d)
	}
	return generic.Sum(parts...)
}

var minusOne = decimal.NewFromInt(-1)

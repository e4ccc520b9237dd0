/*
Package catalog holds the static table of plantable resource types.

PURPOSE:
  Everything the model needs to know about a resource type before any
  constraint is written: what it costs, what it sells for, how long it
  grows, whether it regrows, when it may be planted, and how each
  processing stage treats it. The catalog is immutable once built.

KEY CONCEPTS:
  - ResourceType: One plantable good (a "crop")
  - Growth: Tagged variant, exactly one of SingleHarvest, Regrowth,
    TwoSeasonRegrowth. The accounting builder dispatches on it.
  - ProcessingRule: Delay + output price for one stage, or Unsupported
  - RegrowthMatrix: Derived (planting day x harvest day) table
  - Capacity: Processing units available by day

SEE ALSO:
  - default.go: The built-in 27-type table
  - matrix.go: Regrowth schedule generation
  - planner/: Turns a catalog into constraints
*/
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// PROCESSING
// =============================================================================

// Stage identifies a processing stage.
type Stage int

const (
	StageOne Stage = iota
	StageTwo
)

// NumStages is the number of processing stages every type describes.
const NumStages = 2

// Stages lists all stages in order.
var Stages = [NumStages]Stage{StageOne, StageTwo}

func (s Stage) String() string {
	return fmt.Sprintf("stage%d", int(s)+1)
}

// ProcessingRule says how long a stage takes for a type and what one unit
// of output is worth. A rule with Supported == false means the stage cannot
// take this type at all; Delay and OutputPrice are then meaningless.
type ProcessingRule struct {
	Supported   bool
	Delay       int
	OutputPrice decimal.Decimal
}

// Rule returns a supported processing rule.
func Rule(delay int, price int64) ProcessingRule {
	return ProcessingRule{Supported: true, Delay: delay, OutputPrice: decimal.NewFromInt(price)}
}

// Unsupported returns the rule for a stage that does not accept a type.
func Unsupported() ProcessingRule {
	return ProcessingRule{}
}

// =============================================================================
// GROWTH - Tagged variant
// =============================================================================

// Growth describes what happens after planting. Implemented only by the
// three variants in this file.
type Growth interface {
	growthKind() string
}

// SingleHarvest: one harvest growthDelay days after planting, then the land
// is free again.
type SingleHarvest struct{}

// Regrowth: first harvest after growthDelay, then every Interval days until
// the season window ends. Land stays committed until the window's last day.
type Regrowth struct {
	Interval int
}

// TwoSeasonRegrowth is Regrowth over a window spanning two seasons. Its
// schedule matrix covers the whole double window, and harvests are allowed
// on relative days below HarvestCutoff.
type TwoSeasonRegrowth struct {
	Interval      int
	HarvestCutoff int
}

func (SingleHarvest) growthKind() string     { return "single" }
func (Regrowth) growthKind() string          { return "regrowth" }
func (TwoSeasonRegrowth) growthKind() string { return "two-season-regrowth" }

// GrowthKind returns a stable name for g: "single", "regrowth" or
// "two-season-regrowth".
func GrowthKind(g Growth) string {
	if g == nil {
		return ""
	}
	return g.growthKind()
}

// RegrowthInterval returns the interval of a regrowing type, or 0.
func RegrowthInterval(g Growth) int {
	switch g := g.(type) {
	case Regrowth:
		return g.Interval
	case TwoSeasonRegrowth:
		return g.Interval
	default:
		return 0
	}
}

// =============================================================================
// RESOURCE TYPE
// =============================================================================

// ResourceType is one row of the catalog. Window and UnlockDay are global
// day indices.
type ResourceType struct {
	Index             int
	Name              string
	AcquisitionCost   decimal.Decimal
	SalePrice         decimal.Decimal
	GrowthDelay       int
	Growth            Growth
	HarvestMultiplier int
	Window            generic.Window
	UnlockDay         int
	Processing        [NumStages]ProcessingRule
}

// PlantingWindow is the window narrowed by the unlock day.
func (r ResourceType) PlantingWindow() generic.Window {
	w := r.Window
	if r.UnlockDay > w.Start {
		w.Start = r.UnlockDay
	}
	return w
}

// CanPlant reports whether planting is allowed on day.
func (r ResourceType) CanPlant(day int) bool {
	return r.PlantingWindow().Contains(day)
}

// CanHarvest reports whether day is inside the season window.
func (r ResourceType) CanHarvest(day int) bool {
	return r.Window.Contains(day)
}

// Rule returns the processing rule for stage s.
func (r ResourceType) Rule(s Stage) ProcessingRule {
	return r.Processing[s]
}

// MaxOutputPrice is the best output price over supported stages. ok is
// false when no stage supports the type.
func (r ResourceType) MaxOutputPrice() (price decimal.Decimal, ok bool) {
	price = decimal.Zero
	for _, rule := range r.Processing {
		if !rule.Supported {
			continue
		}
		if !ok || rule.OutputPrice.GreaterThan(price) {
			price = rule.OutputPrice
		}
		ok = true
	}
	return price, ok
}

// LiquidationValue is the per-unit value of inventory left at the end of
// the horizon: MaxOutputPrice, or zero if nothing can process the type.
func (r ResourceType) LiquidationValue() decimal.Decimal {
	p, _ := r.MaxOutputPrice()
	return p
}

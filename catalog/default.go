package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// DEFAULT CATALOG - One farming year: spring, summer, autumn
// =============================================================================

// DefaultHorizon is 84 days in three 28-day seasons.
var DefaultHorizon = generic.Horizon{Days: 84, SeasonLength: 28}

// TwoSeasonCutoff is the exclusive upper harvest bound, in window-relative
// days, of the built-in two-season type. It equals the window length plus
// one, so it never cuts a harvest inside the 56-day window.
const TwoSeasonCutoff = 57

// StrawberryUnlockDay is the first day Strawberry seeds can be bought.
const StrawberryUnlockDay = 13

// Default capacity ramps of the two processing stages.
var (
	DefaultStageOneCapacity = StepCapacity{Every: 7, Lag: 5}
	DefaultStageTwoCapacity = StepCapacity{Every: 5, Lag: 3}
)

// row is one line of the built-in table. regrow == 0 means single harvest;
// a stage delay of 0 means unsupported.
type row struct {
	name         string
	seed, sell   int64
	grow, regrow int
	mult         int
	seasons      [2]int // first and last season
	oneDelay     int
	onePrice     int64
	twoDelay     int
	twoPrice     int64
}

var defaultRows = []row{
	// Spring
	{"Blue Jazz", 30, 50, 7, 0, 1, [2]int{0, 0}, 0, 0, 0, 0},
	{"Cauliflower", 80, 175, 12, 0, 1, [2]int{0, 0}, 4, 394, 3, 400},
	{"Green Bean", 60, 40, 10, 3, 1, [2]int{0, 0}, 4, 90, 3, 130},
	{"Kale", 70, 110, 6, 0, 1, [2]int{0, 0}, 4, 248, 3, 270},
	{"Parsnip", 20, 35, 4, 0, 1, [2]int{0, 0}, 4, 79, 3, 120},
	{"Potato", 50, 80, 6, 0, 1, [2]int{0, 0}, 4, 180, 3, 210},
	{"Strawberry", 100, 120, 8, 4, 1, [2]int{0, 0}, 6, 360, 3, 290},
	{"Tulip", 20, 30, 6, 0, 1, [2]int{0, 0}, 0, 0, 0, 0},
	{"Unmilled Rice", 40, 30, 6, 0, 1, [2]int{0, 0}, 4, 68, 3, 110},
	// Summer
	{"Blueberry", 80, 150, 13, 4, 3, [2]int{1, 1}, 6, 450, 3, 350},
	{"Hops", 75, 25, 11, 1, 1, [2]int{1, 1}, 2, 300, 3, 100},
	{"Hot Pepper", 40, 40, 5, 3, 1, [2]int{1, 1}, 6, 120, 3, 130},
	{"Melon", 80, 250, 12, 0, 1, [2]int{1, 1}, 6, 750, 3, 550},
	{"Poppy", 100, 140, 7, 0, 1, [2]int{1, 1}, 0, 0, 0, 0},
	{"Radish", 40, 90, 6, 0, 1, [2]int{1, 1}, 4, 203, 3, 230},
	{"Summer Spangle", 50, 90, 8, 0, 1, [2]int{1, 1}, 0, 0, 0, 0},
	{"Tomato", 50, 60, 11, 4, 1, [2]int{1, 1}, 4, 135, 3, 170},
	// Summer and autumn
	{"Corn", 150, 50, 14, 4, 1, [2]int{1, 2}, 4, 113, 3, 150},
	{"Wheat", 10, 25, 4, 0, 1, [2]int{1, 2}, 1, 200, 3, 100},
	// Autumn
	{"Amaranth", 70, 150, 7, 0, 1, [2]int{2, 2}, 4, 338, 3, 350},
	{"Bok Choy", 50, 80, 4, 0, 1, [2]int{2, 2}, 4, 180, 3, 210},
	{"Cranberries", 240, 150, 7, 5, 2, [2]int{2, 2}, 6, 450, 3, 350},
	{"Eggplant", 20, 60, 5, 5, 1, [2]int{2, 2}, 4, 135, 0, 0},
	{"Fairy Rose", 200, 290, 12, 0, 1, [2]int{2, 2}, 0, 0, 0, 0},
	{"Grape", 60, 80, 10, 3, 1, [2]int{2, 2}, 6, 240, 3, 210},
	{"Pumpkin", 100, 320, 13, 0, 1, [2]int{2, 2}, 4, 720, 3, 690},
	{"Yam", 60, 160, 10, 0, 1, [2]int{2, 2}, 4, 360, 3, 370},
}

// Default returns the built-in 27-type catalog over DefaultHorizon.
func Default() *Catalog {
	types := make([]ResourceType, len(defaultRows))
	for i, r := range defaultRows {
		types[i] = r.resourceType(DefaultHorizon)
	}
	return New(types...)
}

func (r row) resourceType(h generic.Horizon) ResourceType {
	window := h.SeasonSpan(r.seasons[0], r.seasons[1])
	rt := ResourceType{
		Name:              r.name,
		AcquisitionCost:   decimal.NewFromInt(r.seed),
		SalePrice:         decimal.NewFromInt(r.sell),
		GrowthDelay:       r.grow,
		HarvestMultiplier: r.mult,
		Window:            window,
		UnlockDay:         window.Start,
		Processing:        [NumStages]ProcessingRule{stageRule(r.oneDelay, r.onePrice), stageRule(r.twoDelay, r.twoPrice)},
	}
	switch {
	case r.regrow == 0:
		rt.Growth = SingleHarvest{}
	case r.seasons[0] != r.seasons[1]:
		rt.Growth = TwoSeasonRegrowth{Interval: r.regrow, HarvestCutoff: TwoSeasonCutoff}
	default:
		rt.Growth = Regrowth{Interval: r.regrow}
	}
	if r.name == "Strawberry" {
		rt.UnlockDay = StrawberryUnlockDay
	}
	return rt
}

func stageRule(delay int, price int64) ProcessingRule {
	if delay == 0 {
		return Unsupported()
	}
	return Rule(delay, price)
}

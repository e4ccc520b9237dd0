package planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// SETTINGS - Horizon and farm-level parameters
// =============================================================================

// StageSettings names a processing stage and gives its capacity ramp.
type StageSettings struct {
	Name     string
	Capacity catalog.Capacity
}

// Settings are the farm-wide parameters of one planning run.
//
// ProcessingBlackoutDays: processing variables are forced to zero on days
// [0, ProcessingBlackoutDays).
// ProcessingMinDay: capacity constraints and processing revenue start on
// this day. It may not exceed the blackout, so no job can finish unpaid.
type Settings struct {
	HorizonDays            int
	SeasonLength           int
	InitialCash            decimal.Decimal
	TotalLand              int
	InventoryCapacity      int
	ProcessingBlackoutDays int
	ProcessingMinDay       int
	Stages                 [catalog.NumStages]StageSettings
}

// DefaultSettings is one 84-day year with 500 starting cash, 20 plots, room
// for 50 stored units, and the default keg and jar ramps.
func DefaultSettings() Settings {
	return Settings{
		HorizonDays:            catalog.DefaultHorizon.Days,
		SeasonLength:           catalog.DefaultHorizon.SeasonLength,
		InitialCash:            decimal.NewFromInt(500),
		TotalLand:              20,
		InventoryCapacity:      50,
		ProcessingBlackoutDays: 18,
		ProcessingMinDay:       6,
		Stages: [catalog.NumStages]StageSettings{
			{Name: "keg", Capacity: catalog.DefaultStageOneCapacity},
			{Name: "jar", Capacity: catalog.DefaultStageTwoCapacity},
		},
	}
}

// Horizon returns the day/season partition.
func (s Settings) Horizon() generic.Horizon {
	return generic.Horizon{Days: s.HorizonDays, SeasonLength: s.SeasonLength}
}

// StageName returns the configured name of stage st.
func (s Settings) StageName(st catalog.Stage) string {
	return s.Stages[st].Name
}

// Validate checks the settings on their own. Catalog/horizon compatibility
// is checked by catalog.Validate.
func (s Settings) Validate() error {
	switch {
	case s.HorizonDays < 1:
		return setting("horizon_days", "must be at least 1")
	case s.SeasonLength < 1:
		return setting("season_length", "must be at least 1")
	case s.InitialCash.IsNegative():
		return setting("initial_cash", "must not be negative")
	case s.TotalLand < 0:
		return setting("total_land", "must not be negative")
	case s.InventoryCapacity < 0:
		return setting("inventory_capacity", "must not be negative")
	case s.ProcessingBlackoutDays < 0:
		return setting("processing_blackout_days", "must not be negative")
	case s.ProcessingMinDay < 0:
		return setting("processing_min_day", "must not be negative")
	case s.ProcessingMinDay > s.ProcessingBlackoutDays:
		return setting("processing_min_day", fmt.Sprintf("%d is after the blackout of %d days", s.ProcessingMinDay, s.ProcessingBlackoutDays))
	}

	names := map[string]bool{}
	for _, st := range catalog.Stages {
		stage := s.Stages[st]
		field := "stages." + st.String()
		if stage.Name == "" {
			return setting(field+".name", "must not be empty")
		}
		if reservedNames[stage.Name] || names[stage.Name] {
			return setting(field+".name", fmt.Sprintf("%q is already used", stage.Name))
		}
		names[stage.Name] = true
		if stage.Capacity == nil {
			return setting(field+".capacity", "missing")
		}
		if d := catalog.FirstDecrease(stage.Capacity, s.HorizonDays); d >= 0 {
			return setting(field+".capacity", fmt.Sprintf("decreases on day %d", d))
		}
	}
	return nil
}

// reservedNames are the variable arrays a stage name must not shadow.
var reservedNames = map[string]bool{
	GridPlanted: true, GridHarvested: true, GridStored: true,
	GridSold: true, GridInventory: true, SeriesCash: true, SeriesLand: true,
}

func setting(field, reason string) error {
	return &generic.ConstructionError{Field: field, Reason: reason}
}

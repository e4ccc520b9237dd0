package factory

import (
	"fmt"
	"io"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// =============================================================================
// SCHEDULE - Hand-written decisions to score without a solver
// =============================================================================

// ScheduleDoc is the document form of a schedule:
//
//	entries:
//	  - {type: Parsnip, day: 0, plant: 20}
//	  - {type: Parsnip, day: 4, store: 5, process: {keg: 5}}
//
// Process keys are the stage names of the planning settings.
type ScheduleDoc struct {
	Entries []ScheduleEntryDoc `yaml:"entries" json:"entries" validate:"required,min=1,dive"`
}

// ScheduleEntryDoc holds the decisions for one type on one day.
type ScheduleEntryDoc struct {
	Type    string           `yaml:"type" json:"type" validate:"required"`
	Day     int              `yaml:"day" json:"day" validate:"gte=0"`
	Plant   int64            `yaml:"plant,omitempty" json:"plant,omitempty" validate:"gte=0"`
	Store   int64            `yaml:"store,omitempty" json:"store,omitempty" validate:"gte=0"`
	Process map[string]int64 `yaml:"process,omitempty" json:"process,omitempty" validate:"dive,gte=0"`
}

// ReadScheduleDoc decodes and validates a schedule document.
func ReadScheduleDoc(r io.Reader, format Format) (ScheduleDoc, error) {
	var doc ScheduleDoc
	if err := decode(r, format, &doc); err != nil {
		return doc, err
	}
	return doc, check(doc)
}

// Schedule converts the document, resolving stage names against s.
// Type names and days are checked later, by planner.Simulate.
func (d ScheduleDoc) Schedule(s planner.Settings) (*planner.Schedule, error) {
	stages := make(map[string]catalog.Stage, catalog.NumStages)
	for _, st := range catalog.Stages {
		stages[s.StageName(st)] = st
	}

	sched := planner.NewSchedule()
	for i, e := range d.Entries {
		if e.Plant > 0 {
			sched.Plant(e.Type, e.Day, e.Plant)
		}
		if e.Store > 0 {
			sched.Store(e.Type, e.Day, e.Store)
		}
		for name, qty := range e.Process {
			st, ok := stages[name]
			if !ok {
				return nil, &generic.ConstructionError{
					Field:  fmt.Sprintf("entries[%d].process", i),
					Reason: fmt.Sprintf("unknown stage %q", name),
				}
			}
			if qty > 0 {
				sched.Process(st, e.Type, e.Day, qty)
			}
		}
	}
	return sched, nil
}

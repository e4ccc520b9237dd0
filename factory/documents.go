/*
Package factory converts catalog and scenario documents into planner input.

PURPOSE:
  Catalogs and farm settings can be written as YAML or JSON documents
  instead of Go code. The factory validates a document and builds the
  matching catalog.Catalog and planner.Settings. The built-in table in
  catalog/default.go stays the default; documents override it.

CATALOG SCHEMA:
  types:
    - name: Parsnip
      cost: 20
      price: 35
      growth_days: 4
      regrow_days: 0            # 0 = single harvest
      harvest_multiplier: 1     # default 1
      seasons: [0]              # first (and last) season, or...
      window: {start: 0, end: 9}
      unlock_day: 0             # default window start
      stages:                   # delay 0 = stage unsupported
        - {delay: 4, price: 79}
        - {delay: 3, price: 120}

  The growth kind follows the built-in table: regrow_days 0 is a single
  harvest; regrowth whose window spans more than one season is two-season
  regrowth. Set growth explicitly to override.

VALIDATION:
  Tags are checked with go-playground/validator, then the built catalog
  is checked against the horizon with catalog.Validate. Both report a
  *generic.ConstructionError.

SEE ALSO:
  - scenarios.go: Named scenario documents
  - catalog/default.go: The built-in table
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// CatalogDoc is the document form of a catalog.
type CatalogDoc struct {
	Types []TypeDoc `yaml:"types" json:"types" validate:"required,min=1,dive"`
}

// TypeDoc is one resource type.
type TypeDoc struct {
	Name              string     `yaml:"name" json:"name" validate:"required"`
	Cost              int64      `yaml:"cost" json:"cost" validate:"gte=0"`
	Price             int64      `yaml:"price" json:"price" validate:"gte=0"`
	Growth            string     `yaml:"growth,omitempty" json:"growth,omitempty" validate:"omitempty,oneof=single regrowth two-season-regrowth"`
	GrowthDays        int        `yaml:"growth_days" json:"growth_days" validate:"gte=1"`
	RegrowDays        int        `yaml:"regrow_days,omitempty" json:"regrow_days,omitempty" validate:"gte=0"`
	HarvestCutoff     int        `yaml:"harvest_cutoff,omitempty" json:"harvest_cutoff,omitempty" validate:"gte=0"`
	HarvestMultiplier int        `yaml:"harvest_multiplier,omitempty" json:"harvest_multiplier,omitempty" validate:"gte=0"`
	Seasons           []int      `yaml:"seasons,omitempty" json:"seasons,omitempty" validate:"omitempty,max=2,dive,gte=0"`
	Window            *WindowDoc `yaml:"window,omitempty" json:"window,omitempty"`
	UnlockDay         *int       `yaml:"unlock_day,omitempty" json:"unlock_day,omitempty" validate:"omitempty,gte=0"`
	Stages            []StageDoc `yaml:"stages,omitempty" json:"stages,omitempty" validate:"max=2,dive"`
}

// WindowDoc is a closed day range.
type WindowDoc struct {
	Start int `yaml:"start" json:"start" validate:"gte=0"`
	End   int `yaml:"end" json:"end" validate:"gtefield=Start"`
}

// StageDoc is one processing rule. Delay 0 means unsupported.
type StageDoc struct {
	Delay int   `yaml:"delay" json:"delay" validate:"gte=0"`
	Price int64 `yaml:"price" json:"price" validate:"gte=0"`
}

// PlanningDoc holds farm-level settings. It doubles as the planning
// section of the service configuration.
type PlanningDoc struct {
	HorizonDays            int         `yaml:"horizon_days" json:"horizon_days" mapstructure:"horizon_days" validate:"gte=1"`
	SeasonLength           int         `yaml:"season_length" json:"season_length" mapstructure:"season_length" validate:"gte=1"`
	InitialCash            int64       `yaml:"initial_cash" json:"initial_cash" mapstructure:"initial_cash" validate:"gte=0"`
	TotalLand              int         `yaml:"total_land" json:"total_land" mapstructure:"total_land" validate:"gte=0"`
	InventoryCapacity      int         `yaml:"inventory_capacity" json:"inventory_capacity" mapstructure:"inventory_capacity" validate:"gte=0"`
	ProcessingBlackoutDays int         `yaml:"processing_blackout_days" json:"processing_blackout_days" mapstructure:"processing_blackout_days" validate:"gte=0"`
	ProcessingMinDay       int         `yaml:"processing_min_day" json:"processing_min_day" mapstructure:"processing_min_day" validate:"gte=0,ltefield=ProcessingBlackoutDays"`
	Stages                 []StageRamp `yaml:"stages" json:"stages" mapstructure:"stages" validate:"len=2,dive"`
}

// StageRamp names a processing stage and gives its step ramp
// max(floor(day/every) - lag, 0). Every 0 means the stage never has units.
type StageRamp struct {
	Name  string `yaml:"name" json:"name" mapstructure:"name" validate:"required"`
	Every int    `yaml:"every" json:"every" mapstructure:"every" validate:"gte=0"`
	Lag   int    `yaml:"lag" json:"lag" mapstructure:"lag" validate:"gte=0"`
}

// =============================================================================
// DECODING
// =============================================================================

// Format is a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension. Anything that is
// not .json is read as YAML.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

func decode(r io.Reader, format Format, out any) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(out); err != nil {
			return &generic.ConstructionError{Field: "document", Reason: "invalid JSON: " + err.Error()}
		}
	default:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil {
			return &generic.ConstructionError{Field: "document", Reason: "invalid YAML: " + err.Error()}
		}
	}
	return nil
}

var validate = validator.New()

// check runs the validator and reports the first failure as a
// ConstructionError.
func check(doc any) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	reason := fmt.Sprintf("failed %q check", fe.Tag())
	if fe.Param() != "" {
		reason = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
	}
	return &generic.ConstructionError{Field: fe.Namespace(), Reason: reason}
}

// =============================================================================
// CATALOG
// =============================================================================

// ParseCatalog reads and builds a catalog document for horizon h.
func ParseCatalog(r io.Reader, format Format, h generic.Horizon) (*catalog.Catalog, error) {
	doc, err := ReadCatalogDoc(r, format)
	if err != nil {
		return nil, err
	}
	return doc.Build(h)
}

// ReadCatalogDoc decodes a catalog document without building it, for
// callers that only learn the horizon later.
func ReadCatalogDoc(r io.Reader, format Format) (CatalogDoc, error) {
	var doc CatalogDoc
	err := decode(r, format, &doc)
	return doc, err
}

// Build converts the document and validates the result against h.
func (d CatalogDoc) Build(h generic.Horizon) (*catalog.Catalog, error) {
	if err := check(d); err != nil {
		return nil, err
	}
	types := make([]catalog.ResourceType, 0, len(d.Types))
	for _, td := range d.Types {
		rt, err := td.resourceType(h)
		if err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	cat := catalog.New(types...)
	if err := cat.Validate(h); err != nil {
		return nil, err
	}
	return cat, nil
}

func (td TypeDoc) resourceType(h generic.Horizon) (catalog.ResourceType, error) {
	var window generic.Window
	switch {
	case td.Window == nil && len(td.Seasons) == 0:
		return catalog.ResourceType{}, &generic.ConstructionError{
			Resource: td.Name, Field: "window", Reason: "either seasons or window is required",
		}
	case td.Window != nil:
		window = generic.Window{Start: td.Window.Start, End: td.Window.End}
	default:
		first, last := td.Seasons[0], td.Seasons[len(td.Seasons)-1]
		if last < first || last >= h.Seasons() {
			return catalog.ResourceType{}, &generic.ConstructionError{
				Resource: td.Name, Field: "seasons",
				Reason: fmt.Sprintf("%v is not a season range of a %d-season horizon", td.Seasons, h.Seasons()),
			}
		}
		window = h.SeasonSpan(first, last)
	}

	mult := td.HarvestMultiplier
	if mult == 0 {
		mult = 1
	}
	rt := catalog.ResourceType{
		Name:              td.Name,
		AcquisitionCost:   decimal.NewFromInt(td.Cost),
		SalePrice:         decimal.NewFromInt(td.Price),
		GrowthDelay:       td.GrowthDays,
		HarvestMultiplier: mult,
		Window:            window,
		UnlockDay:         window.Start,
	}
	if td.UnlockDay != nil {
		rt.UnlockDay = *td.UnlockDay
	}
	for i, sd := range td.Stages {
		if sd.Delay > 0 {
			rt.Processing[i] = catalog.Rule(sd.Delay, sd.Price)
		}
	}

	growth, err := td.growth(window, h)
	if err != nil {
		return catalog.ResourceType{}, err
	}
	rt.Growth = growth
	return rt, nil
}

func (td TypeDoc) growth(window generic.Window, h generic.Horizon) (catalog.Growth, error) {
	kind := td.Growth
	if kind == "" {
		switch {
		case td.RegrowDays == 0:
			kind = "single"
		case window.Len() > h.SeasonLength:
			kind = "two-season-regrowth"
		default:
			kind = "regrowth"
		}
	}

	switch kind {
	case "single":
		return catalog.SingleHarvest{}, nil
	case "regrowth":
		return catalog.Regrowth{Interval: td.RegrowDays}, nil
	default:
		cutoff := td.HarvestCutoff
		if cutoff == 0 {
			cutoff = window.Len() + 1
		}
		return catalog.TwoSeasonRegrowth{Interval: td.RegrowDays, HarvestCutoff: cutoff}, nil
	}
}

// CatalogToDoc renders a catalog as a document. Windows are always written
// explicitly.
func CatalogToDoc(cat *catalog.Catalog) CatalogDoc {
	var doc CatalogDoc
	for _, rt := range cat.Types() {
		td := TypeDoc{
			Name:              rt.Name,
			Cost:              rt.AcquisitionCost.IntPart(),
			Price:             rt.SalePrice.IntPart(),
			Growth:            catalog.GrowthKind(rt.Growth),
			GrowthDays:        rt.GrowthDelay,
			RegrowDays:        catalog.RegrowthInterval(rt.Growth),
			HarvestMultiplier: rt.HarvestMultiplier,
			Window:            &WindowDoc{Start: rt.Window.Start, End: rt.Window.End},
		}
		if ts, ok := rt.Growth.(catalog.TwoSeasonRegrowth); ok {
			td.HarvestCutoff = ts.HarvestCutoff
		}
		if rt.UnlockDay != rt.Window.Start {
			unlock := rt.UnlockDay
			td.UnlockDay = &unlock
		}
		for _, st := range catalog.Stages {
			rule := rt.Rule(st)
			sd := StageDoc{}
			if rule.Supported {
				sd = StageDoc{Delay: rule.Delay, Price: rule.OutputPrice.IntPart()}
			}
			td.Stages = append(td.Stages, sd)
		}
		doc.Types = append(doc.Types, td)
	}
	return doc
}

// WriteCatalog encodes cat in the given format.
func WriteCatalog(w io.Writer, cat *catalog.Catalog, format Format) error {
	doc := CatalogToDoc(cat)
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// =============================================================================
// SETTINGS
// =============================================================================

// DefaultPlanning is the document form of planner.DefaultSettings.
func DefaultPlanning() PlanningDoc {
	return PlanningDoc{
		HorizonDays:            catalog.DefaultHorizon.Days,
		SeasonLength:           catalog.DefaultHorizon.SeasonLength,
		InitialCash:            500,
		TotalLand:              20,
		InventoryCapacity:      50,
		ProcessingBlackoutDays: 18,
		ProcessingMinDay:       6,
		Stages: []StageRamp{
			{Name: "keg", Every: catalog.DefaultStageOneCapacity.Every, Lag: catalog.DefaultStageOneCapacity.Lag},
			{Name: "jar", Every: catalog.DefaultStageTwoCapacity.Every, Lag: catalog.DefaultStageTwoCapacity.Lag},
		},
	}
}

// Settings validates the document and converts it.
func (p PlanningDoc) Settings() (planner.Settings, error) {
	if err := check(p); err != nil {
		return planner.Settings{}, err
	}
	s := planner.Settings{
		HorizonDays:            p.HorizonDays,
		SeasonLength:           p.SeasonLength,
		InitialCash:            decimal.NewFromInt(p.InitialCash),
		TotalLand:              p.TotalLand,
		InventoryCapacity:      p.InventoryCapacity,
		ProcessingBlackoutDays: p.ProcessingBlackoutDays,
		ProcessingMinDay:       p.ProcessingMinDay,
	}
	for i, ramp := range p.Stages {
		s.Stages[i] = planner.StageSettings{Name: ramp.Name, Capacity: ramp.capacity()}
	}
	if err := s.Validate(); err != nil {
		return planner.Settings{}, err
	}
	return s, nil
}

func (r StageRamp) capacity() catalog.Capacity {
	if r.Every == 0 {
		return catalog.NoCapacity{}
	}
	return catalog.StepCapacity{Every: r.Every, Lag: r.Lag}
}

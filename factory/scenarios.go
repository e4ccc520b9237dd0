/*
scenarios.go - Named planning scenarios

PURPOSE:
  A scenario is a catalog plus farm settings under a stable ID, so the CLI
  and API can say "solve tiny" instead of shipping a document. Built-in
  scenarios are YAML files embedded from scenarios/.

AVAILABLE SCENARIOS:
  standard-year: 84 days, all 27 types, default keg/jar ramps
  spring-only:   28 days, the spring types only
  tiny:          10 days, one single-harvest type, no processing

DOCUMENT:
  id, name, description, category
  planning:  PlanningDoc, defaults to DefaultPlanning()
  include:   names taken from the built-in catalog, or
  catalog:   an inline CatalogDoc
  With neither include nor catalog, the built-in catalog is used whole.

ADDING NEW SCENARIOS:
  Drop a YAML file into scenarios/. The file name is not significant;
  the id field is.
*/
package factory

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/warp/harvest-planner/catalog"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
)

// DefaultScenario is used when no scenario is named.
const DefaultScenario = "standard-year"

//go:embed scenarios/*.yaml
var builtinFS embed.FS

// ScenarioDoc is the document form of a scenario.
type ScenarioDoc struct {
	ID          string       `yaml:"id" json:"id" validate:"required"`
	Name        string       `yaml:"name" json:"name" validate:"required"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string       `yaml:"category,omitempty" json:"category,omitempty"`
	Planning    *PlanningDoc `yaml:"planning,omitempty" json:"planning,omitempty"`
	Include     []string     `yaml:"include,omitempty" json:"include,omitempty" validate:"excluded_with=Catalog"`
	Catalog     *CatalogDoc  `yaml:"catalog,omitempty" json:"catalog,omitempty"`
}

// Scenario is a ready-to-assemble planning input.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Category    string
	Catalog     *catalog.Catalog
	Settings    planner.Settings
}

// Build validates the document and resolves its catalog and settings.
func (d ScenarioDoc) Build() (*Scenario, error) {
	if err := check(d); err != nil {
		return nil, err
	}

	planning := DefaultPlanning()
	if d.Planning != nil {
		planning = *d.Planning
	}
	settings, err := planning.Settings()
	if err != nil {
		return nil, err
	}
	h := settings.Horizon()

	var cat *catalog.Catalog
	switch {
	case d.Catalog != nil:
		cat, err = d.Catalog.Build(h)
	case len(d.Include) > 0:
		cat, err = catalog.Default().Subset(d.Include...)
		if err == nil {
			err = cat.Validate(h)
		}
	default:
		cat = catalog.Default()
		err = cat.Validate(h)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", d.ID, err)
	}

	return &Scenario{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Catalog:     cat,
		Settings:    settings,
	}, nil
}

// ParseScenario reads and builds a scenario document.
func ParseScenario(r io.Reader, format Format) (*Scenario, error) {
	var doc ScenarioDoc
	if err := decode(r, format, &doc); err != nil {
		return nil, err
	}
	return doc.Build()
}

// =============================================================================
// BUILT-IN SCENARIOS
// =============================================================================

// Scenarios lists the built-in scenario documents ordered by ID.
func Scenarios() []ScenarioDoc {
	docs := make([]ScenarioDoc, 0, len(builtins))
	for _, d := range builtins {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// LookupScenario returns the document of a built-in scenario so callers
// can override parts of it before building.
func LookupScenario(id string) (ScenarioDoc, error) {
	if id == "" {
		id = DefaultScenario
	}
	doc, ok := builtins[id]
	if !ok {
		return ScenarioDoc{}, fmt.Errorf("%w: %q", generic.ErrScenarioNotFound, id)
	}
	return doc, nil
}

// LoadScenario builds the built-in scenario with the given ID.
func LoadScenario(id string) (*Scenario, error) {
	doc, err := LookupScenario(id)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

var builtins = mustLoadBuiltins()

func mustLoadBuiltins() map[string]ScenarioDoc {
	docs := map[string]ScenarioDoc{}
	paths, err := fs.Glob(builtinFS, "scenarios/*.yaml")
	if err != nil {
		panic(err)
	}
	for _, path := range paths {
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			panic(err)
		}
		var doc ScenarioDoc
		if err := decode(bytes.NewReader(data), FormatYAML, &doc); err != nil {
			panic(fmt.Sprintf("built-in scenario %s: %v", path, err))
		}
		if _, dup := docs[doc.ID]; dup {
			panic(fmt.Sprintf("built-in scenario %s: duplicate id %q", path, doc.ID))
		}
		docs[doc.ID] = doc
	}
	return docs
}

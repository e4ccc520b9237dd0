package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is an ordered, immutable set of resource types. A type's Index is
// its position.
type Catalog struct {
	types  []ResourceType
	byName map[string]int
}

// New builds a catalog. Indices are reassigned to match order.
func New(types ...ResourceType) *Catalog {
	c := &Catalog{types: make([]ResourceType, len(types)), byName: make(map[string]int, len(types))}
	for i, t := range types {
		t.Index = i
		c.types[i] = t
		c.byName[strings.ToLower(t.Name)] = i
	}
	return c
}

// Len returns the number of types.
func (c *Catalog) Len() int { return len(c.types) }

// At returns the type at index i.
func (c *Catalog) At(i int) ResourceType { return c.types[i] }

// Types returns a copy of all types in order.
func (c *Catalog) Types() []ResourceType {
	out := make([]ResourceType, len(c.types))
	copy(out, c.types)
	return out
}

// Names returns type names in order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.types))
	for i, t := range c.types {
		out[i] = t.Name
	}
	return out
}

// Subset returns a new catalog holding only the named types, in catalog
// order.
func (c *Catalog) Subset(names ...string) (*Catalog, error) {
	keep := make(map[int]bool, len(names))
	for _, n := range names {
		rt, err := c.Lookup(n)
		if err != nil {
			return nil, err
		}
		keep[rt.Index] = true
	}
	var types []ResourceType
	for _, t := range c.types {
		if keep[t.Index] {
			types = append(types, t)
		}
	}
	return New(types...), nil
}

// Lookup finds a type by name, ignoring case. Unknown names return an
// *generic.UnknownResourceError listing the closest names.
func (c *Catalog) Lookup(name string) (ResourceType, error) {
	if i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c.types[i], nil
	}
	return ResourceType{}, &generic.UnknownResourceError{Name: name, Suggestions: c.suggest(name, 3)}
}

// suggest returns up to n names within edit distance of name.
func (c *Catalog) suggest(name string, n int) []string {
	type candidate struct {
		name string
		dist int
	}
	query := strings.ToLower(strings.TrimSpace(name))
	limit := len(query) / 3
	if limit < 2 {
		limit = 2
	}

	var found []candidate
	for _, t := range c.types {
		d := levenshtein.ComputeDistance(query, strings.ToLower(t.Name))
		if d <= limit {
			found = append(found, candidate{name: t.Name, dist: d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].name < found[j].name
	})

	var out []string
	for i := 0; i < len(found) && i < n; i++ {
		out = append(out, found[i].name)
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks every type against the horizon. The first problem found is
// returned as a *generic.ConstructionError.
func (c *Catalog) Validate(h generic.Horizon) error {
	if len(c.types) == 0 {
		return &generic.ConstructionError{Field: "catalog", Reason: "no resource types"}
	}
	seen := make(map[string]bool, len(c.types))
	for _, t := range c.types {
		key := strings.ToLower(t.Name)
		if t.Name == "" {
			return invalid(fmt.Sprintf("#%d", t.Index), "name", "must not be empty")
		}
		if seen[key] {
			return invalid(t.Name, "name", "duplicate")
		}
		seen[key] = true
		if err := validateType(t, h); err != nil {
			return err
		}
	}
	return nil
}

func validateType(t ResourceType, h generic.Horizon) error {
	switch {
	case t.AcquisitionCost.IsNegative():
		return invalid(t.Name, "acquisition_cost", "must not be negative")
	case t.SalePrice.IsNegative():
		return invalid(t.Name, "sale_price", "must not be negative")
	case t.GrowthDelay < 1:
		return invalid(t.Name, "growth_delay", "must be at least 1")
	case t.HarvestMultiplier < 1:
		return invalid(t.Name, "harvest_multiplier", "must be at least 1")
	case t.Window.Len() <= 0:
		return invalid(t.Name, "window", fmt.Sprintf("%s has non-positive length", t.Window))
	case t.Window.Start < 0 || t.Window.End >= h.Days:
		return invalid(t.Name, "window", fmt.Sprintf("%s outside horizon of %d days", t.Window, h.Days))
	case t.UnlockDay < 0 || t.UnlockDay > t.Window.End:
		return invalid(t.Name, "unlock_day", fmt.Sprintf("%d outside window %s", t.UnlockDay, t.Window))
	}

	switch g := t.Growth.(type) {
	case SingleHarvest:
	case Regrowth:
		if g.Interval < 1 {
			return invalid(t.Name, "regrowth_interval", "must be at least 1")
		}
	case TwoSeasonRegrowth:
		if g.Interval < 1 {
			return invalid(t.Name, "regrowth_interval", "must be at least 1")
		}
		if g.HarvestCutoff < 1 {
			return invalid(t.Name, "harvest_cutoff", "must be at least 1")
		}
		if t.Window.Len() < 2*h.SeasonLength {
			return invalid(t.Name, "window", "two-season type needs a window of two seasons")
		}
	default:
		return invalid(t.Name, "growth", "missing growth kind")
	}

	for _, s := range Stages {
		rule := t.Processing[s]
		if !rule.Supported {
			continue
		}
		if rule.Delay < 1 || rule.Delay >= h.Days {
			return invalid(t.Name, s.String()+".delay", fmt.Sprintf("%d must be in [1, %d)", rule.Delay, h.Days))
		}
		if rule.OutputPrice.IsNegative() {
			return invalid(t.Name, s.String()+".output_price", "must not be negative")
		}
	}
	return nil
}

func invalid(resource, field, reason string) error {
	return &generic.ConstructionError{Resource: resource, Field: field, Reason: reason}
}

/*
store.go - Persistence interface for solved plan runs

PURPOSE:
  Defines the interface between the planning logic and storage. A run is
  written once, after a solve, and never edited: re-planning creates a
  new run. Different implementations can use SQLite or memory.

KEY TYPES:
  Grid:    A named (resource x day) array, e.g. "planted"
  Series:  A named per-day array, e.g. "cash"
  Run:     One solve: status, objective, grids and series
  PlanStore: Save/Get/List of runs

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite persistence
  - generic/store/memory.go: In-memory for tests and dev

SEE ALSO:
  - planner/plan.go: Builds grids from a solution
  - export/: Writes grids as CSV and tables
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OUTPUT ARRAYS
// =============================================================================

// Grid is a named array indexed by (row, day). Rows are resource names.
type Grid struct {
	Name   string
	Label  string
	Rows   []string
	Values [][]float64
}

// Row returns the values of the named row.
func (g Grid) Row(name string) ([]float64, bool) {
	for i, r := range g.Rows {
		if r == name {
			return g.Values[i], true
		}
	}
	return nil, false
}

// At returns the value at (row index, day).
func (g Grid) At(row, day int) float64 {
	return g.Values[row][day]
}

// NonZeroRows returns the indices of rows holding at least one non-zero value.
func (g Grid) NonZeroRows() []int {
	var out []int
	for i, row := range g.Values {
		for _, v := range row {
			if v != 0 {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// Series is a named per-day array.
type Series struct {
	Name   string
	Values []float64
}

// =============================================================================
// RUNS
// =============================================================================

type RunID string

// Run is a persisted solve.
type Run struct {
	ID        RunID
	Scenario  string
	Solver    string
	Status    Status
	Objective decimal.Decimal
	Duration  time.Duration
	CreatedAt time.Time
	Grids     []Grid
	Series    []Series
}

// Grid returns the named grid.
func (r *Run) Grid(name string) (Grid, bool) {
	for _, g := range r.Grids {
		if g.Name == name {
			return g, true
		}
	}
	return Grid{}, false
}

// PlanStore persists runs. Runs are immutable once saved.
type PlanStore interface {
	// SaveRun persists a run with all its grids and series. Returns
	// ErrDuplicateRun if the ID is taken.
	SaveRun(ctx context.Context, run Run) error

	// GetRun loads a run. Returns ErrPlanNotFound if missing.
	GetRun(ctx context.Context, id RunID) (*Run, error)

	// ListRuns returns the newest runs first, without grids or series.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

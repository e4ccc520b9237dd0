/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the planner's internal types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Catalog:   factory.CatalogDoc / factory.TypeDoc (same shape as files)
  Model:     ModelSummaryDTO, GroupCountDTO
  Plans:     PlanRequest, RunDTO, RunSummaryDTO, GridDTO, SeriesDTO
  Jobs:      JobDTO
  Scenarios: ScenarioDTO

VALIDATION:
  Inline catalogs and planning blocks are validated by factory when the
  request is resolved, not here.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/documents.go: Document types reused for catalog payloads
*/
package api

import (
	"time"

	"github.com/warp/harvest-planner/factory"
	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// PlanRequest asks for a solve. Scenario picks a built-in scenario (the
// default one when empty); Include, Catalog and Planning override parts
// of it.
type PlanRequest struct {
	Scenario string               `json:"scenario,omitempty"`
	Include  []string             `json:"include,omitempty"`
	Catalog  *factory.CatalogDoc  `json:"catalog,omitempty"`
	Planning *factory.PlanningDoc `json:"planning,omitempty"`

	// Async queues the solve and returns a job instead of waiting.
	Async bool `json:"async,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ModelSummaryDTO describes an assembled model without solving it.
type ModelSummaryDTO struct {
	Scenario         string          `json:"scenario"`
	HorizonDays      int             `json:"horizon_days"`
	Types            int             `json:"types"`
	Variables        int             `json:"variables"`
	IntegerVariables int             `json:"integer_variables"`
	Constraints      int             `json:"constraints"`
	NonZeros         int             `json:"non_zeros"`
	Groups           []GroupCountDTO `json:"groups"`
}

type GroupCountDTO struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// RunSummaryDTO is a stored run without its arrays.
type RunSummaryDTO struct {
	ID         string  `json:"id"`
	Scenario   string  `json:"scenario,omitempty"`
	Solver     string  `json:"solver"`
	Status     string  `json:"status"`
	Objective  float64 `json:"objective"`
	DurationMS int64   `json:"duration_ms"`
	CreatedAt  string  `json:"created_at"`
}

// RunDTO is a stored run with its grids and series.
type RunDTO struct {
	RunSummaryDTO
	Grids  []GridDTO   `json:"grids"`
	Series []SeriesDTO `json:"series"`
}

// GridDTO lists the rows of a grid that hold a non-zero value.
type GridDTO struct {
	Name  string       `json:"name"`
	Label string       `json:"label"`
	Days  int          `json:"days"`
	Rows  []GridRowDTO `json:"rows"`
}

type GridRowDTO struct {
	Type   string    `json:"type"`
	Values []float64 `json:"values"`
}

type SeriesDTO struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// JobDTO reports an asynchronous solve.
type JobDTO struct {
	ID          string `json:"id"`
	Scenario    string `json:"scenario"`
	State       string `json:"state"`
	RunID       string `json:"run_id,omitempty"`
	Error       string `json:"error,omitempty"`
	SubmittedAt string `json:"submitted_at"`
	FinishedAt  string `json:"finished_at,omitempty"`
}

// ScenarioDTO describes a built-in scenario. Types and Planning are only
// filled for single-scenario lookups.
type ScenarioDTO struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Category    string               `json:"category,omitempty"`
	Types       []string             `json:"types,omitempty"`
	Planning    *factory.PlanningDoc `json:"planning,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error       string   `json:"error"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	RunID       string   `json:"run_id,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toRunSummaryDTO(run generic.Run) RunSummaryDTO {
	obj, _ := run.Objective.Float64()
	return RunSummaryDTO{
		ID:         string(run.ID),
		Scenario:   run.Scenario,
		Solver:     run.Solver,
		Status:     string(run.Status),
		Objective:  obj,
		DurationMS: run.Duration.Milliseconds(),
		CreatedAt:  run.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToRunDTO converts a stored run, keeping only non-zero grid rows.
func ToRunDTO(run generic.Run) RunDTO {
	dto := RunDTO{
		RunSummaryDTO: toRunSummaryDTO(run),
		Grids:         make([]GridDTO, 0, len(run.Grids)),
		Series:        make([]SeriesDTO, 0, len(run.Series)),
	}
	for _, g := range run.Grids {
		dto.Grids = append(dto.Grids, toGridDTO(g))
	}
	for _, s := range run.Series {
		dto.Series = append(dto.Series, SeriesDTO{Name: s.Name, Values: s.Values})
	}
	return dto
}

func toGridDTO(g generic.Grid) GridDTO {
	dto := GridDTO{Name: g.Name, Label: g.Label, Rows: []GridRowDTO{}}
	if len(g.Values) > 0 {
		dto.Days = len(g.Values[0])
	}
	for _, r := range g.NonZeroRows() {
		dto.Rows = append(dto.Rows, GridRowDTO{Type: g.Rows[r], Values: g.Values[r]})
	}
	return dto
}

func toModelSummaryDTO(scenario string, horizon, types int, stats generic.Stats) ModelSummaryDTO {
	dto := ModelSummaryDTO{
		Scenario:         scenario,
		HorizonDays:      horizon,
		Types:            types,
		Variables:        stats.Variables,
		IntegerVariables: stats.IntegerVariables,
		Constraints:      stats.Constraints,
		NonZeros:         stats.NonZeros,
		Groups:           make([]GroupCountDTO, 0, len(stats.Groups)),
	}
	for _, g := range stats.Groups {
		dto.Groups = append(dto.Groups, GroupCountDTO{Group: g.Group, Count: g.Count})
	}
	return dto
}

func toJobDTO(j Job) JobDTO {
	dto := JobDTO{
		ID:          j.ID,
		Scenario:    j.Scenario,
		State:       string(j.State),
		RunID:       string(j.RunID),
		Error:       j.Error,
		SubmittedAt: j.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if !j.FinishedAt.IsZero() {
		dto.FinishedAt = j.FinishedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toScenarioDTO(doc factory.ScenarioDoc) ScenarioDTO {
	return ScenarioDTO{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Category,
	}
}

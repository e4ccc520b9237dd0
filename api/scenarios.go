/*
scenarios.go - Scenario endpoints

PURPOSE:
  Lists the built-in scenarios (factory/scenarios/*.yaml) so clients can
  pick one for /api/catalog, /api/model and POST /api/plans.

ENDPOINTS:
  GET /api/scenarios         All scenarios, ordered by ID
  GET /api/scenarios/{id}    One scenario with its types and planning

USAGE VIA API:
  POST /api/plans
  {"scenario": "spring-only"}

SEE ALSO:
  - factory/scenarios.go: Scenario documents
  - handlers.go: resolve applies request overrides to a scenario
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/harvest-planner/factory"
)

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	docs := factory.Scenarios()
	dtos := make([]ScenarioDTO, 0, len(docs))
	for _, doc := range docs {
		dtos = append(dtos, toScenarioDTO(doc))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetScenario returns one scenario with its resolved catalog names and
// planning settings.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := factory.LookupScenario(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sc, err := h.resolve(PlanRequest{Scenario: id})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := toScenarioDTO(doc)
	dto.Types = sc.Catalog.Names()
	planning := doc.Planning
	if planning == nil {
		planning = h.Planning
	}
	if planning == nil {
		p := factory.DefaultPlanning()
		planning = &p
	}
	dto.Planning = planning
	writeJSON(w, http.StatusOK, dto)
}

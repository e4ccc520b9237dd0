/*
handlers.go - HTTP API handlers for the harvest planner

PURPOSE:
  Exposes catalog lookup, model assembly and plan solving via REST API.
  Handles HTTP request/response and JSON serialization, and delegates to
  factory (inputs), planner (model and solve) and the run store.

ENDPOINTS:
  Catalog:
    GET    /api/catalog                  Resource types of a scenario
    GET    /api/catalog/{name}           One type, with suggestions on 404

  Model:
    GET    /api/model                    Size of the assembled model
    GET    /api/model.lp                 Model as a CPLEX LP file

  Plans:
    POST   /api/plans                    Solve (sync, or async with a job)
    GET    /api/plans                    Stored runs, newest first
    GET    /api/plans/{id}               Run with grids and series
    GET    /api/plans/{id}/grids/{name}  One grid (JSON, or CSV)
    GET    /api/plans/{id}/cash          Cash and land (CSV)
    GET    /api/jobs/{id}                Async solve status

  All catalog and model endpoints take ?scenario=<id>.

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service: assemble, solve and persist
  - Store: stored runs
  - Queue: background solves (optional)
  - Limiter: caps solve requests across all clients

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid catalog, settings or request body
  - 404: Unknown run, scenario, job or resource type
  - 409: Run ID already stored
  - 422: Model is infeasible or unbounded (the run is still stored)
  - 429: Solve rate limit or full queue
  - 502: Solver failed
  - 504: Solver ran out of time
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Solving is rate limited because a single request
  can hold a CPU for minutes.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Scenario endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/warp/harvest-planner/export"
	"github.com/warp/harvest-planner/factory"
	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/planner"
	"github.com/warp/harvest-planner/solver"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *planner.Service
	Store   generic.PlanStore
	Queue   *SolveQueue
	Limiter *rate.Limiter
	Logger  zerolog.Logger

	// Planning applies to scenarios that carry no planning block of their
	// own, i.e. it is the server's configured farm.
	Planning *factory.PlanningDoc
}

// NewHandler creates a handler around a planner service. The service
// store doubles as the run store.
func NewHandler(service *planner.Service) *Handler {
	return &Handler{
		Service: service,
		Store:   service.Store,
		Logger:  service.Logger,
	}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// GetCatalog returns every resource type of the scenario.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	sc, err := h.resolve(PlanRequest{Scenario: r.URL.Query().Get("scenario")})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.CatalogToDoc(sc.Catalog))
}

// GetResourceType returns one resource type by name (case-insensitive).
func (h *Handler) GetResourceType(w http.ResponseWriter, r *http.Request) {
	sc, err := h.resolve(PlanRequest{Scenario: r.URL.Query().Get("scenario")})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sub, err := sc.Catalog.Subset(chi.URLParam(r, "name"))
	if err != nil {
		var ue *generic.UnknownResourceError
		if errors.As(err, &ue) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:       "Resource type not found",
				Details:     err.Error(),
				Suggestions: ue.Suggestions,
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.CatalogToDoc(sub).Types[0])
}

// =============================================================================
// MODEL HANDLERS
// =============================================================================

// GetModelSummary assembles the scenario's model and reports its size.
func (h *Handler) GetModelSummary(w http.ResponseWriter, r *http.Request) {
	sc, model, ok := h.assemble(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toModelSummaryDTO(sc.ID, sc.Settings.HorizonDays, sc.Catalog.Len(), model.Summary()))
}

// GetModelLP assembles the scenario's model and returns it as an LP file.
func (h *Handler) GetModelLP(w http.ResponseWriter, r *http.Request) {
	_, model, ok := h.assemble(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	lw := solver.LPWriter{Comments: r.URL.Query().Get("comments") == "true"}
	if err := lw.Write(w, model.Problem); err != nil {
		h.Logger.Error().Err(err).Msg("write LP")
	}
}

func (h *Handler) assemble(w http.ResponseWriter, r *http.Request) (*factory.Scenario, *planner.Model, bool) {
	sc, err := h.resolve(PlanRequest{Scenario: r.URL.Query().Get("scenario")})
	if err != nil {
		writeDomainError(w, err)
		return nil, nil, false
	}
	assembler := &planner.Assembler{Logger: h.Logger, Observer: h.Service.Observer}
	model, err := assembler.Assemble(sc.Catalog, sc.Settings)
	if err != nil {
		writeDomainError(w, err)
		return nil, nil, false
	}
	return sc, model, true
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// CreatePlan solves a scenario. Synchronous solves answer 201 with the
// stored run; async ones answer 202 with a job.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	// an empty body solves the default scenario
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sc, err := h.resolve(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.Limiter != nil && !h.Limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many solve requests", nil)
		return
	}

	if req.Async {
		if h.Queue == nil {
			writeError(w, http.StatusBadRequest, "Async solving is not enabled", nil)
			return
		}
		job, err := h.Queue.Submit(sc.ID, sc.Catalog, sc.Settings)
		if err != nil {
			writeError(w, http.StatusTooManyRequests, "Cannot queue solve", err)
			return
		}
		w.Header().Set("Location", "/api/jobs/"+job.ID)
		writeJSON(w, http.StatusAccepted, toJobDTO(job))
		return
	}

	run, _, err := h.Service.Run(r.Context(), sc.ID, sc.Catalog, sc.Settings)
	if err != nil {
		if run != nil {
			writeJSON(w, statusFor(err), ErrorResponse{
				Error:   "No plan: " + string(run.Status),
				Details: err.Error(),
				RunID:   string(run.ID),
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/plans/"+string(run.ID))
	writeJSON(w, http.StatusCreated, ToRunDTO(*run))
}

// ListPlans returns stored runs, newest first. ?limit=N caps the list.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]RunSummaryDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunSummaryDTO(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns a run with all grids and series.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ToRunDTO(*run))
}

// GetPlanGrid returns one grid. ?format=csv (or Accept: text/csv) gives
// the sheet the CLI writes.
func (h *Handler) GetPlanGrid(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	grid, found := run.Grid(name)
	if !found {
		writeError(w, http.StatusNotFound, "Grid not found", nil)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if err := export.WriteGridCSV(w, grid); err != nil {
			h.Logger.Error().Err(err).Str("grid", name).Msg("write grid CSV")
		}
		return
	}
	writeJSON(w, http.StatusOK, toGridDTO(grid))
}

// GetPlanCash returns the cash and land trajectory as CSV.
func (h *Handler) GetPlanCash(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCashCSV(w, run); err != nil {
		h.Logger.Error().Err(err).Msg("write cash CSV")
	}
}

// GetJob reports an async solve.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.Queue == nil {
		writeError(w, http.StatusNotFound, "Job not found", nil)
		return
	}
	job, ok := h.Queue.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toJobDTO(job))
}

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*generic.Run, bool) {
	run, err := h.Store.GetRun(r.Context(), generic.RunID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return run, true
}

// =============================================================================
// REQUEST RESOLUTION
// =============================================================================

// resolve turns a request into a built scenario: the named built-in
// scenario with the request's overrides applied.
func (h *Handler) resolve(req PlanRequest) (*factory.Scenario, error) {
	if req.Catalog != nil && len(req.Include) > 0 {
		return nil, &generic.ConstructionError{Field: "include", Reason: "cannot be combined with an inline catalog"}
	}
	doc, err := factory.LookupScenario(req.Scenario)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Planning != nil:
		doc.Planning = req.Planning
	case doc.Planning == nil && h.Planning != nil:
		doc.Planning = h.Planning
	}
	if req.Catalog != nil {
		doc.Catalog = req.Catalog
		doc.Include = nil
	}
	if len(req.Include) > 0 {
		doc.Include = req.Include
		doc.Catalog = nil
	}
	return doc.Build()
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps planner and store errors to a status code.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := http.StatusText(status)
	var ue *generic.UnknownResourceError
	if errors.As(err, &ue) {
		writeJSON(w, status, ErrorResponse{Error: message, Details: err.Error(), Suggestions: ue.Suggestions})
		return
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrDuplicateRun):
		return http.StatusConflict
	case generic.IsSolveOutcome(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, generic.ErrSolverFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func wantsCSV(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return f == "csv"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/csv")
}

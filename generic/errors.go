/*
errors.go - Centralized error types for the planning kernel

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Construction errors - Input data violates a modeling assumption.
     Detected while assembling, before any solver is called.
  2. Solve outcomes - The model is infeasible or unbounded. These are
     normal results, reported with a StatusError so callers can tell
     them apart from "optimal".
  3. Solver failures - The solver itself failed (process error, timeout,
     numerical trouble). Never reported as infeasible.
  4. Lookup errors - Unknown plan runs, scenarios or resource names.

USAGE:
  plan, err := planner.Solve(ctx, model, solver)
  switch {
  case errors.Is(err, generic.ErrInfeasible):
      // report: no schedule satisfies the constraints
  case errors.Is(err, generic.ErrSolverFailure):
      // report: the solver broke, the model may be fine
  }

SEE ALSO:
  - solver.go: Status values wrapped by StatusError
  - planner/assembler.go: Raises ConstructionError
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrModelConstruction is returned when catalog or horizon data breaks an
	// assumption the model relies on. Fatal; no solver is invoked.
	ErrModelConstruction = errors.New("model construction failed")

	// ErrInfeasible is returned when no assignment satisfies the model.
	ErrInfeasible = errors.New("model is infeasible")

	// ErrUnbounded is returned when the objective can grow without limit.
	ErrUnbounded = errors.New("model is unbounded")

	// ErrSolverFailure is returned when the solver could not produce an answer.
	ErrSolverFailure = errors.New("solver failure")

	// ErrPlanNotFound is returned when a stored plan run does not exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrDuplicateRun is returned when a run ID is saved twice.
	ErrDuplicateRun = errors.New("run already exists")

	// ErrUnknownResource is returned when a resource name is not in the catalog.
	ErrUnknownResource = errors.New("unknown resource type")

	// ErrScenarioNotFound is returned when a named scenario does not exist.
	ErrScenarioNotFound = errors.New("scenario not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConstructionError describes which piece of input data is invalid.
type ConstructionError struct {
	Resource string // empty for horizon-level settings
	Field    string
	Reason   string
}

func (e *ConstructionError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("invalid model input: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid model input: %s.%s: %s", e.Resource, e.Field, e.Reason)
}

func (e *ConstructionError) Unwrap() error {
	return ErrModelConstruction
}

// StatusError reports a non-optimal solve outcome.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("solve finished with status %s", e.Status)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case StatusInfeasible:
		return ErrInfeasible
	case StatusUnbounded:
		return ErrUnbounded
	default:
		return ErrSolverFailure
	}
}

// SolverError wraps a failure raised by a solver implementation.
type SolverError struct {
	Solver string
	Err    error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver %s failed: %v", e.Solver, e.Err)
}

// Unwrap exposes both the sentinel and the cause, so errors.Is works for
// ErrSolverFailure as well as e.g. context.DeadlineExceeded.
func (e *SolverError) Unwrap() []error {
	return []error{ErrSolverFailure, e.Err}
}

// UnknownResourceError carries the closest catalog names.
type UnknownResourceError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownResourceError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown resource type %q", e.Name)
	}
	return fmt.Sprintf("unknown resource type %q (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e *UnknownResourceError) Unwrap() error {
	return ErrUnknownResource
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrModelConstruction) ||
		errors.Is(err, ErrUnknownResource)
}

// IsSolveOutcome returns true for infeasible/unbounded results.
func IsSolveOutcome(err error) bool {
	return errors.Is(err, ErrInfeasible) || errors.Is(err, ErrUnbounded)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrUnknownResource) ||
		errors.Is(err, ErrScenarioNotFound)
}

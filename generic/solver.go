/*
solver.go - The contract between an assembled model and a numeric solver

PURPOSE:
  The planner assembles a Problem; something else finds the optimum. This
  file defines that boundary so the planning core never depends on how
  the search is done (simplex, branch-and-bound, an external process).

CONTRACT:
  Solve(ctx, problem) returns exactly one of:
    - (*Solution{Status: StatusOptimal, Values: ...}, nil)
    - (*Solution{Status: StatusInfeasible|StatusUnbounded}, nil)
    - (nil, error wrapping ErrSolverFailure)

  Infeasible and unbounded are answers, not failures. A solver must never
  report its own failure (crash, timeout, numerical trouble) as
  infeasible. Solve blocks until done and must honour ctx cancellation.

IMPLEMENTATIONS:
  - solver/simplex.go: In-process LP relaxation + branch-and-bound
  - solver/cbc.go: External CBC process via an LP file

SEE ALSO:
  - errors.go: StatusError, SolverError
  - evaluate.go: Solutions are checked against the problem exactly
*/
package generic

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SOLVER
// =============================================================================

// Status is the outcome of a solve.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"

	// StatusFailed is never returned by a Solver; it labels failed solves
	// in logs and metrics.
	StatusFailed Status = "failed"
)

// Solution is what a solver returns.
// Values is set only when Status is StatusOptimal.
type Solution struct {
	Status    Status
	Values    Assignment
	Objective decimal.Decimal
	Solver    string
	Nodes     int // branch-and-bound nodes explored, if the solver reports it
}

// Solver finds an optimal assignment for a Problem.
type Solver interface {
	// Name identifies the implementation in logs and stored runs.
	Name() string

	// Solve blocks until an answer is found or ctx is done.
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

/*
simplex.go - In-process solver: dense simplex plus branch-and-bound

PURPOSE:
  Solves small problems without any external binary. LP relaxations are
  solved with gonum's simplex on a dense matrix; integrality is enforced
  by depth-first branch-and-bound on variable bounds.

SCOPE:
  Meant for tests, scenario previews and single-season models with a
  few types. The full 84-day model has ~11k variables and is refused by
  the MaxDenseCells guard; use CBC for it.

ALGORITHM:
  node := root bounds
  loop over a stack of nodes:
      presolve(bounds) -> fixed vars, tightened bounds, remaining rows
      LP relaxation    -> two-phase tableau (tableau.go)
                          infeasible: drop node
                          bound no better than incumbent: drop node
      pick the most fractional integer variable j = v
          none: new incumbent
          else: push {x_j >= ceil(v)} and {x_j <= floor(v)}

SEE ALSO:
  - presolve.go: float model, presolve and standard form
  - tableau.go: LP relaxation
  - generic/solver.go: Solver contract
*/
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/generic"
)

const (
	DefaultMaxDenseCells = 250_000
	DefaultMaxNodes      = 10_000
	DefaultTolerance     = 1e-6
)

// ErrNodeLimit is returned when branch-and-bound gives up before proving
// optimality.
var ErrNodeLimit = errors.New("branch-and-bound node limit reached")

// Simplex is the in-process solver.
type Simplex struct {
	// MaxDenseCells caps the cells of the simplex tableau.
	MaxDenseCells int
	// MaxNodes caps the branch-and-bound search.
	MaxNodes int
	// Tolerance for integrality and feasibility checks.
	Tolerance float64
	Logger    zerolog.Logger
}

// NewSimplex returns a Simplex with default limits.
func NewSimplex() *Simplex {
	return &Simplex{
		MaxDenseCells: DefaultMaxDenseCells,
		MaxNodes:      DefaultMaxNodes,
		Tolerance:     DefaultTolerance,
		Logger:        zerolog.Nop(),
	}
}

func (s *Simplex) Name() string { return "simplex" }

// node is a branch-and-bound subproblem: the root problem with tighter bounds.
type node struct {
	lower, upper []float64
	depth        int
}

// relaxation is the result of one LP solve in the original variable space.
type relaxation struct {
	status generic.Status
	x      []float64
	cost   float64
}

// Solve implements generic.Solver.
func (s *Simplex) Solve(ctx context.Context, p *generic.Problem) (*generic.Solution, error) {
	start := time.Now()
	fm := newFloatModel(p)
	tol := s.tolerance()

	stack := []node{{lower: fm.lower, upper: fm.upper}}
	var best []float64
	bestCost := math.Inf(1)
	nodes := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(err)
		}
		if s.MaxNodes > 0 && nodes >= s.MaxNodes {
			return nil, s.fail(fmt.Errorf("%w after %d nodes", ErrNodeLimit, nodes))
		}
		nodes++

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rel, err := s.relax(ctx, fm, n)
		if err != nil {
			return nil, s.fail(err)
		}
		switch rel.status {
		case generic.StatusInfeasible:
			continue
		case generic.StatusUnbounded:
			s.Logger.Debug().Int("nodes", nodes).Msg("relaxation unbounded")
			return &generic.Solution{Status: generic.StatusUnbounded, Solver: s.Name(), Nodes: nodes}, nil
		}
		if rel.cost >= bestCost-tol {
			continue
		}

		j, v := mostFractional(fm, rel.x, tol)
		if j < 0 {
			best, bestCost = rel.x, rel.cost
			continue
		}

		up := node{lower: clone(n.lower), upper: n.upper, depth: n.depth + 1}
		up.lower[j] = math.Ceil(v)
		down := node{lower: n.lower, upper: clone(n.upper), depth: n.depth + 1}
		down.upper[j] = math.Floor(v)
		stack = append(stack, up, down)
	}

	s.Logger.Debug().
		Int("nodes", nodes).
		Dur("took", time.Since(start)).
		Bool("found", best != nil).
		Msg("branch-and-bound finished")

	if best == nil {
		return &generic.Solution{Status: generic.StatusInfeasible, Solver: s.Name(), Nodes: nodes}, nil
	}

	values := generic.NewAssignment(fm.n)
	for j, x := range best {
		if fm.integer[j] {
			x = math.Round(x)
		}
		values[j] = decimal.NewFromFloat(x)
	}
	return &generic.Solution{
		Status:    generic.StatusOptimal,
		Values:    values,
		Objective: p.ObjectiveValue(values),
		Solver:    s.Name(),
		Nodes:     nodes,
	}, nil
}

// relax solves the LP relaxation of n.
func (s *Simplex) relax(ctx context.Context, fm *floatModel, n node) (relaxation, error) {
	tol := s.tolerance()

	rd := presolve(fm, n.lower, n.upper, tol)
	if rd.status == generic.StatusInfeasible {
		return relaxation{status: generic.StatusInfeasible}, nil
	}
	sf, status, err := toStandardForm(fm, rd, s.MaxDenseCells)
	if err != nil {
		return relaxation{}, err
	}
	if status == generic.StatusUnbounded {
		return relaxation{status: generic.StatusUnbounded}, nil
	}

	x := make([]float64, fm.n)
	for j := range x {
		if rd.fixed[j] {
			x[j] = rd.value[j]
		}
	}

	if sf.rows > 0 {
		z, status, err := solveTableau(ctx, sf, tol)
		if err != nil {
			return relaxation{}, err
		}
		if status != generic.StatusOptimal {
			return relaxation{status: status}, nil
		}
		for k, j := range sf.columns {
			x[j] = z[k] + rd.lower[j]
		}
	}

	cost := 0.0
	for j, c := range fm.cost {
		cost += c * x[j]
	}
	return relaxation{status: generic.StatusOptimal, x: x, cost: cost}, nil
}

func (s *Simplex) fail(err error) error {
	return &generic.SolverError{Solver: s.Name(), Err: err}
}

func (s *Simplex) tolerance() float64 {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return DefaultTolerance
}

// mostFractional returns the integer variable furthest from an integer, or
// -1 when all are integral within tol.
func mostFractional(fm *floatModel, x []float64, tol float64) (int, float64) {
	pick, worst := -1, tol
	for j, v := range x {
		if !fm.integer[j] {
			continue
		}
		frac := math.Abs(v - math.Round(v))
		if frac > worst {
			pick, worst = j, frac
		}
	}
	if pick < 0 {
		return -1, 0
	}
	return pick, x[pick]
}

func clone(xs []float64) []float64 {
	return append([]float64(nil), xs...)
}

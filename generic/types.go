/*
Package generic provides the domain-agnostic linear model kernel.

PURPOSE:
  This package contains the types every planning model is assembled from:
  typed, bounded decision variables, linear expressions over them, linear
  constraints, and a linear objective. Domain packages (catalog, planner)
  describe WHAT is being planned; this package only knows how to represent
  the algebra so that any solver can consume it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Var: A decision variable with kind (continuous/integer) and bounds
  - VarTable: Allocator that hands out dense VarIDs in creation order
  - Term/Expr: Linear expressions with exact decimal coefficients
  - Constraint: Normalized "terms (sense) rhs" relation
  - Problem: Variables + constraints + objective, immutable once built

DESIGN PRINCIPLES:
  1. Immutability: A Problem is never mutated after assembly
  2. Precision: Coefficients use decimal.Decimal, evaluation is exact
  3. Determinism: Terms are merged and sorted by VarID, so two builds of
     the same model compare equal term by term

USAGE:
  table := generic.NewVarTable()
  x := table.New("x", generic.Integer, decimal.Zero, nil)
  y := table.New("y", generic.Continuous, decimal.Zero, nil)
  c := generic.Le("cap", generic.V(x).Plus(generic.V(y)), generic.Const(decimal.NewFromInt(10)))

SEE ALSO:
  - expr.go: Expression construction helpers
  - evaluate.go: Exact evaluation of expressions and constraint checks
  - solver.go: The contract a solver must satisfy
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VARIABLES
// =============================================================================

// VarID is the dense index of a variable inside its Problem.
type VarID int

// VarKind says whether a variable must take an integral value.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
)

func (k VarKind) String() string {
	if k == Integer {
		return "integer"
	}
	return "continuous"
}

// Var is a bounded decision variable. Upper == nil means no upper bound.
type Var struct {
	ID    VarID
	Name  string
	Kind  VarKind
	Lower decimal.Decimal
	Upper *decimal.Decimal
}

// HasUpper reports whether the variable is bounded above.
func (v Var) HasUpper() bool { return v.Upper != nil }

// VarTable allocates variables. IDs are assigned in creation order.
type VarTable struct {
	vars []Var
}

func NewVarTable() *VarTable {
	return &VarTable{}
}

// New appends a variable and returns its ID.
func (t *VarTable) New(name string, kind VarKind, lower decimal.Decimal, upper *decimal.Decimal) VarID {
	id := VarID(len(t.vars))
	t.vars = append(t.vars, Var{ID: id, Name: name, Kind: kind, Lower: lower, Upper: upper})
	return id
}

// Len returns the number of allocated variables.
func (t *VarTable) Len() int { return len(t.vars) }

// Var returns the variable with the given ID.
func (t *VarTable) Var(id VarID) Var { return t.vars[id] }

// Vars returns a copy of the allocated variables.
func (t *VarTable) Vars() []Var {
	out := make([]Var, len(t.vars))
	copy(out, t.vars)
	return out
}

// =============================================================================
// CONSTRAINTS
// =============================================================================

// Sense is the relation between a constraint's activity and its RHS.
type Sense int

const (
	SenseLE Sense = iota
	SenseGE
	SenseEQ
)

func (s Sense) String() string {
	switch s {
	case SenseLE:
		return "<="
	case SenseGE:
		return ">="
	default:
		return "="
	}
}

// Constraint is a normalized linear relation: sum(Terms) Sense RHS.
// Group names the builder that emitted it (e.g. "eligibility").
type Constraint struct {
	Name  string
	Group string
	Terms []Term
	Sense Sense
	RHS   decimal.Decimal
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s: %s %s %s", c.Name, Expr{Terms: c.Terms}, c.Sense, c.RHS)
}

// NewConstraint moves everything to the left, merges duplicate variables
// and keeps the constant on the right.
func NewConstraint(name string, lhs Expr, sense Sense, rhs Expr) Constraint {
	diff := lhs.Minus(rhs).Normalize()
	return Constraint{
		Name:  name,
		Terms: diff.Terms,
		Sense: sense,
		RHS:   diff.Constant.Neg(),
	}
}

// Eq builds lhs = rhs.
func Eq(name string, lhs, rhs Expr) Constraint { return NewConstraint(name, lhs, SenseEQ, rhs) }

// Le builds lhs <= rhs.
func Le(name string, lhs, rhs Expr) Constraint { return NewConstraint(name, lhs, SenseLE, rhs) }

// Ge builds lhs >= rhs.
func Ge(name string, lhs, rhs Expr) Constraint { return NewConstraint(name, lhs, SenseGE, rhs) }

// InGroup returns cs with Group set on every constraint.
func InGroup(group string, cs []Constraint) []Constraint {
	out := make([]Constraint, len(cs))
	for i, c := range cs {
		c.Group = group
		out[i] = c
	}
	return out
}

// =============================================================================
// OBJECTIVE & PROBLEM
// =============================================================================

// Direction of optimization.
type Direction int

const (
	Maximize Direction = iota
	Minimize
)

func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

type Objective struct {
	Direction Direction
	Expr      Expr
}

// Problem is the complete description handed to a solver.
type Problem struct {
	Vars        []Var
	Constraints []Constraint
	Objective   Objective
}

// Var returns the variable with the given ID.
func (p *Problem) Var(id VarID) Var { return p.Vars[id] }

// GroupCount is the number of constraints emitted by one builder.
type GroupCount struct {
	Group string
	Count int
}

// Stats summarizes the size of a problem.
type Stats struct {
	Variables        int
	IntegerVariables int
	Constraints      int
	NonZeros         int
	Groups           []GroupCount
}

// Stats counts variables, constraints and non-zero coefficients.
// Groups are reported in first-seen order.
func (p *Problem) Stats() Stats {
	s := Stats{Variables: len(p.Vars), Constraints: len(p.Constraints)}
	for _, v := range p.Vars {
		if v.Kind == Integer {
			s.IntegerVariables++
		}
	}
	index := make(map[string]int)
	for _, c := range p.Constraints {
		s.NonZeros += len(c.Terms)
		i, ok := index[c.Group]
		if !ok {
			i = len(s.Groups)
			index[c.Group] = i
			s.Groups = append(s.Groups, GroupCount{Group: c.Group})
		}
		s.Groups[i].Count++
	}
	return s
}

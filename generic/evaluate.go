/*
evaluate.go - Exact evaluation of a candidate assignment

PURPOSE:
  Answers "does this assignment satisfy the model, and what is it worth?"
  without involving a solver. Used to verify solver output, to score
  hand-written schedules, and throughout the tests.

KEY INSIGHT:
  Coefficients are decimals and so are assignment values, so activity and
  objective values are exact. The objective of a solved plan is recomputed
  here rather than trusted from the solver's floating-point report.

VALIDATION PROCESS:
  1. Bounds: Lower <= value <= Upper for every variable
  2. Integrality: integer variables hold whole values
  3. Constraints: activity (sense) RHS for every constraint
  4. Return every violation found, in model order

SEE ALSO:
  - types.go: Problem and Constraint
  - solver.go: Solutions carry an Assignment
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Assignment holds one value per variable, indexed by VarID.
type Assignment []decimal.Decimal

// NewAssignment returns an all-zero assignment for n variables.
func NewAssignment(n int) Assignment {
	a := make(Assignment, n)
	for i := range a {
		a[i] = decimal.Zero
	}
	return a
}

// Set assigns an integer value to v.
func (a Assignment) Set(v VarID, value int64) {
	a[v] = decimal.NewFromInt(value)
}

// Value evaluates e exactly.
func (a Assignment) Value(e Expr) decimal.Decimal {
	total := e.Constant
	for _, t := range e.Terms {
		total = total.Add(t.Coef.Mul(a[t.Var]))
	}
	return total
}

// Activity returns the left-hand side of c under a.
func (a Assignment) Activity(c Constraint) decimal.Decimal {
	return a.Value(Expr{Terms: c.Terms})
}

// Holds reports whether c is satisfied within tol.
func (a Assignment) Holds(c Constraint, tol decimal.Decimal) bool {
	act := a.Activity(c)
	switch c.Sense {
	case SenseLE:
		return act.LessThanOrEqual(c.RHS.Add(tol))
	case SenseGE:
		return act.GreaterThanOrEqual(c.RHS.Sub(tol))
	default:
		return act.Sub(c.RHS).Abs().LessThanOrEqual(tol)
	}
}

// =============================================================================
// VIOLATIONS
// =============================================================================

type ViolationKind string

const (
	ViolationBound       ViolationKind = "bound"
	ViolationIntegrality ViolationKind = "integrality"
	ViolationConstraint  ViolationKind = "constraint"
)

// Violation describes one unmet requirement.
type Violation struct {
	Kind   ViolationKind
	Name   string // variable or constraint name
	Value  decimal.Decimal
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s (value %s)", v.Kind, v.Name, v.Detail, v.Value)
}

// Violations lists every bound, integrality and constraint violation of a.
// A nil result means a is feasible.
func (p *Problem) Violations(a Assignment, tol decimal.Decimal) []Violation {
	var out []Violation
	for _, v := range p.Vars {
		val := a[v.ID]
		if val.LessThan(v.Lower.Sub(tol)) {
			out = append(out, Violation{Kind: ViolationBound, Name: v.Name, Value: val, Detail: "below " + v.Lower.String()})
		}
		if v.Upper != nil && val.GreaterThan(v.Upper.Add(tol)) {
			out = append(out, Violation{Kind: ViolationBound, Name: v.Name, Value: val, Detail: "above " + v.Upper.String()})
		}
		if v.Kind == Integer && val.Sub(val.Round(0)).Abs().GreaterThan(tol) {
			out = append(out, Violation{Kind: ViolationIntegrality, Name: v.Name, Value: val, Detail: "not integral"})
		}
	}
	for _, c := range p.Constraints {
		if !a.Holds(c, tol) {
			out = append(out, Violation{
				Kind:   ViolationConstraint,
				Name:   c.Name,
				Value:  a.Activity(c),
				Detail: fmt.Sprintf("needs %s %s", c.Sense, c.RHS),
			})
		}
	}
	return out
}

// ObjectiveValue evaluates the problem's objective under a.
func (p *Problem) ObjectiveValue(a Assignment) decimal.Decimal {
	return a.Value(p.Objective.Expr)
}

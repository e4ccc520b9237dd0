/*
Package solver provides generic.Solver implementations and model export.

lpfile.go - CPLEX LP format writer

PURPOSE:
  Writes a generic.Problem in the CPLEX LP text format understood by CBC,
  GLPK, HiGHS, SCIP, Gurobi and CPLEX. Used by the CBC adapter and by the
  "model --lp" command and /api/model.lp endpoint.

NAMING:
  Variables are written as x<ID> and constraints as c<index>, because
  model names contain characters LP readers reject. With Comments set,
  a comment block maps every x<ID> back to its model name.

LIMITS:
  An objective constant is not written; callers recompute the objective
  from variable values.
*/
package solver

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/harvest-planner/generic"
)

// termsPerLine keeps lines well below the 510 character limit of some readers.
const termsPerLine = 8

// LPWriter writes problems in CPLEX LP format.
type LPWriter struct {
	// Comments adds a name table mapping x<ID> to model variable names.
	Comments bool
}

// VarName is the LP name of variable id.
func VarName(id generic.VarID) string {
	return fmt.Sprintf("x%d", id)
}

// RowName is the LP name of the i-th constraint.
func RowName(i int) string {
	return fmt.Sprintf("c%d", i)
}

// Write writes p to w.
func (lw LPWriter) Write(w io.Writer, p *generic.Problem) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\ %d variables, %d constraints\n", len(p.Vars), len(p.Constraints))
	if lw.Comments {
		for _, v := range p.Vars {
			fmt.Fprintf(bw, "\\ %s = %s\n", VarName(v.ID), v.Name)
		}
	}

	if p.Objective.Direction == generic.Minimize {
		bw.WriteString("Minimize\n")
	} else {
		bw.WriteString("Maximize\n")
	}
	bw.WriteString(" obj:")
	writeTerms(bw, p.Objective.Expr.Normalize().Terms)
	bw.WriteString("\n")

	bw.WriteString("Subject To\n")
	for i, c := range p.Constraints {
		fmt.Fprintf(bw, " %s:", RowName(i))
		writeTerms(bw, c.Terms)
		fmt.Fprintf(bw, " %s %s\n", lpSense(c.Sense), c.RHS.String())
	}

	bw.WriteString("Bounds\n")
	for _, v := range p.Vars {
		switch {
		case v.Upper != nil:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", v.Lower.String(), VarName(v.ID), v.Upper.String())
		case !v.Lower.IsZero():
			fmt.Fprintf(bw, " %s >= %s\n", VarName(v.ID), v.Lower.String())
		}
	}

	var ints []string
	for _, v := range p.Vars {
		if v.Kind == generic.Integer {
			ints = append(ints, VarName(v.ID))
		}
	}
	if len(ints) > 0 {
		bw.WriteString("General\n")
		for i := 0; i < len(ints); i += termsPerLine {
			end := i + termsPerLine
			if end > len(ints) {
				end = len(ints)
			}
			bw.WriteString(" " + strings.Join(ints[i:end], " ") + "\n")
		}
	}

	bw.WriteString("End\n")
	return bw.Flush()
}

// writeTerms writes " + 3 x1 - 2 x4 ...". An empty sum is written as
// "0 x0" so the row still parses.
func writeTerms(bw *bufio.Writer, terms []generic.Term) {
	if len(terms) == 0 {
		bw.WriteString(" 0 x0")
		return
	}
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			bw.WriteString("\n  ")
		}
		sign := "+"
		coef := t.Coef
		if coef.IsNegative() {
			sign = "-"
			coef = coef.Neg()
		}
		if i == 0 && sign == "+" {
			fmt.Fprintf(bw, " %s %s", lpNumber(coef), VarName(t.Var))
			continue
		}
		fmt.Fprintf(bw, " %s %s %s", sign, lpNumber(coef), VarName(t.Var))
	}
}

func lpNumber(d decimal.Decimal) string {
	return d.String()
}

func lpSense(s generic.Sense) string {
	switch s {
	case generic.SenseLE:
		return "<="
	case generic.SenseGE:
		return ">="
	default:
		return "="
	}
}

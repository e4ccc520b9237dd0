package generic

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LINEAR EXPRESSIONS
// =============================================================================

// Term is coef * var.
type Term struct {
	Var  VarID
	Coef decimal.Decimal
}

// Expr is sum(Terms) + Constant. Methods never modify the receiver.
type Expr struct {
	Terms    []Term
	Constant decimal.Decimal
}

var one = decimal.NewFromInt(1)

// V is the expression 1*v.
func V(v VarID) Expr {
	return Expr{Terms: []Term{{Var: v, Coef: one}}}
}

// Const is a constant expression.
func Const(c decimal.Decimal) Expr {
	return Expr{Constant: c}
}

// ConstInt is a constant integer expression.
func ConstInt(c int64) Expr {
	return Expr{Constant: decimal.NewFromInt(c)}
}

// Sum adds expressions.
func Sum(exprs ...Expr) Expr {
	n := 0
	for _, e := range exprs {
		n += len(e.Terms)
	}
	out := Expr{Terms: make([]Term, 0, n)}
	for _, e := range exprs {
		out.Terms = append(out.Terms, e.Terms...)
		out.Constant = out.Constant.Add(e.Constant)
	}
	return out
}

// Plus returns e + o.
func (e Expr) Plus(o Expr) Expr { return Sum(e, o) }

// Minus returns e - o.
func (e Expr) Minus(o Expr) Expr { return Sum(e, o.Scale(one.Neg())) }

// Scale returns k * e.
func (e Expr) Scale(k decimal.Decimal) Expr {
	out := Expr{Terms: make([]Term, len(e.Terms)), Constant: e.Constant.Mul(k)}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Var: t.Var, Coef: t.Coef.Mul(k)}
	}
	return out
}

// AddTerm returns e + coef*v.
func (e Expr) AddTerm(v VarID, coef decimal.Decimal) Expr {
	terms := make([]Term, len(e.Terms), len(e.Terms)+1)
	copy(terms, e.Terms)
	return Expr{Terms: append(terms, Term{Var: v, Coef: coef}), Constant: e.Constant}
}

// IsConstant reports whether e has no variable terms after merging.
func (e Expr) IsConstant() bool {
	return len(e.Normalize().Terms) == 0
}

// Normalize merges terms on the same variable, drops zero coefficients and
// orders terms by VarID.
func (e Expr) Normalize() Expr {
	merged := make(map[VarID]decimal.Decimal, len(e.Terms))
	for _, t := range e.Terms {
		merged[t.Var] = merged[t.Var].Add(t.Coef)
	}
	out := Expr{Terms: make([]Term, 0, len(merged)), Constant: e.Constant}
	for v, c := range merged {
		if c.IsZero() {
			continue
		}
		out.Terms = append(out.Terms, Term{Var: v, Coef: c})
	}
	sort.Slice(out.Terms, func(i, j int) bool { return out.Terms[i].Var < out.Terms[j].Var })
	return out
}

// Coef returns the merged coefficient of v in e.
func (e Expr) Coef(v VarID) decimal.Decimal {
	c := decimal.Zero
	for _, t := range e.Terms {
		if t.Var == v {
			c = c.Add(t.Coef)
		}
	}
	return c
}

func (e Expr) String() string {
	var b strings.Builder
	for i, t := range e.Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(t.Coef.String())
		b.WriteString("*x")
		b.WriteString(strconv.Itoa(int(t.Var)))
	}
	if !e.Constant.IsZero() || len(e.Terms) == 0 {
		if len(e.Terms) > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(e.Constant.String())
	}
	return b.String()
}

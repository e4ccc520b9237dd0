package generic_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func twoVars() (*generic.VarTable, generic.VarID, generic.VarID) {
	table := generic.NewVarTable()
	x := table.New("x", generic.Integer, decimal.Zero, nil)
	y := table.New("y", generic.Continuous, decimal.Zero, nil)
	return table, x, y
}

// =============================================================================
// EXPRESSION TESTS
// =============================================================================

func TestExpr_Normalize_MergesAndDropsZeros(t *testing.T) {
	// GIVEN: x + 2y - x + 3
	// WHEN: Normalizing
	// THEN: Only 2y remains, constant kept

	_, x, y := twoVars()
	e := generic.V(x).Plus(generic.V(y).Scale(dec(2))).Minus(generic.V(x)).Plus(generic.ConstInt(3))

	n := e.Normalize()
	require.Len(t, n.Terms, 1)
	assert.Equal(t, y, n.Terms[0].Var)
	assert.True(t, n.Terms[0].Coef.Equal(dec(2)))
	assert.True(t, n.Constant.Equal(dec(3)))
}

func TestExpr_Normalize_SortsByVarID(t *testing.T) {
	_, x, y := twoVars()
	n := generic.V(y).Plus(generic.V(x)).Normalize()

	require.Len(t, n.Terms, 2)
	assert.Equal(t, x, n.Terms[0].Var)
	assert.Equal(t, y, n.Terms[1].Var)
}

func TestExpr_MethodsDoNotModifyReceiver(t *testing.T) {
	_, x, y := twoVars()
	base := generic.V(x)

	_ = base.AddTerm(y, dec(5))
	_ = base.Scale(dec(7))
	_ = base.Plus(generic.V(y))

	require.Len(t, base.Terms, 1)
	assert.True(t, base.Terms[0].Coef.Equal(dec(1)))
}

func TestExpr_IsConstant(t *testing.T) {
	_, x, _ := twoVars()
	assert.True(t, generic.ConstInt(4).IsConstant())
	assert.True(t, generic.V(x).Minus(generic.V(x)).IsConstant())
	assert.False(t, generic.V(x).IsConstant())
}

func TestExpr_Coef(t *testing.T) {
	_, x, y := twoVars()
	e := generic.V(x).AddTerm(x, dec(2)).AddTerm(y, dec(-1))

	assert.True(t, e.Coef(x).Equal(dec(3)))
	assert.True(t, e.Coef(y).Equal(dec(-1)))
}

func TestExpr_String(t *testing.T) {
	e := generic.Expr{
		Terms:    []generic.Term{{Var: 3, Coef: dec(2)}, {Var: 12, Coef: decimal.RequireFromString("-0.5")}},
		Constant: dec(7),
	}

	assert.Equal(t, "2*x3 + -0.5*x12 + 7", e.String())
	assert.Equal(t, "0", generic.Expr{}.String())
	assert.Equal(t, "1*x40", generic.V(40).String())
}

// =============================================================================
// CONSTRAINT TESTS
// =============================================================================

func TestNewConstraint_MovesConstantsRight(t *testing.T) {
	// GIVEN: x + 5 <= y + 12
	// THEN: x - y <= 7

	_, x, y := twoVars()
	c := generic.Le("c", generic.V(x).Plus(generic.ConstInt(5)), generic.V(y).Plus(generic.ConstInt(12)))

	require.Len(t, c.Terms, 2)
	assert.Equal(t, generic.SenseLE, c.Sense)
	assert.True(t, c.RHS.Equal(dec(7)))
	assert.True(t, c.Terms[1].Coef.Equal(dec(-1)))
}

func TestInGroup_TagsCopies(t *testing.T) {
	_, x, _ := twoVars()
	cs := []generic.Constraint{generic.Eq("a", generic.V(x), generic.ConstInt(0))}

	tagged := generic.InGroup("eligibility", cs)

	assert.Equal(t, "eligibility", tagged[0].Group)
	assert.Equal(t, "", cs[0].Group)
}

func TestProblem_Stats(t *testing.T) {
	table, x, y := twoVars()
	p := &generic.Problem{
		Vars: table.Vars(),
		Constraints: append(
			generic.InGroup("a", []generic.Constraint{
				generic.Le("c1", generic.V(x).Plus(generic.V(y)), generic.ConstInt(4)),
			}),
			generic.InGroup("b", []generic.Constraint{
				generic.Ge("c2", generic.V(x), generic.ConstInt(1)),
				generic.Ge("c3", generic.V(y), generic.ConstInt(1)),
			})...,
		),
	}

	s := p.Stats()
	assert.Equal(t, 2, s.Variables)
	assert.Equal(t, 1, s.IntegerVariables)
	assert.Equal(t, 3, s.Constraints)
	assert.Equal(t, 4, s.NonZeros)
	assert.Equal(t, []generic.GroupCount{{Group: "a", Count: 1}, {Group: "b", Count: 2}}, s.Groups)
}

// =============================================================================
// WINDOW TESTS
// =============================================================================

func TestHorizon_Seasons(t *testing.T) {
	h := generic.Horizon{Days: 84, SeasonLength: 28}

	assert.Equal(t, 3, h.Seasons())
	assert.Equal(t, generic.Window{Start: 28, End: 55}, h.Season(1))
	assert.Equal(t, generic.Window{Start: 28, End: 83}, h.SeasonSpan(1, 2))
	assert.Equal(t, 2, h.SeasonOf(56))
	assert.Equal(t, generic.Window{Start: 0, End: 83}, h.Window())
}

func TestWindow_ContainsAndOffset(t *testing.T) {
	w := generic.Window{Start: 28, End: 55}

	assert.True(t, w.Contains(28))
	assert.True(t, w.Contains(55))
	assert.False(t, w.Contains(56))
	assert.Equal(t, 3, w.Offset(31))
	assert.Equal(t, 28, w.Len())
	assert.Len(t, w.Days(), 28)
}

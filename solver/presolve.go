package solver

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/warp/harvest-planner/generic"
)

// =============================================================================
// FLOAT MODEL
// =============================================================================

// sparseRow is a constraint in float64 form.
type sparseRow struct {
	idx   []int
	val   []float64
	sense generic.Sense
	rhs   float64
}

// floatModel is a generic.Problem converted to float64 and to minimization.
type floatModel struct {
	n       int
	cost    []float64 // minimize cost·x
	rows    []sparseRow
	lower   []float64
	upper   []float64 // +Inf when unbounded
	integer []bool
}

func newFloatModel(p *generic.Problem) *floatModel {
	fm := &floatModel{
		n:       len(p.Vars),
		cost:    make([]float64, len(p.Vars)),
		lower:   make([]float64, len(p.Vars)),
		upper:   make([]float64, len(p.Vars)),
		integer: make([]bool, len(p.Vars)),
	}
	for i, v := range p.Vars {
		fm.lower[i] = v.Lower.InexactFloat64()
		fm.upper[i] = math.Inf(1)
		if v.Upper != nil {
			fm.upper[i] = v.Upper.InexactFloat64()
		}
		fm.integer[i] = v.Kind == generic.Integer
	}

	sign := 1.0
	if p.Objective.Direction == generic.Maximize {
		sign = -1
	}
	for _, t := range p.Objective.Expr.Normalize().Terms {
		fm.cost[t.Var] += sign * t.Coef.InexactFloat64()
	}

	fm.rows = make([]sparseRow, 0, len(p.Constraints))
	for _, c := range p.Constraints {
		r := sparseRow{sense: c.Sense, rhs: c.RHS.InexactFloat64()}
		for _, t := range c.Terms {
			r.idx = append(r.idx, int(t.Var))
			r.val = append(r.val, t.Coef.InexactFloat64())
		}
		fm.rows = append(fm.rows, r)
	}
	return fm
}

// =============================================================================
// PRESOLVE
// =============================================================================

// reduced is what is left for the simplex after presolve.
type reduced struct {
	fixed  []bool
	value  []float64 // value of fixed variables
	lower  []float64
	upper  []float64
	rows   []sparseRow // only free variables, at least two terms
	status generic.Status
}

// presolve removes what the dense simplex cannot or need not see: fixed
// variables are substituted, singleton rows become bounds, empty rows are
// checked and dropped, duplicate rows are merged.
//
// A status of StatusInfeasible means presolve proved the bounds empty.
func presolve(fm *floatModel, lower, upper []float64, tol float64) *reduced {
	rd := &reduced{
		fixed: make([]bool, fm.n),
		value: make([]float64, fm.n),
		lower: append([]float64(nil), lower...),
		upper: append([]float64(nil), upper...),
	}
	infeasible := func() *reduced {
		rd.status = generic.StatusInfeasible
		return rd
	}

	fix := func(j int) {
		v := rd.lower[j]
		if fm.integer[j] {
			v = math.Round(v)
		}
		rd.fixed[j] = true
		rd.value[j] = v
	}

	for j := 0; j < fm.n; j++ {
		if rd.lower[j] > rd.upper[j]+tol {
			return infeasible()
		}
		if rd.upper[j]-rd.lower[j] <= tol {
			fix(j)
		}
	}

	active := make([]bool, len(fm.rows))
	for i := range active {
		active[i] = true
	}

	for changed := true; changed; {
		changed = false
		for i, r := range fm.rows {
			if !active[i] {
				continue
			}

			rhs := r.rhs
			single, coef, terms := -1, 0.0, 0
			for k, j := range r.idx {
				if rd.fixed[j] {
					rhs -= r.val[k] * rd.value[j]
					continue
				}
				terms++
				single, coef = j, r.val[k]
			}

			switch terms {
			case 0:
				if !senseHolds(r.sense, 0, rhs, tol) {
					return infeasible()
				}
				active[i] = false
				changed = true

			case 1:
				bound := rhs / coef
				lo, hi := rd.lower[single], rd.upper[single]
				switch {
				case r.sense == generic.SenseEQ:
					lo, hi = bound, bound
				case (r.sense == generic.SenseLE) == (coef > 0):
					hi = math.Min(hi, bound)
				default:
					lo = math.Max(lo, bound)
				}
				if fm.integer[single] {
					lo = math.Ceil(lo - tol)
					hi = math.Floor(hi + tol)
				}
				if lo > hi+tol {
					return infeasible()
				}
				rd.lower[single], rd.upper[single] = lo, math.Max(lo, hi)
				if rd.upper[single]-rd.lower[single] <= tol {
					fix(single)
				}
				active[i] = false
				changed = true
			}
		}
	}

	seen := map[string]int{}
	for i, r := range fm.rows {
		if !active[i] {
			continue
		}
		row := sparseRow{sense: r.sense, rhs: r.rhs}
		for k, j := range r.idx {
			if rd.fixed[j] {
				row.rhs -= r.val[k] * rd.value[j]
				continue
			}
			row.idx = append(row.idx, j)
			row.val = append(row.val, r.val[k])
		}

		key := rowKey(row)
		prev, dup := seen[key]
		if !dup {
			seen[key] = len(rd.rows)
			rd.rows = append(rd.rows, row)
			continue
		}
		kept := &rd.rows[prev]
		switch row.sense {
		case generic.SenseEQ:
			if math.Abs(kept.rhs-row.rhs) > tol {
				return infeasible()
			}
		case generic.SenseLE:
			kept.rhs = math.Min(kept.rhs, row.rhs)
		case generic.SenseGE:
			kept.rhs = math.Max(kept.rhs, row.rhs)
		}
	}
	return rd
}

// rowKey identifies rows with the same left-hand side and sense.
func rowKey(r sparseRow) string {
	order := make([]int, len(r.idx))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return r.idx[order[a]] < r.idx[order[b]] })

	var sb strings.Builder
	sb.WriteString(r.sense.String())
	for _, k := range order {
		sb.WriteString(" ")
		sb.WriteString(strconv.Itoa(r.idx[k]))
		sb.WriteString(":")
		sb.WriteString(strconv.FormatFloat(r.val[k], 'g', -1, 64))
	}
	return sb.String()
}

func senseHolds(s generic.Sense, lhs, rhs, tol float64) bool {
	switch s {
	case generic.SenseLE:
		return lhs <= rhs+tol
	case generic.SenseGE:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}

// =============================================================================
// STANDARD FORM
// =============================================================================

// standardForm is min c·z s.t. A z = b, z >= 0, dense and row-major.
type standardForm struct {
	rows, cols int
	a          []float64
	b          []float64
	c          []float64
	columns    []int // original variable of each structural column
}

// errTooLarge is returned when the tableau would exceed the cell limit.
type errTooLarge struct {
	rows, cols, limit int
}

func (e errTooLarge) Error() string {
	return fmt.Sprintf("model too large for dense simplex: %d rows, %d columns exceed %d cells", e.rows, e.cols, e.limit)
}

// toStandardForm shifts every free variable by its lower bound, turns finite
// upper bounds into rows and adds a slack per inequality.
//
// Free variables that appear in no row are settled directly: they sit at
// whichever bound the cost prefers. A variable with negative cost and no
// upper bound makes the problem unbounded.
func toStandardForm(fm *floatModel, rd *reduced, maxCells int) (*standardForm, generic.Status, error) {
	used := make([]bool, fm.n)
	for _, r := range rd.rows {
		for _, j := range r.idx {
			used[j] = true
		}
	}

	col := make([]int, fm.n)
	var columns []int
	for j := 0; j < fm.n; j++ {
		col[j] = -1
		if rd.fixed[j] {
			continue
		}
		if !used[j] {
			switch {
			case fm.cost[j] < 0 && math.IsInf(rd.upper[j], 1):
				return nil, generic.StatusUnbounded, nil
			case fm.cost[j] < 0:
				rd.value[j] = rd.upper[j]
			default:
				rd.value[j] = rd.lower[j]
			}
			rd.fixed[j] = true
			continue
		}
		col[j] = len(columns)
		columns = append(columns, j)
	}

	type denseRow struct {
		idx   []int
		val   []float64
		slack float64
		rhs   float64
	}
	var rows []denseRow
	for _, r := range rd.rows {
		dr := denseRow{rhs: r.rhs}
		for k, j := range r.idx {
			dr.idx = append(dr.idx, col[j])
			dr.val = append(dr.val, r.val[k])
			dr.rhs -= r.val[k] * rd.lower[j]
		}
		switch r.sense {
		case generic.SenseLE:
			dr.slack = 1
		case generic.SenseGE:
			dr.slack = -1
		}
		rows = append(rows, dr)
	}
	for _, j := range columns {
		if !math.IsInf(rd.upper[j], 1) {
			rows = append(rows, denseRow{
				idx: []int{col[j]}, val: []float64{1}, slack: 1,
				rhs: rd.upper[j] - rd.lower[j],
			})
		}
	}

	slacks := 0
	for _, r := range rows {
		if r.slack != 0 {
			slacks++
		}
	}

	sf := &standardForm{
		rows:    len(rows),
		cols:    len(columns) + slacks,
		columns: columns,
	}
	// artificials can add one column per row
	if maxCells > 0 && sf.rows*(sf.cols+sf.rows) > maxCells {
		return nil, "", errTooLarge{rows: sf.rows, cols: sf.cols, limit: maxCells}
	}

	sf.a = make([]float64, sf.rows*sf.cols)
	sf.b = make([]float64, sf.rows)
	sf.c = make([]float64, sf.cols)
	for k, j := range columns {
		sf.c[k] = fm.cost[j]
	}

	next := len(columns)
	for i, r := range rows {
		flip := 1.0
		if r.rhs < 0 {
			flip = -1
		}
		for k, c := range r.idx {
			sf.a[i*sf.cols+c] += flip * r.val[k]
		}
		if r.slack != 0 {
			sf.a[i*sf.cols+next] = flip * r.slack
			next++
		}
		sf.b[i] = flip * r.rhs
	}
	return sf, generic.StatusOptimal, nil
}

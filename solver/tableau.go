/*
tableau.go - Dense two-phase simplex for the LP relaxations

PURPOSE:
  Solves min c·z s.t. A z = b, z >= 0 (b >= 0) as produced by
  toStandardForm. Planner models are full of chained equalities (land,
  cash, harvest linkage) that leave dependent rows and long runs of
  degenerate pivots behind presolve, so the method has to survive both.

METHOD:
  Phase I   one artificial per row that has no unit column; minimize
            their sum. A positive optimum means infeasible.
  Cleanup   artificials still basic at zero are pivoted out on any
            non-artificial column; rows where that is impossible are
            dependent and stay put, inert.
  Phase II  original costs, artificial columns never enter.

  Entering column: most negative reduced cost. After a run of degenerate
  pivots it switches to Bland's rule (lowest index enters, lowest basic
  index leaves on ties) until the objective moves again, which rules out
  cycling.

  ctx is checked before every pivot.

SEE ALSO:
  - presolve.go: Builds the standard form
  - simplex.go: Branch-and-bound on top
*/
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/warp/harvest-planner/generic"
)

const (
	pivotTol = 1e-9
	costTol  = 1e-9

	// degenerate pivots in a row before Bland's rule takes over
	degenerateRun = 50
)

// ErrPivotLimit is returned when an LP relaxation needs more pivots than
// its size can justify, which only happens on numerical trouble.
var ErrPivotLimit = errors.New("simplex pivot limit reached")

type tableau struct {
	t     *mat.Dense
	m     int // constraint rows; row m holds reduced costs
	n     int // columns without the right-hand side
	cols  int // columns of the standard form; the rest are artificial
	basis []int

	ctx       context.Context
	pivots    int
	maxPivots int
}

// solveTableau returns z for the standard form, or a non-optimal status.
func solveTableau(ctx context.Context, sf *standardForm, feasTol float64) ([]float64, generic.Status, error) {
	tb := newTableau(ctx, sf)

	if tb.n > tb.cols {
		tb.phaseOneCosts()
		status, err := tb.iterate(tb.n)
		if err != nil {
			return nil, "", err
		}
		if status == generic.StatusUnbounded {
			// the Phase I objective is bounded below by zero
			return nil, "", fmt.Errorf("phase one reported unbounded")
		}

		bmax := 0.0
		for _, v := range sf.b {
			bmax = math.Max(bmax, math.Abs(v))
		}
		if -tb.at(tb.m, tb.n) > feasTol*(1+bmax) {
			return nil, generic.StatusInfeasible, nil
		}
		if err := tb.dropArtificials(); err != nil {
			return nil, "", err
		}
	}

	tb.phaseTwoCosts(sf.c)
	status, err := tb.iterate(tb.cols)
	if err != nil || status != generic.StatusOptimal {
		return nil, status, err
	}

	z := make([]float64, tb.cols)
	for i, k := range tb.basis {
		if k < tb.cols {
			z[k] = math.Max(tb.at(i, tb.n), 0)
		}
	}
	return z, generic.StatusOptimal, nil
}

func newTableau(ctx context.Context, sf *standardForm) *tableau {
	m, cols := sf.rows, sf.cols

	// a column with a single +1 can start in the basis of its row
	basis := make([]int, m)
	for i := range basis {
		basis[i] = -1
	}
	for k := 0; k < cols; k++ {
		row, count := -1, 0
		for i := 0; i < m; i++ {
			if sf.a[i*cols+k] != 0 {
				row = i
				count++
			}
		}
		if count == 1 && sf.a[row*cols+k] == 1 && basis[row] < 0 {
			basis[row] = k
		}
	}

	n := cols
	for _, k := range basis {
		if k < 0 {
			n++
		}
	}

	t := mat.NewDense(m+1, n+1, nil)
	next := cols
	for i := 0; i < m; i++ {
		row := t.RawRowView(i)
		copy(row[:cols], sf.a[i*cols:(i+1)*cols])
		row[n] = sf.b[i]
		if basis[i] < 0 {
			row[next] = 1
			basis[i] = next
			next++
		}
	}

	maxPivots := 50 * (m + n)
	if maxPivots < 1000 {
		maxPivots = 1000
	}
	return &tableau{t: t, m: m, n: n, cols: cols, basis: basis, ctx: ctx, maxPivots: maxPivots}
}

func (tb *tableau) at(i, j int) float64 { return tb.t.At(i, j) }

func (tb *tableau) row(i int) []float64 { return tb.t.RawRowView(i) }

// phaseOneCosts prices out the artificials: the cost row becomes minus the
// sum of their rows.
func (tb *tableau) phaseOneCosts() {
	obj := tb.row(tb.m)
	for j := range obj {
		obj[j] = 0
	}
	for i, k := range tb.basis {
		if k >= tb.cols {
			floats.Sub(obj, tb.row(i))
		}
	}
	for k := tb.cols; k < tb.n; k++ {
		obj[k] = 0
	}
}

// phaseTwoCosts loads c and prices out the current basis.
func (tb *tableau) phaseTwoCosts(c []float64) {
	obj := tb.row(tb.m)
	for j := range obj {
		obj[j] = 0
	}
	copy(obj, c)
	for i, k := range tb.basis {
		if k < tb.cols && c[k] != 0 {
			floats.AddScaled(obj, -c[k], tb.row(i))
		}
	}
}

// dropArtificials pivots zero-valued artificials out of the basis.
func (tb *tableau) dropArtificials() error {
	for i, k := range tb.basis {
		if k < tb.cols {
			continue
		}
		row := tb.row(i)
		pick, best := -1, pivotTol
		for j := 0; j < tb.cols; j++ {
			if a := math.Abs(row[j]); a > best {
				pick, best = j, a
			}
		}
		if pick < 0 {
			continue
		}
		if err := tb.pivot(i, pick); err != nil {
			return err
		}
	}
	return nil
}

// iterate runs simplex pivots over columns [0, limit).
func (tb *tableau) iterate(limit int) (generic.Status, error) {
	bland := false
	degenerate := 0
	for {
		enter := tb.entering(limit, bland)
		if enter < 0 {
			return generic.StatusOptimal, nil
		}
		leave, ratio := tb.leaving(enter, bland)
		if leave < 0 {
			return generic.StatusUnbounded, nil
		}

		if ratio <= pivotTol {
			degenerate++
			if degenerate >= degenerateRun {
				bland = true
			}
		} else {
			degenerate = 0
			bland = false
		}

		if err := tb.pivot(leave, enter); err != nil {
			return "", err
		}
	}
}

func (tb *tableau) entering(limit int, bland bool) int {
	obj := tb.row(tb.m)
	pick, most := -1, -costTol
	for j := 0; j < limit; j++ {
		if obj[j] < most {
			if bland {
				return j
			}
			pick, most = j, obj[j]
		}
	}
	return pick
}

// leaving is the ratio test on column enter. Ties go to the larger pivot
// element, or under Bland's rule to the lowest basic index.
func (tb *tableau) leaving(enter int, bland bool) (int, float64) {
	pick, best, elem := -1, math.Inf(1), 0.0
	for i := 0; i < tb.m; i++ {
		a := tb.at(i, enter)
		if a <= pivotTol {
			continue
		}
		ratio := math.Max(tb.at(i, tb.n), 0) / a
		if pick >= 0 {
			eps := 1e-12 * (1 + best)
			if ratio > best+eps {
				continue
			}
			if ratio >= best-eps {
				if bland && tb.basis[i] > tb.basis[pick] {
					continue
				}
				if !bland && a <= elem {
					continue
				}
			}
		}
		pick, best, elem = i, ratio, a
	}
	return pick, best
}

func (tb *tableau) pivot(r, e int) error {
	if err := tb.ctx.Err(); err != nil {
		return err
	}
	if tb.pivots >= tb.maxPivots {
		return fmt.Errorf("%w after %d pivots", ErrPivotLimit, tb.pivots)
	}
	tb.pivots++

	prow := tb.row(r)
	floats.Scale(1/prow[e], prow)
	prow[e] = 1
	for i := 0; i <= tb.m; i++ {
		if i == r {
			continue
		}
		row := tb.row(i)
		f := row[e]
		if f == 0 {
			continue
		}
		floats.AddScaled(row, -f, prow)
		row[e] = 0
		if i < tb.m && row[tb.n] < 0 && row[tb.n] > -pivotTol {
			row[tb.n] = 0
		}
	}
	tb.basis[r] = e
	return nil
}

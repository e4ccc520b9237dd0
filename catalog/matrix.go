package catalog

// =============================================================================
// REGROWTH SCHEDULE MATRIX
// =============================================================================

// RegrowthMatrix answers "if planted on relative day d, does relative day b
// produce a harvest, and how many units per planted unit?"
//
// Cell (d, b) is the harvest multiplier when
//
//	b = d + growthDelay + k*interval  for some k >= 0,  b < size,  b < cutoff
//
// and zero otherwise. Indices are relative to the type's window start.
// If growthDelay >= size the matrix is empty: nothing planted in the window
// can ever be harvested.
type RegrowthMatrix struct {
	size  int
	cells [][]int
}

// NewRegrowthMatrix builds the matrix for a window of windowLength days.
func NewRegrowthMatrix(growthDelay, interval, multiplier, windowLength, cutoff int) RegrowthMatrix {
	m := RegrowthMatrix{size: windowLength, cells: make([][]int, windowLength)}
	limit := windowLength
	if cutoff < limit {
		limit = cutoff
	}
	for d := 0; d < windowLength; d++ {
		m.cells[d] = make([]int, windowLength)
		if interval <= 0 {
			continue
		}
		for b := d + growthDelay; b < limit; b += interval {
			m.cells[d][b] = multiplier
		}
	}
	return m
}

// MatrixFor builds the schedule matrix for a regrowing type. ok is false for
// single-harvest types, which need none.
func MatrixFor(r ResourceType) (m RegrowthMatrix, ok bool) {
	n := r.Window.Len()
	switch g := r.Growth.(type) {
	case Regrowth:
		return NewRegrowthMatrix(r.GrowthDelay, g.Interval, r.HarvestMultiplier, n, n+1), true
	case TwoSeasonRegrowth:
		return NewRegrowthMatrix(r.GrowthDelay, g.Interval, r.HarvestMultiplier, n, g.HarvestCutoff), true
	default:
		return RegrowthMatrix{}, false
	}
}

// Size is the window length the matrix covers.
func (m RegrowthMatrix) Size() int { return m.size }

// At returns cell (d, b), or 0 outside the matrix.
func (m RegrowthMatrix) At(d, b int) int {
	if d < 0 || b < 0 || d >= m.size || b >= m.size {
		return 0
	}
	return m.cells[d][b]
}

// HarvestDays lists the relative days on which a planting on relative day d
// yields a harvest.
func (m RegrowthMatrix) HarvestDays(d int) []int {
	var out []int
	for b := 0; b < m.size; b++ {
		if m.At(d, b) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// IsEmpty reports whether no planting day yields any harvest.
func (m RegrowthMatrix) IsEmpty() bool {
	for d := 0; d < m.size; d++ {
		for _, v := range m.cells[d] {
			if v != 0 {
				return false
			}
		}
	}
	return true
}

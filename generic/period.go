package generic

import "fmt"

// =============================================================================
// WINDOW - A closed range of global day indices
// =============================================================================

// Window is the closed day range [Start, End]. Days are 0-based and global
// to the planning horizon.
//
// Examples:
//   - Spring of an 84-day horizon: [0, 27]
//   - A type growing through summer and autumn: [28, 83]
type Window struct {
	Start int
	End   int
}

// Contains returns true if day is within [Start, End].
func (w Window) Contains(day int) bool {
	return day >= w.Start && day <= w.End
}

// Len returns the number of days in the window; zero or less if malformed.
func (w Window) Len() int {
	return w.End - w.Start + 1
}

// Offset returns the window-relative index of a global day.
func (w Window) Offset(day int) int {
	return day - w.Start
}

// Days returns all days in the window.
func (w Window) Days() []int {
	if w.Len() <= 0 {
		return nil
	}
	days := make([]int, 0, w.Len())
	for d := w.Start; d <= w.End; d++ {
		days = append(days, d)
	}
	return days
}

// Union returns the smallest window covering both windows.
func (w Window) Union(o Window) Window {
	out := w
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

func (w Window) String() string {
	return fmt.Sprintf("[%d, %d]", w.Start, w.End)
}

// =============================================================================
// HORIZON - The planned days, partitioned into equal seasons
// =============================================================================

// Horizon is Days long and split into contiguous seasons of SeasonLength days.
type Horizon struct {
	Days         int
	SeasonLength int
}

// Seasons returns the number of complete seasons.
func (h Horizon) Seasons() int {
	if h.SeasonLength <= 0 {
		return 0
	}
	return h.Days / h.SeasonLength
}

// Season returns the window of season i (0-based).
func (h Horizon) Season(i int) Window {
	start := i * h.SeasonLength
	return Window{Start: start, End: start + h.SeasonLength - 1}
}

// SeasonSpan returns the window spanning seasons first..last inclusive.
func (h Horizon) SeasonSpan(first, last int) Window {
	return h.Season(first).Union(h.Season(last))
}

// SeasonOf returns the season index containing day.
func (h Horizon) SeasonOf(day int) int {
	if h.SeasonLength <= 0 {
		return 0
	}
	return day / h.SeasonLength
}

// Window returns [0, Days-1].
func (h Horizon) Window() Window {
	return Window{Start: 0, End: h.Days - 1}
}

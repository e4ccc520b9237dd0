package catalog

import "fmt"

// =============================================================================
// PROCESSING CAPACITY
// =============================================================================

// Capacity is the number of processing units of one stage available on a
// day. Implementations must be non-decreasing in day.
type Capacity interface {
	At(day int) int
}

// StepCapacity grows by one unit every Every days, starting once
// floor(day/Every) exceeds Lag:
//
//	cap(day) = max(floor(day/Every) - Lag, 0)
type StepCapacity struct {
	Every int
	Lag   int
}

func (c StepCapacity) At(day int) int {
	if c.Every <= 0 {
		return 0
	}
	v := day/c.Every - c.Lag
	if v < 0 {
		return 0
	}
	return v
}

func (c StepCapacity) String() string {
	return fmt.Sprintf("max(floor(t/%d)-%d, 0)", c.Every, c.Lag)
}

// TableCapacity is an explicit per-day curve. Days past the end keep the
// last value.
type TableCapacity []int

func (c TableCapacity) At(day int) int {
	if len(c) == 0 || day < 0 {
		return 0
	}
	if day >= len(c) {
		return c[len(c)-1]
	}
	return c[day]
}

// NoCapacity never provides a unit.
type NoCapacity struct{}

func (NoCapacity) At(int) int { return 0 }

// Curve samples c over days [0, days).
func Curve(c Capacity, days int) []int {
	out := make([]int, days)
	for d := range out {
		out[d] = c.At(d)
	}
	return out
}

// FirstDecrease returns the first day whose capacity is below the previous
// day's, or -1 if the curve never decreases within days.
func FirstDecrease(c Capacity, days int) int {
	for d := 1; d < days; d++ {
		if c.At(d) < c.At(d-1) {
			return d
		}
	}
	return -1
}

package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/catalog"
)

// =============================================================================
// REGROWTH MATRIX TESTS
// =============================================================================

// expectedDays enumerates {d+g, d+g+r, ...} below limit.
func expectedDays(d, g, r, limit int) []int {
	var out []int
	for b := d + g; b < limit; b += r {
		out = append(out, b)
	}
	return out
}

func TestRegrowthMatrix_OrdinaryType(t *testing.T) {
	// GIVEN: Green Bean, growth 10, regrowth every 3 days, 28-day window
	// WHEN: Planted on the first day of the window
	// THEN: Harvests on 10, 13, ..., 25 and nowhere else

	rt, err := catalog.Default().Lookup("Green Bean")
	require.NoError(t, err)

	m, ok := catalog.MatrixFor(rt)
	require.True(t, ok)
	assert.Equal(t, 28, m.Size())
	assert.Equal(t, []int{10, 13, 16, 19, 22, 25}, m.HarvestDays(0))

	for d := 0; d < 28; d++ {
		assert.Equal(t, expectedDays(d, 10, 3, 28), m.HarvestDays(d), "planting day %d", d)
	}
}

func TestRegrowthMatrix_MultiplierInCells(t *testing.T) {
	rt, _ := catalog.Default().Lookup("Blueberry")
	m, _ := catalog.MatrixFor(rt)

	assert.Equal(t, 3, m.At(0, 13))
	assert.Equal(t, 3, m.At(0, 17))
	assert.Equal(t, 0, m.At(0, 14))
	assert.Equal(t, 0, m.At(20, 13))
}

func TestRegrowthMatrix_TwoSeasonType(t *testing.T) {
	// GIVEN: Corn, growth 14, regrowth 4, window spanning summer and autumn
	// THEN: Matrix covers 56 days and planting day 0 harvests on 14, 18, ..., 54

	rt, err := catalog.Default().Lookup("Corn")
	require.NoError(t, err)

	m, ok := catalog.MatrixFor(rt)
	require.True(t, ok)
	assert.Equal(t, 56, m.Size())
	assert.Equal(t, expectedDays(0, 14, 4, 56), m.HarvestDays(0))
	assert.Equal(t, 54, m.HarvestDays(0)[len(m.HarvestDays(0))-1])

	// planting late in summer still harvests in autumn
	assert.Equal(t, []int{41, 45, 49, 53}, m.HarvestDays(27))
}

func TestRegrowthMatrix_CutoffLimitsHarvest(t *testing.T) {
	m := catalog.NewRegrowthMatrix(2, 3, 1, 20, 9)

	assert.Equal(t, []int{2, 5, 8}, m.HarvestDays(0))
	assert.Empty(t, m.HarvestDays(7))
}

func TestRegrowthMatrix_GrowthExceedsWindow_IsEmpty(t *testing.T) {
	m := catalog.NewRegrowthMatrix(30, 4, 1, 28, 29)

	assert.True(t, m.IsEmpty())
	assert.Equal(t, 28, m.Size())
	assert.Empty(t, m.HarvestDays(0))
}

func TestMatrixFor_SingleHarvestHasNone(t *testing.T) {
	rt, _ := catalog.Default().Lookup("Parsnip")
	_, ok := catalog.MatrixFor(rt)
	assert.False(t, ok)
}

// =============================================================================
// CAPACITY TESTS
// =============================================================================

func TestStepCapacity_DefaultRamps(t *testing.T) {
	one := catalog.DefaultStageOneCapacity
	two := catalog.DefaultStageTwoCapacity

	assert.Equal(t, 0, one.At(41))
	assert.Equal(t, 1, one.At(42))
	assert.Equal(t, 6, one.At(83))
	assert.Equal(t, 0, two.At(19))
	assert.Equal(t, 1, two.At(20))
	assert.Equal(t, 13, two.At(83))

	assert.Equal(t, -1, catalog.FirstDecrease(one, 84))
	assert.Equal(t, -1, catalog.FirstDecrease(two, 84))
}

func TestTableCapacity(t *testing.T) {
	c := catalog.TableCapacity{0, 1, 1, 3}

	assert.Equal(t, []int{0, 1, 1, 3, 3}, catalog.Curve(c, 5))
	assert.Equal(t, 2, catalog.FirstDecrease(catalog.TableCapacity{0, 2, 1}, 3))
	assert.Equal(t, 0, catalog.NoCapacity{}.At(50))
}

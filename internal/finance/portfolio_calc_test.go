package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPortfolioPath_BuyAndHoldDrift(t *testing.T) {
	a := []float64{100, 110, 121}
	b := []float64{100, 90, 81}

	path := BuildPortfolioPath([][]float64{a, b}, []float64{50, 50})
	require.Len(t, path, 3)
	assert.Equal(t, 100.0, path[0])
	assert.InDelta(t, 100.0, path[1], 1e-9)
	assert.InDelta(t, 101.0, path[2], 1e-9)

	returns := DailyReturns(path)
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.0, returns[0], 1e-12)
	assert.InDelta(t, 0.01, returns[1], 1e-12)
}

func TestBuildPortfolioPath_StartsAt100(t *testing.T) {
	series := [][]float64{{3, 4}, {250, 260}, {0.15, 0.2}, {60000, 61000}}
	for _, weights := range [][]float64{
		{25, 25, 25, 25},
		{50, 50, 0, 0},
		{10, 20, 30, 40},
		{100, 0, 0, 0},
	} {
		path := BuildPortfolioPath(series, weights)
		require.Len(t, path, 2)
		assert.InDelta(t, 100.0, path[0], 1e-12, "weights %v", weights)
	}
}

func TestBuildPortfolioPath_TruncatesToShortest(t *testing.T) {
	path := BuildPortfolioPath([][]float64{{10, 11, 12, 13}, {20, 22}}, []float64{50, 50})
	assert.Len(t, path, 2)
}

func TestBuildPortfolioPath_Degenerate(t *testing.T) {
	assert.Empty(t, BuildPortfolioPath(nil, nil))
	assert.Empty(t, BuildPortfolioPath([][]float64{{1, 2}, {}}, []float64{50, 50}))
	assert.Empty(t, BuildPortfolioPath([][]float64{{1, 2}}, []float64{50, 50}))

	// zero base price: that asset stays at its allocation instead of dropping out
	path := BuildPortfolioPath([][]float64{{0, 5, 7}, {10, 10, 20}}, []float64{40, 60})
	assert.InDeltaSlice(t, []float64{100, 100, 160}, path, 1e-9)
}

func TestBuildPortfolioPath_WeightsNotSummingTo100(t *testing.T) {
	path := BuildPortfolioPath([][]float64{{10, 20}, {10, 5}}, []float64{30, 30})
	require.Len(t, path, 2)
	assert.InDelta(t, 60.0, path[0], 1e-12)
	assert.InDelta(t, 75.0, path[1], 1e-12)
	for _, v := range path {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestContribution(t *testing.T) {
	t.Run("sums to 100", func(t *testing.T) {
		got := Contribution([]float64{12, -4, 30}, []float64{50, 30, 20})
		sum := 0.0
		for _, c := range got {
			sum += c
		}
		assert.InDelta(t, 100.0, sum, 1e-6)
		// 6 / (6 - 1.2 + 6) * 100
		assert.InDelta(t, 6/10.8*100, got[0], 1e-9)
		assert.Less(t, got[1], 0.0)
	})

	t.Run("zero portfolio return", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0}, Contribution([]float64{10, -10}, []float64{50, 50}))
		assert.Equal(t, []float64{0, 0}, Contribution([]float64{0, 0}, []float64{50, 50}))
	})

	t.Run("non-finite coerced", func(t *testing.T) {
		got := Contribution([]float64{math.Inf(1), 5}, []float64{50, 50})
		for _, c := range got {
			assert.False(t, math.IsNaN(c) || math.IsInf(c, 0))
		}
	})

	t.Run("raw weights not summing to 100", func(t *testing.T) {
		got := Contribution([]float64{10, 20}, []float64{10, 10})
		assert.InDelta(t, 100.0/3, got[0], 1e-9)
		assert.InDelta(t, 200.0/3, got[1], 1e-9)
	})

	t.Run("missing weights count as zero", func(t *testing.T) {
		got := Contribution([]float64{10, 20}, []float64{100})
		assert.Equal(t, []float64{100, 0}, got)
	})
}

func TestSummarize_ConstantPath(t *testing.T) {
	s := Summarize([]float64{100, 100, 100})
	assert.Equal(t, PortfolioSummary{}, s)
	assert.False(t, math.Signbit(s.MaxDrawdown))
}

func TestSummarize_DrawdownIsNegative(t *testing.T) {
	s := Summarize([]float64{100, 80, 120})
	assert.InDelta(t, -20.0, s.MaxDrawdown, 1e-9)
}

package finance

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selected(symbol string, weight float64) SelectedAsset {
	return SelectedAsset{Asset: Asset{Symbol: symbol, Name: symbol + " Inc.", Type: AssetStock}, Weight: weight}
}

func threeDays(symbol string, prices ...float64) PriceSeries {
	return PriceSeries{
		Symbol: symbol,
		Name:   symbol,
		Dates:  []string{"2024-01-02", "2024-01-03", "2024-01-04"}[:len(prices)],
		Prices: prices,
	}
}

func TestAnalyze_TwoAssetScenario(t *testing.T) {
	src := &StaticSource{Series: []PriceSeries{
		// benchmark deliberately first: lookup is by symbol, not position
		threeDays("SPY", 400, 404, 408),
		threeDays("A", 100, 110, 121),
		threeDays("B", 100, 90, 81),
	}}
	analyzer := NewAnalyzer(src, zerolog.Nop())

	resp, err := analyzer.Analyze(context.Background(),
		[]SelectedAsset{selected("A", 50), selected("B", 50)},
		DateRange{StartDate: "2024-01-02", EndDate: "2024-01-04"})
	require.NoError(t, err)

	require.Equal(t, [][]string{{"A", "B", "SPY"}}, src.Requests())

	wantReturn := (math.Pow(1.005, 252) - 1) * 100
	wantRisk := math.Sqrt(0.00005) * math.Sqrt(252) * 100
	assert.InDelta(t, wantReturn, resp.Summary.AnnualReturn, 1e-6)
	assert.InDelta(t, wantRisk, resp.Summary.Risk, 1e-6)
	assert.InDelta(t, (wantReturn-RiskFreeRate)/wantRisk, resp.Summary.SharpeRatio, 1e-9)
	assert.InDelta(t, 0.0, resp.Summary.MaxDrawdown, 1e-9)

	require.Len(t, resp.AssetPerformance, 2)
	a, b := resp.AssetPerformance[0], resp.AssetPerformance[1]
	assert.Equal(t, "A Inc.", a.Name)
	assert.Equal(t, 50.0, a.Weight)
	assert.InDelta(t, (math.Pow(1.1, 252)-1)*100, a.AnnualReturn, a.AnnualReturn*1e-9)
	assert.InDelta(t, 0.0, a.Risk, 1e-6)
	assert.InDelta(t, (math.Pow(0.9, 252)-1)*100, b.AnnualReturn, 1e-6)
	assert.InDelta(t, 100.0, a.Contribution+b.Contribution, 1e-6)

	ts := resp.TimeSeriesData
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, ts.Dates)
	require.Len(t, ts.PortfolioValues, 3)
	assert.Equal(t, 100.0, ts.PortfolioValues[0])
	assert.InDelta(t, 101.0, ts.PortfolioValues[2], 1e-9)
	assert.InDelta(t, 102.0, ts.BenchmarkValues[2], 1e-9)

	require.Len(t, resp.RiskReturnData.Assets, 2)
	assert.Equal(t, "B", resp.RiskReturnData.Assets[1].Symbol)
	assert.Equal(t, resp.Summary.Risk, resp.RiskReturnData.Portfolio.Risk)
	assert.Equal(t, resp.Summary.AnnualReturn, resp.RiskReturnData.Portfolio.Return)
}

func TestAnalyze_ConstantSingleAsset(t *testing.T) {
	src := &StaticSource{Series: []PriceSeries{
		{Symbol: "FLAT", Dates: []string{"d1", "d2", "d3", "d4"}, Prices: []float64{50, 50, 50, 50}},
		{Symbol: "SPY", Dates: []string{"d1", "d2", "d3", "d4"}, Prices: []float64{1, 2, 3, 4}},
	}}
	resp, err := NewAnalyzer(src, zerolog.Nop()).Analyze(context.Background(),
		[]SelectedAsset{selected("FLAT", 100)}, DateRange{})
	require.NoError(t, err)

	assert.Equal(t, PortfolioSummary{}, resp.Summary)
	row := resp.AssetPerformance[0]
	assert.Equal(t, 0.0, row.AnnualReturn)
	assert.Equal(t, 0.0, row.Risk)
	assert.Equal(t, 0.0, row.SharpeRatio)
	assert.Equal(t, 0.0, row.Contribution)
	assert.Equal(t, []float64{100, 100, 100, 100}, resp.TimeSeriesData.PortfolioValues)
}

func TestAnalyze_FatalDataErrors(t *testing.T) {
	src := &StaticSource{Series: []PriceSeries{
		threeDays("A", 100, 110, 121),
		threeDays("SHORT", 10),
		threeDays("SPY", 1, 2, 3),
	}}
	analyzer := NewAnalyzer(src, zerolog.Nop())

	_, err := analyzer.Analyze(context.Background(),
		[]SelectedAsset{selected("A", 50), selected("SHORT", 50)}, DateRange{})
	require.Error(t, err)
	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "SHORT", insufficient.Symbol)
	assert.Equal(t, 1, insufficient.Points)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = analyzer.Analyze(context.Background(),
		[]SelectedAsset{selected("GONE", 50), selected("A", 50)}, DateRange{})
	var missing *MissingSeriesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "GONE", missing.Symbol)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Contains(t, err.Error(), "GONE")
}

func TestAnalyze_ProviderError(t *testing.T) {
	boom := errors.New("upstream down")
	_, err := NewAnalyzer(&StaticSource{Err: boom}, zerolog.Nop()).
		Analyze(context.Background(), []SelectedAsset{selected("A", 100)}, DateRange{})
	assert.ErrorIs(t, err, boom)
}

func TestAnalyze_MissingBenchmarkDegrades(t *testing.T) {
	src := &StaticSource{Series: []PriceSeries{threeDays("A", 100, 110, 121)}}
	resp, err := NewAnalyzer(src, zerolog.Nop(), WithBenchmark("QQQ")).
		Analyze(context.Background(), []SelectedAsset{selected("A", 100)}, DateRange{})
	require.NoError(t, err)
	assert.Empty(t, resp.TimeSeriesData.BenchmarkValues)
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, resp.TimeSeriesData.Dates)
	assert.Equal(t, [][]string{{"A", "QQQ"}}, src.Requests())
}

func TestCompute_TimeSeriesShareOneLength(t *testing.T) {
	week := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07"}
	testCases := []struct {
		name      string
		asset     PriceSeries
		benchmark PriceSeries
		wantLen   int
	}{
		{
			name:      "asset trades every day, benchmark on weekdays",
			asset:     PriceSeries{Symbol: "BTC-USD", Dates: week, Prices: []float64{40000, 41000, 40500, 42000, 43000, 42500, 44000}},
			benchmark: PriceSeries{Symbol: "SPY", Dates: week[1:6], Prices: []float64{470, 472, 468, 471, 475}},
			wantLen:   5,
		},
		{
			name:      "benchmark longer than the portfolio",
			asset:     PriceSeries{Symbol: "AAPL", Dates: week[:3], Prices: []float64{180, 182, 181}},
			benchmark: PriceSeries{Symbol: "SPY", Dates: week, Prices: []float64{470, 472, 468, 471, 475, 476, 474}},
			wantLen:   3,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := Compute([]SelectedAsset{selected(tc.asset.Symbol, 100)},
				IndexBySymbol([]PriceSeries{tc.asset, tc.benchmark}), "SPY")
			require.NoError(t, err)

			ts := resp.TimeSeriesData
			assert.Len(t, ts.Dates, tc.wantLen)
			assert.Len(t, ts.PortfolioValues, tc.wantLen)
			assert.Len(t, ts.BenchmarkValues, tc.wantLen)
			assert.Equal(t, tc.benchmark.Dates[:tc.wantLen], ts.Dates)
			assert.Equal(t, 100.0, ts.PortfolioValues[0])
			assert.Equal(t, 100.0, ts.BenchmarkValues[0])
		})
	}
}

func TestAnalyze_FirstDuplicateWins(t *testing.T) {
	src := &StaticSource{Series: []PriceSeries{
		threeDays("A", 100, 110, 121),
		threeDays("A", 5),
		threeDays("SPY", 1, 1, 1),
	}}
	_, err := NewAnalyzer(src, zerolog.Nop()).
		Analyze(context.Background(), []SelectedAsset{selected("A", 100)}, DateRange{})
	assert.NoError(t, err)
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	src := &StaticSource{Series: []PriceSeries{
		threeDays("A", 100, 103.7, 99.2),
		threeDays("B", 20, 21.1, 22.9),
		threeDays("SPY", 400, 401, 399),
	}}
	analyzer := NewAnalyzer(src, zerolog.Nop())
	assets := []SelectedAsset{selected("A", 70), selected("B", 30)}

	first, err := analyzer.Analyze(context.Background(), assets, DateRange{})
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), assets, DateRange{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"assetPerformance"`)
	assert.Contains(t, string(encoded), `"riskReturnData"`)
}

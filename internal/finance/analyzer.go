package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBenchmark is the broad-market ETF the portfolio is compared against.
const DefaultBenchmark = "SPY"

// PriceSource supplies one closing-price series per symbol over a date range.
// Entries may be missing for unavailable symbols and need not follow request
// order.
type PriceSource interface {
	FetchPriceSeries(ctx context.Context, symbols []string, dr DateRange) ([]PriceSeries, error)
}

// Analyzer turns a weighted selection into a PortfolioAnalysisResponse.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	source    PriceSource
	benchmark string
	log       zerolog.Logger
}

type AnalyzerOption func(*Analyzer)

// WithBenchmark overrides DefaultBenchmark.
func WithBenchmark(symbol string) AnalyzerOption {
	return func(a *Analyzer) {
		if symbol != "" {
			a.benchmark = symbol
		}
	}
}

func NewAnalyzer(source PriceSource, log zerolog.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		source:    source,
		benchmark: DefaultBenchmark,
		log:       log.With().Str("component", "analyzer").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Benchmark returns the benchmark symbol in use.
func (a *Analyzer) Benchmark() string { return a.benchmark }

// Analyze fetches prices for assets plus the benchmark and computes the full
// response. It fails fast with *MissingSeriesError or *InsufficientDataError
// on the first asset that cannot be used; no partial result is returned.
func (a *Analyzer) Analyze(ctx context.Context, assets []SelectedAsset, dr DateRange) (*PortfolioAnalysisResponse, error) {
	started := time.Now()

	symbols := make([]string, 0, len(assets)+1)
	requested := make(map[string]bool, len(assets)+1)
	for _, asset := range assets {
		if !requested[asset.Symbol] {
			requested[asset.Symbol] = true
			symbols = append(symbols, asset.Symbol)
		}
	}
	if !requested[a.benchmark] {
		symbols = append(symbols, a.benchmark)
	}

	series, err := a.source.FetchPriceSeries(ctx, symbols, dr)
	if err != nil {
		return nil, fmt.Errorf("fetch price series: %w", err)
	}

	resp, err := Compute(assets, IndexBySymbol(series), a.benchmark)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			a.log.Warn().Err(err).Str("start", dr.StartDate).Str("end", dr.EndDate).Msg("analysis rejected")
		}
		return nil, err
	}

	a.log.Debug().
		Int("assets", len(assets)).
		Int("points", len(resp.TimeSeriesData.PortfolioValues)).
		Dur("took", time.Since(started)).
		Msg("portfolio analyzed")
	return resp, nil
}

// IndexBySymbol maps series by symbol. The first entry for a symbol wins.
func IndexBySymbol(series []PriceSeries) map[string]PriceSeries {
	out := make(map[string]PriceSeries, len(series))
	for _, s := range series {
		if _, ok := out[s.Symbol]; !ok {
			out[s.Symbol] = s
		}
	}
	return out
}

// Compute is the pure part of Analyze: given series keyed by symbol it builds
// the response without any I/O.
func Compute(assets []SelectedAsset, bySymbol map[string]PriceSeries, benchmark string) (*PortfolioAnalysisResponse, error) {
	performance := make([]AssetPerformance, 0, len(assets))
	assetReturns := make([]float64, 0, len(assets))
	assetPrices := make([][]float64, 0, len(assets))
	weights := make([]float64, 0, len(assets))

	for _, asset := range assets {
		data, ok := bySymbol[asset.Symbol]
		if !ok {
			return nil, &MissingSeriesError{Symbol: asset.Symbol}
		}
		if len(data.Prices) < 2 {
			return nil, &InsufficientDataError{Symbol: asset.Symbol, Points: len(data.Prices)}
		}

		dailyReturns := DailyReturns(data.Prices)
		annualReturn := AnnualizedReturn(dailyReturns)
		risk := AnnualizedRisk(dailyReturns)

		assetReturns = append(assetReturns, annualReturn)
		assetPrices = append(assetPrices, data.Prices)
		weights = append(weights, asset.Weight)

		performance = append(performance, AssetPerformance{
			Symbol:       asset.Symbol,
			Name:         displayName(asset, data),
			Weight:       asset.Weight,
			AnnualReturn: annualReturn,
			Risk:         risk,
			SharpeRatio:  SharpeRatio(annualReturn, risk),
		})
	}

	path := BuildPortfolioPath(assetPrices, weights)
	summary := Summarize(path)

	for i, c := range Contribution(assetReturns, weights) {
		performance[i].Contribution = c
	}

	benchmarkSeries := bySymbol[benchmark]
	dates := benchmarkSeries.Dates
	if len(benchmarkSeries.Prices) == 0 && len(assets) > 0 {
		dates = bySymbol[assets[0].Symbol].Dates
	}
	// Both paths and the date axis share one length: the shorter of the
	// portfolio path and the benchmark.
	n := min(len(path), len(dates))
	if len(benchmarkSeries.Prices) > 0 {
		n = min(n, len(benchmarkSeries.Prices))
	}
	portfolioValues := NormalizeTo100(path)[:n]
	benchmarkValues := NormalizeTo100(benchmarkSeries.Prices)
	benchmarkValues = benchmarkValues[:min(n, len(benchmarkValues))]

	points := make([]RiskReturnPoint, len(performance))
	for i, p := range performance {
		points[i] = RiskReturnPoint{Symbol: p.Symbol, Name: p.Name, Risk: p.Risk, Return: p.AnnualReturn}
	}

	return &PortfolioAnalysisResponse{
		Summary:          summary,
		AssetPerformance: performance,
		TimeSeriesData: TimeSeriesData{
			Dates:           nonNil(dates[:n]),
			PortfolioValues: portfolioValues,
			BenchmarkValues: benchmarkValues,
		},
		RiskReturnData: RiskReturnData{
			Assets:    points,
			Portfolio: RiskReturnPoint{Risk: summary.Risk, Return: summary.AnnualReturn},
		},
	}, nil
}

func displayName(asset SelectedAsset, data PriceSeries) string {
	switch {
	case asset.Name != "":
		return asset.Name
	case data.Name != "":
		return data.Name
	default:
		return asset.Symbol
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

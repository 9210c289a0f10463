// Package charts renders analysis results as PNG images.
package charts

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/vicanso/go-charts/v2"

	"portfolioAnalyzer/internal/finance"
)

var ErrNoData = errors.New("not enough data to chart")

// Renderer draws charts and caches the encoded PNGs.
type Renderer struct {
	cache *imageCache
}

func NewRenderer() *Renderer { return &Renderer{cache: newImageCache(cacheTTL)} }

// PerformancePNG draws the portfolio path against the benchmark, both based at 100.
func (r *Renderer) PerformancePNG(resp *finance.PortfolioAnalysisResponse, benchmark string) ([]byte, error) {
	ts := resp.TimeSeriesData
	if len(ts.PortfolioValues) < 2 {
		return nil, ErrNoData
	}
	key := fingerprint("perf", benchmark, ts)
	if img, ok := r.cache.get(key); ok {
		return img, nil
	}

	n := len(ts.PortfolioValues)
	xLabels := make([]string, n)
	for i := range xLabels {
		if i < len(ts.Dates) {
			xLabels[i] = shortDate(ts.Dates[i], n)
		}
	}

	values := [][]float64{ts.PortfolioValues}
	names := []string{"Portfolio"}
	if len(ts.BenchmarkValues) > 0 {
		bench := ts.BenchmarkValues
		if len(bench) > n {
			bench = bench[:n]
		}
		values = append(values, bench)
		names = append(names, benchmark)
	}

	yMin, yMax := paddedRange(values)
	splitNum := 6
	if n <= 30 {
		splitNum = max(n/3, 3)
	}

	s := resp.Summary
	subtitle := fmt.Sprintf("Return: %.2f%% | Sharpe: %.2f | Vol: %.2f%% | MaxDD: %.2f%%",
		s.AnnualReturn, s.SharpeRatio, s.Risk, s.MaxDrawdown)

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	p, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Portfolio vs "+benchmark, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	r.cache.set(key, buf)
	return buf, nil
}

// RiskReturnPNG draws paired risk and return bars for every asset and the portfolio.
func (r *Renderer) RiskReturnPNG(resp *finance.PortfolioAnalysisResponse) ([]byte, error) {
	rr := resp.RiskReturnData
	if len(rr.Assets) == 0 {
		return nil, ErrNoData
	}
	key := fingerprint("riskret", "", rr)
	if img, ok := r.cache.get(key); ok {
		return img, nil
	}

	labels := make([]string, 0, len(rr.Assets)+1)
	risks := make([]float64, 0, len(rr.Assets)+1)
	returns := make([]float64, 0, len(rr.Assets)+1)
	for _, a := range rr.Assets {
		labels = append(labels, a.Symbol)
		risks = append(risks, a.Risk)
		returns = append(returns, a.Return)
	}
	labels = append(labels, "Portfolio")
	risks = append(risks, rr.Portfolio.Risk)
	returns = append(returns, rr.Portfolio.Return)

	p, err := charts.BarRender([][]float64{risks, returns},
		charts.TitleTextOptionFunc("Risk vs Return", "annualized, %"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels}),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Risk", "Return"}}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	r.cache.set(key, buf)
	return buf, nil
}

func paddedRange(values [][]float64) (float64, float64) {
	minVal, maxVal := values[0][0], values[0][0]
	for _, vs := range values {
		for _, v := range vs {
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	if padding == 0 {
		padding = 1
	}
	return minVal - padding, maxVal + padding
}

// shortDate keeps day detail for short ranges and month labels otherwise.
func shortDate(date string, points int) string {
	t, err := time.Parse(finance.DateLayout, date)
	if err != nil {
		return date
	}
	if points <= 90 {
		return t.Format("Jan 02")
	}
	return t.Format("Jan '06")
}

func fingerprint(kind, extra string, v any) string {
	h := fnv.New64a()
	h.Write([]byte(kind + "|" + extra + "|"))
	_ = json.NewEncoder(h).Encode(v)
	return fmt.Sprintf("%s:%x", kind, h.Sum64())
}

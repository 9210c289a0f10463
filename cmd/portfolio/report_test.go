package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"portfolioAnalyzer/internal/finance"
)

func TestReportMarkdown(t *testing.T) {
	resp := &finance.PortfolioAnalysisResponse{
		Summary: finance.PortfolioSummary{AnnualReturn: 10.5, Risk: 15.25, SharpeRatio: 0.36, MaxDrawdown: -8},
		AssetPerformance: []finance.AssetPerformance{
			{Symbol: "AAPL", Name: "Apple Inc.", Weight: 60, AnnualReturn: 12, Risk: 20, SharpeRatio: 0.35, Contribution: 70},
		},
		TimeSeriesData: finance.TimeSeriesData{
			PortfolioValues: []float64{100, 110.5},
			BenchmarkValues: []float64{100, 104},
		},
	}
	md := reportMarkdown(resp, finance.DateRange{StartDate: "2024-01-01", EndDate: "2024-06-30"}, "SPY", "mock")

	assert.Contains(t, md, "2024-01-01 to 2024-06-30")
	assert.Contains(t, md, "| Max drawdown | -8.00% |")
	assert.Contains(t, md, "| AAPL | Apple Inc. | 60.00% | 12.00% | 20.00% | 0.35 | 70.00% |")
	assert.Contains(t, md, "portfolio **110.50**, SPY **104.00** over 2 sessions")
}

func TestSearchMarkdownSkipsEmptyGroups(t *testing.T) {
	res := finance.EmptySearchResponse()
	res.Add(finance.Asset{Symbol: "BTC-USD", Name: "Bitcoin USD", Type: finance.AssetCrypto, Exchange: "Crypto"})
	md := searchMarkdown("btc", res)
	assert.Contains(t, md, "## Crypto")
	assert.Contains(t, md, "- **BTC-USD** Bitcoin USD (Crypto)")
	assert.NotContains(t, md, "## Stocks")
}

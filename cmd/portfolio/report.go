package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"portfolioAnalyzer/internal/finance"
)

func reportMarkdown(resp *finance.PortfolioAnalysisResponse, dr finance.DateRange, benchmark, source string) string {
	var b strings.Builder
	s := resp.Summary
	fmt.Fprintf(&b, "# Portfolio analysis\n\n%s to %s, prices from *%s*, benchmark **%s**\n\n", dr.StartDate, dr.EndDate, source, benchmark)

	b.WriteString("## Summary\n\n| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Annual return | %.2f%% |\n", s.AnnualReturn)
	fmt.Fprintf(&b, "| Risk (volatility) | %.2f%% |\n", s.Risk)
	fmt.Fprintf(&b, "| Sharpe ratio | %.2f |\n", s.SharpeRatio)
	fmt.Fprintf(&b, "| Max drawdown | %.2f%% |\n", s.MaxDrawdown)

	b.WriteString("\n## Assets\n\n| Symbol | Name | Weight | Return | Risk | Sharpe | Contribution |\n|---|---|---:|---:|---:|---:|---:|\n")
	for _, a := range resp.AssetPerformance {
		fmt.Fprintf(&b, "| %s | %s | %.2f%% | %.2f%% | %.2f%% | %.2f | %.2f%% |\n",
			a.Symbol, a.Name, a.Weight, a.AnnualReturn, a.Risk, a.SharpeRatio, a.Contribution)
	}

	ts := resp.TimeSeriesData
	if n := len(ts.PortfolioValues); n > 0 {
		fmt.Fprintf(&b, "\nGrowth of 100: portfolio **%.2f**", ts.PortfolioValues[n-1])
		if m := len(ts.BenchmarkValues); m > 0 {
			fmt.Fprintf(&b, ", %s **%.2f**", benchmark, ts.BenchmarkValues[m-1])
		}
		fmt.Fprintf(&b, " over %d sessions.\n", n)
	}
	return b.String()
}

func searchMarkdown(query string, res finance.SearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Results for %q\n", query)
	for _, g := range []struct {
		title  string
		assets []finance.Asset
	}{{"Stocks", res.Stocks}, {"ETFs", res.ETFs}, {"Crypto", res.Crypto}, {"Indices", res.Indices}} {
		if len(g.assets) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", g.title)
		for _, a := range g.assets {
			fmt.Fprintf(&b, "- **%s** %s", a.Symbol, a.Name)
			if a.Exchange != "" {
				fmt.Fprintf(&b, " (%s)", a.Exchange)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// printMarkdown renders md for the terminal, falling back to plain text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Fprintln(os.Stderr, "markdown render failed:", err)
	fmt.Print(md)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"portfolioAnalyzer/internal/charts"
	"portfolioAnalyzer/internal/config"
	"portfolioAnalyzer/internal/finance"
	"portfolioAnalyzer/internal/logger"
)

type analyzeCmd struct {
	start    string
	end      string
	source   string
	png      string
	insights bool
	raw      bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "analyze a weighted portfolio against the benchmark" }
func (*analyzeCmd) Usage() string {
	return `portfolio analyze [-start <date>] [-end <date>] [-source yahoo|mock|gemini] [-png <file>] [-insights] [-raw] SYM:W [SYM:W ...]

  Weights are percentages and must sum to 100. Also accepts "SYM W" pairs.
  Example: portfolio analyze -start 2023-01-01 AAPL:60 MSFT:40
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	today := time.Now().UTC()
	f.StringVar(&c.start, "start", today.AddDate(-1, 0, 0).Format(finance.DateLayout), "start date (YYYY-MM-DD)")
	f.StringVar(&c.end, "end", today.Format(finance.DateLayout), "end date (YYYY-MM-DD)")
	f.StringVar(&c.source, "source", "", "price source, overrides PRICE_SOURCE")
	f.StringVar(&c.png, "png", "", "write the performance chart to this file")
	f.BoolVar(&c.insights, "insights", false, "append AI commentary when a model is configured")
	f.BoolVar(&c.raw, "raw", false, "print markdown without terminal styling")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	assets, err := finance.ParseWeightedPortfolio(f.Args())
	if err == nil {
		err = finance.ValidateSelection(assets)
	}
	dr := finance.DateRange{StartDate: c.start, EndDate: c.end}
	if err == nil {
		err = finance.ValidateDateRange(dr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	log := logger.New(logger.Config{Level: "warn", Pretty: true})
	source := cfg.PriceSource
	if c.source != "" {
		source = c.source
	}

	prices, _, err := buildMarketData(ctx, cfg, source, nil, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	analyzer := finance.NewAnalyzer(prices, log, finance.WithBenchmark(cfg.Benchmark))

	resp, err := analyzer.Analyze(ctx, assets, dr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md := reportMarkdown(resp, dr, analyzer.Benchmark(), prices.Name())
	if c.insights {
		gen, err := buildInsights(ctx, cfg, log)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		case gen == nil:
			fmt.Fprintln(os.Stderr, "insights skipped: no OPENAI_API_KEY or GEMINI_API_KEY set")
		default:
			text, err := gen.Insights(ctx, assets, resp.Summary)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			} else {
				md += "\n## Insights\n\n" + text + "\n"
			}
		}
	}

	if c.raw {
		fmt.Print(md)
	} else {
		printMarkdown(md)
	}

	if c.png != "" {
		img, err := charts.NewRenderer().PerformancePNG(resp, analyzer.Benchmark())
		if err == nil {
			err = os.WriteFile(c.png, img, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"portfolioAnalyzer/internal/config"
	"portfolioAnalyzer/internal/logger"
)

type searchCmd struct {
	source string
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search stocks, ETFs, crypto and indices" }
func (*searchCmd) Usage() string {
	return `portfolio search [-source yahoo|mock|gemini] QUERY

  Lists matching assets grouped by type.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "", "search backend, overrides PRICE_SOURCE")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.TrimSpace(strings.Join(f.Args(), " "))
	if len([]rune(query)) < 2 {
		fmt.Fprintln(os.Stderr, "Error: query must be at least 2 characters")
		return subcommands.ExitUsageError
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	source := cfg.PriceSource
	if c.source != "" {
		source = c.source
	}
	log := logger.New(logger.Config{Level: "warn", Pretty: true})
	_, searcher, err := buildMarketData(ctx, cfg, source, nil, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	res, err := searcher.Search(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(searchMarkdown(query, res))
	return subcommands.ExitSuccess
}

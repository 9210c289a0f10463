// Package marketdata holds the price-series providers and asset search
// backends the analyzer is wired to at start-up.
package marketdata

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"portfolioAnalyzer/internal/finance"
)

// Provider is the price source contract consumed by finance.Analyzer.
type Provider interface {
	finance.PriceSource
	Name() string
}

// Searcher answers asset autocomplete queries.
type Searcher interface {
	Search(ctx context.Context, query string) (finance.SearchResponse, error)
}

// fetchFunc loads one symbol's series.
type fetchFunc func(ctx context.Context, symbol string, dr finance.DateRange) (finance.PriceSeries, error)

// FetchAll runs fetch for every symbol with at most limit requests in flight.
// A failed symbol is logged and left out of the result, matching the provider
// contract that entries may be missing. Only context cancellation is returned
// as an error.
func FetchAll(ctx context.Context, symbols []string, dr finance.DateRange, limit int, log zerolog.Logger, fetch fetchFunc) ([]finance.PriceSeries, error) {
	if limit < 1 {
		limit = 1
	}
	var (
		mu      sync.Mutex
		results = make([]*finance.PriceSeries, len(symbols))
		g       errgroup.Group
	)
	g.SetLimit(limit)
	for i, symbol := range symbols {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			ps, err := fetch(ctx, symbol, dr)
			if err != nil {
				log.Warn().Err(err).Str("symbol", symbol).Msg("price fetch failed")
				return nil
			}
			mu.Lock()
			results[i] = &ps
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]finance.PriceSeries, 0, len(symbols))
	for _, ps := range results {
		if ps != nil {
			out = append(out, *ps)
		}
	}
	return out, nil
}

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"portfolioAnalyzer/internal/config"
	"portfolioAnalyzer/internal/insights"
	"portfolioAnalyzer/internal/llm"
	"portfolioAnalyzer/internal/marketdata"
)

// buildMarketData picks the price provider and searcher for source. When
// cache is non-nil, remote providers are wrapped with the SQLite price cache.
func buildMarketData(ctx context.Context, cfg *config.Config, source string, cache marketdata.PriceCache, log zerolog.Logger) (marketdata.Provider, marketdata.Searcher, error) {
	mock := marketdata.NewMock()

	var (
		provider marketdata.Provider
		searcher marketdata.Searcher
	)
	switch source {
	case config.SourceMock:
		return mock, mock, nil
	case config.SourceYahoo:
		y := marketdata.NewYahoo(log,
			marketdata.WithConcurrency(cfg.FetchConcurrency),
			marketdata.WithSearchFallback(mock),
		)
		provider, searcher = y, y
	case config.SourceGemini:
		model, err := llm.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		g := marketdata.NewGemini(model, cfg.FetchConcurrency, log)
		provider, searcher = g, g
	default:
		return nil, nil, fmt.Errorf("unknown price source %q", source)
	}

	if cache != nil && cfg.PriceCacheTTL > 0 {
		provider = marketdata.NewCached(provider, cache, cfg.PriceCacheTTL, log)
	}
	return provider, searcher, nil
}

// buildInsights returns nil when no model is configured.
func buildInsights(ctx context.Context, cfg *config.Config, log zerolog.Logger) (insights.Generator, error) {
	var model llm.Completer
	switch cfg.Insights() {
	case config.InsightsOpenAI:
		model = llm.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel)
	case config.InsightsGemini:
		g, err := llm.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		model = g
	default:
		return nil, nil
	}
	return insights.NewLLM(model, log), nil
}

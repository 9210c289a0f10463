package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"portfolioAnalyzer/internal/finance"
	"portfolioAnalyzer/internal/llm"
)

const geminiSystem = "You are a financial data service. Answer with JSON only."

// Gemini asks a language model for price history and search results. It is
// the fallback when no market data feed is reachable.
type Gemini struct {
	model       llm.Completer
	concurrency int
	log         zerolog.Logger
}

func NewGemini(model llm.Completer, concurrency int, log zerolog.Logger) *Gemini {
	return &Gemini{
		model:       model,
		concurrency: concurrency,
		log:         log.With().Str("component", "gemini-prices").Logger(),
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) FetchPriceSeries(ctx context.Context, symbols []string, dr finance.DateRange) ([]finance.PriceSeries, error) {
	return FetchAll(ctx, symbols, dr, g.concurrency, g.log, g.fetchOne)
}

type geminiSeries struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Prices []float64 `json:"prices"`
	Dates  []string  `json:"dates"`
}

func (g *Gemini) fetchOne(ctx context.Context, symbol string, dr finance.DateRange) (finance.PriceSeries, error) {
	prompt := fmt.Sprintf(`Generate historical price data for the asset with symbol "%s" from %s to %s.

Return ONLY a valid JSON object with the following structure:
{
  "symbol": "%s",
  "name": "Full company or asset name",
  "prices": [price1, price2, price3, ...],
  "dates": ["YYYY-MM-DD", "YYYY-MM-DD", ...]
}

Ensure the dates array and prices array are of the same length, with dates in ascending order.
Include a representative closing price for each trading day in the date range.
If the exact data is unavailable, provide a realistic approximation based on known market behavior for this asset.
Omit weekends and holidays when markets are closed.`, symbol, dr.StartDate, dr.EndDate, symbol)

	text, err := g.model.Complete(ctx, geminiSystem, prompt)
	if err != nil {
		return finance.PriceSeries{}, err
	}
	raw, ok := llm.ExtractJSON(text)
	if !ok {
		return finance.PriceSeries{}, fmt.Errorf("no JSON object in model reply for %s", symbol)
	}
	var gs geminiSeries
	if err := json.Unmarshal([]byte(raw), &gs); err != nil {
		return finance.PriceSeries{}, fmt.Errorf("decode model reply for %s: %w", symbol, err)
	}
	if gs.Prices == nil || gs.Dates == nil {
		return finance.PriceSeries{}, errors.New("model reply missing prices or dates")
	}

	n := min(len(gs.Prices), len(gs.Dates))
	name := gs.Name
	if name == "" {
		name = symbol
	}
	// The requested symbol wins over whatever the model echoed back.
	return finance.PriceSeries{Symbol: symbol, Name: name, Dates: gs.Dates[:n], Prices: gs.Prices[:n]}, nil
}

type geminiSearch struct {
	Stocks  []finance.Asset `json:"stocks"`
	ETFs    []finance.Asset `json:"etfs"`
	Crypto  []finance.Asset `json:"crypto"`
	Indices []finance.Asset `json:"indices"`
}

func (g *Gemini) Search(ctx context.Context, query string) (finance.SearchResponse, error) {
	prompt := fmt.Sprintf(`Generate a JSON list of financial assets matching the search term "%s".
Include stocks (US and Indian), ETFs, cryptocurrencies, and indices, categorized by type.

Return ONLY a valid JSON response with the following structure:
{
  "stocks": [{"symbol": "AAPL", "name": "Apple Inc.", "type": "stock", "exchange": "NASDAQ"}],
  "etfs": [{"symbol": "SPY", "name": "SPDR S&P 500 ETF Trust", "type": "etf", "exchange": "NYSE"}],
  "crypto": [{"symbol": "BTC-USD", "name": "Bitcoin USD", "type": "crypto", "exchange": "Crypto"}],
  "indices": [{"symbol": "^GSPC", "name": "S&P 500", "type": "index", "exchange": "SNP"}]
}

For Indian stocks, use the format SYMBOL.NS (e.g. "TCS.NS").
Limit results to 5 items per category that best match the query.`, query)

	text, err := g.model.Complete(ctx, geminiSystem, prompt)
	if err != nil {
		return finance.SearchResponse{}, fmt.Errorf("gemini search: %w", err)
	}
	raw, ok := llm.ExtractJSON(text)
	if !ok {
		return finance.SearchResponse{}, errors.New("gemini search: no JSON object in reply")
	}
	var gs geminiSearch
	if err := json.Unmarshal([]byte(raw), &gs); err != nil {
		return finance.SearchResponse{}, fmt.Errorf("gemini search: %w", err)
	}

	out := finance.EmptySearchResponse()
	add := func(list []finance.Asset, t finance.AssetType) {
		for i, a := range list {
			if i == 5 {
				break
			}
			if a.Symbol == "" {
				continue
			}
			a.Type = t
			out.Add(a)
		}
	}
	add(gs.Stocks, finance.AssetStock)
	add(gs.ETFs, finance.AssetETF)
	add(gs.Crypto, finance.AssetCrypto)
	add(gs.Indices, finance.AssetIndex)
	return out, nil
}

package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"portfolioAnalyzer/internal/finance"
)

var mockCatalog = []finance.Asset{
	{Symbol: "AAPL", Name: "Apple Inc.", Type: finance.AssetStock, Exchange: "NASDAQ"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Type: finance.AssetStock, Exchange: "NASDAQ"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Type: finance.AssetStock, Exchange: "NASDAQ"},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Type: finance.AssetStock, Exchange: "NASDAQ"},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Type: finance.AssetStock, Exchange: "NASDAQ"},
	{Symbol: "META", Name: "Meta Platforms, Inc.", Type: finance.AssetStock, Exchange: "NASDAQ"},
	{Symbol: "NFLX", Name: "Netflix, Inc.", Type: finance.AssetStock, Exchange: "NASDAQ"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Type: finance.AssetStock, Exchange: "NASDAQ"},
	{Symbol: "TCS.NS", Name: "Tata Consultancy Services Ltd.", Type: finance.AssetStock, Exchange: "NSE"},
	{Symbol: "TATAMOTORS.NS", Name: "Tata Motors Ltd.", Type: finance.AssetStock, Exchange: "NSE"},
	{Symbol: "TATASTEEL.NS", Name: "Tata Steel Ltd.", Type: finance.AssetStock, Exchange: "NSE"},
	{Symbol: "RELIANCE.NS", Name: "Reliance Industries Ltd.", Type: finance.AssetStock, Exchange: "NSE"},
	{Symbol: "INFY.NS", Name: "Infosys Ltd.", Type: finance.AssetStock, Exchange: "NSE"},
	{Symbol: "HDFCBANK.NS", Name: "HDFC Bank Ltd.", Type: finance.AssetStock, Exchange: "NSE"},
	{Symbol: "WIPRO.NS", Name: "Wipro Ltd.", Type: finance.AssetStock, Exchange: "NSE"},
	{Symbol: "ITC.NS", Name: "ITC Ltd.", Type: finance.AssetStock, Exchange: "NSE"},

	{Symbol: "SPY", Name: "SPDR S&P 500 ETF Trust", Type: finance.AssetETF, Exchange: "NYSE"},
	{Symbol: "QQQ", Name: "Invesco QQQ Trust", Type: finance.AssetETF, Exchange: "NASDAQ"},
	{Symbol: "VTI", Name: "Vanguard Total Stock Market ETF", Type: finance.AssetETF, Exchange: "NYSE"},
	{Symbol: "VOO", Name: "Vanguard S&P 500 ETF", Type: finance.AssetETF, Exchange: "NYSE"},
	{Symbol: "NIFTYBEES.NS", Name: "Nippon India ETF Nifty BeES", Type: finance.AssetETF, Exchange: "NSE"},
	{Symbol: "BANKBEES.NS", Name: "Nippon India ETF Bank BeES", Type: finance.AssetETF, Exchange: "NSE"},
	{Symbol: "JUNIORBEES.NS", Name: "Nippon India ETF Junior BeES", Type: finance.AssetETF, Exchange: "NSE"},
	{Symbol: "KOTAKGOLD.NS", Name: "Kotak Gold ETF", Type: finance.AssetETF, Exchange: "NSE"},
	{Symbol: "SETFNIFBK.NS", Name: "SBI ETF Nifty Bank", Type: finance.AssetETF, Exchange: "NSE"},

	{Symbol: "BTC-USD", Name: "Bitcoin USD", Type: finance.AssetCrypto, Exchange: "Crypto"},
	{Symbol: "ETH-USD", Name: "Ethereum USD", Type: finance.AssetCrypto, Exchange: "Crypto"},
	{Symbol: "SOL-USD", Name: "Solana USD", Type: finance.AssetCrypto, Exchange: "Crypto"},
	{Symbol: "DOGE-USD", Name: "Dogecoin USD", Type: finance.AssetCrypto, Exchange: "Crypto"},
	{Symbol: "XRP-USD", Name: "XRP USD", Type: finance.AssetCrypto, Exchange: "Crypto"},
	{Symbol: "ADA-USD", Name: "Cardano USD", Type: finance.AssetCrypto, Exchange: "Crypto"},
	{Symbol: "DOT-USD", Name: "Polkadot USD", Type: finance.AssetCrypto, Exchange: "Crypto"},
	{Symbol: "SHIB-USD", Name: "Shiba Inu USD", Type: finance.AssetCrypto, Exchange: "Crypto"},

	{Symbol: "^GSPC", Name: "S&P 500", Type: finance.AssetIndex, Exchange: "SNP"},
	{Symbol: "^DJI", Name: "Dow Jones Industrial Average", Type: finance.AssetIndex, Exchange: "DJI"},
	{Symbol: "^IXIC", Name: "NASDAQ Composite", Type: finance.AssetIndex, Exchange: "NASDAQ"},
	{Symbol: "^RUT", Name: "Russell 2000", Type: finance.AssetIndex, Exchange: "Russell"},
	{Symbol: "^NSEI", Name: "NIFTY 50", Type: finance.AssetIndex, Exchange: "NSE"},
	{Symbol: "^BSESN", Name: "S&P BSE SENSEX", Type: finance.AssetIndex, Exchange: "BSE"},
	{Symbol: "^CNXBANK", Name: "Nifty Bank", Type: finance.AssetIndex, Exchange: "NSE"},
	{Symbol: "^CNXIT", Name: "Nifty IT", Type: finance.AssetIndex, Exchange: "NSE"},
	{Symbol: "^CNXAUTO", Name: "Nifty Auto", Type: finance.AssetIndex, Exchange: "NSE"},
}

var mockBasePrices = map[string]float64{
	"TCS.NS": 3500, "TATAMOTORS.NS": 450, "TATASTEEL.NS": 120, "RELIANCE.NS": 2500,
	"INFY.NS": 1600, "HDFCBANK.NS": 1400, "WIPRO.NS": 400, "ITC.NS": 380,
	"AAPL": 175, "MSFT": 330, "GOOGL": 135, "AMZN": 125, "TSLA": 175,
	"META": 420, "NFLX": 550, "NVDA": 880,
	"BTC-USD": 60000, "ETH-USD": 3200, "SOL-USD": 150, "DOGE-USD": 0.15,
	"SPY": 505, "QQQ": 430,
}

// Mock serves a fixed asset catalog and synthetic daily prices. The same
// symbol and range always produce the same series.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) FetchPriceSeries(ctx context.Context, symbols []string, dr finance.DateRange) ([]finance.PriceSeries, error) {
	out := make([]finance.PriceSeries, 0, len(symbols))
	for _, s := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, mockSeries(s, dr))
	}
	return out, nil
}

// Search does a case-insensitive substring match on symbol and name.
func (m *Mock) Search(_ context.Context, query string) (finance.SearchResponse, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := finance.EmptySearchResponse()
	for _, a := range mockCatalog {
		if strings.Contains(strings.ToLower(a.Symbol), q) || strings.Contains(strings.ToLower(a.Name), q) {
			out.Add(a)
		}
	}
	return out, nil
}

// mockSeries walks one price per calendar day from start up to, not
// including, end.
func mockSeries(symbol string, dr finance.DateRange) finance.PriceSeries {
	ps := finance.PriceSeries{Symbol: symbol, Name: mockName(symbol), Dates: []string{}, Prices: []float64{}}
	start, end, ok := dr.Bounds()
	if !ok || !end.After(start) {
		return ps
	}

	h := fnv.New64a()
	h.Write([]byte(symbol + "|" + dr.StartDate + "|" + dr.EndDate))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	price := mockBasePrice(symbol)
	vol := mockVolatility(symbol)
	trend := mockTrend(symbol)
	isIndex := strings.Contains(symbol, "^")

	i := 0
	for d := start; d.Before(end); d = d.Add(24 * time.Hour) {
		change := (rng.Float64()-0.5)*vol + trend
		cyclical := 0.0
		if isIndex {
			cyclical = math.Sin(float64(i)/30) * 0.001
		}
		price *= 1 + change + cyclical
		ps.Dates = append(ps.Dates, d.Format(finance.DateLayout))
		ps.Prices = append(ps.Prices, math.Round(price*100)/100)
		i++
	}
	return ps
}

func mockName(symbol string) string {
	for _, a := range mockCatalog {
		if a.Symbol == symbol {
			return a.Name
		}
	}
	return symbol
}

func mockBasePrice(symbol string) float64 {
	if p, ok := mockBasePrices[symbol]; ok {
		return p
	}
	return 100
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func mockVolatility(symbol string) float64 {
	switch {
	case containsAny(symbol, "BTC", "ETH", "SOL", "DOGE", "SHIB"):
		return 0.03
	case containsAny(symbol, "TSLA", "TATAMOTORS.NS"):
		return 0.025
	case strings.Contains(symbol, ".NS"):
		return 0.018
	default:
		return 0.01
	}
}

func mockTrend(symbol string) float64 {
	switch {
	case containsAny(symbol, "AAPL", "MSFT", "NVDA", "TCS.NS", "INFY.NS"):
		return 0.0004
	case containsAny(symbol, "SPY", "QQQ", "NIFTYBEES.NS"):
		return 0.0003
	case containsAny(symbol, "BTC", "^NSEI", "^BSESN"):
		return 0.0002
	case containsAny(symbol, "META", "NFLX"):
		return -0.0001
	default:
		return 0
	}
}

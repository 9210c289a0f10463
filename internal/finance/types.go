package finance

// AssetType classifies an Asset for search grouping.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetETF    AssetType = "etf"
	AssetCrypto AssetType = "crypto"
	AssetIndex  AssetType = "index"
)

// Asset is an immutable reference entity returned by search.
type Asset struct {
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	Type     AssetType `json:"type"`
	Exchange string    `json:"exchange,omitempty"`
}

// SelectedAsset is an Asset with its allocation in percentage points (0-100).
type SelectedAsset struct {
	Asset
	Weight float64 `json:"weight"`
}

// DateRange holds ISO calendar dates (YYYY-MM-DD).
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// PriceSeries is one symbol's closing prices aligned with Dates.
// Dates are expected ascending; input order is treated as authoritative.
type PriceSeries struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

// AssetPerformance is one row of per-asset metrics. Percent units except
// SharpeRatio. Contribution may be negative.
type AssetPerformance struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	AnnualReturn float64 `json:"annualReturn"`
	Risk         float64 `json:"risk"`
	SharpeRatio  float64 `json:"sharpeRatio"`
	Contribution float64 `json:"contribution"`
}

// PortfolioSummary holds portfolio-level metrics. MaxDrawdown is <= 0.
type PortfolioSummary struct {
	AnnualReturn float64 `json:"annualReturn"`
	Risk         float64 `json:"risk"`
	SharpeRatio  float64 `json:"sharpeRatio"`
	MaxDrawdown  float64 `json:"maxDrawdown"`
}

// TimeSeriesData holds the portfolio and benchmark paths, both based at 100.
type TimeSeriesData struct {
	Dates           []string  `json:"dates"`
	PortfolioValues []float64 `json:"portfolioValues"`
	BenchmarkValues []float64 `json:"benchmarkValues"`
}

// RiskReturnPoint is one dot on the risk/return scatter.
type RiskReturnPoint struct {
	Symbol string  `json:"symbol,omitempty"`
	Name   string  `json:"name,omitempty"`
	Risk   float64 `json:"risk"`
	Return float64 `json:"return"`
}

type RiskReturnData struct {
	Assets    []RiskReturnPoint `json:"assets"`
	Portfolio RiskReturnPoint   `json:"portfolio"`
}

// PortfolioAnalysisResponse is the full result of Analyzer.Analyze.
type PortfolioAnalysisResponse struct {
	Summary          PortfolioSummary   `json:"summary"`
	AssetPerformance []AssetPerformance `json:"assetPerformance"`
	TimeSeriesData   TimeSeriesData     `json:"timeSeriesData"`
	RiskReturnData   RiskReturnData     `json:"riskReturnData"`
}

// SearchResponse groups search hits by asset type.
type SearchResponse struct {
	Stocks  []Asset `json:"stocks"`
	ETFs    []Asset `json:"etfs"`
	Crypto  []Asset `json:"crypto"`
	Indices []Asset `json:"indices"`
}

// Add files a into the bucket matching its type. Unknown types go to Stocks.
func (r *SearchResponse) Add(a Asset) {
	switch a.Type {
	case AssetETF:
		r.ETFs = append(r.ETFs, a)
	case AssetCrypto:
		r.Crypto = append(r.Crypto, a)
	case AssetIndex:
		r.Indices = append(r.Indices, a)
	default:
		r.Stocks = append(r.Stocks, a)
	}
}

// All flattens the response in stocks, etfs, crypto, indices order.
func (r SearchResponse) All() []Asset {
	out := make([]Asset, 0, len(r.Stocks)+len(r.ETFs)+len(r.Crypto)+len(r.Indices))
	out = append(out, r.Stocks...)
	out = append(out, r.ETFs...)
	out = append(out, r.Crypto...)
	out = append(out, r.Indices...)
	return out
}

// EmptySearchResponse returns a response with non-nil buckets so it encodes as arrays.
func EmptySearchResponse() SearchResponse {
	return SearchResponse{Stocks: []Asset{}, ETFs: []Asset{}, Crypto: []Asset{}, Indices: []Asset{}}
}

package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolioAnalyzer/internal/finance"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields).
// Closes are pointers because Yahoo sends null for missing sessions.
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				ShortName string `json:"shortName"`
				LongName  string `json:"longName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// yahooSearchResp mirrors Yahoo v1 search (trimmed).
type yahooSearchResp struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
	} `json:"quotes"`
}

// Yahoo fetches daily closes and search results from Yahoo Finance, failing
// over between hosts with a short backoff.
type Yahoo struct {
	client      *http.Client
	hosts       []string
	scheme      string
	backoffs    []time.Duration
	concurrency int
	fallback    Searcher
	log         zerolog.Logger
}

type YahooOption func(*Yahoo)

func WithHTTPClient(c *http.Client) YahooOption { return func(y *Yahoo) { y.client = c } }

// WithHosts replaces the query1/query2 host list, e.g. to point at a test server.
func WithHosts(scheme string, hosts ...string) YahooOption {
	return func(y *Yahoo) {
		y.scheme = scheme
		y.hosts = hosts
	}
}

func WithBackoffs(b ...time.Duration) YahooOption { return func(y *Yahoo) { y.backoffs = b } }

func WithConcurrency(n int) YahooOption { return func(y *Yahoo) { y.concurrency = n } }

// WithSearchFallback sets the searcher used when Yahoo search fails.
func WithSearchFallback(s Searcher) YahooOption { return func(y *Yahoo) { y.fallback = s } }

func NewYahoo(log zerolog.Logger, opts ...YahooOption) *Yahoo {
	y := &Yahoo{
		client:      &http.Client{Timeout: 20 * time.Second},
		hosts:       []string{"query1.finance.yahoo.com", "query2.finance.yahoo.com"},
		scheme:      "https",
		backoffs:    []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		concurrency: 4,
		log:         log.With().Str("component", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string { return "yahoo" }

// FetchPriceSeries issues one chart request per symbol in parallel.
func (y *Yahoo) FetchPriceSeries(ctx context.Context, symbols []string, dr finance.DateRange) ([]finance.PriceSeries, error) {
	return FetchAll(ctx, symbols, dr, y.concurrency, y.log, y.fetchDaily)
}

func (y *Yahoo) fetchDaily(ctx context.Context, symbol string, dr finance.DateRange) (finance.PriceSeries, error) {
	start, end, ok := dr.Bounds()
	if !ok {
		return finance.PriceSeries{Symbol: symbol, Name: symbol, Dates: []string{}, Prices: []float64{}}, nil
	}
	// period2 is exclusive on Yahoo's side; push it to the end of the last day.
	period1, period2 := start.Unix(), end.AddDate(0, 0, 1).Unix()

	var yc yahooChartResp
	err := y.getJSON(ctx, symbol, func(host string) string {
		return fmt.Sprintf("%s://%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div,splits",
			y.scheme, host, url.PathEscape(symbol), period1, period2)
	}, &yc)
	if err != nil {
		return finance.PriceSeries{}, err
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return finance.PriceSeries{}, errors.New("no data")
	}

	res := yc.Chart.Result[0]
	dates, prices := cleanDaily(res.Timestamp, res.Indicators.Quote[0].Close)
	name := res.Meta.ShortName
	if name == "" {
		name = res.Meta.LongName
	}
	if name == "" {
		name = symbol
	}
	return finance.PriceSeries{Symbol: symbol, Name: name, Dates: dates, Prices: prices}, nil
}

// Search queries Yahoo autocomplete, falling back to the configured searcher
// on any failure.
func (y *Yahoo) Search(ctx context.Context, query string) (finance.SearchResponse, error) {
	var ys yahooSearchResp
	err := y.getJSON(ctx, query, func(host string) string {
		return fmt.Sprintf("%s://%s/v1/finance/search?q=%s&quotesCount=20&newsCount=0",
			y.scheme, host, url.QueryEscape(query))
	}, &ys)
	if err != nil {
		if y.fallback != nil {
			y.log.Warn().Err(err).Str("query", query).Msg("search failed, using fallback")
			return y.fallback.Search(ctx, query)
		}
		return finance.SearchResponse{}, err
	}

	out := finance.EmptySearchResponse()
	for _, q := range ys.Quotes {
		if q.Symbol == "" || q.ShortName == "" {
			continue
		}
		out.Add(finance.Asset{
			Symbol:   q.Symbol,
			Name:     q.ShortName,
			Type:     assetTypeFromQuoteType(q.QuoteType),
			Exchange: q.Exchange,
		})
	}
	return out, nil
}

func assetTypeFromQuoteType(quoteType string) finance.AssetType {
	switch strings.ToLower(quoteType) {
	case "etf":
		return finance.AssetETF
	case "cryptocurrency":
		return finance.AssetCrypto
	case "index":
		return finance.AssetIndex
	default:
		return finance.AssetStock
	}
}

// getJSON tries every host, then backs off and tries again, until one returns
// a decodable JSON body.
func (y *Yahoo) getJSON(ctx context.Context, subject string, urlFor func(host string) string, out any) error {
	var lastErr error
	for attempt := 0; attempt < len(y.backoffs)+1; attempt++ {
		for _, host := range y.hosts {
			lastErr = y.getOnce(ctx, host, urlFor(host), subject, out)
			if lastErr == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if attempt < len(y.backoffs) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(y.backoffs[attempt]):
			}
		}
	}
	return lastErr
}

func (y *Yahoo) getOnce(ctx context.Context, host, rawURL, subject string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s", url.PathEscape(strings.ToUpper(subject))))

	resp, err := y.client.Do(req)
	if err != nil {
		return err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read yahoo response: %w", readErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", host)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	return nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

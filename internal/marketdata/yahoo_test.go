package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioAnalyzer/internal/finance"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL","shortName":"Apple Inc."},
"timestamp":[1704292200,1704205800,1704378600,1704465000,1704465060,1704551400],
"indicators":{"quote":[{"close":[186.5,185.0,null,181.0,182.0,-1]}]}}],"error":null}}`

func newTestYahoo(t *testing.T, h http.HandlerFunc, opts ...YahooOption) *Yahoo {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	host := strings.TrimPrefix(srv.URL, "http://")
	opts = append([]YahooOption{WithHosts("http", host), WithBackoffs()}, opts...)
	return NewYahoo(zerolog.Nop(), opts...)
}

func TestYahooFetchCleansSeries(t *testing.T) {
	var gotPath, gotQuery string
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		_, _ = w.Write([]byte(chartBody))
	})

	out, err := y.FetchPriceSeries(context.Background(), []string{"AAPL"},
		finance.DateRange{StartDate: "2024-01-02", EndDate: "2024-01-05"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Contains(t, gotQuery, "period1=1704153600")
	assert.Contains(t, gotQuery, "period2=1704499200")
	assert.Contains(t, gotQuery, "interval=1d")

	ps := out[0]
	assert.Equal(t, "Apple Inc.", ps.Name)
	// Sorted ascending, null and negative closes dropped, same-day duplicate
	// replaced by the later point.
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-05"}, ps.Dates)
	assert.Equal(t, []float64{185.0, 186.5, 182.0}, ps.Prices)
}

func TestYahooFailsOverAndOmitsBadSymbols(t *testing.T) {
	var calls atomic.Int32
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if strings.Contains(r.URL.Path, "BAD") {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Edge: Too Many Requests"))
			return
		}
		_, _ = w.Write([]byte(chartBody))
	})

	out, err := y.FetchPriceSeries(context.Background(), []string{"AAPL", "BAD"},
		finance.DateRange{StartDate: "2024-01-02", EndDate: "2024-01-05"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "AAPL", out[0].Symbol)
	assert.Equal(t, int32(2), calls.Load())
}

func TestYahooRejectsHTMLBody(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>consent</html>"))
	})
	_, err := y.fetchDaily(context.Background(), "AAPL", finance.DateRange{StartDate: "2024-01-02", EndDate: "2024-01-05"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-json")
}

func TestYahooSearchGroupsByType(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "tata", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"quotes":[
			{"symbol":"TCS.NS","shortname":"TCS","quoteType":"EQUITY","exchange":"NSI"},
			{"symbol":"SPY","shortname":"SPDR","quoteType":"ETF","exchange":"PCX"},
			{"symbol":"BTC-USD","shortname":"Bitcoin","quoteType":"CRYPTOCURRENCY"},
			{"symbol":"^NSEI","shortname":"NIFTY 50","quoteType":"INDEX"},
			{"symbol":"NONAME","quoteType":"EQUITY"},
			{"symbol":"XX","shortname":"Mutual","quoteType":"MUTUALFUND"}]}`))
	})

	res, err := y.Search(context.Background(), "tata")
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS.NS", "XX"}, symbolsOf(res.Stocks))
	assert.Equal(t, []string{"SPY"}, symbolsOf(res.ETFs))
	assert.Equal(t, []string{"BTC-USD"}, symbolsOf(res.Crypto))
	assert.Equal(t, []string{"^NSEI"}, symbolsOf(res.Indices))
}

func TestYahooSearchFallsBackToCatalog(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithSearchFallback(NewMock()))

	res, err := y.Search(context.Background(), "tata")
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS.NS", "TATAMOTORS.NS", "TATASTEEL.NS"}, symbolsOf(res.Stocks))
}

func TestYahooSearchWithoutFallbackErrors(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := y.Search(context.Background(), "apple")
	require.Error(t, err)
}

func symbolsOf(assets []finance.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Symbol)
	}
	return out
}

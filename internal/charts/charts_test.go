package charts

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioAnalyzer/internal/finance"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func sampleResponse() *finance.PortfolioAnalysisResponse {
	return &finance.PortfolioAnalysisResponse{
		Summary: finance.PortfolioSummary{AnnualReturn: 8.1, Risk: 12.4, SharpeRatio: 0.25, MaxDrawdown: -4.2},
		TimeSeriesData: finance.TimeSeriesData{
			Dates:           []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"},
			PortfolioValues: []float64{100, 101.5, 99.8, 102.3},
			BenchmarkValues: []float64{100, 100.4, 100.9, 101.2},
		},
		RiskReturnData: finance.RiskReturnData{
			Assets: []finance.RiskReturnPoint{
				{Symbol: "AAPL", Name: "Apple", Risk: 20, Return: 12},
				{Symbol: "MSFT", Name: "Microsoft", Risk: 18, Return: -3},
			},
			Portfolio: finance.RiskReturnPoint{Risk: 15, Return: 5},
		},
	}
}

func TestPerformancePNG(t *testing.T) {
	r := NewRenderer()
	img, err := r.PerformancePNG(sampleResponse(), "SPY")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	again, err := r.PerformancePNG(sampleResponse(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, img, again)
}

func TestPerformancePNGWithoutBenchmark(t *testing.T) {
	resp := sampleResponse()
	resp.TimeSeriesData.BenchmarkValues = []float64{}
	img, err := NewRenderer().PerformancePNG(resp, "SPY")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestRiskReturnPNG(t *testing.T) {
	img, err := NewRenderer().RiskReturnPNG(sampleResponse())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestChartsRejectEmpty(t *testing.T) {
	r := NewRenderer()
	_, err := r.PerformancePNG(&finance.PortfolioAnalysisResponse{}, "SPY")
	assert.ErrorIs(t, err, ErrNoData)
	_, err = r.RiskReturnPNG(&finance.PortfolioAnalysisResponse{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestImageCacheExpires(t *testing.T) {
	c := newImageCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.set("k", []byte("png"))
	got, ok := c.get("k")
	require.True(t, ok)
	got[0] = 'X'
	again, _ := c.get("k")
	assert.Equal(t, []byte("png"), again, "callers get a copy")

	now = now.Add(time.Minute)
	_, ok = c.get("k")
	assert.False(t, ok)
}

func TestImageCacheSweepsOnSet(t *testing.T) {
	c := newImageCache(time.Second)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		c.set(fmt.Sprintf("perf:%d", i), []byte("png"))
	}
	require.Len(t, c.entries, 1000)

	now = now.Add(time.Hour)
	c.set("fresh", []byte("png"))
	assert.Len(t, c.entries, 1)
	_, ok := c.get("fresh")
	assert.True(t, ok)
}

func TestShortDate(t *testing.T) {
	assert.Equal(t, "Jan 02", shortDate("2024-01-02", 10))
	assert.Equal(t, "Jan '24", shortDate("2024-01-02", 500))
	assert.Equal(t, "bad", shortDate("bad", 10))
}

package marketdata

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioAnalyzer/internal/finance"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	payload []byte
	at      time.Time
}

func (m *memCache) GetPriceCache(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e.payload, e.at, ok, nil
}

func (m *memCache) PutPriceCache(_ context.Context, key string, payload []byte, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]memEntry{}
	}
	m.entries[key] = memEntry{payload: payload, at: at}
	return nil
}

type staticProvider struct{ *finance.StaticSource }

func (staticProvider) Name() string { return "static" }

func TestCachedServesHitsAndFetchesMisses(t *testing.T) {
	src := &finance.StaticSource{Series: []finance.PriceSeries{
		{Symbol: "A", Name: "Alpha", Dates: []string{"2024-01-01", "2024-01-02"}, Prices: []float64{1, 2}},
		{Symbol: "B", Name: "Beta", Dates: []string{"2024-01-01", "2024-01-02"}, Prices: []float64{3, 4}},
	}}
	cache := &memCache{}
	c := NewCached(staticProvider{src}, cache, time.Hour, zerolog.Nop())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	dr := finance.DateRange{StartDate: "2024-01-01", EndDate: "2024-01-02"}

	first, err := c.FetchPriceSeries(context.Background(), []string{"A"}, dr)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := c.FetchPriceSeries(context.Background(), []string{"B", "A", "MISSING"}, dr)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "B", second[0].Symbol)
	assert.Equal(t, first[0], second[1])

	assert.Equal(t, [][]string{{"A"}, {"B", "MISSING"}}, src.Requests())

	// Past the TTL everything is fetched again.
	now = now.Add(2 * time.Hour)
	_, err = c.FetchPriceSeries(context.Background(), []string{"A"}, dr)
	require.NoError(t, err)
	assert.Len(t, src.Requests(), 3)
	assert.Equal(t, "static+cache", c.Name())
}

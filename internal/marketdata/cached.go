package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"portfolioAnalyzer/internal/finance"
)

// PriceCache is the blob store behind Cached. storage.Store implements it.
type PriceCache interface {
	GetPriceCache(ctx context.Context, key string) (payload []byte, fetchedAt time.Time, ok bool, err error)
	PutPriceCache(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error
}

type cachedSeries struct {
	Symbol string    `msgpack:"s"`
	Name   string    `msgpack:"n"`
	Dates  []string  `msgpack:"d"`
	Prices []float64 `msgpack:"p"`
}

// Cached serves series from a PriceCache and asks the wrapped provider only
// for misses and entries older than ttl. Cache failures are logged and
// otherwise ignored.
type Cached struct {
	next  Provider
	cache PriceCache
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

func NewCached(next Provider, cache PriceCache, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{
		next:  next,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
		log:   log.With().Str("component", "price-cache").Logger(),
	}
}

func (c *Cached) Name() string { return c.next.Name() + "+cache" }

func cacheKey(source, symbol string, dr finance.DateRange) string {
	return fmt.Sprintf("%s:%s:%s:%s", source, symbol, dr.StartDate, dr.EndDate)
}

func (c *Cached) FetchPriceSeries(ctx context.Context, symbols []string, dr finance.DateRange) ([]finance.PriceSeries, error) {
	hits := make(map[string]finance.PriceSeries, len(symbols))
	var misses []string
	for _, s := range symbols {
		if ps, ok := c.lookup(ctx, s, dr); ok {
			hits[s] = ps
			continue
		}
		misses = append(misses, s)
	}

	if len(misses) > 0 {
		fetched, err := c.next.FetchPriceSeries(ctx, misses, dr)
		if err != nil {
			return nil, err
		}
		for _, ps := range fetched {
			hits[ps.Symbol] = ps
			c.store(ctx, ps, dr)
		}
	}
	c.log.Debug().Int("requested", len(symbols)).Int("misses", len(misses)).Msg("price cache lookup")

	out := make([]finance.PriceSeries, 0, len(symbols))
	for _, s := range symbols {
		if ps, ok := hits[s]; ok {
			out = append(out, ps)
		}
	}
	return out, nil
}

func (c *Cached) lookup(ctx context.Context, symbol string, dr finance.DateRange) (finance.PriceSeries, bool) {
	payload, fetchedAt, ok, err := c.cache.GetPriceCache(ctx, cacheKey(c.next.Name(), symbol, dr))
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("price cache read failed")
		return finance.PriceSeries{}, false
	}
	if !ok || c.now().Sub(fetchedAt) > c.ttl {
		return finance.PriceSeries{}, false
	}
	var cs cachedSeries
	if err := msgpack.Unmarshal(payload, &cs); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("corrupt price cache entry")
		return finance.PriceSeries{}, false
	}
	return finance.PriceSeries{Symbol: cs.Symbol, Name: cs.Name, Dates: cs.Dates, Prices: cs.Prices}, true
}

func (c *Cached) store(ctx context.Context, ps finance.PriceSeries, dr finance.DateRange) {
	if len(ps.Prices) == 0 {
		return
	}
	payload, err := msgpack.Marshal(cachedSeries{Symbol: ps.Symbol, Name: ps.Name, Dates: ps.Dates, Prices: ps.Prices})
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", ps.Symbol).Msg("encode price cache entry")
		return
	}
	if err := c.cache.PutPriceCache(ctx, cacheKey(c.next.Name(), ps.Symbol, dr), payload, c.now()); err != nil {
		c.log.Warn().Err(err).Str("symbol", ps.Symbol).Msg("price cache write failed")
	}
}

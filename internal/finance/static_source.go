package finance

import (
	"context"
	"sync"
)

// StaticSource serves fixed series from memory. Tests across packages use it
// in place of a live provider.
type StaticSource struct {
	Series []PriceSeries
	Err    error

	mu       sync.Mutex
	requests [][]string
}

func (s *StaticSource) FetchPriceSeries(ctx context.Context, symbols []string, _ DateRange) ([]PriceSeries, error) {
	s.mu.Lock()
	s.requests = append(s.requests, append([]string(nil), symbols...))
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		want[sym] = true
	}
	var out []PriceSeries
	for _, ps := range s.Series {
		if want[ps.Symbol] {
			out = append(out, ps)
		}
	}
	return out, nil
}

// Requests returns the symbol lists seen so far.
func (s *StaticSource) Requests() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.requests...)
}

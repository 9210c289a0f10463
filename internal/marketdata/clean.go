package marketdata

import (
	"sort"
	"time"

	"portfolioAnalyzer/internal/finance"
)

// cleanDaily turns raw timestamps and closes into an ascending, one-per-day
// series. Null and non-positive closes are dropped; when a day appears twice
// the later point wins.
func cleanDaily(ts []int64, cl []*float64) ([]string, []float64) {
	n := len(ts)
	if len(cl) < n {
		n = len(cl)
	}

	type point struct {
		ts    int64
		close float64
	}
	points := make([]point, 0, n)
	for i := 0; i < n; i++ {
		if cl[i] == nil || *cl[i] <= 0 {
			continue
		}
		points = append(points, point{ts: ts[i], close: *cl[i]})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].ts < points[j].ts })

	dates := make([]string, 0, len(points))
	prices := make([]float64, 0, len(points))
	for _, p := range points {
		day := time.Unix(p.ts, 0).UTC().Format(finance.DateLayout)
		if len(dates) > 0 && dates[len(dates)-1] == day {
			prices[len(prices)-1] = p.close
			continue
		}
		dates = append(dates, day)
		prices = append(prices, p.close)
	}
	return dates, prices
}

package finance

// InitialValue is the notional investment the blended path starts from.
const InitialValue = 100.0

// BuildPortfolioPath blends per-asset price series into a buy-and-hold path
// that starts at InitialValue. Each asset's dollars are fixed at day 0 by its
// weight and then drift with that asset's cumulative return; there is no
// rebalancing.
//
// The path length is the shortest input series: an asset with less history
// truncates the whole window. Series are aligned by position, not by date.
// An empty input series or a weights/series count mismatch yields an empty path.
func BuildPortfolioPath(assetPrices [][]float64, weights []float64) []float64 {
	if len(assetPrices) == 0 || len(assetPrices) != len(weights) {
		return []float64{}
	}

	minLength := len(assetPrices[0])
	for _, prices := range assetPrices {
		if len(prices) < minLength {
			minLength = len(prices)
		}
	}
	if minLength == 0 {
		return []float64{}
	}

	normalized := make([]float64, len(weights))
	for i, w := range weights {
		normalized[i] = w / 100
	}

	path := make([]float64, minLength)
	for day := 0; day < minLength; day++ {
		value := 0.0
		for j, prices := range assetPrices {
			// An asset with no usable base price holds its day-0 allocation.
			if day == 0 || prices[0] == 0 {
				value += InitialValue * normalized[j]
				continue
			}
			priceChange := prices[day] / prices[0]
			value += finite(InitialValue * normalized[j] * priceChange)
		}
		path[day] = value
	}
	return path
}

// Contribution attributes the weighted portfolio return to each asset, as a
// percentage of the total. Returns are percentages, weights are percentage
// points. A zero portfolio return gives all zeros, and any non-finite share is
// coerced to 0.
func Contribution(assetReturns, assetWeights []float64) []float64 {
	weightAt := func(i int) float64 {
		if i < len(assetWeights) {
			return assetWeights[i]
		}
		return 0
	}

	portReturn := 0.0
	for i, ret := range assetReturns {
		portReturn += ret * weightAt(i) / 100
	}

	out := make([]float64, len(assetReturns))
	if portReturn == 0 {
		return out
	}
	for i, ret := range assetReturns {
		out[i] = finite((ret * weightAt(i) / 100) / portReturn * 100)
	}
	return out
}

// Summarize computes portfolio-level metrics from a blended price path.
// MaxDrawdown is reported as a non-positive percentage.
func Summarize(path []float64) PortfolioSummary {
	returns := DailyReturns(path)
	annualReturn := AnnualizedReturn(returns)
	risk := AnnualizedRisk(returns)
	summary := PortfolioSummary{
		AnnualReturn: annualReturn,
		Risk:         risk,
		SharpeRatio:  SharpeRatio(annualReturn, risk),
	}
	if dd := MaxDrawdown(path); dd != 0 {
		summary.MaxDrawdown = -dd
	}
	return summary
}

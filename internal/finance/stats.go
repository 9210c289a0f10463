package finance

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// TradingDaysPerYear is the fixed annualization factor.
	TradingDaysPerYear = 252
	// RiskFreeRate is expressed in percent, like AnnualizedReturn.
	RiskFreeRate = 5.0
)

// DailyReturns returns prices[i]/prices[i-1] - 1 for i in [1, n).
// A zero previous price yields a 0 return for that step.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns[i-1] = finite(prices[i]/prices[i-1] - 1)
	}
	return returns
}

// Mean is the arithmetic mean; 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev is the Bessel-corrected sample standard deviation; 0 for n <= 1.
func StdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	return finite(stat.StdDev(values, nil))
}

// AnnualizedReturn compounds the mean daily return over a trading year, in percent.
func AnnualizedReturn(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return finite((math.Pow(1+Mean(dailyReturns), TradingDaysPerYear) - 1) * 100)
}

// AnnualizedRisk scales daily volatility by sqrt(252), in percent.
func AnnualizedRisk(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return finite(StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear) * 100)
}

// SharpeRatio returns (annualReturn - RiskFreeRate) / annualRisk, or 0 when
// annualRisk is 0.
func SharpeRatio(annualReturn, annualRisk float64) float64 {
	if annualRisk == 0 {
		return 0
	}
	return finite((annualReturn - RiskFreeRate) / annualRisk)
}

// MaxDrawdown is the largest peak-to-trough decline as a non-negative
// percentage. The caller applies the sign convention.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) <= 1 {
		return 0
	}

	maxDrawdown := 0.0
	peak := prices[0]
	for _, price := range prices[1:] {
		if price > peak {
			peak = price
			continue
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - price) / peak; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return finite(maxDrawdown * 100)
}

// NormalizeTo100 rebases a series so its first point is 100.
// A zero first point yields a series of zeros.
func NormalizeTo100(prices []float64) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 || prices[0] == 0 {
		return out
	}
	base := prices[0]
	for i, p := range prices {
		out[i] = finite(p / base * 100)
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

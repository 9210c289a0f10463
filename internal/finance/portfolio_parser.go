package finance

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWeightedPortfolio parses a portfolio expressed as tokens, either
// "SYM WEIGHT SYM WEIGHT ..." or "SYM:WEIGHT ...". Weights are percentage
// points. Symbols are upper-cased and must be unique.
// Example: /analyze SPY 60 TLT 40 2023-01-01 2024-01-01
func ParseWeightedPortfolio(tokens []string) ([]SelectedAsset, error) {
	var pairs [][2]string
	for i := 0; i < len(tokens); i++ {
		tok := strings.TrimSpace(tokens[i])
		if tok == "" {
			continue
		}
		if sym, w, ok := strings.Cut(tok, ":"); ok {
			pairs = append(pairs, [2]string{sym, w})
			continue
		}
		if i+1 >= len(tokens) {
			return nil, fmt.Errorf("invalid format: symbol %s has no weight", strings.ToUpper(tok))
		}
		pairs = append(pairs, [2]string{tok, tokens[i+1]})
		i++
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("insufficient arguments: need at least one symbol and weight")
	}

	seen := make(map[string]bool)
	assets := make([]SelectedAsset, 0, len(pairs))
	for n, p := range pairs {
		symbol := strings.ToUpper(strings.TrimSpace(p[0]))
		if symbol == "" {
			return nil, fmt.Errorf("empty symbol at position %d", n+1)
		}
		weight, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(p[1]), "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight '%s' for symbol %s: %w", p[1], symbol, err)
		}
		if weight < 0 || weight > 100 {
			return nil, fmt.Errorf("%w: %s has %.2f", ErrWeightRange, symbol, weight)
		}
		if seen[symbol] {
			return nil, fmt.Errorf("duplicate symbol: %s", symbol)
		}
		seen[symbol] = true
		assets = append(assets, SelectedAsset{
			Asset:  Asset{Symbol: symbol, Name: symbol, Type: AssetStock},
			Weight: weight,
		})
	}
	return assets, nil
}

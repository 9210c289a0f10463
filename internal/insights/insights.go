// Package insights turns a computed portfolio summary into narrative advice.
package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"portfolioAnalyzer/internal/finance"
	"portfolioAnalyzer/internal/llm"
)

// ErrNotConfigured is returned by callers holding a nil Generator.
var ErrNotConfigured = errors.New("insights generator not configured")

// Generator writes prose about a portfolio and its summary metrics.
type Generator interface {
	Insights(ctx context.Context, assets []finance.SelectedAsset, summary finance.PortfolioSummary) (string, error)
}

const systemPrompt = "You are an experienced portfolio analyst. Write clear, professional, specific advice."

// LLM is a Generator backed by any chat completion model.
type LLM struct {
	model llm.Completer
	log   zerolog.Logger
}

func NewLLM(model llm.Completer, log zerolog.Logger) *LLM {
	return &LLM{model: model, log: log.With().Str("component", "insights").Str("provider", model.Name()).Logger()}
}

func (g *LLM) Provider() string { return g.model.Name() }

func (g *LLM) Insights(ctx context.Context, assets []finance.SelectedAsset, summary finance.PortfolioSummary) (string, error) {
	text, err := g.model.Complete(ctx, systemPrompt, BuildPrompt(assets, summary))
	if err != nil {
		g.log.Error().Err(err).Int("assets", len(assets)).Msg("insights generation failed")
		return "", fmt.Errorf("generate insights: %w", err)
	}
	return text, nil
}

// BuildPrompt renders the analysis request sent to the model.
func BuildPrompt(assets []finance.SelectedAsset, s finance.PortfolioSummary) string {
	var b strings.Builder
	b.WriteString("Analyze the following investment portfolio and provide strategic insights:\n\n")
	b.WriteString("Portfolio Composition:\n")
	indian := false
	for _, a := range assets {
		name := a.Name
		if name == "" {
			name = a.Symbol
		}
		fmt.Fprintf(&b, "%s (%s): %s%%\n", name, a.Symbol, trimFloat(a.Weight))
		if strings.HasSuffix(strings.ToUpper(a.Symbol), ".NS") {
			indian = true
		}
	}

	b.WriteString("\nPortfolio Performance:\n")
	fmt.Fprintf(&b, "- Annual Return: %.2f%%\n", s.AnnualReturn)
	fmt.Fprintf(&b, "- Risk (Volatility): %.2f%%\n", s.Risk)
	fmt.Fprintf(&b, "- Sharpe Ratio: %.2f\n", s.SharpeRatio)
	fmt.Fprintf(&b, "- Maximum Drawdown: %.2f%%\n", s.MaxDrawdown)

	b.WriteString(`
Provide a concise analysis (250-300 words) covering:
1. Overall portfolio evaluation
2. Risk assessment
3. Diversification analysis
4. Strengths and weaknesses
5. 2-3 specific, actionable recommendations for optimization

Focus on practical advice that could improve performance or reduce risk.
Use clear, professional language. Avoid generic advice.
`)
	if indian {
		b.WriteString("The portfolio holds Indian stocks (symbols ending with .NS); include specific insights about the Indian market.\n")
	}
	return b.String()
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

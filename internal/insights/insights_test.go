package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioAnalyzer/internal/finance"
)

type stubModel struct {
	reply  string
	err    error
	system string
	prompt string
}

func (s *stubModel) Name() string { return "stub" }

func (s *stubModel) Complete(_ context.Context, system, prompt string) (string, error) {
	s.system, s.prompt = system, prompt
	return s.reply, s.err
}

var sampleSummary = finance.PortfolioSummary{AnnualReturn: 12.346, Risk: 18.2, SharpeRatio: 0.4037, MaxDrawdown: -22.5}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt([]finance.SelectedAsset{
		{Asset: finance.Asset{Symbol: "AAPL", Name: "Apple Inc."}, Weight: 60},
		{Asset: finance.Asset{Symbol: "MSFT"}, Weight: 40.5},
	}, sampleSummary)

	assert.Contains(t, p, "Apple Inc. (AAPL): 60%")
	assert.Contains(t, p, "MSFT (MSFT): 40.5%")
	assert.Contains(t, p, "- Annual Return: 12.35%")
	assert.Contains(t, p, "- Sharpe Ratio: 0.40")
	assert.Contains(t, p, "- Maximum Drawdown: -22.50%")
	assert.Contains(t, p, "250-300 words")
	assert.NotContains(t, p, "Indian market")
}

func TestBuildPromptIndianNote(t *testing.T) {
	p := BuildPrompt([]finance.SelectedAsset{{Asset: finance.Asset{Symbol: "tcs.ns", Name: "TCS"}, Weight: 100}}, sampleSummary)
	assert.Contains(t, p, "Indian market")
}

func TestLLMInsights(t *testing.T) {
	m := &stubModel{reply: "Solid portfolio."}
	g := NewLLM(m, zerolog.Nop())
	out, err := g.Insights(context.Background(), nil, sampleSummary)
	require.NoError(t, err)
	assert.Equal(t, "Solid portfolio.", out)
	assert.Equal(t, systemPrompt, m.system)
	assert.Equal(t, "stub", g.Provider())

	m.err = errors.New("rate limited")
	_, err = g.Insights(context.Background(), nil, sampleSummary)
	require.ErrorIs(t, err, m.err)
}

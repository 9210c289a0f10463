package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"portfolioAnalyzer/internal/charts"
	"portfolioAnalyzer/internal/finance"
	"portfolioAnalyzer/internal/insights"
	"portfolioAnalyzer/internal/marketdata"
)

var (
	// /analyze SYM W SYM W ... START END
	reAnalyze = regexp.MustCompile(`^/analyze(?:@[\w_]+)?\s+(.+)$`)
	// /insights SYM W ... START END
	reInsights = regexp.MustCompile(`^/insights(?:@[\w_]+)?\s+(.+)$`)
	// /search QUERY
	reSearch = regexp.MustCompile(`^/search(?:@[\w_]+)?\s+(.+)$`)
	reHelp   = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

const requestTimeout = 90 * time.Second

// Sender is the slice of the Bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// HistoryRecorder stores search queries per user.
type HistoryRecorder interface {
	SaveSearchQuery(ctx context.Context, userID, query string) error
}

// Deps are the services the chat commands run against. Insights may be nil.
type Deps struct {
	Analyzer *finance.Analyzer
	Searcher marketdata.Searcher
	History  HistoryRecorder
	Charts   *charts.Renderer
	Insights insights.Generator
}

type Handlers struct {
	api  Sender
	deps Deps
	log  zerolog.Logger
}

func NewHandlers(api Sender, deps Deps, log zerolog.Logger) *Handlers {
	if deps.Charts == nil {
		deps.Charts = charts.NewRenderer()
	}
	return &Handlers{api: api, deps: deps, log: log.With().Str("component", "telegram").Logger()}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	txt := strings.TrimSpace(m.Text)
	switch {
	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)

	case reAnalyze.MatchString(txt):
		g := reAnalyze.FindStringSubmatch(txt)
		h.handleAnalyze(ctx, m.Chat.ID, strings.Fields(g[1]))

	case reInsights.MatchString(txt):
		g := reInsights.FindStringSubmatch(txt)
		h.handleInsights(ctx, m.Chat.ID, strings.Fields(g[1]))

	case reSearch.MatchString(txt):
		g := reSearch.FindStringSubmatch(txt)
		user := ""
		if m.From != nil {
			user = fmt.Sprintf("tg:%d", m.From.ID)
		}
		h.handleSearch(ctx, m.Chat.ID, user, strings.TrimSpace(g[1]))
	}
}

// parseAnalyzeArgs splits "SYM W ... START END" into a validated selection
// and date range.
func parseAnalyzeArgs(args []string) ([]finance.SelectedAsset, finance.DateRange, error) {
	if len(args) < 4 {
		return nil, finance.DateRange{}, errors.New("usage: /analyze SYM WEIGHT [SYM WEIGHT ...] START END")
	}
	dr := finance.DateRange{StartDate: args[len(args)-2], EndDate: args[len(args)-1]}
	if err := finance.ValidateDateRange(dr); err != nil {
		return nil, dr, err
	}
	assets, err := finance.ParseWeightedPortfolio(args[:len(args)-2])
	if err != nil {
		return nil, dr, err
	}
	if err := finance.ValidateSelection(assets); err != nil {
		return nil, dr, err
	}
	return assets, dr, nil
}

func (h *Handlers) handleAnalyze(ctx context.Context, chatID int64, args []string) {
	assets, dr, err := parseAnalyzeArgs(args)
	if err != nil {
		h.reply(chatID, err.Error()+"\nExample: /analyze SPY 60 TLT 40 2023-01-01 2024-01-01")
		return
	}
	h.reply(chatID, fmt.Sprintf("Analyzing %d assets from %s to %s…", len(assets), dr.StartDate, dr.EndDate))

	resp, err := h.deps.Analyzer.Analyze(ctx, assets, dr)
	if err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("analysis failed")
		h.reply(chatID, "Analysis failed: "+err.Error())
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatReport(resp, dr, h.deps.Analyzer.Benchmark()))
	msg.ParseMode = "Markdown"
	h.send(msg)

	img, err := h.deps.Charts.PerformancePNG(resp, h.deps.Analyzer.Benchmark())
	if err != nil {
		h.log.Warn().Err(err).Msg("performance chart failed")
		return
	}
	syms := make([]string, 0, len(assets))
	for _, a := range assets {
		syms = append(syms, a.Symbol)
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: strings.Join(syms, "_") + "_portfolio.png", Bytes: img})
	photo.Caption = "Portfolio vs " + h.deps.Analyzer.Benchmark() + " • " + dr.StartDate + " → " + dr.EndDate
	h.send(photo)
}

func (h *Handlers) handleInsights(ctx context.Context, chatID int64, args []string) {
	if h.deps.Insights == nil {
		h.reply(chatID, "Insights are not configured on this bot.")
		return
	}
	assets, dr, err := parseAnalyzeArgs(args)
	if err != nil {
		h.reply(chatID, strings.Replace(err.Error(), "/analyze", "/insights", 1))
		return
	}
	resp, err := h.deps.Analyzer.Analyze(ctx, assets, dr)
	if err != nil {
		h.reply(chatID, "Analysis failed: "+err.Error())
		return
	}
	text, err := h.deps.Insights.Insights(ctx, assets, resp.Summary)
	if err != nil {
		h.reply(chatID, "Insights failed: "+err.Error())
		return
	}
	h.reply(chatID, text)
}

func (h *Handlers) handleSearch(ctx context.Context, chatID int64, user, query string) {
	if len([]rune(query)) < 2 {
		h.reply(chatID, "Search query must be at least 2 characters.")
		return
	}
	res, err := h.deps.Searcher.Search(ctx, query)
	if err != nil {
		h.reply(chatID, "Search failed: "+err.Error())
		return
	}
	if user != "" && h.deps.History != nil {
		if err := h.deps.History.SaveSearchQuery(ctx, user, query); err != nil {
			h.log.Warn().Err(err).Str("user", user).Msg("failed to record search")
		}
	}
	h.reply(chatID, formatSearch(query, res))
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /analyze SYM WEIGHT [SYM WEIGHT ...] START END - Analyze a weighted portfolio (weights sum to 100, dates YYYY-MM-DD)\n" +
		"- /insights SYM WEIGHT [...] START END - AI commentary on the same analysis\n" +
		"- /search QUERY - Find stocks, ETFs, crypto and indices\n" +
		"\nWeights may also be written SYM:WEIGHT. Example: /analyze AAPL 60 MSFT 40 2023-01-01 2024-01-01"
	h.reply(chatID, help)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Error().Err(err).Msg("telegram send failed")
	}
}

func formatReport(resp *finance.PortfolioAnalysisResponse, dr finance.DateRange, benchmark string) string {
	s := resp.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "*Portfolio analysis* (%s → %s)\n\n", dr.StartDate, dr.EndDate)
	fmt.Fprintf(&b, "Annual return: %.2f%%\nRisk: %.2f%%\nSharpe: %.2f\nMax drawdown: %.2f%%\n\n",
		s.AnnualReturn, s.Risk, s.SharpeRatio, s.MaxDrawdown)

	b.WriteString("```\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tW%\tRET%\tRISK%\tSHARPE\tCONTRIB%")
	for _, a := range resp.AssetPerformance {
		fmt.Fprintf(tw, "%s\t%.1f\t%.2f\t%.2f\t%.2f\t%.1f\n",
			a.Symbol, a.Weight, a.AnnualReturn, a.Risk, a.SharpeRatio, a.Contribution)
	}
	_ = tw.Flush()
	b.WriteString("```\n")

	ts := resp.TimeSeriesData
	if n := len(ts.PortfolioValues); n > 0 {
		fmt.Fprintf(&b, "\nPortfolio: 100 → %.2f", ts.PortfolioValues[n-1])
		if m := len(ts.BenchmarkValues); m > 0 {
			fmt.Fprintf(&b, " | %s: 100 → %.2f", benchmark, ts.BenchmarkValues[m-1])
		}
	}
	return b.String()
}

func formatSearch(query string, res finance.SearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q\n", query)
	groups := []struct {
		title  string
		assets []finance.Asset
	}{
		{"Stocks", res.Stocks}, {"ETFs", res.ETFs}, {"Crypto", res.Crypto}, {"Indices", res.Indices},
	}
	found := false
	for _, g := range groups {
		if len(g.assets) == 0 {
			continue
		}
		found = true
		fmt.Fprintf(&b, "\n%s\n", g.title)
		for i, a := range g.assets {
			if i == 5 {
				fmt.Fprintf(&b, "  … %d more\n", len(g.assets)-5)
				break
			}
			fmt.Fprintf(&b, "  %s - %s", a.Symbol, a.Name)
			if a.Exchange != "" {
				fmt.Fprintf(&b, " (%s)", a.Exchange)
			}
			b.WriteString("\n")
		}
	}
	if !found {
		b.WriteString("\nNo matches.")
	}
	return b.String()
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"portfolioAnalyzer/internal/charts"
	"portfolioAnalyzer/internal/finance"
	"portfolioAnalyzer/internal/insights"
	"portfolioAnalyzer/internal/storage"
)

const (
	userIDHeader   = "X-User-ID"
	anonymousUser  = "anonymous"
	minQueryLength = 2
	maxBodyBytes   = 1 << 20
)

var errBadRequest = errors.New("bad request")

type analysisRequest struct {
	Assets    []finance.SelectedAsset `json:"assets"`
	DateRange finance.DateRange       `json:"dateRange"`
}

type insightsRequest struct {
	Assets       []finance.SelectedAsset            `json:"assets"`
	AnalysisData *finance.PortfolioAnalysisResponse `json:"analysisData"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	source := s.prices.Name()
	message := "Using live market data"
	if strings.HasPrefix(source, "mock") {
		message = "Using simulated market data"
	} else if strings.HasPrefix(source, "gemini") {
		message = "Using AI-generated market data"
	}
	provider := ""
	if p, ok := s.insights.(interface{ Provider() string }); ok {
		provider = p.Provider()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"dataSource": source,
		"ready":      true,
		"message":    message,
		"insights":   map[string]any{"enabled": s.insights != nil, "provider": provider},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < minQueryLength {
		s.writeError(w, fmt.Errorf("%w: query must be at least %d characters", errBadRequest, minQueryLength))
		return
	}
	ctx := r.Context()

	res, err := s.searcher.Search(ctx, q)
	if err != nil {
		s.writeError(w, fmt.Errorf("search: %w", err))
		return
	}

	if user := r.Header.Get(userIDHeader); user != "" {
		if err := s.store.SaveSearchQuery(ctx, user, q); err != nil {
			s.log.Warn().Err(err).Str("user", user).Msg("failed to record search")
		}
	}
	if err := s.store.UpsertAssets(ctx, res.All()); err != nil {
		s.log.Warn().Err(err).Msg("failed to update asset catalog")
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get(userIDHeader)
	if user == "" {
		s.writeJSON(w, http.StatusOK, []storage.SearchEntry{})
		return
	}
	h, err := s.store.SearchHistory(r.Context(), user, 10)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var symbols []string
	for _, sym := range strings.Split(q.Get("symbols"), ",") {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		s.writeError(w, fmt.Errorf("%w: symbols is required", errBadRequest))
		return
	}
	dr := finance.DateRange{StartDate: q.Get("startDate"), EndDate: q.Get("endDate")}
	if err := finance.ValidateDateRange(dr); err != nil {
		s.writeError(w, err)
		return
	}

	series, err := s.prices.FetchPriceSeries(r.Context(), symbols, dr)
	if err != nil {
		s.writeError(w, fmt.Errorf("fetch price series: %w", err))
		return
	}
	if series == nil {
		series = []finance.PriceSeries{}
	}
	s.writeJSON(w, http.StatusOK, series)
}

// handleAsset serves a catalog entry recorded by earlier searches.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	a, err := s.store.Asset(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.analyzeBody(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePerformanceChart(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.analyzeBody(w, r)
	if !ok {
		return
	}
	img, err := s.charts.PerformancePNG(resp, s.analyzer.Benchmark())
	s.writePNG(w, img, err)
}

func (s *Server) handleRiskReturnChart(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.analyzeBody(w, r)
	if !ok {
		return
	}
	img, err := s.charts.RiskReturnPNG(resp)
	s.writePNG(w, img, err)
}

// analyzeBody decodes and validates an analysis request and runs it. On
// failure the error response has already been written.
func (s *Server) analyzeBody(w http.ResponseWriter, r *http.Request) (*finance.PortfolioAnalysisResponse, bool) {
	var req analysisRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return s.runAnalysis(w, r, req.Assets, req.DateRange)
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, assets []finance.SelectedAsset, dr finance.DateRange) (*finance.PortfolioAnalysisResponse, bool) {
	if err := finance.ValidateSelection(assets); err != nil {
		s.writeError(w, err)
		return nil, false
	}
	if err := finance.ValidateDateRange(dr); err != nil {
		s.writeError(w, err)
		return nil, false
	}
	resp, err := s.analyzer.Analyze(r.Context(), assets, dr)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return resp, true
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		s.writeError(w, insights.ErrNotConfigured)
		return
	}
	var req insightsRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Assets) == 0 || req.AnalysisData == nil {
		s.writeError(w, fmt.Errorf("%w: assets and analysisData are required", errBadRequest))
		return
	}
	text, err := s.insights.Insights(r.Context(), req.Assets, req.AnalysisData.Summary)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"insights": text})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) writePNG(w http.ResponseWriter, img []byte, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError maps err onto a status code and writes {"error","details"}.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, map[string]string{
		"error":   message,
		"details": err.Error(),
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, finance.ErrNoAssets),
		errors.Is(err, finance.ErrWeightsSum),
		errors.Is(err, finance.ErrWeightRange),
		errors.Is(err, finance.ErrDateRange):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, finance.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "Insufficient price data"
	case errors.Is(err, insights.ErrNotConfigured):
		return http.StatusNotImplemented, "Insights are not configured"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, charts.ErrNoData):
		return http.StatusUnprocessableEntity, "Not enough data to chart"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

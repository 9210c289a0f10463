// Package server exposes the analyzer, search and saved portfolios over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"portfolioAnalyzer/internal/charts"
	"portfolioAnalyzer/internal/finance"
	"portfolioAnalyzer/internal/insights"
	"portfolioAnalyzer/internal/marketdata"
	"portfolioAnalyzer/internal/storage"
)

// Store is the persistence the handlers need.
type Store interface {
	SaveSearchQuery(ctx context.Context, userID, query string) error
	SearchHistory(ctx context.Context, userID string, limit int) ([]storage.SearchEntry, error)
	UpsertAssets(ctx context.Context, assets []finance.Asset) error
	Asset(ctx context.Context, symbol string) (*finance.Asset, error)
	SavePortfolio(ctx context.Context, userID, name string, assets []finance.SelectedAsset) (*storage.Portfolio, error)
	UserPortfolios(ctx context.Context, userID string) ([]storage.Portfolio, error)
	Portfolio(ctx context.Context, id string) (*storage.Portfolio, error)
	DeletePortfolio(ctx context.Context, id string) error
}

// Config holds server dependencies. Insights and Webhook may be nil.
type Config struct {
	Port     string
	Log      zerolog.Logger
	Analyzer *finance.Analyzer
	Prices   marketdata.Provider
	Searcher marketdata.Searcher
	Store    Store
	Insights insights.Generator
	Charts   *charts.Renderer
	Webhook  http.HandlerFunc
}

type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	port     string
	analyzer *finance.Analyzer
	prices   marketdata.Provider
	searcher marketdata.Searcher
	store    Store
	insights insights.Generator
	charts   *charts.Renderer
	webhook  http.HandlerFunc
}

func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		port:     cfg.Port,
		analyzer: cfg.Analyzer,
		prices:   cfg.Prices,
		searcher: cfg.Searcher,
		store:    cfg.Store,
		insights: cfg.Insights,
		charts:   cfg.Charts,
		webhook:  cfg.Webhook,
	}
	if s.charts == nil {
		s.charts = charts.NewRenderer()
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", userIDHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.webhook != nil {
		s.router.Post("/telegram/webhook", s.webhook)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/search", s.handleSearch)
		r.Get("/history", s.handleHistory)
		r.Get("/assets", s.handleAssets)
		r.Get("/assets/{symbol}", s.handleAsset)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/insights", s.handleInsights)

		r.Route("/charts", func(r chi.Router) {
			r.Post("/performance", s.handlePerformanceChart)
			r.Post("/risk-return", s.handleRiskReturnChart)
		})

		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", s.handleListPortfolios)
			r.Post("/", s.handleCreatePortfolio)
			r.Get("/{id}", s.handleGetPortfolio)
			r.Delete("/{id}", s.handleDeletePortfolio)
			r.Post("/{id}/analyze", s.handleAnalyzePortfolio)
		})
	})
}

func (s *Server) Start() error {
	s.log.Info().Str("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"portfolioAnalyzer/internal/charts"
	"portfolioAnalyzer/internal/config"
	"portfolioAnalyzer/internal/finance"
	"portfolioAnalyzer/internal/logger"
	"portfolioAnalyzer/internal/scheduler"
	"portfolioAnalyzer/internal/server"
	"portfolioAnalyzer/internal/storage"
	"portfolioAnalyzer/internal/telegram"
)

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API, housekeeping jobs and the Telegram webhook" }
func (*serveCmd) Usage() string {
	return `portfolio serve

  Starts the REST API on PORT. Configuration comes from .env, CONFIG_FILE and
  the environment.
`
}

func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Error().Err(err).Msg("invalid configuration")
		return subcommands.ExitUsageError
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.InitSchema(ctx, db); err != nil {
		return err
	}
	store := storage.NewStore(db)
	log.Info().Str("path", cfg.DBPath).Msg("db: schema ensured")

	prices, searcher, err := buildMarketData(ctx, cfg, cfg.PriceSource, store, log)
	if err != nil {
		return err
	}
	gen, err := buildInsights(ctx, cfg, log)
	if err != nil {
		return err
	}
	analyzer := finance.NewAnalyzer(prices, log, finance.WithBenchmark(cfg.Benchmark))
	renderer := charts.NewRenderer()

	srvCfg := server.Config{
		Port:     cfg.Port,
		Log:      log,
		Analyzer: analyzer,
		Prices:   prices,
		Searcher: searcher,
		Store:    store,
		Insights: gen,
		Charts:   renderer,
	}
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, telegram.Deps{
			Analyzer: analyzer,
			Searcher: searcher,
			History:  store,
			Charts:   renderer,
			Insights: gen,
		}, log)
		if err != nil {
			return err
		}
		srvCfg.Webhook = bot.WebhookHandler
	}

	sched := scheduler.New(log)
	for _, task := range scheduler.Housekeeping(store, cfg.PriceCacheTTL, cfg.HistoryRetention) {
		if err := sched.Add(task); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(srvCfg)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	log.Info().
		Str("source", prices.Name()).
		Str("benchmark", analyzer.Benchmark()).
		Bool("insights", gen != nil).
		Bool("telegram", cfg.TelegramEnabled()).
		Msg("portfolio analyzer ready")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SourceYahoo  = "yahoo"
	SourceMock   = "mock"
	SourceGemini = "gemini"

	InsightsOpenAI = "openai"
	InsightsGemini = "gemini"
)

type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	PriceSource      string        `yaml:"price_source"`
	Benchmark        string        `yaml:"benchmark_symbol"`
	FetchConcurrency int           `yaml:"fetch_concurrency"`
	PriceCacheTTL    time.Duration `yaml:"price_cache_ttl"`
	HistoryRetention time.Duration `yaml:"history_retention"`

	InsightsProvider string `yaml:"insights_provider"`
	OpenAIKey        string `yaml:"openai_api_key"`
	OpenAIModel      string `yaml:"openai_model"`
	GeminiKey        string `yaml:"gemini_api_key"`
	GeminiModel      string `yaml:"gemini_model"`

	TelegramToken    string `yaml:"telegram_bot_token"`
	WebhookPublicURL string `yaml:"webhook_public_url"`
}

func defaults() Config {
	return Config{
		Port:             "9095",
		DBPath:           "./data/portfolio.db",
		LogLevel:         "info",
		PriceSource:      SourceYahoo,
		Benchmark:        "SPY",
		FetchConcurrency: 4,
		PriceCacheTTL:    6 * time.Hour,
		HistoryRetention: 30 * 24 * time.Hour,
		OpenAIModel:      "gpt-4",
		GeminiModel:      "gemini-1.5-pro",
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then environment variables, each layer overriding the previous one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.DBPath, "DB_PATH")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.PriceSource, "PRICE_SOURCE")
	setString(&cfg.Benchmark, "BENCHMARK_SYMBOL")
	setString(&cfg.InsightsProvider, "INSIGHTS_PROVIDER")
	setString(&cfg.OpenAIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAIModel, "OPENAI_MODEL")
	setString(&cfg.GeminiKey, "GEMINI_API_KEY")
	setString(&cfg.GeminiModel, "GEMINI_MODEL")
	setString(&cfg.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.WebhookPublicURL, "WEBHOOK_PUBLIC_URL")

	if v := os.Getenv("LOG_PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		cfg.LogPretty = b
	}
	if v := os.Getenv("FETCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FETCH_CONCURRENCY: %w", err)
		}
		cfg.FetchConcurrency = n
	}
	for key, dst := range map[string]*time.Duration{
		"PRICE_CACHE_TTL":   &cfg.PriceCacheTTL,
		"HISTORY_RETENTION": &cfg.HistoryRetention,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate rejects combinations that cannot start.
func (c *Config) Validate() error {
	switch c.PriceSource {
	case SourceYahoo, SourceMock:
	case SourceGemini:
		if c.GeminiKey == "" {
			return fmt.Errorf("price source %q requires GEMINI_API_KEY", c.PriceSource)
		}
	default:
		return fmt.Errorf("unknown price source %q (want yahoo, mock or gemini)", c.PriceSource)
	}

	switch c.InsightsProvider {
	case "":
	case InsightsOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("insights provider openai requires OPENAI_API_KEY")
		}
	case InsightsGemini:
		if c.GeminiKey == "" {
			return fmt.Errorf("insights provider gemini requires GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown insights provider %q", c.InsightsProvider)
	}

	if c.TelegramToken != "" && c.WebhookPublicURL == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is set but WEBHOOK_PUBLIC_URL is missing")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("fetch concurrency must be at least 1, got %d", c.FetchConcurrency)
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	return nil
}

// Insights returns the configured insight backend, picking one from the
// available keys when none is set explicitly. Empty means disabled.
func (c *Config) Insights() string {
	if c.InsightsProvider != "" {
		return c.InsightsProvider
	}
	switch {
	case c.OpenAIKey != "":
		return InsightsOpenAI
	case c.GeminiKey != "":
		return InsightsGemini
	}
	return ""
}

// TelegramEnabled reports whether the bot should be started.
func (c *Config) TelegramEnabled() bool { return c.TelegramToken != "" }

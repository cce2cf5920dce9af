package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultEnv                   = "development"
	defaultLogLevel              = "info"
	defaultHTTPHost              = "0.0.0.0"
	defaultHTTPPort              = 8080
	defaultSearchURL             = "https://query2.finance.yahoo.com/v1/finance/search"
	defaultChartURL              = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultUserAgent             = "Mozilla/5.0"
	defaultRequestTimeoutSeconds = 5
	defaultAcceptedExchanges     = "NSI,BSE"
	defaultHistoryRange          = "2d"
	defaultResolveWorkers        = 20
	defaultFetchWorkers          = 15
	defaultRedisDB               = 0
	defaultCacheTTLSeconds       = 30
	defaultSymbolCacheTTLSeconds = 86400
	defaultQuotesExchange        = "marketdata.quotes"
	defaultMasterCSV             = "Master.csv"
	defaultTickersCSV            = "Yahoo_Tickers.csv"
	defaultOutputDir             = "."
)

var (
	errNoExchanges     = errors.New("ACCEPTED_EXCHANGES must list at least one exchange")
	errTimeoutNotValid = errors.New("REQUEST_TIMEOUT_SECONDS must be positive")
)

// Config keeps the runtime configuration for both binaries.
type Config struct {
	Env      string
	LogLevel logrus.Level
	HTTP     HTTPConfig
	Yahoo    YahooConfig
	Pipeline PipelineConfig
	Redis    RedisConfig
	Cache    CacheConfig
	RabbitMQ RabbitMQConfig
	Files    FilesConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// YahooConfig points the market data client at its endpoints.
type YahooConfig struct {
	SearchURL string
	ChartURL  string
	UserAgent string
	Timeout   time.Duration
}

// PipelineConfig controls both stages.
type PipelineConfig struct {
	AcceptedExchanges []string
	HistoryRange      string
	ResolveWorkers    int
	FetchWorkers      int
}

// RedisConfig stores Redis connection parameters. An empty Addr disables
// caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTL       time.Duration
	SymbolTTL time.Duration
}

// RabbitMQConfig stores publisher settings. An empty URL disables
// publication.
type RabbitMQConfig struct {
	URL            string
	QuotesExchange string
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

// FilesConfig locates the fetcher's input and output files.
type FilesConfig struct {
	MasterCSV      string
	TickersCSV     string
	OutputDir      string
	RefreshTickers bool
}

// Load builds Config from environment variables.
func Load() (*Config, error) {
	level, err := logrus.ParseLevel(getString("LOG_LEVEL", defaultLogLevel))
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	timeout, err := getSeconds("REQUEST_TIMEOUT_SECONDS", defaultRequestTimeoutSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse REQUEST_TIMEOUT_SECONDS: %w", err)
	}
	if timeout <= 0 {
		return nil, errTimeoutNotValid
	}

	exchanges := getList("ACCEPTED_EXCHANGES", defaultAcceptedExchanges)
	if len(exchanges) == 0 {
		return nil, errNoExchanges
	}

	resolveWorkers, err := getInt("RESOLVE_WORKERS", defaultResolveWorkers)
	if err != nil {
		return nil, fmt.Errorf("parse RESOLVE_WORKERS: %w", err)
	}
	fetchWorkers, err := getInt("FETCH_WORKERS", defaultFetchWorkers)
	if err != nil {
		return nil, fmt.Errorf("parse FETCH_WORKERS: %w", err)
	}
	if resolveWorkers <= 0 || fetchWorkers <= 0 {
		return nil, fmt.Errorf("worker counts must be positive: resolve=%d fetch=%d", resolveWorkers, fetchWorkers)
	}

	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	cacheTTL, err := getSeconds("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	}
	symbolTTL, err := getSeconds("SYMBOL_CACHE_TTL_SECONDS", defaultSymbolCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse SYMBOL_CACHE_TTL_SECONDS: %w", err)
	}

	refresh, err := getBool("REFRESH_TICKERS", false)
	if err != nil {
		return nil, fmt.Errorf("parse REFRESH_TICKERS: %w", err)
	}

	return &Config{
		Env:      getString("APP_ENV", defaultEnv),
		LogLevel: level,
		HTTP:     HTTPConfig{Host: getString("HTTP_HOST", defaultHTTPHost), Port: port},
		Yahoo: YahooConfig{
			SearchURL: getString("YAHOO_SEARCH_URL", defaultSearchURL),
			ChartURL:  getString("YAHOO_CHART_URL", defaultChartURL),
			UserAgent: getString("YAHOO_USER_AGENT", defaultUserAgent),
			Timeout:   timeout,
		},
		Pipeline: PipelineConfig{
			AcceptedExchanges: exchanges,
			HistoryRange:      getString("HISTORY_RANGE", defaultHistoryRange),
			ResolveWorkers:    resolveWorkers,
			FetchWorkers:      fetchWorkers,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTL:       cacheTTL,
			SymbolTTL: symbolTTL,
		},
		RabbitMQ: RabbitMQConfig{
			URL:            os.Getenv("RABBITMQ_URL"),
			QuotesExchange: getString("RABBITMQ_QUOTES_EXCHANGE", defaultQuotesExchange),
		},
		Files: FilesConfig{
			MasterCSV:      getString("MASTER_CSV", defaultMasterCSV),
			TickersCSV:     getString("TICKERS_CSV", defaultTickersCSV),
			OutputDir:      getString("OUTPUT_DIR", defaultOutputDir),
			RefreshTickers: refresh,
		},
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("convert %s value %q to bool: %w", key, value, err)
	}
	return parsed, nil
}

func getSeconds(key string, fallback int) (time.Duration, error) {
	secs, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// getList splits a comma separated value, dropping blanks. Entries are
// upper-cased.
func getList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getString(key, fallback), ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

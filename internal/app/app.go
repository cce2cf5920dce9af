package app

import (
	"context"
	"fmt"
	"os"

	"marketquotes/internal/application/service/pipeline"
	"marketquotes/internal/application/service/quotes"
	"marketquotes/internal/application/service/symbols"
	"marketquotes/internal/config"
	"marketquotes/internal/infrastructure/cache"
	"marketquotes/internal/infrastructure/yahoo"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Services is the wired application graph shared by the binaries.
type Services struct {
	Symbols  *symbols.Service
	Quotes   *quotes.Service
	Pipeline *pipeline.Service
}

func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(cfg.LogLevel)
	return logger
}

// OpenRedis connects when Redis is configured. It returns a nil client when
// it is not.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewServices builds both pipeline stages on one Yahoo client. A nil
// redisClient disables the symbol cache.
func NewServices(cfg *config.Config, redisClient *redis.Client, logger *logrus.Logger) *Services {
	entry := logrus.NewEntry(logger).WithField("env", cfg.Env)

	client := yahoo.NewClient(
		yahoo.WithSearchURL(cfg.Yahoo.SearchURL),
		yahoo.WithChartURL(cfg.Yahoo.ChartURL),
		yahoo.WithUserAgent(cfg.Yahoo.UserAgent),
		yahoo.WithTimeout(cfg.Yahoo.Timeout),
		yahoo.WithLogger(entry),
	)

	symbolOpts := []symbols.Option{symbols.WithExchanges(cfg.Pipeline.AcceptedExchanges...)}
	if redisClient != nil {
		symbolOpts = append(symbolOpts, symbols.WithCache(cache.NewSymbolCache(redisClient, cfg.Cache.SymbolTTL)))
	}
	symbolService := symbols.NewService(client, entry, symbolOpts...)
	quoteService := quotes.NewService(client, entry, quotes.WithHistoryRange(cfg.Pipeline.HistoryRange))

	return &Services{
		Symbols: symbolService,
		Quotes:  quoteService,
		Pipeline: pipeline.NewService(symbolService, quoteService, entry,
			pipeline.WithWorkers(cfg.Pipeline.ResolveWorkers, cfg.Pipeline.FetchWorkers),
		),
	}
}

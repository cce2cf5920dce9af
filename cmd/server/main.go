package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"marketquotes/internal/app"
	"marketquotes/internal/config"
	"marketquotes/internal/infrastructure/broker"
	infrahttp "marketquotes/internal/interfaces/http"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := app.NewLogger(cfg)
	if envErr != nil {
		logger.Debug("no .env file loaded")
	}

	redisClient, err := app.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("failed to init redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	services := app.NewServices(cfg, redisClient, logger)

	opts := []infrahttp.Option{infrahttp.WithLogger(logrus.NewEntry(logger))}
	if redisClient != nil {
		opts = append(opts, infrahttp.WithCache(redisClient, cfg.Cache.TTL))
	}
	if cfg.RabbitMQ.Enabled() {
		pub, err := broker.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.QuotesExchange, logrus.NewEntry(logger))
		if err != nil {
			logger.Fatalf("failed to init publisher: %v", err)
		}
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Errorf("close publisher: %v", err)
			}
		}()
		opts = append(opts, infrahttp.WithPublisher(pub))
	}

	handler := infrahttp.NewHandler(services.Symbols, services.Quotes, services.Pipeline, opts...)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.HTTP.Addr(),
			"redis":  redisClient != nil,
			"rabbit": cfg.RabbitMQ.Enabled(),
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}

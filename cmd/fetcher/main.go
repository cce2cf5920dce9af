package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"marketquotes/internal/app"
	"marketquotes/internal/config"
	"marketquotes/internal/infrastructure/broker"
	"marketquotes/internal/infrastructure/tabular"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("fetcher stopped with error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	companies, err := tabular.LoadCompaniesFile(cfg.Files.MasterCSV)
	if err != nil {
		return err
	}
	logger.WithField("companies", len(companies)).Infof("loaded %s", cfg.Files.MasterCSV)

	redisClient, err := app.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	services := app.NewServices(cfg, redisClient, logger)

	report, err := app.ProduceReport(ctx, cfg.Files, services.Pipeline, companies, logger)
	if err != nil {
		return err
	}

	out := filepath.Join(cfg.Files.OutputDir, tabular.WorkbookName(report.StartedAt))
	if err := tabular.WriteWorkbookFile(out, report.Quotes); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"run_id": report.RunID,
		"file":   out,
		"rows":   len(report.Quotes),
	}).Info("workbook written")

	if cfg.RabbitMQ.Enabled() {
		pub, err := broker.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.QuotesExchange, logrus.NewEntry(logger))
		if err != nil {
			return fmt.Errorf("init publisher: %w", err)
		}
		pubErr := pub.PublishQuotes(ctx, report.RunID, report.Quotes)
		return errors.Join(pubErr, pub.Close())
	}
	return nil
}

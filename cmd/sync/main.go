package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/reforestamx/kobo-portal-etl/internal/adapter/file"
	"github.com/reforestamx/kobo-portal-etl/internal/adapter/kobo"
	"github.com/reforestamx/kobo-portal-etl/internal/config"
	"github.com/reforestamx/kobo-portal-etl/internal/observability"
	"github.com/reforestamx/kobo-portal-etl/internal/pipeline"
)

const pushTimeout = 10 * time.Second

func main() {
	// Optional .env for local runs; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	client := kobo.NewClient(cfg, logger, metrics)
	writer := file.NewWriter(cfg, logger)
	p := pipeline.New(client, writer, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("sync failed", "error", runErr)
		metrics.RunSuccess.Set(0)
	} else {
		metrics.RunSuccess.Set(1)
	}
	metrics.LastRunEpoch.SetToCurrentTime()

	// One-shot jobs cannot be scraped, so deliver the run's metrics to the
	// Pushgateway when one is configured.
	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		if err := observability.PushMetrics(pushCtx, cfg.PushgatewayURL, cfg.PushgatewayJob); err != nil {
			logger.Error("failed to push metrics", "gateway", cfg.PushgatewayURL, "error", err)
		}
		cancel()
	}

	if runErr != nil {
		os.Exit(1)
	}
}

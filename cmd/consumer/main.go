package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/mindtrack/config"
	"github.com/spacesedan/mindtrack/internal/app"
	"github.com/spacesedan/mindtrack/internal/consumers"
	"github.com/spacesedan/mindtrack/internal/logging"
	"github.com/spacesedan/mindtrack/internal/metrics"
)

const SOURCE_RETRY_DELAY = 5 * time.Second

func main() {
	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)
	metrics.Init("mindtrack-timeline-archiver", "1.0.0", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := app.OpenRepository(ctx, cfg.Storage)
	if err != nil {
		slog.Error("[Main] Failed to open timeline repository",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepo(context.Background())

	for {
		source, closeSource, err := app.OpenSource(ctx, cfg.Events)
		if err != nil {
			slog.Warn("[Main] Event source unavailable, retrying...",
				slog.String("driver", cfg.Events.Driver),
				slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(SOURCE_RETRY_DELAY):
				continue
			}
		}

		archiver := consumers.NewArchiver(source, repo, cfg.Events.BatchSize, cfg.Events.BatchTimeout)
		err = archiver.Run(ctx)
		_ = source.Close()
		closeSource()

		switch {
		case ctx.Err() != nil:
			slog.Info("[Main] Timeline archiver stopped")
			return
		case errors.Is(err, consumers.ErrSourceClosed):
			slog.Warn("[Main] Event source closed, reconnecting...")
		case err != nil:
			slog.Error("[Main] Timeline archiver failed",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}

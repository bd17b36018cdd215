package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spacesedan/mindtrack/config"
	"github.com/spacesedan/mindtrack/internal/api"
	"github.com/spacesedan/mindtrack/internal/app"
	"github.com/spacesedan/mindtrack/internal/logging"
	"github.com/spacesedan/mindtrack/internal/metrics"
)

func main() {
	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)
	metrics.Init(api.SERVICE_NAME, api.SERVICE_VERSION, cfg.Env)
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Failed to start MindTrack",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	application.Start(ctx)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: application.Router(),
	}

	go func() {
		slog.Info("[Main] Starting MindTrack API server",
			slog.String("addr", cfg.Server.Addr),
			slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] Failed to start server",
				slog.String("error", err.Error()))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("[Main] Shutting down MindTrack API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Server forced to shutdown",
			slog.String("error", err.Error()))
	}

	cancel()
	application.Close(shutdownCtx)
	slog.Info("[Main] MindTrack API server exited")
}

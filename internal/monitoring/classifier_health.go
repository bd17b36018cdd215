package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/mindtrack/internal/metrics"
)

const HEALTHCHECK_TIMER = 15 * time.Second

// HealthChecker is satisfied by clients.InferenceClient.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// MonitorClassifierHealth polls checker every interval until ctx is done,
// storing the result in healthy and the classifier gauge.
func MonitorClassifierHealth(ctx context.Context, checker HealthChecker, interval time.Duration, healthy *atomic.Bool) {
	if interval <= 0 {
		interval = HEALTHCHECK_TIMER
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	record := func() {
		isHealthy := checker.HealthCheck(ctx)
		if isHealthy {
			metrics.ClassifierHealthy.Set(1)
		} else {
			metrics.ClassifierHealthy.Set(0)
		}

		was := healthy.Swap(isHealthy)
		switch {
		case !isHealthy:
			slog.Warn("[HealthCheck] Classifier is unhealthy")
		case !was:
			slog.Info("[HealthCheck] Classifier is healthy")
		}
	}

	record()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			record()
		}
	}
}

// Package app wires configuration into the MindTrack services shared by
// the API server, the timeline archiver and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/spacesedan/mindtrack/config"
	"github.com/spacesedan/mindtrack/internal/analysis"
	"github.com/spacesedan/mindtrack/internal/api"
	"github.com/spacesedan/mindtrack/internal/clients"
	"github.com/spacesedan/mindtrack/internal/db"
	"github.com/spacesedan/mindtrack/internal/events"
	"github.com/spacesedan/mindtrack/internal/extractors"
	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/monitoring"
	"github.com/spacesedan/mindtrack/internal/retention"
)

// App owns every long-lived dependency of the API server.
type App struct {
	Config     config.Config
	Analyzer   *analysis.Analyzer
	Extractor  *extractors.Service
	Repository db.Repository
	Publisher  events.Publisher

	healthChecker monitoring.HealthChecker
	healthy       *atomic.Bool
	pruner        *retention.Pruner
	closers       []func(context.Context)
}

// New builds the App. Unreachable optional services (cache, model) are
// logged and skipped; an unreachable repository or broker is an error.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg}

	lex, err := LoadLexicon(cfg)
	if err != nil {
		return nil, err
	}

	a.Analyzer = a.buildAnalyzer(lex)
	a.Extractor = a.buildExtractors()

	repo, closeRepo, err := OpenRepository(ctx, cfg.Storage)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Repository = repo
	a.closers = append(a.closers, closeRepo)

	publisher, err := OpenPublisher(cfg.Events)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Publisher = publisher
	a.closers = append(a.closers, func(context.Context) { publisher.Close() })

	if cfg.Retention.Days > 0 {
		pruner, err := retention.New(repo, cfg.Retention.Days, cfg.Retention.Schedule)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.pruner = pruner
	}

	return a, nil
}

// Router builds the HTTP surface over the App's services.
func (a *App) Router() *gin.Engine {
	return api.NewRouter(api.Options{
		Analyzer:      a.Analyzer,
		Extractor:     a.Extractor,
		Repository:    a.Repository,
		Publisher:     a.Publisher,
		ModelVersion:  a.Config.Classifier.ModelVersion,
		MinTextLength: a.Config.Server.MinTextLength,
		MaxTextLength: a.Config.Server.MaxTextLength,
		CORSOrigins:   a.Config.Server.CORSOrigins,
	})
}

// Start launches the background jobs: the classifier health monitor and
// the retention schedule. They stop with ctx and Close respectively.
func (a *App) Start(ctx context.Context) {
	if a.healthChecker != nil {
		go monitoring.MonitorClassifierHealth(ctx, a.healthChecker, a.Config.Classifier.HealthInterval, a.healthy)
	}
	if a.pruner != nil {
		a.pruner.Start()
	}
}

// Close releases everything New opened, in reverse order.
func (a *App) Close(ctx context.Context) {
	if a.pruner != nil {
		a.pruner.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}

// LoadLexicon reads the override file when one is configured and the
// embedded tables otherwise.
func LoadLexicon(cfg config.Config) (*lexicon.Lexicon, error) {
	if cfg.LexiconPath == "" {
		return lexicon.Default()
	}
	lex, err := lexicon.Load(cfg.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", cfg.LexiconPath, err)
	}
	slog.Info("[App] Loaded lexicon override", slog.String("path", cfg.LexiconPath))
	return lex, nil
}

func (a *App) buildAnalyzer(lex *lexicon.Lexicon) *analysis.Analyzer {
	setup := BuildClassifier(a.Config.Classifier)
	if setup.Close != nil {
		a.closers = append(a.closers, setup.Close)
	}
	a.healthChecker = setup.Checker
	a.healthy = setup.Healthy
	return NewAnalyzer(lex, setup, a.Config)
}

func (a *App) buildExtractors() *extractors.Service {
	svc := BuildExtractors(a.Config.Platforms)
	if a.Config.Cache.ValkeyAddr == "" {
		return svc
	}

	cache, err := clients.NewValkeyClient(clients.ValkeyOptions{
		Addr:     a.Config.Cache.ValkeyAddr,
		Password: a.Config.Cache.ValkeyPassword,
		TLS:      a.Config.Cache.ValkeyTLS,
	})
	if err != nil {
		slog.Warn("[App] Extraction cache unavailable, continuing without it",
			slog.String("addr", a.Config.Cache.ValkeyAddr),
			slog.String("error", err.Error()))
		return svc
	}
	a.closers = append(a.closers, func(context.Context) { cache.Close() })
	return svc.WithCache(cache, a.Config.Cache.TTL)
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spacesedan/mindtrack/config"
	"github.com/spacesedan/mindtrack/internal/analysis"
	"github.com/spacesedan/mindtrack/internal/clients"
	"github.com/spacesedan/mindtrack/internal/clients/kafka_client"
	"github.com/spacesedan/mindtrack/internal/consumers"
	"github.com/spacesedan/mindtrack/internal/db"
	"github.com/spacesedan/mindtrack/internal/events"
	"github.com/spacesedan/mindtrack/internal/extractors"
	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/monitoring"
	"github.com/spacesedan/mindtrack/internal/recommend"
	"github.com/spacesedan/mindtrack/internal/sentiment"
)

const (
	STRATEGY_KEYWORD = "keyword"
	STRATEGY_MODEL   = "model"
	STRATEGY_REMOTE  = "remote"

	REMOTE_CLASSIFIER_TIMEOUT = 30 * time.Second
)

// ClassifierSetup is the configured classification strategy. Checker and
// Healthy are set for the remote strategy only.
type ClassifierSetup struct {
	Classifier sentiment.Classifier
	Checker    monitoring.HealthChecker
	Healthy    *atomic.Bool
	Close      func(context.Context)
}

// BuildClassifier returns a nil Classifier for the keyword strategy, which
// the analyzer always has.
func BuildClassifier(cfg config.ClassifierConfig) ClassifierSetup {
	switch cfg.Strategy {
	case STRATEGY_KEYWORD, "":
		slog.Info("[App] Using keyword classifier")
		return ClassifierSetup{}

	case STRATEGY_MODEL:
		model := sentiment.NewModelClassifier(cfg.ModelPath)
		if err := model.Load(); err != nil {
			slog.Warn("[App] Model unavailable, requests will use keyword analysis",
				slog.String("path", cfg.ModelPath),
				slog.String("error", err.Error()))
		}
		return ClassifierSetup{
			Classifier: model,
			Close:      func(context.Context) { model.Close() },
		}

	case STRATEGY_REMOTE:
		if cfg.RemoteEndpoint == "" {
			slog.Warn("[App] CLASSIFIER_ENDPOINT not set, using keyword classifier")
			return ClassifierSetup{}
		}
		client := clients.NewInferenceClient(cfg.RemoteEndpoint, REMOTE_CLASSIFIER_TIMEOUT)
		healthy := &atomic.Bool{}
		healthy.Store(true)
		return ClassifierSetup{
			Classifier: sentiment.NewRemoteClassifier(client).WithHealth(healthy),
			Checker:    client,
			Healthy:    healthy,
		}
	}

	slog.Warn("[App] Unknown classifier strategy, using keyword classifier",
		slog.String("strategy", cfg.Strategy))
	return ClassifierSetup{}
}

// NewAnalyzer combines the classifier of setup with the configured
// override constants and recommender.
func NewAnalyzer(lex *lexicon.Lexicon, setup ClassifierSetup, cfg config.Config) *analysis.Analyzer {
	return analysis.NewAnalyzer(lex, setup.Classifier, OverrideParams(cfg.Classifier.Override), BuildRecommender(cfg.LLM, lex))
}

func OverrideParams(cfg config.OverrideConfig) sentiment.OverrideParams {
	return sentiment.OverrideParams{
		Threshold: cfg.Threshold,
		Base:      cfg.Base,
		Slope:     cfg.Slope,
		Min:       cfg.Min,
		Max:       cfg.Max,
	}
}

// BuildRecommender picks the LLM generator for cfg.Provider. Without a
// provider or its key the static tables are used.
func BuildRecommender(cfg config.LLMConfig, lex *lexicon.Lexicon) *recommend.Service {
	var generator recommend.Generator

	switch cfg.Provider {
	case "":
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			slog.Warn("[App] OPENAI_API_KEY not set, using static recommendations")
			break
		}
		generator = recommend.NewOpenAIGenerator(clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Timeout), cfg.Model)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			slog.Warn("[App] ANTHROPIC_API_KEY not set, using static recommendations")
			break
		}
		generator = recommend.NewAnthropicGenerator(clients.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Timeout), cfg.Model)
	default:
		slog.Warn("[App] Unknown LLM provider, using static recommendations",
			slog.String("provider", cfg.Provider))
	}

	return recommend.NewService(generator, lex, cfg.Timeout)
}

func BuildExtractors(cfg config.PlatformConfig) *extractors.Service {
	return extractors.NewService(extractors.Options{
		HTTPTimeout: cfg.HTTPTimeout,
		Twitter: extractors.TwitterOptions{
			BearerToken: cfg.TwitterBearerToken,
		},
		Reddit: extractors.RedditOptions{
			UserAgent:    cfg.RedditUserAgent,
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
		},
		Instagram: extractors.InstagramOptions{
			AppID:      cfg.MetaAppID,
			AppSecret:  cfg.MetaAppSecret,
			ApifyToken: cfg.ApifyToken,
		},
		Threads: extractors.ThreadsOptions{
			AccessToken: cfg.ThreadsAccessToken,
		},
		Facebook: extractors.FacebookOptions{
			AppID:       cfg.MetaAppID,
			AppSecret:   cfg.MetaAppSecret,
			AccessToken: cfg.FacebookAccessToken,
		},
	})
}

// OpenRepository connects the configured timeline backend. The returned
// repository records operation metrics.
func OpenRepository(ctx context.Context, cfg config.StorageConfig) (db.Repository, func(context.Context), error) {
	var (
		repo db.Repository
		err  error
	)

	switch cfg.Driver {
	case "sqlite", "":
		repo, err = db.NewSQLiteRepository(cfg.SQLitePath)
	case "mongo", "mongodb":
		repo, err = db.NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "dynamodb":
		var client db.DynamoAPI
		client, err = clients.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err == nil {
			repo = db.NewDynamoRepository(client, cfg.DynamoTable)
		}
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s repository: %w", cfg.Driver, err)
	}

	slog.Info("[App] Timeline repository ready", slog.String("driver", repo.Driver()))
	closer := func(ctx context.Context) {
		if err := repo.Close(ctx); err != nil {
			slog.Warn("[App] Failed to close repository",
				slog.String("driver", repo.Driver()),
				slog.String("error", err.Error()))
		}
	}
	return db.Instrument(repo), closer, nil
}

func kafkaConfig(cfg config.EventsConfig) kafka_client.KafkaConfig {
	return kafka_client.KafkaConfig{
		Broker:  cfg.KafkaBroker,
		GroupID: cfg.GroupID,
		Topic:   cfg.Topic,
	}
}

// OpenPublisher returns the analysis event publisher for cfg.Driver.
func OpenPublisher(cfg config.EventsConfig) (events.Publisher, error) {
	var publisher events.Publisher

	switch cfg.Driver {
	case "none", "":
		return events.Noop(), nil
	case "kafka":
		p, err := events.NewKafkaPublisher(kafkaConfig(cfg))
		if err != nil {
			return nil, err
		}
		publisher = p
	case "nats":
		conn, err := events.Connect(cfg.NATSURL, "mindtrack-api")
		if err != nil {
			return nil, err
		}
		publisher = events.NewNATSPublisher(conn, cfg.Topic)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}

	slog.Info("[App] Publishing analysis events",
		slog.String("driver", publisher.Driver()),
		slog.String("topic", cfg.Topic))
	return events.Instrument(publisher), nil
}

// OpenSource subscribes the archiver to the configured event stream.
func OpenSource(ctx context.Context, cfg config.EventsConfig) (consumers.Source, func(), error) {
	switch cfg.Driver {
	case "kafka":
		source, err := consumers.NewKafkaSource(ctx, kafkaConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		return source, func() {}, nil
	case "nats":
		conn, err := events.Connect(cfg.NATSURL, "mindtrack-timeline-archiver")
		if err != nil {
			return nil, nil, err
		}
		source, err := consumers.NewNATSSource(conn, cfg.Topic, cfg.GroupID)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return source, func() { _ = conn.Drain() }, nil
	}
	return nil, nil, fmt.Errorf("events driver %q has no event stream to consume", cfg.Driver)
}

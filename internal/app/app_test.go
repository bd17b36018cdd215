package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spacesedan/mindtrack/config"
	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/spacesedan/mindtrack/internal/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "mindtrack.db"))
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("EVENTS_DRIVER", "none")
	t.Setenv("CLASSIFIER_STRATEGY", "keyword")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("VALKEY_INIT_ADDRESS", "")
	t.Setenv("RETENTION_DAYS", "30")
	return config.Load()
}

func TestBuildClassifierStrategies(t *testing.T) {
	keyword := BuildClassifier(config.ClassifierConfig{Strategy: STRATEGY_KEYWORD})
	assert.Nil(t, keyword.Classifier)
	assert.Nil(t, keyword.Checker)

	unknown := BuildClassifier(config.ClassifierConfig{Strategy: "bert"})
	assert.Nil(t, unknown.Classifier)

	noEndpoint := BuildClassifier(config.ClassifierConfig{Strategy: STRATEGY_REMOTE})
	assert.Nil(t, noEndpoint.Classifier)

	remote := BuildClassifier(config.ClassifierConfig{Strategy: STRATEGY_REMOTE, RemoteEndpoint: "http://localhost:9/predict"})
	require.NotNil(t, remote.Classifier)
	assert.Equal(t, "remote", remote.Classifier.Name())
	assert.NotNil(t, remote.Checker)
	require.NotNil(t, remote.Healthy)
	assert.True(t, remote.Healthy.Load())

	model := BuildClassifier(config.ClassifierConfig{Strategy: STRATEGY_MODEL, ModelPath: filepath.Join(t.TempDir(), "missing")})
	require.NotNil(t, model.Classifier)
	assert.Equal(t, "model", model.Classifier.Name())
	require.NotNil(t, model.Close)
	model.Close(context.Background())
}

func TestBuildRecommenderWithoutKeyFallsBack(t *testing.T) {
	lex, err := lexicon.Default()
	require.NoError(t, err)

	for _, provider := range []string{"", "openai", "anthropic", "gemini"} {
		svc := BuildRecommender(config.LLMConfig{Provider: provider}, lex)
		out := svc.Recommend(context.Background(), recommend.Request{
			Context: models.EmotionContext{PrimaryEmotion: "anxiety", Emotions: []string{"anxiety"}},
		})
		assert.Equal(t, "static", out.Provider, provider)
	}
}

func TestOpenRepositoryAndPublisher(t *testing.T) {
	ctx := context.Background()

	repo, closeRepo, err := OpenRepository(ctx, config.StorageConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "t.db")})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", repo.Driver())
	closeRepo(ctx)

	_, _, err = OpenRepository(ctx, config.StorageConfig{Driver: "postgres"})
	assert.ErrorContains(t, err, "unknown storage driver")

	publisher, err := OpenPublisher(config.EventsConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Equal(t, "none", publisher.Driver())

	_, err = OpenPublisher(config.EventsConfig{Driver: "rabbitmq"})
	assert.Error(t, err)

	_, _, err = OpenSource(ctx, config.EventsConfig{Driver: "none"})
	assert.Error(t, err)
}

func TestNewServesRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, a.pruner)

	a.Start(ctx)
	defer a.Close(ctx)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Len(t, a.Extractor.Platforms(), 5)
	assert.Equal(t, "sqlite", a.Repository.Driver())
}

func TestNewRejectsBadRetentionSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retention.Schedule = "every day"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

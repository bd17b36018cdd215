package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLASSIFIER_STRATEGY", "")
	t.Setenv("MIN_TEXT_LENGTH", "")

	cfg := Load()

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.Server.MinTextLength)
	assert.Equal(t, 5000, cfg.Server.MaxTextLength)
	assert.Equal(t, "keyword", cfg.Classifier.Strategy)
	assert.InDelta(t, 0.90, cfg.Classifier.Override.Threshold, 1e-9)
	assert.InDelta(t, 0.85, cfg.Classifier.Override.Base, 1e-9)
	assert.InDelta(t, 0.5, cfg.Classifier.Override.Slope, 1e-9)
	assert.InDelta(t, 0.75, cfg.Classifier.Override.Min, 1e-9)
	assert.InDelta(t, 0.95, cfg.Classifier.Override.Max, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Platforms.HTTPTimeout)
	assert.Len(t, cfg.Server.CORSOrigins, 3)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLASSIFIER_STRATEGY", "Model")
	t.Setenv("OVERRIDE_THRESHOLD", "0.8")
	t.Setenv("EXTRACTOR_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("VALKEY_TLS", "true")
	t.Setenv("RETENTION_DAYS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "model", cfg.Classifier.Strategy)
	assert.InDelta(t, 0.8, cfg.Classifier.Override.Threshold, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Platforms.HTTPTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Cache.ValkeyTLS)
	assert.Equal(t, 0, cfg.Retention.Days)
}

func TestLoadEnvReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ENV_DIR), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ENV_DIR, ".env.test"), []byte("MINDTRACK_TEST_VALUE=from-file\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Cleanup(func() { _ = os.Unsetenv("MINDTRACK_TEST_VALUE") })

	LoadEnv("test")

	assert.Equal(t, "from-file", os.Getenv("MINDTRACK_TEST_VALUE"))
}

func TestAppEnvDefault(t *testing.T) {
	t.Setenv("APP_ENV", "")
	assert.Equal(t, "dev", AppEnv())
}

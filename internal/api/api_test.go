package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spacesedan/mindtrack/internal/analysis"
	"github.com/spacesedan/mindtrack/internal/db"
	"github.com/spacesedan/mindtrack/internal/extractors"
	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/metrics"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/spacesedan/mindtrack/internal/recommend"
	"github.com/spacesedan/mindtrack/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stressedText = "I have a deadline tomorrow and I feel overwhelmed, my boss keeps adding to my workload"
	normalText   = "Had a wonderful afternoon in the park with friends, it was great fun."
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.AnalysisEvent
	err    error
}

func (p *recordingPublisher) Driver() string { return "recording" }

func (p *recordingPublisher) Publish(_ context.Context, event models.AnalysisEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() {}

type stubExtractor struct {
	result *models.ExtractionResult
	err    error
}

func (s stubExtractor) Extract(context.Context, string) (*models.ExtractionResult, error) {
	return s.result, s.err
}

func (s stubExtractor) Platforms() []models.PlatformStatus { return nil }

type fixture struct {
	router    *gin.Engine
	repo      db.Repository
	publisher *recordingPublisher
}

func newFixture(t *testing.T, extractor URLExtractor) fixture {
	t.Helper()

	lex, err := lexicon.Default()
	require.NoError(t, err)

	repo, err := db.NewSQLiteRepository(filepath.Join(t.TempDir(), "timeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })

	if extractor == nil {
		extractor = extractors.NewService(extractors.Options{})
	}
	publisher := &recordingPublisher{}

	router := NewRouter(Options{
		Analyzer:     analysis.NewAnalyzer(lex, nil, sentiment.DefaultOverrideParams(), recommend.NewService(nil, lex, 0)),
		Extractor:    extractor,
		Repository:   repo,
		Publisher:    publisher,
		ModelVersion: "test-v1",
		CORSOrigins:  []string{"http://localhost:5173"},
	})
	return fixture{router: router, repo: repo, publisher: publisher}
}

func (f fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func textBody(t *testing.T, text string) string {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"text": text})
	require.NoError(t, err)
	return string(raw)
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	for _, path := range []string{"/health", "/api/health"} {
		rec, body := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "MindTrack AI Backend", body["service"])
		assert.Equal(t, "1.0.0", body["version"])
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Endpoint not found", body["error"])

	rec, body = f.do(t, http.MethodGet, "/api/analyze/text", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestAnalyzeTextValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
		code int
		err  string
	}{
		{"no body", "", http.StatusBadRequest, "No data provided"},
		{"not json", "text=hello", http.StatusBadRequest, "No data provided"},
		{"empty object", "{}", http.StatusBadRequest, "No data provided"},
		{"blank text", textBody(t, "   "), http.StatusBadRequest, "Text is required"},
		{"49 characters", textBody(t, strings.Repeat("a", 49)), http.StatusBadRequest, "Please provide at least 50 characters for accurate analysis"},
		{"5001 characters", textBody(t, strings.Repeat("a", 5001)), http.StatusBadRequest, "Text exceeds maximum length of 5000 characters"},
		{"50 characters", textBody(t, strings.Repeat("a", 50)), http.StatusOK, ""},
		{"5000 characters", textBody(t, strings.Repeat("a", 5000)), http.StatusOK, ""},
		{"padding is trimmed", textBody(t, "   "+strings.Repeat("a", 49)+"   "), http.StatusBadRequest, "Please provide at least 50 characters for accurate analysis"},
		{"runes not bytes", textBody(t, strings.Repeat("é", 50)), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.do(t, http.MethodPost, "/api/analyze/text", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			if tt.err != "" {
				assert.Equal(t, tt.err, body["error"])
				assert.Equal(t, false, body["success"])
			}
		})
	}
}

func TestAnalyzeTextEnvelope(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodPost, "/api/analyze/text", textBody(t, stressedText))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.LabelStressed, body["sentiment"])
	assert.Equal(t, 0.8, body["confidence"])
	assert.Equal(t, []any{"Work Stress"}, body["key_concerns"])
	assert.Equal(t, body["categories"], body["detected_emotions"])
	assert.Equal(t, false, body["ai_generated"])
	assert.Equal(t, models.SourceKeyword, body["prediction_source"])
	assert.Equal(t, "AI-powered contextual analysis complete", body["message"])
	assert.Greater(t, body["timestamp"], float64(0))

	suggestions, ok := body["ai_suggestions"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "Prioritize and Delegate", suggestions[0].(map[string]any)["title"])

	rec, body = f.do(t, http.MethodPost, "/api/analyze/text", textBody(t, normalText))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.LabelNormal, body["sentiment"])
	assert.Equal(t, []any{"General wellness"}, body["key_concerns"])
	assert.Equal(t, []any{"calm"}, body["tone_analysis"])

	// The legacy endpoint does not touch the timeline.
	entries, err := f.repo.List(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeURL(t *testing.T) {
	f := newFixture(t, stubExtractor{result: &models.ExtractionResult{
		Platform: "Reddit",
		Content:  "Rough week I cannot sleep",
		Date:     "2023-11-14 22:13:20 UTC",
		Method:   "json_api",
	}})

	rec, body := f.do(t, http.MethodPost, "/api/analyze/url", `{"url":"https://www.reddit.com/r/test/comments/abc123/rough_week/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Reddit", body["platform"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "Rough week I cannot sleep", data["content"])
	assert.Equal(t, "Unknown", data["author"])
	assert.Equal(t, "https://www.reddit.com/r/test/comments/abc123/rough_week/", data["url"])
	assert.Equal(t, "json_api", data["extraction_method"])
}

func TestAnalyzeURLFailures(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodPost, "/api/analyze/url", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No data provided", body["error"])

	rec, body = f.do(t, http.MethodPost, "/api/analyze/url", `{"url":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "URL is required", body["error"])

	rec, body = f.do(t, http.MethodPost, "/api/analyze/url", `{"url":"https://example.com/post/1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unsupported platform or invalid URL format", body["error"])
	assert.Len(t, body["supported_platforms"], len(extractors.SupportedPlatforms()))

	failing := newFixture(t, stubExtractor{err: &extractors.ExtractionError{
		Platform:   "Facebook",
		Message:    "Could not extract Facebook post. Authentication required for most posts.",
		Suggestion: "Set FACEBOOK_ACCESS_TOKEN to access posts.",
	}})
	rec, body = failing.do(t, http.MethodPost, "/api/analyze/url", `{"url":"https://www.facebook.com/page/posts/1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Facebook", body["platform"])
	assert.Equal(t, "Set FACEBOOK_ACCESS_TOKEN to access posts.", body["message"])

	broken := newFixture(t, stubExtractor{err: errors.New("boom")})
	rec, _ = broken.do(t, http.MethodPost, "/api/analyze/url", `{"url":"https://x.com/a/status/1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPlatforms(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodGet, "/api/platforms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	platforms := body["platforms"].(map[string]any)
	available := platforms["available"].([]any)
	pending := platforms["pending"].([]any)
	assert.Len(t, append(available, pending...), len(extractors.SupportedPlatforms()))
	for _, p := range available {
		assert.Equal(t, extractors.StatusActive, p.(map[string]any)["status"])
	}
}

func TestClassifyTextStoresAndPublishes(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodPost, "/api/v1/analyze/text", textBody(t, "  "+stressedText+"  "))
	require.Equal(t, http.StatusOK, rec.Code)

	id, _ := body["analysis_id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, stressedText, body["input_text"])
	assert.Equal(t, models.SourceKeyword, body["prediction_source"])
	_, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
	assert.NoError(t, err)

	prediction := body["prediction"].(map[string]any)
	assert.Equal(t, models.LabelStressed, prediction["emotion_class"])
	assert.Equal(t, float64(1), prediction["label"])
	assert.Equal(t, 0.8, prediction["confidence"])
	assert.Contains(t, prediction["class_probabilities"], models.LabelNormal)

	entries, err := f.repo.List(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "test-v1", entries[0].ModelVersion)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, id, f.publisher.events[0].Entry.ID)
}

func TestClassifyTextValidation(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(t, http.MethodPost, "/api/v1/analyze/text", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Text input is required", body["error"])

	rec, body = f.do(t, http.MethodPost, "/api/v1/analyze/text", textBody(t, "too short"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide at least 50 characters for accurate analysis", body["error"])

	assert.Empty(t, f.publisher.events)
}

func TestClassifyTextIgnoresPublishErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("broker down")

	rec, _ := f.do(t, http.MethodPost, "/api/v1/analyze/text", textBody(t, normalText))
	assert.Equal(t, http.StatusOK, rec.Code)

	entries, err := f.repo.List(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTimelineWindow(t *testing.T) {
	f := newFixture(t, nil)
	now := time.Now().UTC()

	require.NoError(t, f.repo.SaveBatch(context.Background(), []models.TimelineEntry{
		{ID: "old", Text: "old", Label: models.LabelNormal, Confidence: 0.8, CreatedAt: now.AddDate(0, 0, -40)},
		{ID: "recent", Text: "recent", Label: models.LabelStressed, Confidence: 0.6, CreatedAt: now.AddDate(0, 0, -1)},
	}))

	rec, body := f.do(t, http.MethodGet, "/api/v1/timeline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	analyses := body["analyses"].([]any)
	assert.Equal(t, "recent", analyses[0].(map[string]any)["id"])
	assert.Contains(t, body["date_range"], "start")

	_, body = f.do(t, http.MethodGet, "/api/v1/timeline?days=60", "")
	assert.Equal(t, float64(2), body["count"])
	analyses = body["analyses"].([]any)
	assert.Equal(t, "old", analyses[0].(map[string]any)["id"])

	_, body = f.do(t, http.MethodGet, "/api/v1/timeline?days=abc", "")
	assert.Equal(t, float64(1), body["count"])
}

func TestStatsAndClear(t *testing.T) {
	f := newFixture(t, nil)

	_, body := f.do(t, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, float64(0), body["total_analyses"])

	for _, text := range []string{stressedText, normalText, normalText, normalText} {
		rec, _ := f.do(t, http.MethodPost, "/api/v1/analyze/text", textBody(t, text))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	_, body = f.do(t, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, float64(4), body["total_analyses"])
	distribution := body["distribution"].(map[string]any)
	normal := distribution[models.LabelNormal].(map[string]any)
	assert.Equal(t, float64(3), normal["count"])
	assert.Equal(t, float64(75), normal["percentage"])
	assert.Equal(t, 0.8, body["average_confidence"])

	rec, body := f.do(t, http.MethodDelete, "/api/v1/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted 4 entries", body["message"])
	assert.Equal(t, float64(4), body["deleted_count"])

	_, body = f.do(t, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, float64(0), body["total_analyses"])
}

func TestPrometheusMiddlewareCountsRequests(t *testing.T) {
	f := newFixture(t, nil)
	counter := metrics.HttpRequestsTotal.WithLabelValues(http.MethodGet, "/api/health", "200", SERVICE_NAME)
	before := testutil.ToFloat64(counter)

	f.do(t, http.MethodGet, "/api/health", "")
	f.do(t, http.MethodGet, "/api/health", "")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/panic", func(*gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze/text", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

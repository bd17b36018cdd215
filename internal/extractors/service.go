// Package extractors fetches the text of public social media posts.
package extractors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spacesedan/mindtrack/internal/metrics"
	"github.com/spacesedan/mindtrack/internal/models"
)

const (
	StatusActive               = "active"
	StatusPendingConfiguration = "pending_configuration"

	DefaultHTTPTimeout = 10 * time.Second
	cacheKeyPrefix     = "mindtrack:extraction:"
)

type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*models.ExtractionResult, error)
	Status() models.PlatformStatus
}

// Cache is satisfied by clients.ValkeyClient.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Options struct {
	HTTPTimeout time.Duration
	Twitter     TwitterOptions
	Reddit      RedditOptions
	Instagram   InstagramOptions
	Threads     ThreadsOptions
	Facebook    FacebookOptions
}

// Service dispatches a URL to the extractor of its platform.
type Service struct {
	extractors map[Platform]Extractor
	cache      Cache
	cacheTTL   time.Duration
}

func NewService(opts Options) *Service {
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	client := &http.Client{Timeout: timeout}

	return &Service{
		extractors: map[Platform]Extractor{
			Twitter:   NewTwitterExtractor(client, opts.Twitter),
			Reddit:    NewRedditExtractor(client, opts.Reddit),
			Instagram: NewInstagramExtractor(client, opts.Instagram),
			Threads:   NewThreadsExtractor(client, opts.Threads),
			Facebook:  NewFacebookExtractor(client, opts.Facebook),
		},
	}
}

// WithCache stores successful results under the post URL for ttl.
func (s *Service) WithCache(cache Cache, ttl time.Duration) *Service {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// Extract detects the platform of rawURL and returns the post content.
// Every failure other than ErrInvalidURL is an *ExtractionError.
func (s *Service) Extract(ctx context.Context, rawURL string) (result *models.ExtractionResult, err error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrInvalidURL
	}

	platform, ok := DetectPlatform(rawURL)
	if !ok {
		metrics.ExtractionsTotal.WithLabelValues("unknown", "none", "unsupported").Inc()
		return nil, &ExtractionError{
			Unsupported: true,
			Message:     "Unsupported platform or invalid URL format",
			Supported:   SupportedPlatforms(),
		}
	}

	if cached, ok := s.cached(ctx, rawURL); ok {
		metrics.ExtractionCacheHits.Inc()
		return cached, nil
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ExtractionService] Extractor panicked",
				slog.String("platform", string(platform)),
				slog.Any("panic", r))
			result, err = nil, &ExtractionError{
				Platform: platform.DisplayName(),
				Message:  fmt.Sprintf("Failed to extract %s content: %v", platform.DisplayName(), r),
			}
		}
		s.record(platform, result, err, time.Since(start))
	}()

	result, err = s.extractors[platform].Extract(ctx, rawURL)
	if err != nil {
		return nil, wrapError(platform, err)
	}
	if result == nil {
		return nil, &ExtractionError{
			Platform: platform.DisplayName(),
			Message:  fmt.Sprintf("No content returned from %s", platform.DisplayName()),
		}
	}

	s.store(ctx, rawURL, result)
	return result, nil
}

func wrapError(platform Platform, err error) error {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr
	}
	return &ExtractionError{
		Platform: platform.DisplayName(),
		Message:  fmt.Sprintf("Failed to extract %s content: %v", platform.DisplayName(), err),
		Err:      err,
	}
}

func (s *Service) record(platform Platform, result *models.ExtractionResult, err error, elapsed time.Duration) {
	if err != nil || result == nil {
		if err == nil {
			err = errors.New("empty result")
		}
		metrics.ExtractionsTotal.WithLabelValues(string(platform), "none", "error").Inc()
		slog.Warn("[ExtractionService] Extraction failed",
			slog.String("platform", string(platform)),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed))
		return
	}
	metrics.ExtractionsTotal.WithLabelValues(string(platform), result.Method, "success").Inc()
	slog.Info("[ExtractionService] Extracted post",
		slog.String("platform", string(platform)),
		slog.String("method", result.Method),
		slog.Int("content_length", len(result.Content)),
		slog.Duration("elapsed", elapsed))
}

func (s *Service) cached(ctx context.Context, rawURL string) (*models.ExtractionResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, cacheKeyPrefix+rawURL)
	if err != nil {
		slog.Warn("[ExtractionService] Cache lookup failed",
			slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var result models.ExtractionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Warn("[ExtractionService] Dropping unreadable cache entry",
			slog.String("error", err.Error()))
		return nil, false
	}
	return &result, true
}

func (s *Service) store(ctx context.Context, rawURL string, result *models.ExtractionResult) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+rawURL, raw, s.cacheTTL); err != nil {
		slog.Warn("[ExtractionService] Cache write failed",
			slog.String("error", err.Error()))
	}
}

// Platforms reports every platform with its configuration status.
func (s *Service) Platforms() []models.PlatformStatus {
	out := make([]models.PlatformStatus, 0, len(platformOrder))
	for _, p := range platformOrder {
		out = append(out, s.extractors[p].Status())
	}
	return out
}

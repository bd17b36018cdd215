// Package recommend produces coping suggestions for an analysed text,
// either from a hosted LLM or from the static lexicon tables.
package recommend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/models"
)

var ErrNotConfigured = errors.New("recommendation generator not configured")

const (
	Temperature = 0.7
	MaxTokens   = 2000
)

// Generator sends a prompt to a hosted model and returns the raw reply.
type Generator interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type Request struct {
	Text       string
	Sentiment  string
	Confidence float64
	Context    models.EmotionContext
}

type Recommendations struct {
	Suggestions      []models.Suggestion
	ImmediateActions []string
	Resources        []models.SupportResource
	AIGenerated      bool
	Provider         string
}

type Service struct {
	generator Generator
	fallback  *Fallback
	timeout   time.Duration
}

// NewService builds the recommender. generator may be nil, in which case
// only the static tables are used.
func NewService(generator Generator, lex *lexicon.Lexicon, timeout time.Duration) *Service {
	return &Service{
		generator: generator,
		fallback:  NewFallback(lex),
		timeout:   timeout,
	}
}

func (s *Service) Recommend(ctx context.Context, req Request) Recommendations {
	resources := s.fallback.Resources(req.Context)

	if out, err := s.generate(ctx, req); err == nil {
		out.Resources = resources
		return out
	} else if !errors.Is(err, ErrNotConfigured) {
		slog.Warn("[Recommender] Falling back to static recommendations",
			slog.String("error", err.Error()))
	}

	return Recommendations{
		Suggestions:      s.fallback.Suggestions(req.Context),
		ImmediateActions: s.fallback.ImmediateActions(req.Context),
		Resources:        resources,
		AIGenerated:      false,
		Provider:         "static",
	}
}

func (s *Service) generate(ctx context.Context, req Request) (Recommendations, error) {
	if s.generator == nil {
		return Recommendations{}, ErrNotConfigured
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	systemPrompt, userPrompt := BuildPrompt(req)
	start := time.Now()
	raw, err := s.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return Recommendations{}, err
	}

	reply, err := ParseReply(raw)
	if err != nil {
		slog.Warn("[Recommender] Unusable reply",
			slog.String("provider", s.generator.Name()),
			slog.String("error", err.Error()),
			getPreview(raw))
		return Recommendations{}, err
	}

	slog.Info("[Recommender] Generated recommendations",
		slog.String("provider", s.generator.Name()),
		slog.Int("suggestions", len(reply.Suggestions)),
		slog.Duration("elapsed", time.Since(start)))

	return Recommendations{
		Suggestions:      reply.Suggestions,
		ImmediateActions: reply.ImmediateActions,
		AIGenerated:      true,
		Provider:         s.generator.Name(),
	}, nil
}

func getPreview(raw string) slog.Attr {
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return slog.String("raw_response", raw)
}

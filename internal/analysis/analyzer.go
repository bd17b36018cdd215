// Package analysis combines classification, tagging and recommendations
// into a single analysis of a piece of text.
package analysis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/metrics"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/spacesedan/mindtrack/internal/recommend"
	"github.com/spacesedan/mindtrack/internal/sentiment"
)

type Analyzer struct {
	classifier  sentiment.Classifier
	keyword     *sentiment.KeywordClassifier
	guard       *sentiment.Guard
	tagger      *Tagger
	polarity    *sentiment.Polarity
	recommender *recommend.Service
	now         func() time.Time
}

// NewAnalyzer wires the analysis pipeline. classifier may be nil, in which
// case the keyword heuristic is the only strategy. recommender may be nil
// for callers that only need classification.
func NewAnalyzer(lex *lexicon.Lexicon, classifier sentiment.Classifier, params sentiment.OverrideParams, recommender *recommend.Service) *Analyzer {
	return &Analyzer{
		classifier:  classifier,
		keyword:     sentiment.NewKeywordClassifier(lex),
		guard:       sentiment.NewGuard(lex, params),
		tagger:      NewTagger(lex),
		polarity:    sentiment.NewPolarity(),
		recommender: recommender,
		now:         time.Now,
	}
}

// Predict classifies text with the configured strategy, applies the
// false-positive override to model verdicts, and falls back to the keyword
// heuristic when the strategy fails.
func (a *Analyzer) Predict(ctx context.Context, text string) models.Prediction {
	if a.classifier != nil {
		pred, err := a.classifier.Classify(ctx, text)
		if err == nil {
			pred, _ = a.guard.Apply(pred, text)
			return pred
		}
		slog.Warn("[Analyzer] Classifier failed, using keyword analysis",
			slog.String("classifier", a.classifier.Name()),
			slog.String("error", err.Error()))
	}

	// The keyword classifier never fails.
	pred, _ := a.keyword.Classify(ctx, text)
	return pred
}

// Evaluate returns an analysis without recommendations.
func (a *Analyzer) Evaluate(ctx context.Context, text string) models.AnalysisResult {
	start := a.now()
	text = strings.TrimSpace(text)

	pred := a.Predict(ctx, text)
	polarity, _ := a.polarity.Score(text)
	metrics.AnalysesTotal.WithLabelValues(pred.Label, pred.Source).Inc()

	return models.AnalysisResult{
		ID:               uuid.NewString(),
		Text:             text,
		Sentiment:        pred.Label,
		Confidence:       pred.Confidence,
		Probabilities:    pred.Probabilities,
		PredictionSource: pred.Source,
		Polarity:         polarity,
		Context:          a.tagger.Tag(text, pred.Label),
		Suggestions:      []models.Suggestion{},
		ImmediateActions: []string{},
		Resources:        []models.SupportResource{},
		ProcessingTime:   a.now().Sub(start),
		CreatedAt:        start.UTC(),
	}
}

// Analyze evaluates text and attaches suggestions, immediate actions and
// support resources.
func (a *Analyzer) Analyze(ctx context.Context, text string) models.AnalysisResult {
	result := a.Evaluate(ctx, text)
	if a.recommender == nil {
		return result
	}

	recs := a.recommender.Recommend(ctx, recommend.Request{
		Text:       result.Text,
		Sentiment:  result.Sentiment,
		Confidence: result.Confidence,
		Context:    result.Context,
	})
	result.Suggestions = recs.Suggestions
	result.ImmediateActions = recs.ImmediateActions
	result.Resources = recs.Resources
	result.AIGenerated = recs.AIGenerated
	result.ProcessingTime = a.now().Sub(result.CreatedAt)
	metrics.RecommendationsTotal.WithLabelValues(recs.Provider).Inc()

	slog.Info("[Analyzer] Analysis complete",
		slog.String("analysis_id", result.ID),
		slog.String("sentiment", result.Sentiment),
		slog.String("primary_emotion", result.Context.PrimaryEmotion),
		slog.String("provider", recs.Provider),
		slog.Duration("elapsed", result.ProcessingTime))

	return result
}

package sentiment

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return lex
}

func TestKeywordClassifierNormal(t *testing.T) {
	k := NewKeywordClassifier(testLexicon(t))

	pred, err := k.Classify(context.Background(), "Had a lovely walk in the park with my dog this afternoon.")
	require.NoError(t, err)

	assert.Equal(t, models.LabelNormal, pred.Label)
	assert.InDelta(t, 0.80, pred.Confidence, 1e-9)
	assert.InDelta(t, 1.0, pred.Probabilities[models.LabelNormal], 1e-9)
	assert.InDelta(t, 0.0, pred.Probabilities[models.LabelStressed], 1e-9)
	assert.Equal(t, models.SourceKeyword, pred.Source)
}

func TestKeywordClassifierDeadlineOverwhelmed(t *testing.T) {
	k := NewKeywordClassifier(testLexicon(t))
	text := strings.Repeat("The deadline is tomorrow and I feel overwhelmed. ", 2)

	pred, err := k.Classify(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, models.LabelStressed, pred.Label)
	assert.Greater(t, pred.Confidence, 0.5)
	assert.InDelta(t, 0.8, pred.Confidence, 1e-9)
	assert.InDelta(t, 0.2, pred.Probabilities[models.LabelNormal], 1e-9)
	assert.ElementsMatch(t, []string{"deadline", "overwhelmed"}, pred.Matches)
}

func TestKeywordClassifierWeightsAndWhitespace(t *testing.T) {
	k := NewKeywordClassifier(testLexicon(t))

	score, _ := k.Score("I feel   HOPELESS\n\tand alone")
	assert.Equal(t, 4, score)

	// "depressed" matches both "depress" and "depressed".
	score, _ = k.Score("so depressed")
	assert.Equal(t, 4, score)
}

func TestKeywordConfidenceMonotonicAndCapped(t *testing.T) {
	prev := 0.0
	for score := 1; score <= 20; score++ {
		c := KeywordConfidence(score)
		assert.GreaterOrEqual(t, c, prev, "score %d", score)
		assert.LessOrEqual(t, c, 0.98)
		prev = c
	}
	assert.InDelta(t, 0.65, KeywordConfidence(1), 1e-9)
	assert.InDelta(t, 0.98, KeywordConfidence(4), 1e-9)
}

func TestGuardOverridesFalsePositive(t *testing.T) {
	g := NewGuard(testLexicon(t), DefaultOverrideParams())
	pred := models.Prediction{
		Label:         models.LabelStressed,
		Confidence:    0.95,
		Probabilities: binaryProbabilities(0.95),
		Source:        models.SourceModel,
	}

	out, fired := g.Apply(pred, "The MBA program fees went up again this semester.")

	require.True(t, fired)
	assert.Equal(t, models.LabelNormal, out.Label)
	assert.InDelta(t, 0.875, out.Confidence, 1e-9)
	assert.GreaterOrEqual(t, out.Confidence, 0.75)
	assert.LessOrEqual(t, out.Confidence, 0.95)
	assert.InDelta(t, 0.875, out.Probabilities[models.LabelNormal], 1e-9)
	assert.Equal(t, models.SourceModelValidated, out.Source)
}

func TestGuardPassesThrough(t *testing.T) {
	g := NewGuard(testLexicon(t), DefaultOverrideParams())
	pred := models.Prediction{Label: models.LabelStressed, Confidence: 0.95, Source: models.SourceModel}

	out, fired := g.Apply(pred, "I feel hopeless about everything")
	assert.False(t, fired)
	assert.Equal(t, pred, out)

	atThreshold := models.Prediction{Label: models.LabelStressed, Confidence: 0.90, Source: models.SourceModel}
	_, fired = g.Apply(atThreshold, "fees went up")
	assert.False(t, fired)

	keyword := models.Prediction{Label: models.LabelStressed, Confidence: 0.98, Source: models.SourceKeyword}
	_, fired = g.Apply(keyword, "fees went up")
	assert.False(t, fired)
}

func TestGuardUsesConfiguredParams(t *testing.T) {
	params := OverrideParams{Threshold: 0.8, Base: 0.7, Slope: 1, Min: 0.6, Max: 0.72}
	g := NewGuard(testLexicon(t), params)

	out, fired := g.Apply(models.Prediction{Label: models.LabelStressed, Confidence: 0.99, Source: models.SourceRemoteModel}, "fees went up")

	require.True(t, fired)
	assert.InDelta(t, 0.72, out.Confidence, 1e-9)
	assert.Equal(t, models.SourceRemoteValidated, out.Source)
}

func TestGuardComparesUnroundedScore(t *testing.T) {
	pred, err := PredictionFromScores([]LabelScore{{Label: "LABEL_1", Score: 0.9004}}, models.SourceModel)
	require.NoError(t, err)
	assert.Equal(t, 0.9, pred.Confidence)
	assert.InDelta(t, 0.9004, pred.RawConfidence, 1e-9)

	out, fired := NewGuard(testLexicon(t), DefaultOverrideParams()).Apply(pred, "fees went up")
	require.True(t, fired)
	assert.Equal(t, models.LabelNormal, out.Label)
	assert.InDelta(t, 0.85, out.Confidence, 1e-9)
}

func TestPredictionFromScores(t *testing.T) {
	pred, err := PredictionFromScores([]LabelScore{{Label: "LABEL_1", Score: 0.9}}, models.SourceModel)
	require.NoError(t, err)
	assert.Equal(t, models.LabelStressed, pred.Label)
	assert.InDelta(t, 0.9, pred.Confidence, 1e-9)
	assert.InDelta(t, 0.1, pred.Probabilities[models.LabelNormal], 1e-9)

	pred, err = PredictionFromScores([]LabelScore{{Label: "Normal", Score: 0.7}, {Label: "Stressed", Score: 0.3}}, models.SourceModel)
	require.NoError(t, err)
	assert.Equal(t, models.LabelNormal, pred.Label)
	assert.InDelta(t, 0.7, pred.Confidence, 1e-9)

	_, err = PredictionFromScores([]LabelScore{{Label: "positive", Score: 0.7}}, models.SourceModel)
	assert.Error(t, err)

	_, err = PredictionFromScores(nil, models.SourceModel)
	assert.Error(t, err)
}

type fakeInferencer struct {
	resp models.InferenceResponse
	err  error
}

func (f fakeInferencer) Classify(context.Context, string) (models.InferenceResponse, error) {
	return f.resp, f.err
}

func TestRemoteClassifier(t *testing.T) {
	r := NewRemoteClassifier(fakeInferencer{resp: models.InferenceResponse{
		Label:         "Stressed",
		Confidence:    0.93,
		Probabilities: map[string]float64{"Normal": 0.07, "Stressed": 0.93},
	}})

	pred, err := r.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, models.LabelStressed, pred.Label)
	assert.InDelta(t, 0.93, pred.Confidence, 1e-9)
	assert.Equal(t, models.SourceRemoteModel, pred.Source)

	failing := NewRemoteClassifier(fakeInferencer{err: errors.New("boom")})
	_, err = failing.Classify(context.Background(), "text")
	assert.ErrorContains(t, err, "boom")
}

func TestRemoteClassifierSkipsWhenUnhealthy(t *testing.T) {
	healthy := &atomic.Bool{}
	r := NewRemoteClassifier(fakeInferencer{resp: models.InferenceResponse{Label: "Normal", Confidence: 0.9}}).WithHealth(healthy)

	_, err := r.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, ErrClassifierUnhealthy)

	healthy.Store(true)
	pred, err := r.Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, models.LabelNormal, pred.Label)
}

func TestModelClassifierMissingModel(t *testing.T) {
	m := NewModelClassifier(filepath.Join(t.TempDir(), "missing"))

	_, err := m.Classify(context.Background(), "some text")
	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.False(t, m.Loaded())
}

func TestNormalizeLabel(t *testing.T) {
	for in, want := range map[string]string{
		"Stressed":           models.LabelStressed,
		"LABEL_1":            models.LabelStressed,
		"Stressed/Depressed": models.LabelStressed,
		"normal":             models.LabelNormal,
		"LABEL_0":            models.LabelNormal,
	} {
		got, ok := NormalizeLabel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := NormalizeLabel("neutral")
	assert.False(t, ok)
}

func TestConvertMarkdownToText(t *testing.T) {
	got := ConvertMarkdownToText("**Hello** [link](https://x.com) world https://y.com")
	assert.Equal(t, "Hello link world", got)
}

func TestPolarityScore(t *testing.T) {
	p := NewPolarity()

	score, label := p.Score("I love this, it is wonderful and great")
	assert.Greater(t, score, 0.2)
	assert.Equal(t, "positive", label)

	score, label = p.Score("This is terrible and I hate it")
	assert.Less(t, score, -0.2)
	assert.Equal(t, "negative", label)
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTimelineEntry(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	result := AnalysisResult{
		ID:               "a1",
		Text:             "some text",
		Sentiment:        LabelStressed,
		Confidence:       0.8,
		Probabilities:    map[string]float64{LabelNormal: 0.2, LabelStressed: 0.8},
		PredictionSource: SourceKeyword,
		Context:          EmotionContext{Emotions: []string{"stress"}},
		CreatedAt:        created,
	}

	entry := NewTimelineEntry(result, "distilbert-v1")
	assert.Equal(t, "a1", entry.ID)
	assert.Equal(t, LabelStressed, entry.Label)
	assert.Equal(t, []string{"stress"}, entry.Emotions)
	assert.Equal(t, "distilbert-v1", entry.ModelVersion)
	assert.Equal(t, created, entry.CreatedAt)
}

func TestBuildStats(t *testing.T) {
	empty := BuildStats(nil)
	assert.Equal(t, 0, empty.TotalAnalyses)
	assert.Equal(t, LabelStats{}, empty.Distribution[LabelNormal])
	assert.Equal(t, LabelStats{}, empty.Distribution[LabelStressed])
	assert.Zero(t, empty.AverageConfidence)

	stats := BuildStats([]TimelineEntry{
		{Label: LabelNormal, Confidence: 0.8},
		{Label: LabelStressed, Confidence: 0.65},
		{Label: LabelStressed, Confidence: 0.95},
	})
	assert.Equal(t, 3, stats.TotalAnalyses)
	assert.Equal(t, LabelStats{Count: 1, Percentage: 33.33}, stats.Distribution[LabelNormal])
	assert.Equal(t, LabelStats{Count: 2, Percentage: 66.67}, stats.Distribution[LabelStressed])
	assert.Equal(t, 0.8, stats.AverageConfidence)
}

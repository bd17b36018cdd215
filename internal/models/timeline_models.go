package models

import "time"

// TimelineEntry is the persisted form of an analysis.
type TimelineEntry struct {
	ID               string             `json:"id" bson:"_id" dynamodbav:"id"`
	Text             string             `json:"input_text" bson:"input_text" dynamodbav:"input_text"`
	Label            string             `json:"label" bson:"label" dynamodbav:"label"`
	Confidence       float64            `json:"confidence" bson:"confidence" dynamodbav:"confidence"`
	Probabilities    map[string]float64 `json:"class_probabilities" bson:"class_probabilities" dynamodbav:"class_probabilities"`
	Emotions         []string           `json:"detected_emotions" bson:"detected_emotions" dynamodbav:"detected_emotions,omitempty"`
	PredictionSource string             `json:"prediction_source" bson:"prediction_source" dynamodbav:"prediction_source"`
	ModelVersion     string             `json:"model_version" bson:"model_version" dynamodbav:"model_version"`
	CreatedAt        time.Time          `json:"timestamp" bson:"created_at" dynamodbav:"-"`
}

type LabelStats struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type TimelineStats struct {
	TotalAnalyses     int                   `json:"total_analyses"`
	Distribution      map[string]LabelStats `json:"distribution"`
	AverageConfidence float64               `json:"average_confidence"`
}

// AnalysisEvent is published for every persisted analysis.
type AnalysisEvent struct {
	Entry     TimelineEntry `json:"entry"`
	Source    string        `json:"source"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewTimelineEntry(result AnalysisResult, modelVersion string) TimelineEntry {
	return TimelineEntry{
		ID:               result.ID,
		Text:             result.Text,
		Label:            result.Sentiment,
		Confidence:       result.Confidence,
		Probabilities:    result.Probabilities,
		Emotions:         result.Context.Emotions,
		PredictionSource: result.PredictionSource,
		ModelVersion:     modelVersion,
		CreatedAt:        result.CreatedAt,
	}
}

// BuildStats computes the label distribution over a set of entries.
func BuildStats(entries []TimelineEntry) TimelineStats {
	stats := TimelineStats{
		TotalAnalyses: len(entries),
		Distribution: map[string]LabelStats{
			LabelNormal:   {},
			LabelStressed: {},
		},
	}
	if len(entries) == 0 {
		return stats
	}

	var confidenceSum float64
	counts := map[string]int{LabelNormal: 0, LabelStressed: 0}
	for _, e := range entries {
		counts[e.Label]++
		confidenceSum += e.Confidence
	}
	for label, count := range counts {
		stats.Distribution[label] = LabelStats{
			Count:      count,
			Percentage: round2(float64(count) / float64(len(entries)) * 100),
		}
	}
	stats.AverageConfidence = round2(confidenceSum / float64(len(entries)))
	return stats
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

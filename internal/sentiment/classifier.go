package sentiment

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/spacesedan/mindtrack/internal/models"
)

var (
	ErrModelNotLoaded = errors.New("sentiment model not loaded")
	ErrEmptyText      = errors.New("text is empty")
)

// Classifier labels a piece of text as Normal or Stressed/Depressed.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (models.Prediction, error)
}

// NormalizeLabel maps the label vocabularies of the exported model and the
// inference service onto the two public labels.
func NormalizeLabel(label string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "normal", "label_0", "0":
		return models.LabelNormal, true
	case "stressed", "stressed/depressed", "depressed", "label_1", "1":
		return models.LabelStressed, true
	}
	return "", false
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// binaryProbabilities builds the two-class probability map from the
// probability of the stressed class.
func binaryProbabilities(stressed float64) map[string]float64 {
	return map[string]float64{
		models.LabelNormal:   round3(1 - stressed),
		models.LabelStressed: round3(stressed),
	}
}

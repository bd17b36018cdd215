package sentiment

import (
	"log/slog"
	"strings"

	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/models"
)

// OverrideParams controls the false-positive override. A stressed verdict
// above Threshold on text without any mental-health keyword is flipped to
// Normal with confidence clamp(Base + (c-Threshold)*Slope, Min, Max).
type OverrideParams struct {
	Threshold float64
	Base      float64
	Slope     float64
	Min       float64
	Max       float64
}

func DefaultOverrideParams() OverrideParams {
	return OverrideParams{
		Threshold: 0.90,
		Base:      0.85,
		Slope:     0.5,
		Min:       0.75,
		Max:       0.95,
	}
}

// Guard applies the false-positive override to model predictions.
type Guard struct {
	lex    *lexicon.Lexicon
	params OverrideParams
}

func NewGuard(lex *lexicon.Lexicon, params OverrideParams) *Guard {
	return &Guard{lex: lex, params: params}
}

// Apply returns the possibly overridden prediction and whether the override
// fired. Keyword predictions are never touched.
func (g *Guard) Apply(pred models.Prediction, text string) (models.Prediction, bool) {
	if pred.Source == models.SourceKeyword {
		return pred, false
	}
	score := pred.Confidence
	if pred.RawConfidence > 0 {
		score = pred.RawConfidence
	}
	if pred.Label != models.LabelStressed || score <= g.params.Threshold {
		return pred, false
	}
	if g.lex.HasMentalHealthKeyword(strings.ToLower(text)) {
		return pred, false
	}

	confidence := round3(clamp(g.params.Base+(score-g.params.Threshold)*g.params.Slope, g.params.Min, g.params.Max))

	slog.Debug("[Guard] Overriding high-confidence stressed verdict",
		slog.Float64("model_confidence", score),
		slog.Float64("confidence", confidence))

	return models.Prediction{
		Label:         models.LabelNormal,
		Confidence:    confidence,
		Probabilities: binaryProbabilities(1 - confidence),
		Source:        validatedSource(pred.Source),
		RawConfidence: confidence,
	}, true
}

func validatedSource(source string) string {
	switch source {
	case models.SourceRemoteModel:
		return models.SourceRemoteValidated
	default:
		return models.SourceModelValidated
	}
}

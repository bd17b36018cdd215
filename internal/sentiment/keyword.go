package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/models"
)

const (
	keywordBaseConfidence   = 0.5
	keywordStepConfidence   = 0.15
	keywordMaxConfidence    = 0.98
	keywordNormalConfidence = 0.80
)

// KeywordClassifier scores text against weighted keyword groups. Each
// keyword counts at most once.
type KeywordClassifier struct {
	groups []lexicon.KeywordGroup
}

func NewKeywordClassifier(lex *lexicon.Lexicon) *KeywordClassifier {
	return &KeywordClassifier{groups: lex.ClassifierKeywords}
}

func (k *KeywordClassifier) Name() string { return "keyword" }

func (k *KeywordClassifier) Classify(_ context.Context, text string) (models.Prediction, error) {
	score, matches := k.Score(text)
	if score == 0 {
		return models.Prediction{
			Label:      models.LabelNormal,
			Confidence: keywordNormalConfidence,
			Probabilities: map[string]float64{
				models.LabelNormal:   1.0,
				models.LabelStressed: 0.0,
			},
			Source: models.SourceKeyword,
		}, nil
	}

	confidence := round3(KeywordConfidence(score))
	return models.Prediction{
		Label:         models.LabelStressed,
		Confidence:    confidence,
		Probabilities: binaryProbabilities(confidence),
		Source:        models.SourceKeyword,
		Matches:       matches,
	}, nil
}

// Score returns the weighted keyword score and the keywords that matched.
func (k *KeywordClassifier) Score(text string) (int, []string) {
	lowered := strings.ToLower(NormalizeWhitespace(text))

	score := 0
	var matches []string
	for _, group := range k.groups {
		for _, kw := range group.Keywords {
			if strings.Contains(lowered, kw) {
				score += group.Weight
				matches = append(matches, kw)
			}
		}
	}
	return score, matches
}

// KeywordConfidence is the confidence of a positive keyword verdict.
// It saturates at 0.98.
func KeywordConfidence(score int) float64 {
	return math.Min(keywordBaseConfidence+keywordStepConfidence*float64(score), keywordMaxConfidence)
}

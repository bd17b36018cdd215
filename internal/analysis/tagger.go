package analysis

import (
	"slices"
	"strings"

	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/models"
)

const (
	suicidalEmotion = "suicidal"
	desperateTone   = "desperate"
)

// Tagger derives emotion, tone and concern tags from text.
type Tagger struct {
	lex *lexicon.Lexicon
}

func NewTagger(lex *lexicon.Lexicon) *Tagger {
	return &Tagger{lex: lex}
}

// Tag inspects text for the given sentiment label. Detected emotions keep
// table order and the primary emotion is the one with the most keyword
// hits, the earlier table entry winning ties.
func (t *Tagger) Tag(text, label string) models.EmotionContext {
	lowered := strings.ToLower(text)

	ctx := models.EmotionContext{
		Emotions: []string{},
		Tone:     []string{},
		Concerns: []string{},
	}

	best := 0
	for _, emotion := range t.lex.Emotions {
		hits := emotion.Hits(lowered)
		if hits == 0 {
			continue
		}
		ctx.Emotions = append(ctx.Emotions, emotion.Name)
		if hits > best {
			best = hits
			ctx.PrimaryEmotion = emotion.Name
		}
	}
	if len(ctx.Emotions) == 0 {
		ctx.PrimaryEmotion = lexicon.NeutralEmotion
		if label == models.LabelNormal {
			ctx.Emotions = []string{"positive"}
		} else {
			ctx.Emotions = []string{"stress"}
		}
	}

	for _, tone := range t.lex.Tones {
		if tone.Matches(lowered) {
			ctx.Tone = append(ctx.Tone, tone.Name)
		}
	}

	ctx.MentalHealthHit = t.lex.HasMentalHealthKeyword(lowered)
	if label == models.LabelStressed || ctx.MentalHealthHit {
		for _, concern := range t.lex.Concerns {
			if concern.Matches(lowered) {
				ctx.Concerns = append(ctx.Concerns, concern.Label())
			}
		}
	}

	ctx.Crisis = ctx.PrimaryEmotion == suicidalEmotion || slices.Contains(ctx.Tone, desperateTone)
	return ctx
}

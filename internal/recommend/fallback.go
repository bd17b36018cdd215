package recommend

import (
	"github.com/spacesedan/mindtrack/internal/lexicon"
	"github.com/spacesedan/mindtrack/internal/models"
)

// Fallback answers from the static lexicon tables.
type Fallback struct {
	lex *lexicon.Lexicon
}

func NewFallback(lex *lexicon.Lexicon) *Fallback {
	return &Fallback{lex: lex}
}

// Suggestions collects the items of every matching rule in table order,
// capped at the lexicon limit.
func (f *Fallback) Suggestions(ctx models.EmotionContext) []models.Suggestion {
	out := []models.Suggestion{}
	for _, rule := range f.lex.Suggestions {
		if rule.When.Matches(ctx) {
			out = append(out, rule.Items...)
		}
	}
	if len(out) > f.lex.MaxSuggestions {
		out = out[:f.lex.MaxSuggestions]
	}
	return out
}

// ImmediateActions returns the items of the first matching rule.
func (f *Fallback) ImmediateActions(ctx models.EmotionContext) []string {
	for _, rule := range f.lex.ImmediateActions {
		if rule.When.Matches(ctx) {
			return append([]string{}, rule.Items...)
		}
	}
	return []string{}
}

// Resources collects matching support resources. The general helpline is
// added whenever an emotion was detected or any other resource applies.
func (f *Fallback) Resources(ctx models.EmotionContext) []models.SupportResource {
	out := []models.SupportResource{}
	for _, rule := range f.lex.Resources {
		if rule.When.Matches(ctx) {
			out = append(out, rule.Items...)
		}
	}
	if f.lex.GeneralResource.Name != "" && (ctx.PrimaryEmotion != lexicon.NeutralEmotion || len(out) > 0) {
		out = append(out, f.lex.GeneralResource)
	}
	if len(out) > f.lex.MaxResources {
		out = out[:f.lex.MaxResources]
	}
	return out
}

// Package lexicon holds the keyword tables and canned recommendation
// tables that drive keyword classification, context tagging and the
// static fallback recommendations. The tables are data: a default set is
// embedded and a YAML file can replace it at startup.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spacesedan/mindtrack/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

const NeutralEmotion = "neutral"

type Category struct {
	Name     string   `yaml:"name"`
	Display  string   `yaml:"display"`
	Keywords []string `yaml:"keywords"`
}

// Hits counts how many of the category keywords occur in text.
// text must already be lowercased.
func (c Category) Hits(text string) int {
	hits := 0
	for _, kw := range c.Keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

func (c Category) Matches(text string) bool {
	for _, kw := range c.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (c Category) Label() string {
	if c.Display != "" {
		return c.Display
	}
	return titleCase(strings.ReplaceAll(c.Name, "_", " "))
}

type KeywordGroup struct {
	Name     string   `yaml:"name"`
	Weight   int      `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// Rule selects table rows from an emotion context. Empty fields do not
// constrain; a rule with no fields set never matches.
type Rule struct {
	Crisis       bool     `yaml:"crisis"`
	Emotions     []string `yaml:"emotions"`
	Concerns     []string `yaml:"concerns"`
	NeutralTones []string `yaml:"neutral_tones"`
}

func (r Rule) Matches(ctx models.EmotionContext) bool {
	switch {
	case r.Crisis:
		return ctx.Crisis
	case len(r.Emotions) > 0:
		return contains(r.Emotions, ctx.PrimaryEmotion)
	case len(r.Concerns) > 0:
		return containsAny(r.Concerns, ctx.Concerns)
	case len(r.NeutralTones) > 0:
		return ctx.PrimaryEmotion == NeutralEmotion && containsAny(r.NeutralTones, ctx.Tone)
	}
	return false
}

type SuggestionRule struct {
	When  Rule                `yaml:"when"`
	Items []models.Suggestion `yaml:"items"`
}

type ActionRule struct {
	When  Rule     `yaml:"when"`
	Items []string `yaml:"items"`
}

type ResourceRule struct {
	When  Rule                     `yaml:"when"`
	Items []models.SupportResource `yaml:"items"`
}

type Lexicon struct {
	MaxSuggestions       int                    `yaml:"max_suggestions"`
	MaxResources         int                    `yaml:"max_resources"`
	MentalHealthKeywords []string               `yaml:"mental_health_keywords"`
	ClassifierKeywords   []KeywordGroup         `yaml:"classifier_keywords"`
	Emotions             []Category             `yaml:"emotions"`
	Tones                []Category             `yaml:"tones"`
	Concerns             []Category             `yaml:"concerns"`
	Suggestions          []SuggestionRule       `yaml:"suggestions"`
	ImmediateActions     []ActionRule           `yaml:"immediate_actions"`
	Resources            []ResourceRule         `yaml:"resources"`
	GeneralResource      models.SupportResource `yaml:"general_resource"`
}

// Default returns the embedded tables.
func Default() (*Lexicon, error) {
	return Parse(defaultYAML)
}

// Load reads the tables from path, or the embedded defaults when path is
// empty.
func Load(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	lex, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	slog.Info("[Lexicon] Loaded tables from file",
		slog.String("path", path),
		slog.Int("emotions", len(lex.Emotions)),
		slog.Int("concerns", len(lex.Concerns)))
	return lex, nil
}

func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	lex.normalize()
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func (l *Lexicon) Validate() error {
	var errs []error
	if len(l.MentalHealthKeywords) == 0 {
		errs = append(errs, errors.New("mental_health_keywords is empty"))
	}
	if len(l.ClassifierKeywords) == 0 {
		errs = append(errs, errors.New("classifier_keywords is empty"))
	}
	if len(l.Emotions) == 0 {
		errs = append(errs, errors.New("emotions is empty"))
	}
	for _, group := range l.ClassifierKeywords {
		if group.Weight <= 0 {
			errs = append(errs, fmt.Errorf("classifier group %q needs a positive weight", group.Name))
		}
	}
	for _, c := range append(append(append([]Category{}, l.Emotions...), l.Tones...), l.Concerns...) {
		if c.Name == "" {
			errs = append(errs, errors.New("category without a name"))
		}
	}
	return errors.Join(errs...)
}

// HasMentalHealthKeyword reports whether lowered contains any of the
// mental-health keywords.
func (l *Lexicon) HasMentalHealthKeyword(lowered string) bool {
	for _, kw := range l.MentalHealthKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func (l *Lexicon) normalize() {
	if l.MaxSuggestions <= 0 {
		l.MaxSuggestions = 5
	}
	if l.MaxResources <= 0 {
		l.MaxResources = 5
	}
	l.MentalHealthKeywords = lowerAll(l.MentalHealthKeywords)
	for i := range l.ClassifierKeywords {
		l.ClassifierKeywords[i].Keywords = lowerAll(l.ClassifierKeywords[i].Keywords)
	}
	for _, cats := range [][]Category{l.Emotions, l.Tones, l.Concerns} {
		for i := range cats {
			cats[i].Keywords = lowerAll(cats[i].Keywords)
		}
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsAny(list []string, values []string) bool {
	for _, v := range values {
		if contains(list, v) {
			return true
		}
	}
	return false
}

package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// Polarity scores text with VADER. The compound score is attached to every
// analysis as a second opinion next to the classifier label.
type Polarity struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewPolarity() *Polarity {
	return &Polarity{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound score in [-1, 1] and a coarse label.
func (p *Polarity) Score(text string) (float64, string) {
	score := p.analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound

	var label string
	if score >= 0.20 {
		label = "positive"
	} else if score <= -0.20 {
		label = "negative"
	} else {
		label = "neutral"
	}

	return score, label
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // keep the link text
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders markdown and strips the resulting markup,
// links and extra whitespace.
func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input),
		blackfriday.WithNoExtensions(),
		blackfriday.WithRenderer(plainRenderer()))
	plainText := html.UnescapeString(tagPattern.ReplaceAllString(string(output), " "))

	return NormalizeWhitespace(RemoveLinks(plainText))
}

// plainRenderer is the HTML renderer without smartypants, so quotes and
// dashes survive as typed.
func plainRenderer() blackfriday.Renderer {
	return blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{})
}

// NormalizeWhitespace collapses runs of whitespace into single spaces.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
